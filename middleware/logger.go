package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RequestLogger attaches a request-scoped logger carrying a request id and
// logs one line per request once it completes.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLog := logger.With().Str("request_id", requestID).Logger()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(reqLog.WithContext(r.Context())))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			event := reqLog.Info()
			switch {
			case rec.status >= 500:
				event = reqLog.Error()
			case rec.status >= 400:
				event = reqLog.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(start)).
				Str("remote", clientIP(r)).
				Msg("request")
		})
	}
}

// LoggerFrom returns the request logger, or a disabled logger outside a request.
func LoggerFrom(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// Recover turns handler panics into 500 responses.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				LoggerFrom(r.Context()).Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				writeError(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
