package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fireops/middleware"
	"fireops/models"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Clock is the time source handlers stamp writes with.
type Clock func() time.Time

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps a service error onto a status code and logs it.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := middleware.LoggerFrom(r.Context())

	var verr *models.ValidationError
	var perr *models.PartialFailureError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Reason,
			"field": verr.Field,
		})
	case errors.Is(err, models.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &perr):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("operation partially applied")
		writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"error":     "Operation partially applied",
			"completed": perr.Completed,
			"failed":    perr.Failed,
		})
	case errors.Is(err, models.ErrStoreUnavailable):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("store unavailable")
		writeError(w, "Storage is temporarily unavailable", http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// degraded logs a failed list read; the caller then answers with an empty list.
func degraded(r *http.Request, what string, err error) {
	middleware.LoggerFrom(r.Context()).Warn().Err(err).Str("list", what).Msg("list unavailable, returning empty")
}

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
