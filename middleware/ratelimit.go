package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client IP.
type RateLimiter struct {
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	requests int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		requests: requests,
		window:   window,
		now:      time.Now,
	}
}

// GetLimiter returns the limiter for ip, creating it on first use.
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.limiters[ip]
	if !exists {
		perSecond := float64(rl.requests) / rl.window.Seconds()
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), rl.requests)}
		rl.limiters[ip] = cl
	}
	cl.lastSeen = rl.now()
	return cl.limiter
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.GetLimiter(clientIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop and strips the port.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Prune drops limiters idle for longer than maxIdle and returns how many.
func (rl *RateLimiter) Prune(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	removed := 0
	for ip, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
			removed++
		}
	}
	return removed
}

// CleanupOldLimiters prunes idle limiters every interval until stop is closed.
func (rl *RateLimiter) CleanupOldLimiters(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Prune(interval)
			case <-stop:
				return
			}
		}
	}()
}
