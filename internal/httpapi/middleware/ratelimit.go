package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mayvqt/StatusBot/internal/ratelimit"
)

// RateLimit limits requests per remote IP using one fixed-window limiter per
// client. Example: RateLimit(120, 60) => 120 req/min, burst 60 per window.
func RateLimit(reqPerMin int, burst int) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		// disabled
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = reqPerMin
	}
	window := time.Duration(float64(burst) / float64(reqPerMin) * float64(time.Minute))

	var (
		mu       sync.Mutex
		limiters = make(map[string]*ratelimit.Limiter)
	)
	limiterFor := func(key string) *ratelimit.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l := limiters[key]
		if l == nil {
			l = ratelimit.New(burst, window)
			limiters[key] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(clientIP(r)).TryConsume() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// honor X-Forwarded-For if behind a proxy
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
