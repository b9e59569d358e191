package chi

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware rejects requests above the limiter's rate with 429.
// A nil limiter disables limiting. onReject, if set, is called per rejection.
func RateLimitMiddleware(limiter *rate.Limiter, onReject func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow() {
				if onReject != nil {
					onReject()
				}
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewLimiter returns a token bucket for rps and burst, or nil when rps is 0.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}
