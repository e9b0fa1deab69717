package middleware

import (
	"net/http"

	"taskvault/backend/internal/ratelimit"
	"taskvault/backend/internal/server/httperr"
)

// RateLimitAuth returns middleware that applies the sliding-window limiter to
// authentication endpoints, keyed by client address. Denied requests get a
// 429 and never reach the handler.
func RateLimitAuth(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ratelimit.AuthKey(ClientIPFrom(r.Context()))
			if !limiter.Admit(key) {
				httperr.Write(w, httperr.TooManyRequests("Too many authentication attempts. Please try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
