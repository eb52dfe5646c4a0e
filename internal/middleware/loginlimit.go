package middleware

import (
	"net/http"

	"github.com/bakiel/jasper-portal-api/internal/ratelimit"
	"github.com/bakiel/jasper-portal-api/internal/request"
	"go.uber.org/zap"
)

// LoginRateLimit guards authentication endpoints with a fixed-window limiter
// keyed by client IP. Limiter backend errors fail open so a Redis outage does
// not lock everyone out; the audit middleware still sees the 429s that do
// happen.
func LoginRateLimit(limiter ratelimit.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := request.ClientIP(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("login_rate_limiter_error", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				w.Header().Set("Retry-After", "60")
				respondDetailJSON(w, http.StatusTooManyRequests, "Too many requests, please try again later", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
