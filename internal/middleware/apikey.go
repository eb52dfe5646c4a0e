package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// APIKey guards service endpoints with a static key. The key is accepted
// either as X-API-Key or as a Bearer token. An empty configured key means the
// feature is unconfigured and every request gets a 500, not a bypass.
func APIKey(configuredKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if configuredKey == "" {
				respondDetailJSON(w, http.StatusInternalServerError, "Email service is not configured", logger)
				return
			}

			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				authHeader := r.Header.Get("Authorization")
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					presented = parts[1]
				}
			}

			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(configuredKey)) != 1 {
				respondDetailJSON(w, http.StatusUnauthorized, "Invalid API key", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondDetailJSON(w http.ResponseWriter, status int, detail string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": detail}); err != nil {
		logger.Error("failed_to_encode_response", zap.Error(err))
	}
}
