package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/request"
	"github.com/bakiel/jasper-portal-api/internal/session"
	"go.uber.org/zap"
)

// Bearer-guard rejection reasons
const (
	AuthReasonMissing   = "missing"
	AuthReasonMalformed = "malformed"
	AuthReasonExpired   = "expired"
)

// unauthorizedResponse is the 401 body emitted by the guard
type unauthorizedResponse struct {
	Detail string `json:"detail"`
	Reason string `json:"reason"`
}

// Auth creates the bearer-token guard. It requires an Authorization: Bearer
// header, decodes it with the session codec, and rejects expired payloads.
// On success the session payload is attached to the request context.
func Auth(codec *session.Codec, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondUnauthorized(w, "Missing Authorization header", AuthReasonMissing, logger)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				respondUnauthorized(w, "Invalid Authorization header format", AuthReasonMissing, logger)
				return
			}

			payload, err := codec.Decode(parts[1])
			if err != nil {
				respondUnauthorized(w, "Invalid token", AuthReasonMalformed, logger)
				return
			}

			if payload.Expired(time.Now()) {
				respondUnauthorized(w, "Token has expired", AuthReasonExpired, logger)
				return
			}

			ctx := request.WithSession(r.Context(), payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondUnauthorized(w http.ResponseWriter, detail, reason string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	resp := unauthorizedResponse{Detail: detail, Reason: reason}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed_to_encode_unauthorized_response", zap.Error(err))
	}
}
