package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/bakiel/jasper-portal-api/internal/request"
	"github.com/bakiel/jasper-portal-api/internal/session"
	"go.uber.org/zap"
)

func tokenFor(t *testing.T, codec *session.Codec, expiresAt time.Time) string {
	t.Helper()
	payload := &models.SessionPayload{
		SubjectID: "u1",
		Email:     "a@b.com",
		IssuedAt:  time.Now().UnixMilli(),
		ExpiresAt: expiresAt.UnixMilli(),
	}
	token, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return token
}

func TestAuth(t *testing.T) {
	t.Parallel()

	codec := session.NewCodec("guard-test-secret")

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantReason string
	}{
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
			wantReason: AuthReasonMissing,
		},
		{
			name:       "not bearer",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantReason: AuthReasonMissing,
		},
		{
			name:       "bearer with empty token",
			authHeader: "Bearer ",
			wantStatus: http.StatusUnauthorized,
			wantReason: AuthReasonMissing,
		},
		{
			name:       "garbage token",
			authHeader: "Bearer not-base64!!",
			wantStatus: http.StatusUnauthorized,
			wantReason: AuthReasonMalformed,
		},
		{
			name:       "expired token",
			authHeader: "Bearer " + tokenFor(t, codec, time.Now().Add(-time.Minute)),
			wantStatus: http.StatusUnauthorized,
			wantReason: AuthReasonExpired,
		},
		{
			name:       "token expiring in one second",
			authHeader: "Bearer " + tokenFor(t, codec, time.Now().Add(time.Second)),
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid token",
			authHeader: "Bearer " + tokenFor(t, codec, time.Now().Add(time.Hour)),
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotSession *models.SessionPayload
			handler := Auth(codec, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotSession = request.SessionFromContext(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin/auth/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusOK {
				if gotSession == nil {
					t.Fatal("session not attached to context")
				}
				if gotSession.SubjectID != "u1" {
					t.Errorf("session SubjectID = %q, want u1", gotSession.SubjectID)
				}
				return
			}

			var body unauthorizedResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", body.Reason, tt.wantReason)
			}
			if body.Detail == "" {
				t.Error("detail is empty")
			}
		})
	}
}

func TestAuth_RejectsTamperedToken(t *testing.T) {
	t.Parallel()

	codec := session.NewCodec("guard-test-secret")
	otherCodec := session.NewCodec("different-secret")

	handler := Auth(codec, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, otherCodec, time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for token signed with a different secret", w.Code)
	}
}
