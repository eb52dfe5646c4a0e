package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		configuredKey string
		headers       map[string]string
		wantStatus    int
	}{
		{
			name:          "valid x-api-key",
			configuredKey: "secret-key",
			headers:       map[string]string{"X-API-Key": "secret-key"},
			wantStatus:    http.StatusOK,
		},
		{
			name:          "valid bearer",
			configuredKey: "secret-key",
			headers:       map[string]string{"Authorization": "Bearer secret-key"},
			wantStatus:    http.StatusOK,
		},
		{
			name:          "wrong key",
			configuredKey: "secret-key",
			headers:       map[string]string{"X-API-Key": "wrong"},
			wantStatus:    http.StatusUnauthorized,
		},
		{
			name:          "no key presented",
			configuredKey: "secret-key",
			headers:       nil,
			wantStatus:    http.StatusUnauthorized,
		},
		{
			name:          "unconfigured service",
			configuredKey: "",
			headers:       map[string]string{"X-API-Key": "anything"},
			wantStatus:    http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := APIKey(tt.configuredKey, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/imail/send", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
