package request

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/bakiel/jasper-portal-api/internal/models"
)

func TestClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "", "1.2.3.4"},
		{"x-forwarded-for first", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8 "}, "", "1.2.3.4"},
		{"x-real-ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "", "9.9.9.9"},
		{"remote addr", nil, "10.0.0.1:12345", "10.0.0.1:12345"},
		{"xff over xri", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"}, "", "1.2.3.4"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			got := ClientIP(r)
			if got != tt.wantIP {
				t.Errorf("ClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestSessionFromContext(t *testing.T) {
	t.Parallel()
	s := &models.SessionPayload{SubjectID: "u1", Email: "a@b.com"}
	ctx := WithSession(context.Background(), s)
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	got := SessionFromContext(r)
	if got != s {
		t.Errorf("SessionFromContext() = %p, want %p", got, s)
	}
	if got != nil && got.Email != "a@b.com" {
		t.Errorf("SessionFromContext().Email = %q, want a@b.com", got.Email)
	}
}

func TestSessionFromContext_NoSession(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest("GET", "/", nil)
	if got := SessionFromContext(r); got != nil {
		t.Errorf("SessionFromContext() = %+v, want nil", got)
	}
}

func TestSessionFromContext_WrongType(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), SessionContextKey(), "not a session")
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	if got := SessionFromContext(r); got != nil {
		t.Errorf("SessionFromContext() = %+v, want nil when wrong type", got)
	}
}
