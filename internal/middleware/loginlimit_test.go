package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/ratelimit"
	"go.uber.org/zap"
)

type errorLimiter struct{}

func (errorLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis unreachable")
}

func TestLoginRateLimit(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewMemoryLimiter(2, time.Minute)
	handler := LoginRateLimit(limiter, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/auth/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("198.51.100.9"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
	if code := send("198.51.100.9"); code != http.StatusTooManyRequests {
		t.Errorf("over-limit request: status = %d, want 429", code)
	}
	if code := send("198.51.100.10"); code != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", code)
	}
}

func TestLoginRateLimit_FailsOpenOnLimiterError(t *testing.T) {
	t.Parallel()

	handler := LoginRateLimit(errorLimiter{}, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/auth/login", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when the limiter backend errors", w.Code)
	}
}
