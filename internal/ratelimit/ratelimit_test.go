package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_AllowsUpToLimit(t *testing.T) {
	t.Parallel()

	limiter := NewMemoryLimiter(20, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		ok, err := limiter.Allow(ctx, "203.0.113.7")
		if err != nil {
			t.Fatalf("Allow() attempt %d error = %v", i, err)
		}
		if !ok {
			t.Fatalf("Allow() attempt %d = false, want true", i)
		}
	}

	ok, err := limiter.Allow(ctx, "203.0.113.7")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if ok {
		t.Error("attempt 21 allowed, want rejected")
	}
}

func TestMemoryLimiter_WindowRollover(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(2, time.Minute).WithClock(func() time.Time { return current })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow(ctx, "key"); !ok {
			t.Fatalf("attempt %d rejected inside window", i+1)
		}
	}
	if ok, _ := limiter.Allow(ctx, "key"); ok {
		t.Fatal("attempt over limit allowed")
	}

	// The clock advancing past the window opens a fresh one
	current = current.Add(time.Minute + time.Second)
	ok, err := limiter.Allow(ctx, "key")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !ok {
		t.Error("attempt after window rollover rejected, want allowed")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	limiter := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatal("first key first attempt rejected")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); ok {
		t.Fatal("first key second attempt allowed")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.2"); !ok {
		t.Error("second key first attempt rejected, keys should not share budget")
	}
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(5, time.Minute).WithClock(func() time.Time { return current })
	ctx := context.Background()

	limiter.Allow(ctx, "a")
	limiter.Allow(ctx, "b")

	current = current.Add(2 * time.Minute)
	limiter.Sweep()

	limiter.mu.Lock()
	remaining := len(limiter.windows)
	limiter.mu.Unlock()
	if remaining != 0 {
		t.Errorf("Sweep() left %d expired windows, want 0", remaining)
	}
}

func TestMemoryLimiter_ZeroLimitRejectsEverything(t *testing.T) {
	t.Parallel()

	limiter := NewMemoryLimiter(0, time.Minute)
	if ok, _ := limiter.Allow(context.Background(), "key"); ok {
		t.Error("limit 0 allowed an attempt")
	}
}
