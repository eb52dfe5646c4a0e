package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter answers whether one more attempt is allowed for a key. Counting is
// fixed-window: the first attempt for a key opens a window, every attempt
// inside it increments the counter, and the counter resets when the window
// elapses. An attempt that reaches the limit is itself rejected.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// memoryWindow is one key's live counting window
type memoryWindow struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. Suitable for a single
// instance; multi-instance deployments should use the Redis limiter so all
// replicas share one counter.
type MemoryLimiter struct {
	limit   int
	window  time.Duration
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter allowing limit attempts per window
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

// WithClock overrides the limiter clock. Exposed for tests.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

// Allow records an attempt for key and reports whether it is within the limit
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		l.windows[key] = &memoryWindow{count: 1, resetAt: now.Add(l.window)}
		return l.limit >= 1, nil
	}

	w.count++
	return w.count <= l.limit, nil
}

// Sweep removes expired windows. Callers run it periodically so idle keys do
// not accumulate.
func (l *MemoryLimiter) Sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// StartSweeper runs Sweep every interval until ctx is cancelled
func (l *MemoryLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}
