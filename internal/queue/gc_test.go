package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubPurger struct {
	removed      int
	err          error
	gotRetention time.Duration
	calls        int
}

func (s *stubPurger) PurgeOlderThan(_ context.Context, retention time.Duration) (int, error) {
	s.calls++
	s.gotRetention = retention
	return s.removed, s.err
}

func TestGarbageCollectorPurge(t *testing.T) {
	t.Parallel()

	t.Run("passes retention through", func(t *testing.T) {
		t.Parallel()
		purger := &stubPurger{removed: 3}
		gc := NewGarbageCollector(purger, time.Minute, 24*time.Hour, zap.NewNop())
		if err := gc.purge(context.Background()); err != nil {
			t.Fatalf("purge: %v", err)
		}
		if purger.gotRetention != 24*time.Hour {
			t.Errorf("retention = %v, want 24h", purger.gotRetention)
		}
	})

	t.Run("nil purger is a no-op", func(t *testing.T) {
		t.Parallel()
		gc := NewGarbageCollector(nil, time.Minute, time.Hour, zap.NewNop())
		if err := gc.purge(context.Background()); err != nil {
			t.Errorf("purge with nil purger: %v", err)
		}
	})

	t.Run("wraps purger errors", func(t *testing.T) {
		t.Parallel()
		purger := &stubPurger{err: errors.New("channel closed")}
		gc := NewGarbageCollector(purger, time.Minute, time.Hour, zap.NewNop())
		if err := gc.purge(context.Background()); err == nil {
			t.Error("expected error")
		}
	})
}

func TestGarbageCollectorStartReturnsOnCancel(t *testing.T) {
	t.Parallel()
	gc := NewGarbageCollector(&stubPurger{}, time.Hour, time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gc.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start = %v, want context.Canceled", err)
	}
}
