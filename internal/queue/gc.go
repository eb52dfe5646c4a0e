package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// GarbageCollector periodically deletes dead-lettered jobs that have been
// sitting in the DLQ longer than the retention window.
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger) *GarbageCollector {
	return &GarbageCollector{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Start purges once per interval until ctx is cancelled. It returns the
// context error so callers can distinguish shutdown from a crash.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := gc.purge(ctx); err != nil {
				gc.logger.Error("dlq_gc_failed", zap.Error(err))
			}
		}
	}
}

func (gc *GarbageCollector) purge(ctx context.Context) error {
	if gc.purger == nil {
		return nil
	}
	// A purge walks the whole DLQ, so bound it independently of interval.
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	removed, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return fmt.Errorf("purge dead letters: %w", err)
	}
	if removed > 0 {
		gc.logger.Info("dlq_gc_purged",
			zap.Int("removed", removed),
			zap.Duration("retention", gc.retention))
	}
	return nil
}
