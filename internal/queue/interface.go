package queue

import (
	"context"
	"time"
)

// JobQueue is a durable work queue for asynchronous jobs.
type JobQueue interface {
	// Enqueue publishes a job. The job is persisted before Enqueue returns.
	Enqueue(ctx context.Context, job *Job) error

	// Consume starts delivering jobs. prefetchCount bounds the number of
	// unsettled messages held by this consumer at once. The message channel
	// closes when ctx is cancelled or the broker connection drops; transport
	// failures surface on the error channel.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// HealthCheck reports whether the broker connection is usable.
	HealthCheck(ctx context.Context) error

	// Close tears down the broker connection.
	Close() error
}

// DLQPurger deletes dead-lettered messages older than a retention period
// and reports how many were removed.
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
