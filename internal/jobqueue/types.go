// Package jobqueue provides an in-process job queue with configurable
// exponential backoff retries, used to run annotation fetches without
// blocking the caller.
package jobqueue

import (
	"context"
	"time"

	"github.com/vireolabs/machinevision/internal/errors"
)

// Errors returned by queue operations.
var (
	ErrNilAction    = errors.NewStd("cannot enqueue nil action")
	ErrQueueStopped = errors.NewStd("job queue has been stopped")
	ErrQueueFull    = errors.NewStd("job queue is full")
)

// RetryConfig holds the retry behavior for enqueued actions.
type RetryConfig struct {
	Enabled      bool
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Action is a unit of work the queue can execute. Implementations must
// honor context cancellation.
type Action interface {
	Execute(ctx context.Context) error
	GetDescription() string
}

// JobStatus is the lifecycle state of a queued job.
type JobStatus int

const (
	JobStatusPending JobStatus = iota
	JobStatusRunning
	JobStatusRetrying
	JobStatusCompleted
	JobStatusFailed
)

func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "pending"
	case JobStatusRunning:
		return "running"
	case JobStatusRetrying:
		return "retrying"
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
