package jobqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vireolabs/machinevision/internal/logging"
)

// Job is one enqueued action with its retry bookkeeping.
type Job struct {
	ID        string
	Action    Action
	Attempts  int
	Status    JobStatus
	LastError error
	CreatedAt time.Time
}

// Stats is a point-in-time snapshot of queue activity.
type Stats struct {
	Enqueued  int
	Completed int
	Failed    int
	Retries   int
	Pending   int
}

// Queue executes actions on background workers, retrying failures with
// exponential backoff up to the configured attempt budget.
type Queue struct {
	jobs    chan *Job
	retry   RetryConfig
	workers int

	mu      sync.Mutex
	stats   Stats
	stopped bool

	cancel context.CancelFunc
	group  *errgroup.Group
	log    *slog.Logger
}

// New creates a queue with the given capacity, worker count and retry
// policy. Call Start before enqueueing.
func New(capacity, workers int, retry RetryConfig) *Queue {
	if capacity <= 0 {
		capacity = 100
	}
	if workers <= 0 {
		workers = 1
	}
	log := logging.ForService("jobqueue")
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		jobs:    make(chan *Job, capacity),
		retry:   retry,
		workers: workers,
		log:     log,
	}
}

// Start launches the worker goroutines. Workers drain until Stop is
// called or the parent context is cancelled.
func (q *Queue) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		q.group.Go(func() error {
			q.work(ctx)
			return nil
		})
	}
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()

	if q.cancel != nil {
		q.cancel()
	}
	if q.group != nil {
		_ = q.group.Wait()
	}
}

// Enqueue adds an action to the queue and returns its job ID. Returns
// ErrQueueFull when the queue is at capacity rather than blocking.
func (q *Queue) Enqueue(action Action) (string, error) {
	if action == nil {
		return "", ErrNilAction
	}

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return "", ErrQueueStopped
	}
	q.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		Action:    action,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}

	select {
	case q.jobs <- job:
		q.mu.Lock()
		q.stats.Enqueued++
		q.stats.Pending++
		q.mu.Unlock()
		q.log.Debug("job enqueued", "job_id", job.ID, "action", action.GetDescription())
		return job.ID, nil
	default:
		return "", ErrQueueFull
	}
}

// GetStats returns a snapshot of queue statistics.
func (q *Queue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

func (q *Queue) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.run(ctx, job)
		}
	}
}

func (q *Queue) run(ctx context.Context, job *Job) {
	defer func() {
		q.mu.Lock()
		q.stats.Pending--
		q.mu.Unlock()
	}()

	maxAttempts := 1
	if q.retry.Enabled {
		maxAttempts = q.retry.MaxRetries + 1
	}

	for {
		job.Attempts++
		job.Status = JobStatusRunning

		err := job.Action.Execute(ctx)
		if err == nil {
			job.Status = JobStatusCompleted
			q.mu.Lock()
			q.stats.Completed++
			q.mu.Unlock()
			q.log.Debug("job completed",
				"job_id", job.ID,
				"action", job.Action.GetDescription(),
				"attempts", job.Attempts)
			return
		}

		job.LastError = err
		if job.Attempts >= maxAttempts || ctx.Err() != nil {
			job.Status = JobStatusFailed
			q.mu.Lock()
			q.stats.Failed++
			q.mu.Unlock()
			q.log.Error("job failed",
				"job_id", job.ID,
				"action", job.Action.GetDescription(),
				"attempts", job.Attempts,
				"error", err)
			return
		}

		job.Status = JobStatusRetrying
		q.mu.Lock()
		q.stats.Retries++
		q.mu.Unlock()

		delay := q.backoffDelay(job.Attempts)
		q.log.Warn("job retrying",
			"job_id", job.ID,
			"action", job.Action.GetDescription(),
			"attempt", job.Attempts,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			job.Status = JobStatusFailed
			q.mu.Lock()
			q.stats.Failed++
			q.mu.Unlock()
			return
		case <-time.After(delay):
		}
	}
}

// backoffDelay computes the delay before the given retry attempt,
// doubling by the configured multiplier and capped at MaxDelay.
func (q *Queue) backoffDelay(attempt int) time.Duration {
	delay := q.retry.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	multiplier := q.retry.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * multiplier)
		if q.retry.MaxDelay > 0 && delay > q.retry.MaxDelay {
			return q.retry.MaxDelay
		}
	}
	if q.retry.MaxDelay > 0 && delay > q.retry.MaxDelay {
		delay = q.retry.MaxDelay
	}
	return delay
}
