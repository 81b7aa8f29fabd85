package jobqueue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vireolabs/machinevision/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingAction struct {
	executions atomic.Int32
	failUntil  int32
}

func (a *countingAction) Execute(ctx context.Context) error {
	n := a.executions.Add(1)
	if n <= a.failUntil {
		return errors.NewStd("transient failure")
	}
	return nil
}

func (a *countingAction) GetDescription() string {
	return "counting action"
}

func waitForStats(t *testing.T, q *Queue, done func(Stats) bool) Stats {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		stats := q.GetStats()
		if done(stats) {
			return stats
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for queue, stats: %+v", stats)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestQueueExecutesJobs(t *testing.T) {
	t.Parallel()

	q := New(10, 2, RetryConfig{})
	q.Start(context.Background())
	t.Cleanup(q.Stop)

	action := &countingAction{}
	id, err := q.Enqueue(action)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	stats := waitForStats(t, q, func(s Stats) bool { return s.Completed == 1 })
	assert.Equal(t, 1, stats.Enqueued)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, int32(1), action.executions.Load())
}

func TestQueueRetriesWithBackoff(t *testing.T) {
	t.Parallel()

	q := New(10, 1, RetryConfig{
		Enabled:      true,
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2,
	})
	q.Start(context.Background())
	t.Cleanup(q.Stop)

	action := &countingAction{failUntil: 2}
	_, err := q.Enqueue(action)
	require.NoError(t, err)

	stats := waitForStats(t, q, func(s Stats) bool { return s.Completed == 1 })
	assert.Equal(t, 2, stats.Retries)
	assert.Equal(t, int32(3), action.executions.Load())
}

func TestQueueFailsAfterRetryBudget(t *testing.T) {
	t.Parallel()

	q := New(10, 1, RetryConfig{
		Enabled:      true,
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
	})
	q.Start(context.Background())
	t.Cleanup(q.Stop)

	action := &countingAction{failUntil: 100}
	_, err := q.Enqueue(action)
	require.NoError(t, err)

	stats := waitForStats(t, q, func(s Stats) bool { return s.Failed == 1 })
	assert.Zero(t, stats.Completed)
	assert.Equal(t, int32(3), action.executions.Load(), "initial attempt plus two retries")
}

func TestQueueRejectsNilAction(t *testing.T) {
	t.Parallel()

	q := New(10, 1, RetryConfig{})
	_, err := q.Enqueue(nil)
	assert.ErrorIs(t, err, ErrNilAction)
}

func TestQueueFull(t *testing.T) {
	t.Parallel()

	// Never started, so nothing drains the channel.
	q := New(1, 1, RetryConfig{})

	_, err := q.Enqueue(&countingAction{})
	require.NoError(t, err)
	_, err = q.Enqueue(&countingAction{})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueStoppedRejectsEnqueue(t *testing.T) {
	t.Parallel()

	q := New(10, 1, RetryConfig{})
	q.Start(context.Background())
	q.Stop()

	_, err := q.Enqueue(&countingAction{})
	assert.ErrorIs(t, err, ErrQueueStopped)
}

func TestBackoffDelayCapped(t *testing.T) {
	t.Parallel()

	q := New(1, 1, RetryConfig{
		Enabled:      true,
		MaxRetries:   10,
		InitialDelay: time.Second,
		MaxDelay:     4 * time.Second,
		Multiplier:   2,
	})

	assert.Equal(t, time.Second, q.backoffDelay(1))
	assert.Equal(t, 2*time.Second, q.backoffDelay(2))
	assert.Equal(t, 4*time.Second, q.backoffDelay(3))
	assert.Equal(t, 4*time.Second, q.backoffDelay(8))
}
