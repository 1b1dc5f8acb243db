package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var handled int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "j", Type: "report.created"}))
	}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&handled) == 5 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("broker down")
		}
		return nil
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, time.Second, 5*time.Millisecond)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "j"}))
	assert.Error(t, q.TryEnqueue(Job{ID: "j"}))
}

func TestQueueTryEnqueueFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	require.NoError(t, q.TryEnqueue(Job{ID: "1"}))
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.TryEnqueue(Job{ID: "2"}))
	assert.ErrorIs(t, q.TryEnqueue(Job{ID: "3"}), ErrQueueFull)
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var handled int32
	q := NewQueue("drain", func(ctx context.Context, job Job) error {
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 10})
	q.Start(context.Background())

	for i := 0; i < 10; i++ {
		require.NoError(t, q.TryEnqueue(Job{ID: "j"}))
	}
	q.Stop()

	assert.EqualValues(t, 10, atomic.LoadInt32(&handled))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "late"}), ErrQueueClosed)
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	gaveUp := make(chan Job, 1)
	q := NewQueue("giveup", func(ctx context.Context, job Job) error {
		return errors.New("always")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond, OnGiveUp: func(j Job, err error) { gaveUp <- j }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "doomed"}))
	select {
	case j := <-gaveUp:
		assert.Equal(t, "doomed", j.ID)
		assert.Equal(t, 3, j.Attempt)
	case <-time.After(time.Second):
		t.Fatal("job was never abandoned")
	}
}

func TestQueueBackoffDoubles(t *testing.T) {
	q := NewQueue("backoff", func(ctx context.Context, job Job) error { return nil }, QueueConfig{RetryDelay: 10 * time.Millisecond})
	assert.Equal(t, 10*time.Millisecond, q.backoff(1))
	assert.Equal(t, 20*time.Millisecond, q.backoff(2))
	assert.Equal(t, 40*time.Millisecond, q.backoff(3))
}
