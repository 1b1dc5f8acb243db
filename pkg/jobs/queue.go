package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
	ErrQueueFull = errors.New("queue full")
	// ErrQueueClosed is returned once Stop has been called or before Start.
	ErrQueueClosed = errors.New("queue closed")
)

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig sizes the worker pool. Retries back off exponentially from
// RetryDelay. On Stop, buffered jobs get DrainTimeout to finish.
type QueueConfig struct {
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
	DrainTimeout time.Duration
	// OnGiveUp is called for jobs that exhausted their retries.
	OnGiveUp func(Job, error)
	Logger   *zap.Logger
}

// Queue dispatches jobs to a fixed pool of goroutines so producers never
// block on slow consumers such as a message broker.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs chan Job
	wg   sync.WaitGroup

	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	open     bool
	stopping chan struct{}
	retries  sync.WaitGroup
}

// NewQueue builds a queue. Zero config fields fall back to one worker, a
// buffer of four jobs per worker, three retries and a one second delay.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(zap.String("queue", name)),
		jobs:     make(chan Job, cfg.BufferSize),
		stopping: make(chan struct{}),
	}
}

// Start launches the workers. Calls after the first are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.open = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop refuses new jobs, lets workers drain what is buffered within
// DrainTimeout and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.open {
		q.mu.Unlock()
		return
	}
	q.open = false
	close(q.stopping)
	q.mu.Unlock()

	// waiting retries give up once stopping is closed
	q.retries.Wait()
	close(q.jobs)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(q.cfg.DrainTimeout):
		q.logger.Warn("queue drain timed out", zap.Int("pending", len(q.jobs)))
		q.cancel()
		<-done
	}
	q.cancel()
	q.logger.Info("queue stopped")
}

// Enqueue blocks until the job is buffered or the queue stops.
func (q *Queue) Enqueue(job Job) error {
	return q.push(job, true)
}

// TryEnqueue buffers the job without blocking; a full buffer yields ErrQueueFull.
func (q *Queue) TryEnqueue(job Job) error {
	return q.push(job, false)
}

// Pending reports the number of buffered jobs.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) push(job Job, block bool) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.open {
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	if !block {
		select {
		case q.jobs <- job:
			return nil
		default:
			return ErrQueueFull
		}
	}
	select {
	case q.jobs <- job:
		return nil
	case <-q.ctx.Done():
		return fmt.Errorf("queue %s: %w", q.name, q.ctx.Err())
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		if q.ctx.Err() != nil {
			continue
		}
		if err := q.handler(q.ctx, job); err != nil {
			q.handleFailure(job, err)
		}
	}
}

func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt && delay < time.Minute; i++ {
		delay *= 2
	}
	return delay
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err)}

	q.mu.RLock()
	open := q.open
	if open && job.Attempt <= q.cfg.MaxRetries {
		q.retries.Add(1)
	}
	q.mu.RUnlock()

	if !open || job.Attempt > q.cfg.MaxRetries {
		q.logger.Error("job abandoned", fields...)
		if q.cfg.OnGiveUp != nil {
			q.cfg.OnGiveUp(job, err)
		}
		return
	}
	q.logger.Warn("job failed, retrying", fields...)

	go func(j Job) {
		defer q.retries.Done()
		timer := time.NewTimer(q.backoff(j.Attempt))
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-q.stopping:
			q.logger.Warn("retry dropped on shutdown", zap.String("job_id", j.ID))
			if q.cfg.OnGiveUp != nil {
				q.cfg.OnGiveUp(j, ErrQueueClosed)
			}
		case <-timer.C:
			if err := q.TryEnqueue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}
