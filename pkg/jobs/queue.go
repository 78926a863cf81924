package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a single job. Returning an error schedules a retry.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches jobs to a fixed pool of goroutines. It is in-memory
// only; pending jobs are lost on process exit, which is acceptable for the
// maintenance scans it backs.
type Queue struct {
	name       string
	handler    Handler
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	pending chan Job
	workers int

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    sync.WaitGroup
}

// NewQueue builds a queue around the handler. Zero config fields fall back
// to one worker, a small buffer, three retries and a one second delay.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = workers * 4
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		name:       name,
		handler:    handler,
		workers:    workers,
		maxRetries: retries,
		retryDelay: delay,
		logger:     log,
		pending:    make(chan Job, buffer),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.done.Add(q.workers)
	for i := 0; i < q.workers; i++ {
		go q.run()
	}
	q.running = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop signals the workers and blocks until they return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.done.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Enqueue submits a job. It fails if the queue was never started or has
// been stopped.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	running, ctx := q.running, q.ctx
	q.mu.Unlock()

	if !running {
		return fmt.Errorf("queue %s is not running", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.pending <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s shut down: %w", q.name, ctx.Err())
	}
}

func (q *Queue) run() {
	defer q.done.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.pending:
			if err := q.handler(q.ctx, job); err != nil {
				q.retry(job, err)
			}
		}
	}
}

func (q *Queue) retry(job Job, cause error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Sugar().Errorw("job dropped after retries",
			"queue", q.name, "job_id", job.ID, "type", job.Type, "error", cause)
		return
	}
	q.logger.Sugar().Warnw("job failed, will retry",
		"queue", q.name, "job_id", job.ID, "attempt", job.Attempt, "error", cause)

	go func() {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.logger.Sugar().Errorw("requeue failed",
					"queue", q.name, "job_id", job.ID, "error", err)
			}
		}
	}()
}
