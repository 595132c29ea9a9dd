package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull   = errors.New("notification queue is full")
	ErrQueueClosed = errors.New("notification queue is closed")
)

type job struct {
	ctx context.Context
	env Envelope
}

type Worker struct {
	ID         int
	WorkerPool chan chan job
	JobChannel chan job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case j := <-w.JobChannel:
				w.Logger.Debug("worker processing notification", "worker_id", w.ID, "to", j.env.To, "kind", j.env.Kind)
				processFunc(j)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type QueueConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Queue hands envelopes to a pool of workers that forward them to next.
// Send never blocks: a full buffer is reported as ErrQueueFull.
type Queue struct {
	next        Sender
	logger      *slog.Logger
	sendTimeout time.Duration

	jobQueue   chan job
	workerPool chan chan job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewQueue(next Sender, cfg QueueConfig, logger *slog.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}

	q := &Queue{
		next:        next,
		logger:      logger,
		sendTimeout: sendTimeout,
		jobQueue:    make(chan job, queueSize),
		workerPool:  make(chan chan job, maxWorkers),
		maxWorkers:  maxWorkers,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	for i := 0; i < q.maxWorkers; i++ {
		NewWorker(i, q.workerPool, logger).Start(q.ctx, &q.wg, q.process)
	}
	go q.dispatch()

	logger.Info("notification worker pool started",
		"max_workers", q.maxWorkers,
		"queue_size", cap(q.jobQueue))

	return q
}

func (q *Queue) Send(ctx context.Context, env Envelope) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobQueue <- job{ctx: context.WithoutCancel(ctx), env: env}:
		return nil
	default:
		return ErrQueueFull
	}
}

// dispatch drains the job queue until it is closed, then stops the workers.
func (q *Queue) dispatch() {
	defer close(q.done)

	for j := range q.jobQueue {
		select {
		case jobChannel := <-q.workerPool:
			select {
			case jobChannel <- j:
			case <-q.ctx.Done():
				q.logger.Info("dispatcher shutting down")
				return
			}
		case <-q.ctx.Done():
			q.logger.Info("dispatcher shutting down")
			return
		}
	}
	q.cancel()
	q.wg.Wait()
}

func (q *Queue) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, q.sendTimeout)
	defer cancel()

	if err := q.next.Send(ctx, j.env); err != nil {
		q.logger.Error("queued notification failed",
			"kind", j.env.Kind,
			"audience", j.env.Audience,
			"to", j.env.To,
			"error", err)
	}
}

// Shutdown stops accepting envelopes and waits for queued ones to be
// delivered, or for ctx to expire.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobQueue)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		q.logger.Info("notification worker pool shutdown complete")
		return nil
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("notification worker pool shutdown timed out", "pending", len(q.jobQueue))
		return ctx.Err()
	}
}
