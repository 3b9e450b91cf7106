package hyperbench

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperbench/internal/sentinel"
)

// JobFunc is a function that can be enqueued in a worker pool.
type JobFunc func(ctx context.Context) error

// WorkerPool is a pool of workers that can execute jobs concurrently.
type WorkerPool struct {
	ctx     context.Context
	workers int
	jobs    chan JobFunc
	wg      sync.WaitGroup

	mu     sync.Mutex // guards closed and the jobs channel close
	closed bool

	errMu sync.Mutex
	errs  *ewrap.ErrorGroup
}

// NewWorkerPool creates a new worker pool with the given number of workers.
// A non-positive count starts a single worker.
func NewWorkerPool(ctx context.Context, workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}

	pool := &WorkerPool{
		ctx:     ctx,
		workers: workers,
		jobs:    make(chan JobFunc, workers),
		errs:    ewrap.NewErrorGroup(),
	}
	pool.start()

	return pool
}

// Workers returns the number of worker goroutines.
func (pool *WorkerPool) Workers() int {
	return pool.workers
}

// Enqueue adds a job to the worker pool. It blocks while the queue is full.
func (pool *WorkerPool) Enqueue(job JobFunc) error {
	if job == nil {
		return sentinel.ErrNilAction
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.closed {
		return sentinel.ErrPoolClosed
	}

	pool.jobs <- job

	return nil
}

// Shutdown stops accepting jobs, waits for the queued ones to finish and
// returns the errors they reported, if any.
func (pool *WorkerPool) Shutdown() error {
	pool.mu.Lock()
	if !pool.closed {
		pool.closed = true
		close(pool.jobs)
	}
	pool.mu.Unlock()

	pool.wg.Wait()

	pool.errMu.Lock()
	defer pool.errMu.Unlock()

	return pool.errs.ErrorOrNil()
}

// start starts the worker pool.
func (pool *WorkerPool) start() {
	pool.wg.Add(pool.workers)

	for range pool.workers {
		go pool.worker()
	}
}

// worker is the main loop executed by each worker goroutine.
func (pool *WorkerPool) worker() {
	defer pool.wg.Done()

	for job := range pool.jobs {
		err := pool.run(job)
		if err != nil {
			pool.errMu.Lock()
			pool.errs.Add(err)
			pool.errMu.Unlock()
		}
	}
}

func (pool *WorkerPool) run(job JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ewrap.Wrap(sentinel.ErrTimedActionPanicked, fmt.Sprint(r))
		}
	}()

	return job(pool.ctx)
}
