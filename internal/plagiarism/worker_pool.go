package plagiarism

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrPoolClosed = errors.New("worker pool closed")

type Job interface {
	Execute(ctx context.Context) error
}

// WorkerPool runs scoring jobs on a fixed set of goroutines shared by all detection runs
type WorkerPool struct {
	workers   int
	jobQueue  chan Job
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewWorkerPool starts size workers. size <= 0 sizes the pool from the CPU
// count, leaving a quarter of the cores to the rest of the process.
func NewWorkerPool(ctx context.Context, size int) *WorkerPool {
	if size <= 0 {
		totalCPU := runtime.NumCPU()
		systemReserve := max(1, totalCPU/4)
		size = max(1, totalCPU-systemReserve)
	}
	poolCtx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		workers:  size,
		jobQueue: make(chan Job, size*2),
		ctx:      poolCtx,
		cancel:   cancel,
	}

	for i := 0; i < pool.workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	log.Info().
		Int("workers", size).
		Msg("Worker pool initialized")

	return pool
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			if err := job.Execute(p.ctx); err != nil {
				log.Error().Err(err).Msg("Worker failed to execute job")
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolClosed
	case p.jobQueue <- job:
		return nil
	}
}

// Done is closed once the pool shuts down
func (p *WorkerPool) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Close stops the workers and waits for them to exit. Queued jobs are dropped.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

func (p *WorkerPool) Size() int {
	return p.workers
}
