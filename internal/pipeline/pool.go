package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sprov-ai/sprov-audio-service/internal/metrics"
)

// Pool runs CPU-bound jobs on a fixed set of workers so concurrent uploads
// cannot oversubscribe the host.
type Pool struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	workers int
	jobs    chan *job
	wg      sync.WaitGroup
	closed  bool
	mu      sync.RWMutex

	// Statistics
	jobsCompleted uint64
	jobsSkipped   uint64
	active        int
	statsMu       sync.Mutex
}

type job struct {
	ctx      context.Context
	run      func(ctx context.Context)
	queuedAt time.Time
}

// PoolStats represents worker pool statistics
type PoolStats struct {
	Workers       int    `json:"workers"`
	ActiveWorkers int    `json:"active_workers"`
	QueueSize     int    `json:"queue_size"`
	QueueCapacity int    `json:"queue_capacity"`
	JobsCompleted uint64 `json:"jobs_completed"`
	JobsSkipped   uint64 `json:"jobs_skipped"`
}

// NewPool starts workers goroutines reading from a queue of queueSize jobs
func NewPool(workers, queueSize int, m *metrics.Metrics, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		logger:  logger.With("component", "worker_pool"),
		metrics: m,
		workers: workers,
		jobs:    make(chan *job, queueSize),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return p
}

// Run executes fn on a worker and waits for its result. If ctx ends first, Run
// returns ctx.Err(); fn keeps its ctx and is expected to stop soon after.
func Run[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	var zero T
	done := make(chan result, 1)

	err := p.submit(ctx, func(jobCtx context.Context) {
		v, err := fn(jobCtx)
		done <- result{value: v, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// submit enqueues a job, blocking while the queue is full
func (p *Pool) submit(ctx context.Context, run func(ctx context.Context)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- &job{ctx: ctx, run: run, queuedAt: time.Now()}:
		p.metrics.SetQueueSize(len(p.jobs))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker processes jobs from the queue
func (p *Pool) worker(workerID int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", slog.Int("worker_id", workerID))

	for j := range p.jobs {
		p.metrics.SetQueueSize(len(p.jobs))

		// The caller already gave up on jobs that expired while queued.
		if err := j.ctx.Err(); err != nil {
			p.statsMu.Lock()
			p.jobsSkipped++
			p.statsMu.Unlock()

			p.logger.Debug("Skipping expired job",
				slog.Int("worker_id", workerID),
				slog.Duration("queued_for", time.Since(j.queuedAt)),
			)
			continue
		}

		p.setActive(1)
		j.run(j.ctx)
		p.setActive(-1)

		p.statsMu.Lock()
		p.jobsCompleted++
		p.statsMu.Unlock()
	}

	p.logger.Debug("Worker stopped", slog.Int("worker_id", workerID))
}

func (p *Pool) setActive(delta int) {
	p.statsMu.Lock()
	p.active += delta
	active := p.active
	p.statsMu.Unlock()
	p.metrics.SetActiveWorkers(active)
}

// Close stops accepting jobs and waits for queued ones to drain
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

// GetStats returns current pool statistics
func (p *Pool) GetStats() PoolStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	return PoolStats{
		Workers:       p.workers,
		ActiveWorkers: p.active,
		QueueSize:     len(p.jobs),
		QueueCapacity: cap(p.jobs),
		JobsCompleted: p.jobsCompleted,
		JobsSkipped:   p.jobsSkipped,
	}
}
