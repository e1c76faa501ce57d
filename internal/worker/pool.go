package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PoolMetrics provides metrics about the worker pool's performance
type PoolMetrics struct {
	TotalTasks         int64
	CompletedTasks     int64
	FailedTasks        int64
	CurrentWorkers     int64
	PeakWorkers        int64
	AverageExecutionMs int64
	TotalExecutionMs   int64
}

// Task represents a unit of work to be executed
type Task func(ctx context.Context) error

// Pool manages a pool of workers for executing tasks concurrently
type Pool struct {
	maxWorkers    int
	taskTimeout   time.Duration
	tasks         chan Task
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
	mu            sync.Mutex
	metrics       PoolMetrics
	activeWorkers int64
	started       int32
	stopping      int32
}

// NewPool creates a pool of maxWorkers workers whose tasks run under ctx.
// A positive taskTimeout bounds each task individually.
func NewPool(ctx context.Context, maxWorkers int, taskTimeout time.Duration) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &Pool{
		maxWorkers:  maxWorkers,
		taskTimeout: taskTimeout,
		tasks:       make(chan Task, maxWorkers*2),
		ctx:         poolCtx,
		cancel:      cancel,
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return
	}
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop cancels outstanding work and waits for the workers to exit
func (p *Pool) Stop() {
	if !atomic.CompareAndSwapInt32(&p.stopping, 0, 1) {
		return
	}
	p.cancel()
	p.wg.Wait()
}

// GetMetrics returns the current metrics for the pool
func (p *Pool) GetMetrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := p.metrics
	m.CurrentWorkers = atomic.LoadInt64(&p.activeWorkers)
	if finished := m.CompletedTasks + m.FailedTasks; finished > 0 {
		m.AverageExecutionMs = m.TotalExecutionMs / finished
	}
	return m
}

func (p *Pool) worker() {
	defer p.wg.Done()

	current := atomic.AddInt64(&p.activeWorkers, 1)
	defer atomic.AddInt64(&p.activeWorkers, -1)

	p.mu.Lock()
	if current > p.metrics.PeakWorkers {
		p.metrics.PeakWorkers = current
	}
	p.mu.Unlock()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			p.run(task)
		}
	}
}

// run executes one task and records its metrics
func (p *Pool) run(task Task) {
	start := time.Now()

	taskCtx, cancel := p.ctx, context.CancelFunc(func() {})
	if p.taskTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(p.ctx, p.taskTimeout)
	}
	err := task(taskCtx)
	cancel()

	p.mu.Lock()
	p.metrics.TotalExecutionMs += time.Since(start).Milliseconds()
	if err != nil {
		p.metrics.FailedTasks++
	} else {
		p.metrics.CompletedTasks++
	}
	p.mu.Unlock()
}

// ExecuteTasks runs tasks on the pool and blocks until all of them have
// finished. Tasks not yet started when the pool context ends are skipped.
func (p *Pool) ExecuteTasks(tasks []Task) {
	p.Start()

	var wg sync.WaitGroup

	p.mu.Lock()
	p.metrics.TotalTasks += int64(len(tasks))
	p.mu.Unlock()

	for _, t := range tasks {
		task := t
		wg.Add(1)
		wrapped := func(ctx context.Context) error {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				return err
			}
			return task(ctx)
		}

		select {
		case p.tasks <- wrapped:
		case <-p.ctx.Done():
			wg.Done()
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-p.ctx.Done():
		// workers exit on cancellation, drain what they left behind
		p.wg.Wait()
		p.drain()
		<-done
	}
}

// drain releases tasks still queued after the workers have stopped. The
// pool context has ended, so their bodies do not run.
func (p *Pool) drain() {
	for {
		select {
		case task := <-p.tasks:
			_ = task(p.ctx)
		default:
			return
		}
	}
}
