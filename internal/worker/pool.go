// Package worker provides background processing for metadata fetch jobs.
package worker

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when a job cannot be queued without blocking.
var ErrQueueFull = errors.New("worker: queue full")

// ErrStopped is returned for jobs dispatched after Stop.
var ErrStopped = errors.New("worker: pool stopped")

// Job represents a background task.
type Job struct {
	Name string
	Run  func()
}

// Pool manages background workers for async jobs.
type Pool struct {
	jobs    chan Job
	workers int
	logger  *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPool creates a worker pool with the given worker count and queue size.
func NewPool(workers int, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop waits for workers to drain the queue after closing it.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Dispatch queues fn without blocking.
func (p *Pool) Dispatch(name string, fn func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.jobs <- Job{Name: name, Run: fn}:
		return nil
	default:
		p.logger.Warn("worker: dropping job", zap.String("job", name))
		return ErrQueueFull
	}
}

func (p *Pool) processJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker: job panicked", zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()
	job.Run()
	p.logger.Debug("worker: processed job", zap.String("job", job.Name))
}
