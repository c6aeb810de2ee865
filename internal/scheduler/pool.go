package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned when submitting to a closed pool
var ErrPoolClosed = errors.New("pool closed")

// Pool is a fixed-size set of worker goroutines fed from a task queue.
// Thread-safe: Submit may be called from any goroutine until Close.
type Pool struct {
	tasks    chan func()     // Queue drained by workers
	group    *errgroup.Group // Worker goroutines
	size     int             // Number of workers
	mu       sync.RWMutex    // Guards closed and the send side of tasks
	closed   bool            // Set once by Close
	active   atomic.Int64    // Tasks currently executing
	executed atomic.Uint64   // Tasks finished since creation
}

// PoolStats is a snapshot of pool activity
type PoolStats struct {
	Size     int    // Number of workers
	Active   int64  // Tasks currently executing
	Executed uint64 // Tasks finished
}

// NewPool starts size workers. A size below one is raised to one.
//
// Parameters:
//   - size: Number of worker goroutines, typically runtime.GOMAXPROCS(0)
//
// Returns:
//   - *Pool: Running pool; call Close when done
//
// Example:
//
//	pool := NewPool(runtime.GOMAXPROCS(0))
//	defer pool.Close()
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		tasks: make(chan func(), size),
		group: new(errgroup.Group),
		size:  size,
	}
	for i := 0; i < size; i++ {
		p.group.Go(p.worker)
	}
	return p
}

func (p *Pool) worker() error {
	for task := range p.tasks {
		p.active.Add(1)
		task()
		p.active.Add(-1)
		p.executed.Add(1)
	}
	return nil
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.size
}

// Submit queues task for execution on a worker. It blocks while the queue is
// full and gives up when ctx is done. The task must not panic; Scope wraps
// tasks so that panics become errors.
//
// Returns:
//   - ErrPoolClosed if Close has been called
//   - ctx.Err() if ctx finished before the task was queued
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, lets the workers drain the queue and waits
// for them to exit. It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()
	return p.group.Wait()
}

// Stats returns a snapshot of pool activity
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:     p.size,
		Active:   p.active.Load(),
		Executed: p.executed.Load(),
	}
}
