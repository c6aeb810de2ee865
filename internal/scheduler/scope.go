package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrTaskPanic wraps a value recovered from a panicking task
var ErrTaskPanic = errors.New("task panicked")

// Task is one unit of work run by a Scope
type Task func(ctx context.Context) error

// State is the lifecycle state of a spawned task
type State int32

const (
	// StatePending means the task is queued or waiting for a worker
	StatePending State = iota
	// StateRunning means a worker is executing the task
	StateRunning
	// StateCompleted means the task returned nil
	StateCompleted
	// StateFailed means the task returned an error, panicked or never started
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Handle tracks one spawned task
type Handle struct {
	state atomic.Int32
	err   error // Written before the task signals the scope
}

// State returns the current lifecycle state
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Err returns the task's failure. Only meaningful after Join.
func (h *Handle) Err() error {
	return h.err
}

// Stats counts tasks by state
type Stats struct {
	Spawned   int64
	Pending   int64
	Running   int64
	Completed int64
	Failed    int64
}

// Scope spawns a batch of tasks onto a pool and joins them.
// Spawn and Join must be called from the same goroutine; a scope is not
// reusable after Join.
type Scope struct {
	pool    *Pool
	ctx     context.Context
	cancel  context.CancelCauseFunc
	wg      sync.WaitGroup
	handles []*Handle

	errOnce sync.Once
	err     error

	spawned   atomic.Int64
	pending   atomic.Int64
	running   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// NewScope creates a scope whose tasks run on pool.
// Cancelling ctx fails every task that has not started yet.
func NewScope(ctx context.Context, pool *Pool) *Scope {
	ctx, cancel := context.WithCancelCause(ctx)
	return &Scope{
		pool:   pool,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the context handed to every task
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Spawn queues task on the pool and returns its handle. It may block while
// the pool queue is full. If the task cannot be queued it is recorded as
// failed and Join will report it.
func (s *Scope) Spawn(task Task) *Handle {
	h := &Handle{}
	s.handles = append(s.handles, h)
	s.spawned.Add(1)
	s.pending.Add(1)
	s.wg.Add(1)

	err := s.pool.Submit(s.ctx, func() { s.run(h, task) })
	if err != nil {
		s.pending.Add(-1)
		if cause := context.Cause(s.ctx); cause != nil {
			err = cause
		}
		s.finish(h, fmt.Errorf("spawn: %w", err))
	}
	return h
}

func (s *Scope) run(h *Handle, task Task) {
	s.pending.Add(-1)
	s.running.Add(1)
	h.state.Store(int32(StateRunning))

	err := s.call(task)

	s.running.Add(-1)
	s.finish(h, err)
}

func (s *Scope) call(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	if s.ctx.Err() != nil {
		return context.Cause(s.ctx)
	}
	return task(s.ctx)
}

func (s *Scope) finish(h *Handle, err error) {
	if err != nil {
		h.err = err
		h.state.Store(int32(StateFailed))
		s.failed.Add(1)
		s.errOnce.Do(func() {
			s.err = err
			s.cancel(err)
		})
	} else {
		h.state.Store(int32(StateCompleted))
		s.completed.Add(1)
	}
	s.wg.Done()
}

// Join blocks until every spawned task has completed or failed and returns
// the first failure, if any.
func (s *Scope) Join() error {
	s.wg.Wait()
	s.cancel(nil)
	return s.err
}

// Handles returns the handles of every spawned task in spawn order
func (s *Scope) Handles() []*Handle {
	return s.handles
}

// Stats returns task counts by state
func (s *Scope) Stats() Stats {
	return Stats{
		Spawned:   s.spawned.Load(),
		Pending:   s.pending.Load(),
		Running:   s.running.Load(),
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
	}
}
