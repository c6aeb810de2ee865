// Package scheduler runs many short tasks on a fixed set of worker
// goroutines and lets a caller wait for a known group of them to finish.
//
// # Overview
//
// Two types split the job:
//
//	┌────────────────────────────┐        ┌───────────────────────────┐
//	│ Scope                      │ Spawn  │ Pool                      │
//	│  - task handles            │───────▶│  - bounded task queue     │
//	│  - state counters          │        │  - N long-lived workers   │
//	│  - first error / cancel    │        │    (errgroup)             │
//	│  - Join (barrier)          │        │                           │
//	└────────────────────────────┘        └───────────────────────────┘
//
// Pool owns the goroutines. Its size is fixed at construction, so peak
// concurrency is bounded no matter how many tasks are queued, and workers are
// reused across tasks instead of spawning one goroutine per task.
//
// Scope owns one batch of tasks. Join blocks until every task spawned on the
// scope has completed or failed. Because Join waits on a sync.WaitGroup that
// each task signals when it finishes, everything a task wrote happens-before
// Join returns.
//
// # Task Lifecycle
//
//	Spawn ──▶ Pending ──▶ Running ──┬──▶ Completed
//	                                └──▶ Failed
//
// A task fails when it returns an error, panics (ErrTaskPanic), or could not
// start because the scope was already cancelled. The first failure cancels
// the scope's context so pending tasks fail fast instead of running, and Join
// returns that first failure. Nothing is silently dropped.
//
// # Cancellation
//
// Cancellation is cooperative. Tasks receive the scope's context and are
// expected to check it between steps; a running task is never interrupted.
//
// # Usage Examples
//
//	pool := scheduler.NewPool(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	scope := scheduler.NewScope(ctx, pool)
//	for i := 0; i < blocks; i++ {
//	    scope.Spawn(func(ctx context.Context) error {
//	        return work(ctx)
//	    })
//	}
//	if err := scope.Join(); err != nil {
//	    return err
//	}
package scheduler
