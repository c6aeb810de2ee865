// Package coordinator runs a complete segmented sieve: it plans the blocks,
// builds the base prime list, schedules one pipeline per block on a worker
// pool and assembles the ordered prime table once every pipeline has joined.
//
// # Overview
//
// The coordinator is the only component that sees the whole run. Every other
// package handles one concern:
//
//	┌───────────────────────────────────────────────────────────┐
//	│                      coordinator.Run                      │
//	├───────────────────────────────────────────────────────────┤
//	│ 1. config.Normalize / block.NewPlan   (reject bad input)  │
//	│ 2. sieve.Base(sqrtN) → base primes    (calling goroutine) │
//	│ 3. storage.NewTable(plan.Slots())     (slot 0 = base)     │
//	│ 4. scheduler.Scope.Spawn × plan.Blocks                    │
//	│        └─ block.Pipeline.Run          (worker goroutines) │
//	│ 5. scope.Join                         (barrier)           │
//	│ 6. table.Seal → Primes, Digest                            │
//	└───────────────────────────────────────────────────────────┘
//
// # Block Registry
//
// BlockRegistry keeps one record per planned block: its range, how many
// primes it produced and whether it completed or failed. Like the result
// table it is pre-sized and each record is written only by the pipeline that
// drew that index, so it needs no lock. It is read after Join and is useful
// for diagnosing which block failed.
//
// # Error Handling
//
// Configuration errors (zero block size, bound above config.MaxBound, too
// many blocks) wrap config.ErrInvalidConfiguration and are returned before a
// pool exists.
//
// A failing pipeline (for example block.ErrAllocation) cancels the remaining
// pipelines, poisons the table and is returned from Run. No partial prime
// list is ever returned.
//
// # Concurrency
//
// The run uses exactly two synchronization points: the atomic block counter
// inside block.Allocator and the scope's join barrier. The base prime list is
// built before any pipeline starts and only read afterwards.
//
// Run creates and closes its own pool sized from Config.Workers unless
// WithPool supplies a shared one, in which case the caller owns it.
//
// # Usage Examples
//
//	primes, err := coordinator.Primes(100, 7)
//	// primes = [2 3 5 7 ... 89 97]
//
//	res, err := coordinator.Run(ctx, config.Config{
//	    Bound:     1_000_000,
//	    BlockSize: 4096,
//	    Workers:   8,
//	}, coordinator.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(len(res.Primes), res.Digest)
//
// # Testing
//
//	go test ./internal/coordinator/...
//	go test -race ./internal/coordinator/...
package coordinator
