// Package storage holds the result table of a sieve run and the exporters
// that turn a finished table into bytes.
//
// # Overview
//
// The Table is an arena of slots allocated before any pipeline starts. Slot 0
// holds the base prime list; slot i+1 holds the primes of block i. The table
// moves through three states:
//
//	          Seal()
//	 open ──────────────▶ sealed   (Primes, Digest readable)
//	   │
//	   │ Poison(err)
//	   ▼
//	 poisoned                      (Primes returns the poison error)
//
// # Concurrency and Thread Safety
//
// There is no lock. Each slot has exactly one writer: the pipeline that was
// handed its index. Put claims the slot with an atomic compare-and-swap, so a
// second writer gets ErrSlotWritten instead of overwriting. Slots never share
// a mutable cell, so writes to different slots do not interfere.
//
// Reads are only valid after Seal, which callers invoke once the scheduler's
// join barrier has returned. The join is what publishes the slot contents to
// the reading goroutine; the table does not try to establish that ordering on
// its own.
//
// # Error Handling
//
// ErrSlotWritten: a slot was written twice
//   - Indicates two pipelines were handed the same index
//
// ErrSlotRange: index outside the pre-sized table
//
// ErrNotSealed: Primes or Digest called before Seal, or after Poison
//   - A poisoned table wraps the failure that poisoned it
//
// # Export
//
// Export writes a sealed result in one of three formats:
//   - text: one prime per line
//   - cbor: a deterministic CBOR array of unsigned integers
//   - yaml: the run summary only
//
// NewWriter wraps the destination in a zstd encoder when asked to.
//
// # Usage Examples
//
//	table := storage.NewTable(blocks + 1)
//	_ = table.Put(0, basePrimes)
//
//	// ... pipelines call table.Put(i+1, primes) ...
//
//	if err := scope.Join(); err != nil {
//	    table.Poison(err)
//	    return err
//	}
//	_ = table.Seal()
//	primes, _ := table.Primes()
package storage
