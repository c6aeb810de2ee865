// Package block implements the unit of work of the segmented sieve: a block
// of consecutive integers, the allocator that hands out block indices, and
// the pipeline that turns one index into a deposited list of primes.
//
// # Overview
//
// The integers above the base range are cut into blocks of BlockSize:
//
//	 base range          block 0           block 1              block T-1
//	[0 ..... sqrtN] [sqrtN+1, +bs) [sqrtN+1+bs, +bs) ... [..., N+1)
//	     slot 0          slot 1            slot 2               slot T
//
// Block i covers [lo, hi) with lo = sqrtN+1+i*BlockSize and
// hi = min(lo+BlockSize, N+1). The plan always schedules T = N/BlockSize+1
// blocks; indices past the end of the domain clip to an empty range and
// deposit an empty result. The last data-carrying block may be short.
//
// # Allocator
//
// Allocator is a single atomic counter. Next performs one fetch-and-increment
// and reports false once the planned total has been handed out, so each index
// is delivered exactly once no matter how many goroutines call it.
//
// # Pipeline
//
// A pipeline invocation runs five stages in order on one goroutine:
//
//	range → buffer → sieve → extract → deposit
//
// Only the deposit touches shared state, and the slot it writes is owned by
// the index the pipeline drew. The context is checked between stages. A
// failing stage is reported as a *StageError naming the block and stage.
package block
