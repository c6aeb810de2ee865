package block

import (
	"fmt"

	"github.com/dreamware/sieve/internal/config"
	"github.com/dreamware/sieve/internal/sieve"
)

// MaxBlocks caps the number of pipelines (and result slots) of one run
const MaxBlocks uint64 = 1 << 30

// Plan fixes the geometry of one run
type Plan struct {
	Bound     uint64 // Inclusive upper limit N
	BlockSize uint64 // Integers per block
	SqrtN     uint64 // Ceiling square root of Bound; top of the base range
	Blocks    uint64 // Number of pipelines to schedule
}

// Range is the half-open interval [Lo, Hi) covered by one block
type Range struct {
	Index uint64
	Lo    uint64
	Hi    uint64
}

// Len returns the number of integers in the range
func (r Range) Len() uint64 {
	return r.Hi - r.Lo
}

// Empty reports whether the range holds no integers
func (r Range) Empty() bool {
	return r.Hi <= r.Lo
}

// NewPlan builds the plan for a configuration.
// The configuration is normalized first, so BlockSize never exceeds Bound.
func NewPlan(cfg config.Config) (Plan, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return Plan{}, err
	}
	blocks := cfg.Bound/cfg.BlockSize + 1
	if blocks > MaxBlocks {
		return Plan{}, fmt.Errorf("%w: %d blocks exceeds maximum %d, raise the block size",
			config.ErrInvalidConfiguration, blocks, MaxBlocks)
	}
	return Plan{
		Bound:     cfg.Bound,
		BlockSize: cfg.BlockSize,
		SqrtN:     sieve.CeilSqrt(cfg.Bound),
		Blocks:    blocks,
	}, nil
}

// Slots returns the result table size: one slot per block plus the base slot
func (p Plan) Slots() int {
	return int(p.Blocks) + 1
}

// Range derives the interval of block i, clipped to Bound
func (p Plan) Range(i uint64) Range {
	end := p.Bound + 1
	lo := p.SqrtN + 1 + i*p.BlockSize
	if lo > end {
		lo = end
	}
	hi := lo + p.BlockSize
	if hi > end {
		hi = end
	}
	return Range{Index: i, Lo: lo, Hi: hi}
}
