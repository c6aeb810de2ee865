package block

import (
	"context"
	"errors"
	"fmt"

	"github.com/willf/bitset"

	"github.com/dreamware/sieve/internal/sieve"
	"github.com/dreamware/sieve/internal/storage"
)

var (
	// ErrAllocation is returned when a candidate buffer cannot be allocated
	ErrAllocation = errors.New("candidate buffer allocation failed")
	// ErrExhausted is returned when a pipeline runs with no index left to draw
	ErrExhausted = errors.New("block allocator exhausted")
)

// Stage names one step of a pipeline invocation
type Stage string

const (
	StageRange   Stage = "range"
	StageBuffer  Stage = "buffer"
	StageSieve   Stage = "sieve"
	StageExtract Stage = "extract"
	StageDeposit Stage = "deposit"
)

// StageError reports the block and stage at which a pipeline failed
type StageError struct {
	Index uint64
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("block %d: %s: %v", e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// BufferFunc allocates a candidate buffer of n bits, all unset
type BufferFunc func(n uint) (*bitset.BitSet, error)

// NewBuffer is the default BufferFunc. bitset.New swallows a failed
// allocation and hands back an empty set, so the length is checked here.
func NewBuffer(n uint) (*bitset.BitSet, error) {
	buf := bitset.New(n)
	if buf.Len() != n {
		return nil, fmt.Errorf("%w: %d bits", ErrAllocation, n)
	}
	return buf, nil
}

// Outcome describes a completed pipeline invocation
type Outcome struct {
	Range  Range
	Primes int
}

// Pipeline runs blocks of one plan. It is safe for concurrent use: every
// field is read-only once the pipeline is built.
type Pipeline struct {
	plan   Plan
	base   []uint64
	alloc  *Allocator
	table  *storage.Table
	buffer BufferFunc
}

// NewPipeline binds a plan, the shared base prime list, the allocator and the
// result table. A nil buffer selects NewBuffer.
func NewPipeline(plan Plan, base []uint64, alloc *Allocator, table *storage.Table, buffer BufferFunc) *Pipeline {
	if buffer == nil {
		buffer = NewBuffer
	}
	return &Pipeline{
		plan:   plan,
		base:   base,
		alloc:  alloc,
		table:  table,
		buffer: buffer,
	}
}

// Run draws the next index from the allocator and processes that block
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	index, ok := p.alloc.Next()
	if !ok {
		return Outcome{}, &StageError{Index: index, Stage: StageRange, Err: ErrExhausted}
	}
	return p.RunIndex(ctx, index)
}

// RunIndex processes block index. Callers must ensure no other invocation
// uses the same index; the deposit rejects a second write.
func (p *Pipeline) RunIndex(ctx context.Context, index uint64) (Outcome, error) {
	fail := func(stage Stage, err error) (Outcome, error) {
		return Outcome{}, &StageError{Index: index, Stage: stage, Err: err}
	}

	r := p.plan.Range(index)
	out := Outcome{Range: r}

	if err := ctx.Err(); err != nil {
		return fail(StageBuffer, err)
	}
	n := uint(r.Len())
	buf, err := p.buffer(n)
	if err != nil {
		return fail(StageBuffer, err)
	}
	if buf == nil || buf.Len() != n {
		return fail(StageBuffer, fmt.Errorf("%w: short buffer for %d bits", ErrAllocation, n))
	}

	if err := ctx.Err(); err != nil {
		return fail(StageSieve, err)
	}
	sieve.Segment(buf, r.Lo, r.Hi, p.base)

	if err := ctx.Err(); err != nil {
		return fail(StageExtract, err)
	}
	primes := sieve.Extract(buf, r.Lo, r.Len())

	if err := p.table.Put(int(index)+1, primes); err != nil {
		return fail(StageDeposit, err)
	}
	out.Primes = len(primes)
	return out, nil
}
