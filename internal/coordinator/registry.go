package coordinator

import (
	"errors"

	"github.com/dreamware/sieve/internal/block"
	"github.com/dreamware/sieve/internal/scheduler"
)

// BlockAssignment records what happened to one block
type BlockAssignment struct {
	Range  block.Range     // Interval covered by the block
	Primes int             // Primes deposited
	State  scheduler.State // Completed or Failed once joined, Pending otherwise
	Err    error           // Failure, if any
}

// BlockRegistry holds one record per planned block. Each record is written
// by the pipeline that drew its index and read only after the join barrier.
type BlockRegistry struct {
	plan    block.Plan
	records []BlockAssignment
}

// NewBlockRegistry creates a registry with a pending record for every block
func NewBlockRegistry(plan block.Plan) *BlockRegistry {
	records := make([]BlockAssignment, plan.Blocks)
	for i := range records {
		records[i] = BlockAssignment{
			Range: plan.Range(uint64(i)),
			State: scheduler.StatePending,
		}
	}
	return &BlockRegistry{plan: plan, records: records}
}

// record stores a completed pipeline outcome
func (r *BlockRegistry) record(out block.Outcome) {
	rec := &r.records[out.Range.Index]
	rec.Primes = out.Primes
	rec.State = scheduler.StateCompleted
}

// fail stores a pipeline failure against the block it names.
// Errors that do not identify a planned block are ignored here; the scope
// still reports them.
func (r *BlockRegistry) fail(err error) {
	var stageErr *block.StageError
	if !errors.As(err, &stageErr) || stageErr.Index >= uint64(len(r.records)) {
		return
	}
	rec := &r.records[stageErr.Index]
	rec.State = scheduler.StateFailed
	rec.Err = err
}

// NumBlocks returns the number of planned blocks
func (r *BlockRegistry) NumBlocks() int {
	return len(r.records)
}

// Get returns a copy of the record for block index, or nil if out of range
func (r *BlockRegistry) Get(index uint64) *BlockAssignment {
	if index >= uint64(len(r.records)) {
		return nil
	}
	rec := r.records[index]
	return &rec
}

// Failed returns copies of every failed record in block order
func (r *BlockRegistry) Failed() []BlockAssignment {
	var out []BlockAssignment
	for _, rec := range r.records {
		if rec.State == scheduler.StateFailed {
			out = append(out, rec)
		}
	}
	return out
}

// Primes returns the total primes deposited by completed blocks
func (r *BlockRegistry) Primes() int {
	total := 0
	for _, rec := range r.records {
		total += rec.Primes
	}
	return total
}
