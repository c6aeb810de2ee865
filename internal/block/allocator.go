package block

import "sync/atomic"

// Allocator hands out block indices 0..total-1, each exactly once
type Allocator struct {
	next  atomic.Uint64
	total uint64
}

// NewAllocator creates an allocator for total blocks
func NewAllocator(total uint64) *Allocator {
	return &Allocator{total: total}
}

// Next returns the next unissued index.
// ok is false once every planned index has been handed out.
func (a *Allocator) Next() (index uint64, ok bool) {
	index = a.next.Add(1) - 1
	return index, index < a.total
}

// Issued returns how many valid indices have been handed out
func (a *Allocator) Issued() uint64 {
	return min(a.next.Load(), a.total)
}

// Total returns the planned number of indices
func (a *Allocator) Total() uint64 {
	return a.total
}
