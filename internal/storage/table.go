package storage

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/zeebo/blake3"
	"golang.org/x/exp/slices"
)

var (
	// ErrSlotWritten is returned when a slot already holds a result
	ErrSlotWritten = errors.New("slot already written")
	// ErrSlotRange is returned for an index outside the table
	ErrSlotRange = errors.New("slot index out of range")
	// ErrNotSealed is returned when reading a table that is not sealed
	ErrNotSealed = errors.New("table not sealed")
)

// TableState is the lifecycle state of a Table
type TableState int32

const (
	// TableOpen accepts writes and rejects reads
	TableOpen TableState = iota
	// TableSealed rejects writes and serves reads
	TableSealed
	// TablePoisoned means a pipeline failed; nothing is readable
	TablePoisoned
)

func (s TableState) String() string {
	switch s {
	case TableOpen:
		return "open"
	case TableSealed:
		return "sealed"
	case TablePoisoned:
		return "poisoned"
	default:
		return fmt.Sprintf("TableState(%d)", int32(s))
	}
}

// Slot holds the primes of one block
type Slot struct {
	primes  []uint64    // Written once by the owning pipeline
	written atomic.Bool // Claimed by the first Put
}

// Put stores primes in the slot. Only the first call succeeds.
func (s *Slot) Put(primes []uint64) error {
	if !s.written.CompareAndSwap(false, true) {
		return ErrSlotWritten
	}
	s.primes = primes
	return nil
}

// Written reports whether the slot has been claimed
func (s *Slot) Written() bool {
	return s.written.Load()
}

// TableStats contains statistics about the table
type TableStats struct {
	Slots   int // Number of slots
	Written int // Slots that have been claimed
	Primes  int // Total primes held, only counted once sealed
}

// Table is the pre-sized result arena of one sieve run
type Table struct {
	slots []Slot
	state atomic.Int32
	err   error // Set by Poison before the state flips
}

// NewTable allocates a table with n slots
func NewTable(n int) *Table {
	return &Table{slots: make([]Slot, n)}
}

// Len returns the number of slots
func (t *Table) Len() int {
	return len(t.slots)
}

// State returns the lifecycle state
func (t *Table) State() TableState {
	return TableState(t.state.Load())
}

// Slot returns the handle for slot i
func (t *Table) Slot(i int) (*Slot, error) {
	if i < 0 || i >= len(t.slots) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrSlotRange, i, len(t.slots))
	}
	return &t.slots[i], nil
}

// Put stores primes in slot i
func (t *Table) Put(i int, primes []uint64) error {
	slot, err := t.Slot(i)
	if err != nil {
		return err
	}
	if err := slot.Put(primes); err != nil {
		return fmt.Errorf("slot %d: %w", i, err)
	}
	return nil
}

// Seal makes the table readable. It must only be called after every writer
// has been joined.
func (t *Table) Seal() error {
	if !t.state.CompareAndSwap(int32(TableOpen), int32(TableSealed)) {
		return fmt.Errorf("cannot seal %s table", t.State())
	}
	return nil
}

// Poison marks the run as failed. Later reads return err.
func (t *Table) Poison(err error) {
	if err == nil {
		err = errors.New("table poisoned")
	}
	t.err = err
	t.state.Store(int32(TablePoisoned))
}

func (t *Table) readable() error {
	switch t.State() {
	case TableSealed:
		return nil
	case TablePoisoned:
		return fmt.Errorf("%w: %w", ErrNotSealed, t.err)
	default:
		return ErrNotSealed
	}
}

// Primes concatenates every slot in index order
func (t *Table) Primes() ([]uint64, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}

	total := 0
	for i := range t.slots {
		total += len(t.slots[i].primes)
	}

	out := slices.Grow([]uint64(nil), total)
	for i := range t.slots {
		out = append(out, t.slots[i].primes...)
	}
	return out, nil
}

// Digest returns the hex blake3 hash of the concatenated primes, each
// encoded as a little-endian uint64. Two runs over the same bound produce
// the same digest regardless of block size or pool size.
func (t *Table) Digest() (string, error) {
	if err := t.readable(); err != nil {
		return "", err
	}

	h := blake3.New()
	var buf [8]byte
	for i := range t.slots {
		for _, p := range t.slots[i].primes {
			binary.LittleEndian.PutUint64(buf[:], p)
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Stats returns table statistics
func (t *Table) Stats() TableStats {
	stats := TableStats{Slots: len(t.slots)}
	for i := range t.slots {
		if t.slots[i].Written() {
			stats.Written++
		}
	}
	if t.State() == TableSealed {
		for i := range t.slots {
			stats.Primes += len(t.slots[i].primes)
		}
	}
	return stats
}
