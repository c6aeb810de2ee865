package block

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAllocator tests sequential behaviour
func TestAllocator(t *testing.T) {
	a := NewAllocator(3)
	assert.Equal(t, uint64(3), a.Total())

	for want := uint64(0); want < 3; want++ {
		got, ok := a.Next()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, uint64(3), a.Issued())

	_, ok := a.Next()
	assert.False(t, ok)
	assert.Equal(t, uint64(3), a.Issued())
}

// TestAllocatorZero never issues anything
func TestAllocatorZero(t *testing.T) {
	a := NewAllocator(0)
	_, ok := a.Next()
	assert.False(t, ok)
	assert.Zero(t, a.Issued())
}

// TestAllocatorConcurrency checks exactly-once delivery under contention
func TestAllocatorConcurrency(t *testing.T) {
	const total = 10000
	const callers = 64
	a := NewAllocator(total)

	var wg sync.WaitGroup
	results := make([][]uint64, callers)
	wg.Add(callers)
	for c := 0; c < callers; c++ {
		go func(id int) {
			defer wg.Done()
			for {
				index, ok := a.Next()
				if !ok {
					return
				}
				results[id] = append(results[id], index)
			}
		}(c)
	}
	wg.Wait()

	seen := make([]bool, total)
	count := 0
	for _, indices := range results {
		for _, index := range indices {
			require.Less(t, index, uint64(total))
			require.False(t, seen[index], "index %d delivered twice", index)
			seen[index] = true
			count++
		}
	}
	assert.Equal(t, total, count)
}
