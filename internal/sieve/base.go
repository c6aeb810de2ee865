package sieve

import (
	"math"

	"github.com/willf/bitset"
)

// Base sieves [0, m] and returns a buffer of m+1 bits in which bit k is set
// iff k has a proper divisor >= 2. Bits 0 and 1 are left unset.
func Base(m uint64) *bitset.BitSet {
	buf := bitset.New(uint(m + 1))
	for k := uint64(2); k*k <= m; k++ {
		if buf.Test(uint(k)) {
			continue
		}
		for j := k * k; j <= m; j += k {
			buf.Set(uint(j))
		}
	}
	return buf
}

// Primes extracts the base prime list from a buffer produced by Base
func Primes(buf *bitset.BitSet) []uint64 {
	return Extract(buf, 0, uint64(buf.Len()))
}

// Extract collects the unset positions of buf below n, translated to lo+i.
// Positions at or beyond buf.Len() are not visited. Values below 2 are never
// reported. The result is ascending.
func Extract(buf *bitset.BitSet, lo, n uint64) []uint64 {
	var out []uint64
	for i, ok := buf.NextClear(0); ok && uint64(i) < n; i, ok = buf.NextClear(i + 1) {
		if v := lo + uint64(i); v >= 2 {
			out = append(out, v)
		}
	}
	return out
}

// CeilSqrt returns the smallest r with r*r >= n
func CeilSqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	// float rounding can be off by one in either direction
	for r > 0 && r*r >= n && (r-1)*(r-1) >= n {
		r--
	}
	for r*r < n {
		r++
	}
	return r
}
