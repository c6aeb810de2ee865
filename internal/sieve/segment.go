package sieve

import "github.com/willf/bitset"

// Segment marks the composites of [lo, hi) in buf using the ascending base
// prime list. Only primes with p*p < hi take part; each one starts at the
// larger of p*p and the first multiple of p not below lo.
func Segment(buf *bitset.BitSet, lo, hi uint64, base []uint64) {
	for _, p := range base {
		sq := p * p
		if sq >= hi {
			break
		}
		start := sq
		if start < lo {
			start = (lo + p - 1) / p * p
		}
		for m := start; m < hi; m += p {
			buf.Set(uint(m - lo))
		}
	}
}
