// Package sieve holds the arithmetic of the Sieve of Eratosthenes: the plain
// base sieve over [0, m] and the segment pass that strikes base-prime
// multiples out of one block.
//
// Candidate buffers are *bitset.BitSet values. A set bit marks a composite;
// bit i of a segment buffer stands for the integer lo+i. Nothing in this
// package is concurrent. Callers own their buffers exclusively and the base
// prime list is only read.
package sieve
