// Package config defines the run configuration for the segmented sieve and
// the rules that decide whether a configuration may be scheduled at all.
//
// # Overview
//
// A run is described by three numbers:
//
//	┌──────────────┬────────────────────────────────────────────┐
//	│ Bound        │ inclusive upper limit N                    │
//	│ BlockSize    │ integers per block (must be > 0)           │
//	│ Workers      │ worker pool size (0 = GOMAXPROCS)          │
//	└──────────────┴────────────────────────────────────────────┘
//
// Validation happens before any pipeline is launched. A configuration that
// fails validation returns an error wrapping ErrInvalidConfiguration and no
// work is scheduled.
//
// # Integer Width
//
// All block arithmetic is done in uint64. Bound is capped at MaxBound (2^62)
// so that lo, hi, p*p and every marked multiple stay well below the width's
// maximum. A BlockSize larger than Bound is clamped to Bound (or 1 when Bound
// is 0) by Normalize; the result is a single data-carrying block.
//
// # Loading
//
// The struct carries yaml and mapstructure tags so the CLI can load it from a
// config file or SIEVE_* environment variables through viper:
//
//	bound: 100000000
//	block_size: 102400
//	workers: 0
package config
