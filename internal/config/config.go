package config

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrInvalidConfiguration is returned when a run cannot be scheduled
var ErrInvalidConfiguration = errors.New("invalid configuration")

const (
	// MaxBound is the largest supported Bound.
	MaxBound uint64 = 1 << 62

	// DefaultBound matches the CLI default of one hundred million.
	DefaultBound uint64 = 100_000_000

	// DefaultBlockSize is 100 Ki integers per block.
	DefaultBlockSize uint64 = 100 * 1024
)

// Config describes a single sieve run
type Config struct {
	Bound     uint64 `yaml:"bound" mapstructure:"bound"`           // Inclusive upper limit
	BlockSize uint64 `yaml:"block_size" mapstructure:"block_size"` // Integers per block
	Workers   int    `yaml:"workers" mapstructure:"workers"`       // Pool size, 0 means GOMAXPROCS
}

// Default returns the configuration used when nothing is specified
func Default() Config {
	return Config{
		Bound:     DefaultBound,
		BlockSize: DefaultBlockSize,
	}
}

// New builds a configuration for bound and blockSize with a default pool size
func New(bound, blockSize uint64) Config {
	return Config{Bound: bound, BlockSize: blockSize}
}

// Validate reports whether the configuration can be scheduled.
// The returned error wraps ErrInvalidConfiguration.
func (c Config) Validate() error {
	if c.BlockSize == 0 {
		return fmt.Errorf("%w: block size must be greater than zero", ErrInvalidConfiguration)
	}
	if c.Bound > MaxBound {
		return fmt.Errorf("%w: bound %d exceeds maximum %d", ErrInvalidConfiguration, c.Bound, MaxBound)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfiguration, c.Workers)
	}
	return nil
}

// Normalize validates the configuration and resolves defaults:
// Workers 0 becomes GOMAXPROCS and BlockSize is clamped to max(Bound, 1).
func (c Config) Normalize() (Config, error) {
	if err := c.Validate(); err != nil {
		return c, err
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.BlockSize > c.Bound {
		c.BlockSize = max(c.Bound, 1)
	}
	return c, nil
}
