package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willf/bitset"

	"github.com/dreamware/sieve/internal/block"
	"github.com/dreamware/sieve/internal/config"
	"github.com/dreamware/sieve/internal/scheduler"
	"github.com/dreamware/sieve/internal/sieve"
)

// reference is a plain single-threaded sieve over [0, bound]
func reference(bound uint64) []uint64 {
	return sieve.Primes(sieve.Base(bound))
}

// TestPrimesScenarios covers the concrete examples
func TestPrimesScenarios(t *testing.T) {
	t.Run("thirty by ten", func(t *testing.T) {
		primes, err := Primes(30, 10)
		require.NoError(t, err)
		assert.Equal(t, []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}, primes)
	})

	t.Run("hundred by seven", func(t *testing.T) {
		primes, err := Primes(100, 7)
		require.NoError(t, err)
		require.Len(t, primes, 25)
		assert.Equal(t, []uint64{89, 97}, primes[23:])
		assert.Equal(t, reference(100), primes)
	})
}

// TestPrimesBoundaries covers the smallest bounds
func TestPrimesBoundaries(t *testing.T) {
	tests := []struct {
		bound uint64
		want  []uint64
	}{
		{0, nil},
		{1, nil},
		{2, []uint64{2}},
		{3, []uint64{2, 3}},
		{4, []uint64{2, 3}},
	}
	for _, tt := range tests {
		for _, bs := range []uint64{1, 2, 10} {
			t.Run(fmt.Sprintf("bound=%d/bs=%d", tt.bound, bs), func(t *testing.T) {
				primes, err := Primes(tt.bound, bs)
				require.NoError(t, err)
				if tt.want == nil {
					assert.Empty(t, primes)
				} else {
					assert.Equal(t, tt.want, primes)
				}
			})
		}
	}
}

// TestPrimesRejectsZeroBlockSize must fail fast, not hang or divide by zero
func TestPrimesRejectsZeroBlockSize(t *testing.T) {
	primes, err := Primes(100, 0)
	assert.Nil(t, primes)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

// TestRunRejectsInvalidConfiguration covers the other rejection rules
func TestRunRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"bound above maximum", config.New(config.MaxBound+1, 1<<40)},
		{"negative workers", config.Config{Bound: 100, BlockSize: 10, Workers: -2}},
		{"too many blocks", config.New(config.MaxBound, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(context.Background(), tt.cfg)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
		})
	}
}

// TestPartitionInvariance checks the result does not depend on block size or
// pool size.
func TestPartitionInvariance(t *testing.T) {
	for _, bound := range []uint64{2, 17, 100, 121, 1000, 9973} {
		want := reference(bound)
		for _, bs := range []uint64{1, 2, 3, 7, 64, bound / 2, bound, bound + 5} {
			if bs == 0 {
				continue
			}
			for _, workers := range []int{1, 2, 3, 8} {
				res, err := Run(context.Background(), config.Config{Bound: bound, BlockSize: bs, Workers: workers})
				require.NoError(t, err, "bound=%d bs=%d workers=%d", bound, bs, workers)
				require.Equal(t, want, res.Primes, "bound=%d bs=%d workers=%d", bound, bs, workers)
			}
		}
	}
}

// TestSingleBlockCollapse compares one-block and many-block runs
func TestSingleBlockCollapse(t *testing.T) {
	single, err := Run(context.Background(), config.New(5000, 5000))
	require.NoError(t, err)
	many, err := Run(context.Background(), config.New(5000, 13))
	require.NoError(t, err)

	assert.Equal(t, 2, single.Blocks)
	assert.True(t, single.Registry.Get(1).Range.Empty())
	assert.Zero(t, single.Registry.Get(1).Primes)
	assert.Equal(t, many.Primes, single.Primes)
	assert.Equal(t, many.Digest, single.Digest)
}

// TestRoundTrip concatenates base primes and block results by hand
func TestRoundTrip(t *testing.T) {
	res, err := Run(context.Background(), config.New(10_000, 97))
	require.NoError(t, err)

	want := reference(10_000)
	require.Equal(t, want, res.Primes)

	// strictly ascending, hence duplicate-free
	for i := 1; i < len(res.Primes); i++ {
		require.Less(t, res.Primes[i-1], res.Primes[i])
	}

	base := reference(res.Registry.plan.SqrtN)
	assert.Equal(t, len(base), res.Base)
	assert.Equal(t, base, res.Primes[:res.Base])
	assert.Equal(t, len(want)-res.Base, res.Registry.Primes())
}

// TestRunResult checks run metadata
func TestRunResult(t *testing.T) {
	res, err := Run(context.Background(), config.Config{Bound: 1000, BlockSize: 100, Workers: 3})
	require.NoError(t, err)

	assert.Equal(t, 11, res.Blocks)
	assert.Equal(t, 3, res.Workers)
	assert.Equal(t, 3, res.Config.Workers)
	assert.Equal(t, uint64(997), res.Largest())
	assert.Len(t, res.Digest, 64)
	assert.Equal(t, scheduler.Stats{Spawned: 11, Completed: 11}, res.Stats)
	assert.Equal(t, 11, res.Registry.NumBlocks())
	assert.Empty(t, res.Registry.Failed())
	assert.Nil(t, res.Registry.Get(11))

	summary := res.Summary()
	assert.Equal(t, uint64(1000), summary.Bound)
	assert.Equal(t, uint64(100), summary.BlockSize)
	assert.Equal(t, 168, summary.Count)
	assert.Equal(t, uint64(997), summary.Largest)
	assert.Equal(t, res.Digest, summary.Digest)
}

// TestRunAllocationFailure makes one block fail and checks nothing leaks out
func TestRunAllocationFailure(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	failing := func(bits uint) (*bitset.BitSet, error) {
		mu.Lock()
		calls++
		fail := calls == 5
		mu.Unlock()
		if fail {
			return nil, fmt.Errorf("%w: injected", block.ErrAllocation)
		}
		return bitset.New(bits), nil
	}

	res, err := Run(context.Background(), config.Config{Bound: 10_000, BlockSize: 50, Workers: 4},
		WithBufferFunc(failing))
	assert.Nil(t, res)
	require.ErrorIs(t, err, block.ErrAllocation)

	var stageErr *block.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, block.StageBuffer, stageErr.Stage)
}

// TestRunPanickingBuffer converts a panic in a pipeline into a run failure
func TestRunPanickingBuffer(t *testing.T) {
	res, err := Run(context.Background(), config.New(1000, 10),
		WithBufferFunc(func(bits uint) (*bitset.BitSet, error) {
			panic("cannot allocate")
		}))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, scheduler.ErrTaskPanic)
}

// TestRunCancelled stops before any block runs
func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, config.New(100_000, 100))
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}

// TestRunSharedPool leaves a caller-owned pool open
func TestRunSharedPool(t *testing.T) {
	pool := scheduler.NewPool(2)
	defer pool.Close()

	for i := 0; i < 3; i++ {
		res, err := Run(context.Background(), config.New(2000, 64), WithPool(pool))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Workers)
		assert.Equal(t, reference(2000), res.Primes)
	}
	assert.NoError(t, pool.Submit(context.Background(), func() {}))
}

// TestRunLogging checks the run reports through the supplied logger
func TestRunLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	_, err := Run(context.Background(), config.New(500, 50), WithLogger(logrus.NewEntry(logger)))
	require.NoError(t, err)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "sieve run complete", last.Message)
	assert.Equal(t, 95, last.Data["primes"])
	assert.Equal(t, uint64(500), last.Data["bound"])
}

// TestRunLoggingFailedBlocks reports each failed block after the run fails
func TestRunLoggingFailedBlocks(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	failing := func(bits uint) (*bitset.BitSet, error) {
		return nil, fmt.Errorf("%w: injected", block.ErrAllocation)
	}
	_, err := Run(context.Background(), config.Config{Bound: 500, BlockSize: 100, Workers: 1},
		WithLogger(logrus.NewEntry(logger)), WithBufferFunc(failing))
	require.ErrorIs(t, err, block.ErrAllocation)

	var failed []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "block failed" {
			failed = append(failed, e)
		}
	}
	require.NotEmpty(t, failed)
	first := failed[0]
	assert.Equal(t, uint64(0), first.Data["block"])
	assert.Equal(t, uint64(24), first.Data["lo"])
	assert.ErrorIs(t, first.Data[logrus.ErrorKey].(error), block.ErrAllocation)
}

// TestConcurrentRuns repeats the same run concurrently under different pool
// sizes; every run must produce the identical ordered result.
func TestConcurrentRuns(t *testing.T) {
	runs := 100
	if testing.Short() {
		runs = 10
	}

	const bound, blockSize = 1_000_000, 128
	want, err := Run(context.Background(), config.New(bound, blockSize))
	require.NoError(t, err)
	require.Len(t, want.Primes, 78498)

	var wg sync.WaitGroup
	digests := make([]string, runs)
	counts := make([]int, runs)
	errs := make([]error, runs)
	wg.Add(runs)
	for i := 0; i < runs; i++ {
		go func(id int) {
			defer wg.Done()
			res, err := Run(context.Background(), config.Config{
				Bound:     bound,
				BlockSize: blockSize,
				Workers:   1 + id%8,
			})
			if err != nil {
				errs[id] = err
				return
			}
			digests[id] = res.Digest
			counts[id] = len(res.Primes)
		}(i)
	}
	wg.Wait()

	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i], "run %d", i)
		assert.Equal(t, want.Digest, digests[i], "run %d", i)
		assert.Equal(t, len(want.Primes), counts[i], "run %d", i)
	}
}
