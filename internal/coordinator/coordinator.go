package coordinator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dreamware/sieve/internal/block"
	"github.com/dreamware/sieve/internal/config"
	"github.com/dreamware/sieve/internal/scheduler"
	"github.com/dreamware/sieve/internal/sieve"
	"github.com/dreamware/sieve/internal/storage"
)

// Result is the outcome of a successful run
type Result struct {
	Config   config.Config   // Normalized configuration
	Primes   []uint64        // All primes <= Bound, ascending
	Base     int             // How many of Primes came from the base sieve
	Blocks   int             // Pipelines scheduled
	Workers  int             // Pool size used
	Digest   string          // blake3 fingerprint of Primes
	Stats    scheduler.Stats // Task counts by final state
	Elapsed  time.Duration   // Wall time of Run
	Registry *BlockRegistry  // Per-block records
}

// Largest returns the largest prime found, or 0 if there is none
func (r *Result) Largest() uint64 {
	if len(r.Primes) == 0 {
		return 0
	}
	return r.Primes[len(r.Primes)-1]
}

// Summary converts the result into the exporter's summary form
func (r *Result) Summary() storage.Summary {
	return storage.Summary{
		Bound:     r.Config.Bound,
		BlockSize: r.Config.BlockSize,
		Blocks:    r.Blocks,
		Workers:   r.Workers,
		Count:     len(r.Primes),
		Largest:   r.Largest(),
		Digest:    r.Digest,
		Elapsed:   r.Elapsed.String(),
	}
}

type options struct {
	log    *logrus.Entry
	buffer block.BufferFunc
	pool   *scheduler.Pool
}

// Option configures Run
type Option func(*options)

// WithLogger sets the logger for run diagnostics
func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

// WithBufferFunc replaces the candidate buffer allocator
func WithBufferFunc(f block.BufferFunc) Option {
	return func(o *options) { o.buffer = f }
}

// WithPool runs on a caller-owned pool instead of a per-run one.
// Config.Workers is ignored and the pool is left open.
func WithPool(pool *scheduler.Pool) Option {
	return func(o *options) { o.pool = pool }
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Primes returns every prime <= bound, sieving blocks of blockSize integers
// on a pool sized to GOMAXPROCS.
func Primes(bound, blockSize uint64) ([]uint64, error) {
	res, err := Run(context.Background(), config.New(bound, blockSize))
	if err != nil {
		return nil, err
	}
	return res.Primes, nil
}

// Run performs one sieve run. It returns only after every scheduled pipeline
// has finished; on failure no primes are returned.
func Run(ctx context.Context, cfg config.Config, opts ...Option) (*Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = discardLogger()
	}

	start := time.Now()

	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	plan, err := block.NewPlan(cfg)
	if err != nil {
		return nil, err
	}

	base := sieve.Primes(sieve.Base(plan.SqrtN))
	table := storage.NewTable(plan.Slots())
	if err := table.Put(0, base); err != nil {
		return nil, err
	}

	alloc := block.NewAllocator(plan.Blocks)
	pipeline := block.NewPipeline(plan, base, alloc, table, o.buffer)
	registry := NewBlockRegistry(plan)

	pool := o.pool
	if pool == nil {
		pool = scheduler.NewPool(cfg.Workers)
		defer pool.Close()
	}
	cfg.Workers = pool.Size()

	log := o.log.WithFields(logrus.Fields{
		"bound":      plan.Bound,
		"block_size": plan.BlockSize,
		"blocks":     plan.Blocks,
		"workers":    cfg.Workers,
	})
	log.WithField("base_primes", len(base)).Debug("sieve run starting")

	scope := scheduler.NewScope(ctx, pool)
	for i := uint64(0); i < plan.Blocks; i++ {
		scope.Spawn(func(ctx context.Context) error {
			out, err := pipeline.Run(ctx)
			if err != nil {
				registry.fail(err)
				return err
			}
			registry.record(out)
			return nil
		})
	}

	if err := scope.Join(); err != nil {
		table.Poison(err)
		stats := scope.Stats()
		log.WithError(err).WithFields(logrus.Fields{
			"failed":    stats.Failed,
			"completed": stats.Completed,
		}).Debug("sieve run failed")
		for _, rec := range registry.Failed() {
			log.WithError(rec.Err).WithFields(logrus.Fields{
				"block": rec.Range.Index,
				"lo":    rec.Range.Lo,
				"hi":    rec.Range.Hi,
			}).Debug("block failed")
		}
		return nil, fmt.Errorf("sieve run: %w", err)
	}

	if err := table.Seal(); err != nil {
		return nil, err
	}
	primes, err := table.Primes()
	if err != nil {
		return nil, err
	}
	digest, err := table.Digest()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Config:   cfg,
		Primes:   primes,
		Base:     len(base),
		Blocks:   int(plan.Blocks),
		Workers:  cfg.Workers,
		Digest:   digest,
		Stats:    scope.Stats(),
		Elapsed:  time.Since(start),
		Registry: registry,
	}
	log.WithFields(logrus.Fields{
		"primes":  len(primes),
		"elapsed": res.Elapsed,
	}).Debug("sieve run complete")
	return res, nil
}
