// Package main implements the sieve command, which computes every prime up to
// a bound with the concurrent segmented sieve and writes the result.
//
// The command is a thin wrapper around coordinator.Run:
//   - Reads bound, block size and pool size from arguments, flags,
//     SIEVE_* environment variables or a YAML config file
//   - Runs the sieve, cancelling on SIGINT/SIGTERM
//   - Logs a timing summary to stderr
//   - Writes primes (text or CBOR) or a YAML summary to stdout or a file
//
// Precedence (highest first): positional arguments, flags, environment,
// config file, defaults.
//
// Configuration:
//   - SIEVE_BOUND: Inclusive upper limit (default: 100000000)
//   - SIEVE_BLOCK_SIZE: Integers per block (default: 102400)
//   - SIEVE_WORKERS: Worker pool size (default: 0, meaning GOMAXPROCS)
//   - SIEVE_FORMAT: text, cbor or yaml (default: text)
//   - SIEVE_LOG_LEVEL: debug, info, warn or error (default: info)
//
// Example usage:
//
//	# All primes below one hundred, blocks of seven
//	sieve 100 7
//
//	# Block size in units of 1024 integers
//	sieve 100_000_000 100Ki
//
//	# Timing only, one billion with eight workers
//	sieve --count-only --workers 8 1_000_000_000
//
//	# Compressed CBOR dump
//	sieve --format cbor --output primes.cbor.zst 10_000_000
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"leb.io/hrff"

	"github.com/dreamware/sieve/internal/config"
	"github.com/dreamware/sieve/internal/coordinator"
	"github.com/dreamware/sieve/internal/storage"
)

// osExit is a variable to allow intercepting the exit code in tests
var osExit = os.Exit

// settings is everything the command needs for one invocation
type settings struct {
	Config    config.Config
	Format    storage.Format
	Output    string
	CountOnly bool
	LogLevel  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(viper.New()).ExecuteContext(ctx); err != nil {
		osExit(1)
	}
}

// newRootCmd builds the command bound to v. Tests pass a fresh viper so
// invocations do not share state.
func newRootCmd(v *viper.Viper) *cobra.Command {
	var (
		configPath string
		bindErr    error
	)

	cmd := &cobra.Command{
		Use:   "sieve [bound] [block-size]",
		Short: "Compute all primes up to a bound with a concurrent segmented sieve",
		Long: `Computes every prime <= bound. The range above sqrt(bound) is cut into
blocks that are sieved concurrently on a fixed-size worker pool and
reassembled in order.

Both positional arguments are plain integer counts. The block size also
accepts a Ki suffix counting units of 1024 integers, so "100Ki" selects
the default block size.`,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bindErr != nil {
				return bindErr
			}
			s, err := loadSettings(v, configPath, args)
			if err != nil {
				return err
			}
			log := setupLogger(s.LogLevel, cmd.ErrOrStderr())
			return run(cmd.Context(), cmd.OutOrStdout(), log, s)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.Uint64("bound", config.DefaultBound, "inclusive upper limit")
	flags.Uint64("block-size", config.DefaultBlockSize, "integers per block")
	flags.Int("workers", 0, "worker pool size (0 = GOMAXPROCS)")
	flags.String("format", string(storage.FormatText), "output format: text, cbor or yaml")
	flags.StringP("output", "o", "", "output file (default stdout, .zst suffix compresses)")
	flags.Bool("count-only", false, "write the YAML summary instead of the primes")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	v.SetDefault("bound", config.DefaultBound)
	v.SetDefault("block_size", config.DefaultBlockSize)
	v.SetDefault("workers", 0)
	v.SetDefault("format", string(storage.FormatText))
	v.SetDefault("output", "")
	v.SetDefault("count_only", false)
	v.SetDefault("log_level", "info")

	bindErr = bindFlags(v, flags, map[string]string{
		"bound":      "bound",
		"block_size": "block-size",
		"workers":    "workers",
		"format":     "format",
		"output":     "output",
		"count_only": "count-only",
		"log_level":  "log-level",
	})

	v.SetEnvPrefix("SIEVE")
	v.AutomaticEnv()

	return cmd
}

// bindFlags binds each viper key to the named flag
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	var errs []error
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			errs = append(errs, fmt.Errorf("binding flag %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// loadSettings merges config file, environment, flags and positional args
func loadSettings(v *viper.Viper, configPath string, args []string) (settings, error) {
	var s settings

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return s, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&s.Config); err != nil {
		return s, fmt.Errorf("decoding config: %w", err)
	}

	if len(args) > 0 {
		bound, err := parseCount(args[0])
		if err != nil {
			return s, fmt.Errorf("bound: %w", err)
		}
		s.Config.Bound = bound
	}
	if len(args) > 1 {
		blockSize, err := parseBlockSize(args[1])
		if err != nil {
			return s, fmt.Errorf("block size: %w", err)
		}
		s.Config.BlockSize = blockSize
	}

	format, err := storage.ParseFormat(v.GetString("format"))
	if err != nil {
		return s, err
	}
	s.Format = format
	s.Output = v.GetString("output")
	s.CountOnly = v.GetBool("count_only")
	s.LogLevel = v.GetString("log_level")

	return s, s.Config.Validate()
}

// parseCount accepts decimal, 0x-prefixed and underscore-separated integers
func parseCount(arg string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(arg), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", arg)
	}
	return n, nil
}

// parseBlockSize accepts a count, optionally suffixed with Ki for units of 1024
func parseBlockSize(arg string) (uint64, error) {
	digits, ok := strings.CutSuffix(strings.TrimSpace(arg), "Ki")
	if !ok {
		return parseCount(arg)
	}
	n, err := parseCount(digits)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint64/1024 {
		return 0, fmt.Errorf("invalid number %q: overflows", arg)
	}
	return n * 1024, nil
}

func setupLogger(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// run executes the sieve and writes the requested output
func run(ctx context.Context, stdout io.Writer, log *logrus.Logger, s settings) error {
	res, err := coordinator.Run(ctx, s.Config, coordinator.WithLogger(logrus.NewEntry(log)))
	if err != nil {
		log.WithError(err).Error("sieve failed")
		return err
	}

	log.WithFields(logrus.Fields{
		"bound":      res.Config.Bound,
		"block_size": res.Config.BlockSize,
		"blocks":     res.Blocks,
		"workers":    res.Workers,
		"digest":     res.Digest,
	}).Infof("found %h in %v", hrff.Int64{V: int64(len(res.Primes)), U: "primes"}, res.Elapsed)

	dest := stdout
	if s.Output != "" {
		f, err := os.Create(s.Output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		dest = f
	}

	w, err := storage.NewWriter(dest, strings.HasSuffix(s.Output, ".zst"))
	if err != nil {
		return err
	}

	format := s.Format
	if s.CountOnly {
		format = storage.FormatYAML
	}
	if err := storage.Export(w, format, res.Primes, res.Summary()); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
