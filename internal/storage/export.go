package storage

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding used by Export
type Format string

const (
	// FormatText writes one prime per line
	FormatText Format = "text"
	// FormatCBOR writes a CBOR array of unsigned integers
	FormatCBOR Format = "cbor"
	// FormatYAML writes the summary only
	FormatYAML Format = "yaml"
)

// Summary describes a finished run
type Summary struct {
	Bound     uint64 `yaml:"bound"`
	BlockSize uint64 `yaml:"block_size"`
	Blocks    int    `yaml:"blocks"`
	Workers   int    `yaml:"workers"`
	Count     int    `yaml:"count"`
	Largest   uint64 `yaml:"largest,omitempty"`
	Digest    string `yaml:"digest"`
	Elapsed   string `yaml:"elapsed,omitempty"`
}

// encMode uses Core Deterministic Encoding so identical prime lists always
// produce identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("storage: CBOR encoder initialization failed: " + err.Error())
	}
}

// ParseFormat converts a flag value to a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatCBOR, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, cbor or yaml)", s)
	}
}

// Export writes primes or summary to w in the given format
func Export(w io.Writer, format Format, primes []uint64, summary Summary) error {
	switch format {
	case FormatText, "":
		return writeText(w, primes)
	case FormatCBOR:
		if err := encMode.NewEncoder(w).Encode(primes); err != nil {
			return fmt.Errorf("encoding cbor: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, primes []uint64) error {
	bw := bufio.NewWriter(w)
	var line []byte
	for _, p := range primes {
		line = strconv.AppendUint(line[:0], p, 10)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("writing primes: %w", err)
		}
	}
	return bw.Flush()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// NewWriter returns w, wrapped in a zstd encoder when compress is set.
// The caller must Close the result to flush compressed output.
func NewWriter(w io.Writer, compress bool) (io.WriteCloser, error) {
	if !compress {
		return nopCloser{w}, nil
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("creating zstd writer: %w", err)
	}
	return enc, nil
}
