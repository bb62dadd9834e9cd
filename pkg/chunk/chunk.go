// Package chunk splits work into bounded, ordered units.
package chunk

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/downfa11-org/fixedwidth/util"
)

// DefaultMaxUnit is the default number of rows or lines per unit.
const DefaultMaxUnit = 1_000_000

// Range is the half-open row interval [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Rows partitions total rows into contiguous ranges of at most max rows.
// A non-positive max yields a single range covering everything.
func Rows(total, max int) []Range {
	if total <= 0 {
		return nil
	}
	if max <= 0 || max > total {
		max = total
	}

	units := make([]Range, 0, (total+max-1)/max)
	for start := 0; start < total; start += max {
		end := start + max
		if end > total {
			end = total
		}
		units = append(units, Range{Start: start, End: end})
	}
	util.Debug("Chunk size: %d", max)
	util.Debug("Number of chunks created: %d", len(units))
	return units
}

// Lines yields batches of at most max lines read from r. Line terminators are
// kept; the final line may lack one. The sequence is single-use.
func Lines(r io.Reader, max int) iter.Seq2[[]string, error] {
	if max <= 0 {
		max = DefaultMaxUnit
	}
	br := bufio.NewReaderSize(r, 1<<20)

	return func(yield func([]string, error) bool) {
		for {
			batch := make([]string, 0, min(max, 4096))
			var readErr error
			for len(batch) < max {
				line, err := br.ReadString('\n')
				if line != "" {
					batch = append(batch, line)
				}
				if err != nil {
					if !errors.Is(err, io.EOF) {
						readErr = err
					}
					break
				}
			}

			if len(batch) == 0 && readErr == nil {
				return
			}
			util.Debug("Read %d lines of data", len(batch))
			if readErr != nil {
				yield(batch, readErr)
				return
			}
			if !yield(batch, nil) {
				return
			}
			if len(batch) < max {
				return
			}
		}
	}
}

// LineFile is an open input file read in line batches.
type LineFile struct {
	Path string
	max  int
	file *os.File
}

// OpenLines opens path for batched sequential reading.
func OpenLines(path string, max int) (*LineFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	util.AdviseSequential(f)
	return &LineFile{Path: path, max: max, file: f}, nil
}

func (lf *LineFile) Batches() iter.Seq2[[]string, error] {
	return Lines(lf.file, lf.max)
}

func (lf *LineFile) Close() error {
	return lf.file.Close()
}
