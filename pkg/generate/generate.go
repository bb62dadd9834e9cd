// Package generate produces blocks of random fixed-width rows.
package generate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/downfa11-org/fixedwidth/pkg/artifact"
	"github.com/downfa11-org/fixedwidth/pkg/chunk"
	"github.com/downfa11-org/fixedwidth/pkg/metrics"
	"github.com/downfa11-org/fixedwidth/pkg/retry"
	"github.com/downfa11-org/fixedwidth/pkg/spec"
	"github.com/downfa11-org/fixedwidth/util"
)

type Worker struct {
	Store  *artifact.Store
	Source util.StringSource
	Policy retry.Policy

	write func(data string) (string, error)
}

func NewWorker(store *artifact.Store, policy retry.Policy) *Worker {
	return &Worker{Store: store, Source: util.RandomString, Policy: policy, write: store.WriteString}
}

// Generate builds one newline-terminated line per row in unit and persists
// the block as a fixed-width artifact. Any field failure aborts the whole unit.
func (w *Worker) Generate(ctx context.Context, unit chunk.Range, s *spec.Spec) (string, error) {
	util.Debug("Starting to generate fixed width rows %s", unit)

	block, err := w.Block(unit.Len(), s)
	if err != nil {
		util.Error("Error processing data: %v", err)
		return "", err
	}

	path, err := retry.Do(w.Policy, "write_to_temp_file", func() (string, error) {
		return w.persist(block)
	})
	if err != nil {
		util.Error("Error writing to temporary file: %v", err)
		return "", err
	}

	metrics.RowsGenerated.Add(float64(unit.Len()))
	util.Debug("Finished generating fixed width rows %s", unit)
	return path, nil
}

func (w *Worker) persist(block string) (string, error) {
	if w.write != nil {
		return w.write(block)
	}
	return w.Store.WriteString(block)
}

// Block renders rows lines of random field values in spec order.
func (w *Worker) Block(rows int, s *spec.Spec) (string, error) {
	if rows <= 0 {
		return "", nil
	}
	widths := s.Widths()

	var b strings.Builder
	b.Grow(rows * (s.LineWidth() + 1))
	for i := 0; i < rows; i++ {
		for f, width := range widths {
			value, err := w.field(width)
			if err != nil {
				return "", fmt.Errorf("row %d field %d: %w", i, f, err)
			}
			b.WriteString(value)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (w *Worker) field(width int) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("%w (got %d)", spec.ErrInvalidWidth, width)
	}
	value, err := retry.Do(w.Policy, "generate_random_string", func() (string, error) {
		return w.Source.String(width)
	})
	if err != nil {
		return "", err
	}
	if n := utf8.RuneCountInString(value); n != width {
		return "", fmt.Errorf("source returned %d characters for width %d", n, width)
	}
	return value, nil
}
