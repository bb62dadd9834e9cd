// Package parse slices fixed-width lines into delimited rows.
package parse

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/downfa11-org/fixedwidth/pkg/artifact"
	"github.com/downfa11-org/fixedwidth/pkg/metrics"
	"github.com/downfa11-org/fixedwidth/pkg/spec"
	"github.com/downfa11-org/fixedwidth/util"
)

type Worker struct {
	Store *artifact.Store

	write func(rows [][]string) (string, error)
}

func NewWorker(store *artifact.Store) *Worker {
	return &Worker{Store: store, write: store.WriteRows}
}

// Parse converts lines to rows and persists them as one CSV artifact.
// The write is not retried: a failure here aborts the unit.
func (w *Worker) Parse(ctx context.Context, lines []string, s *spec.Spec) (string, error) {
	widths := s.Widths()
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, SplitLine(line, widths))
	}

	write := w.write
	if write == nil {
		write = w.Store.WriteRows
	}
	path, err := write(rows)
	if err != nil {
		util.Error("Error writing parsed rows: %v", err)
		return "", err
	}
	metrics.RowsParsed.Add(float64(len(rows)))
	util.Debug("Parsed %d lines into %s", len(rows), path)
	return path, nil
}

// SplitLine strips the line terminator and cuts line into len(widths)
// whitespace-trimmed values. Offsets count characters, not bytes; a short
// line yields empty trailing values.
func SplitLine(line string, widths []int) []string {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	values := make([]string, len(widths))
	if isASCII(line) {
		start := 0
		for i, width := range widths {
			values[i] = strings.TrimSpace(slice(line, start, width))
			start += width
		}
		return values
	}

	runes := []rune(line)
	start := 0
	for i, width := range widths {
		values[i] = strings.TrimSpace(string(sliceRunes(runes, start, width)))
		start += width
	}
	return values
}

func slice(s string, start, width int) string {
	if start >= len(s) {
		return ""
	}
	end := start + width
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

func sliceRunes(r []rune, start, width int) []rune {
	if start >= len(r) {
		return nil
	}
	end := start + width
	if end > len(r) {
		end = len(r)
	}
	return r[start:end]
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
