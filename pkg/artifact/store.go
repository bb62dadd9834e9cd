// Package artifact persists the intermediate files produced by workers.
//
// Every artifact gets a fresh name, is written by exactly one worker and is
// consumed (and deleted) exactly once by the merger.
package artifact

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/downfa11-org/fixedwidth/pkg/metrics"
	"github.com/downfa11-org/fixedwidth/util"
	"github.com/google/uuid"
)

const (
	KindFixedWidth = "fixed-width"
	KindCSV        = "csv"

	writeBufferSize = 1 << 20
)

type Store struct {
	Dir string
	// Sync fsyncs each artifact before it is handed to the merger.
	Sync bool
}

// NewStore uses os.TempDir when dir is empty.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) path(kind string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s-%s.tmp", kind, uuid.NewString()))
}

// WriteString persists data as a new fixed-width artifact.
func (s *Store) WriteString(data string) (string, error) {
	return s.write(KindFixedWidth, func(w io.Writer) error {
		_, err := io.WriteString(w, data)
		return err
	})
}

// WriteRows persists rows as a new comma-separated artifact with standard quoting.
func (s *Store) WriteRows(rows [][]string) (string, error) {
	return s.write(KindCSV, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	})
}

func (s *Store) write(kind string, fill func(io.Writer) error) (_ string, err error) {
	path := s.path(kind)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	util.AdviseSequential(f)

	defer func() {
		if err != nil {
			_ = f.Close()
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				util.Warn("failed to remove partial artifact %s: %v", path, rmErr)
			}
		}
	}()

	cw := &countingWriter{w: f}
	bw := bufio.NewWriterSize(cw, writeBufferSize)
	if err = fill(bw); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	if err = bw.Flush(); err != nil {
		return "", fmt.Errorf("flush artifact %s: %w", path, err)
	}
	if s.Sync {
		if err = f.Sync(); err != nil {
			return "", fmt.Errorf("sync artifact %s: %w", path, err)
		}
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("close artifact %s: %w", path, err)
	}

	metrics.ObserveArtifact(kind, cw.n)
	util.Debug("Wrote %s artifact %s (%d bytes)", kind, path, cw.n)
	return path, nil
}

// Remove deletes an artifact that has been consumed.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
