// Package merge concatenates ordered artifacts into one output file.
package merge

import (
	"fmt"
	"os"
	"strings"

	"github.com/downfa11-org/fixedwidth/pkg/artifact"
	"github.com/downfa11-org/fixedwidth/pkg/metrics"
	"github.com/downfa11-org/fixedwidth/util"
	"golang.org/x/exp/mmap"
)

// DefaultWindow is the largest slice of an artifact held in memory at once.
const DefaultWindow = 100 * 1024 * 1024

type Options struct {
	// Header is written as one comma-joined line before any artifact.
	Header []string
	// Window bounds the bytes copied per read. Non-positive means DefaultWindow.
	Window int
}

// Merge writes the artifacts at paths, in order, to out and deletes each
// artifact once it has been fully copied. On failure the artifacts not yet
// consumed are left on disk.
func Merge(paths []string, out string, opts Options) (err error) {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}

	util.Info("Creating output file %s.", out)
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output %s: %w", out, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output %s: %w", out, cerr)
		}
	}()
	util.AdviseSequential(f)

	if len(opts.Header) > 0 {
		if _, err := f.WriteString(strings.Join(opts.Header, ",") + "\n"); err != nil {
			return fmt.Errorf("write header to %s: %w", out, err)
		}
	}

	buf := make([]byte, window)
	var total int64
	for i, path := range paths {
		n, err := copyArtifact(f, path, buf)
		if err != nil {
			return fmt.Errorf("merge artifact %d/%d %s: %w", i+1, len(paths), path, err)
		}
		if err := artifact.Remove(path); err != nil {
			return fmt.Errorf("merge artifact %d/%d: %w", i+1, len(paths), err)
		}
		total += n
		metrics.ArtifactsMerged.Inc()
	}

	util.Info("Merged %d artifacts (%d bytes) into %s", len(paths), total, out)
	return nil
}

func copyArtifact(dst *os.File, path string, buf []byte) (int64, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return 0, fmt.Errorf("mmap open failed: %w", err)
	}
	defer r.Close()

	size := int64(r.Len())
	var off int64
	for off < size {
		n := int64(len(buf))
		if remaining := size - off; remaining < n {
			n = remaining
		}
		read, err := r.ReadAt(buf[:n], off)
		if err != nil && int64(read) != n {
			return off, fmt.Errorf("read at %d: %w", off, err)
		}
		if read == 0 {
			return off, fmt.Errorf("read at %d: no progress", off)
		}
		if _, err := dst.Write(buf[:read]); err != nil {
			return off, fmt.Errorf("write: %w", err)
		}
		off += int64(read)
		metrics.BytesMerged.Add(float64(read))
	}
	return off, nil
}
