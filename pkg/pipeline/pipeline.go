// Package pipeline wires the generate and parse phases end to end.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/downfa11-org/fixedwidth/pkg/artifact"
	"github.com/downfa11-org/fixedwidth/pkg/chunk"
	"github.com/downfa11-org/fixedwidth/pkg/config"
	"github.com/downfa11-org/fixedwidth/pkg/generate"
	"github.com/downfa11-org/fixedwidth/pkg/merge"
	"github.com/downfa11-org/fixedwidth/pkg/metrics"
	"github.com/downfa11-org/fixedwidth/pkg/parse"
	"github.com/downfa11-org/fixedwidth/pkg/pool"
	"github.com/downfa11-org/fixedwidth/pkg/spec"
	"github.com/downfa11-org/fixedwidth/util"
)

const (
	PhaseGenerate = "generate"
	PhaseParse    = "parse"
)

type Runner struct {
	cfg       *config.Config
	store     *artifact.Store
	generator *generate.Worker
	parser    *parse.Worker
}

func NewRunner(cfg *config.Config) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	store, err := artifact.NewStore(cfg.TempDir)
	if err != nil {
		return nil, err
	}
	store.Sync = cfg.SyncArtifacts

	return &Runner{
		cfg:       cfg,
		store:     store,
		generator: generate.NewWorker(store, cfg.RetryPolicy()),
		parser:    parse.NewWorker(store),
	}, nil
}

// Generator exposes the generation worker so callers can swap its value source.
func (r *Runner) Generator() *generate.Worker { return r.generator }

// LoadSpec reads the configured spec file.
func (r *Runner) LoadSpec() (*spec.Spec, error) {
	return spec.Load(r.cfg.SpecFile, r.cfg.RetryPolicy())
}

// Run loads the spec, generates the fixed-width file and parses it back into CSV.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	s, err := r.LoadSpec()
	if err != nil {
		return err
	}

	if err := r.GenerateFile(ctx, s, r.cfg.RowCount, r.cfg.FixedWidthOutput); err != nil {
		return err
	}
	if err := r.ParseFile(ctx, s, r.cfg.FixedWidthOutput, r.cfg.CSVOutput); err != nil {
		return err
	}

	util.Info("Total execution time: %.2f seconds", time.Since(start).Seconds())
	return nil
}

// GenerateFile writes rows random lines laid out by s to out.
func (r *Runner) GenerateFile(ctx context.Context, s *spec.Spec, rows int, out string) error {
	util.Info("Generating fixed width file %s with %d rows", out, rows)
	start := time.Now()

	units := chunk.Rows(rows, r.cfg.MaxUnitRows)
	paths, err := pool.Run(ctx, PhaseGenerate, r.generator.Generate, s, r.cfg.Workers, pool.FromSlice(units))
	if err != nil {
		return fmt.Errorf("generate %s: %w", out, err)
	}

	if err := ensureDir(out); err != nil {
		return err
	}
	if err := merge.Merge(paths, out, merge.Options{Window: r.window()}); err != nil {
		return fmt.Errorf("generate %s: %w", out, err)
	}

	observePhase(PhaseGenerate, start)
	return nil
}

// ParseFile converts the fixed-width file in to a CSV file at out with a
// header row of field names.
func (r *Runner) ParseFile(ctx context.Context, s *spec.Spec, in, out string) error {
	util.Info("Parsing fixed width file %s to CSV %s", in, out)
	start := time.Now()

	lf, err := chunk.OpenLines(in, r.cfg.MaxUnitRows)
	if err != nil {
		return fmt.Errorf("parse %s: %w", in, err)
	}
	defer lf.Close()

	paths, err := pool.Run(ctx, PhaseParse, r.parser.Parse, s, r.cfg.Workers, lf.Batches())
	if err != nil {
		return fmt.Errorf("parse %s: %w", lf.Path, err)
	}

	if err := ensureDir(out); err != nil {
		return err
	}
	if err := merge.Merge(paths, out, merge.Options{Header: s.Names(), Window: r.window()}); err != nil {
		return fmt.Errorf("parse %s: %w", in, err)
	}

	observePhase(PhaseParse, start)
	return nil
}

func (r *Runner) window() int {
	const maxInt = int64(^uint(0) >> 1)
	if r.cfg.MergeWindowBytes > maxInt {
		return int(maxInt)
	}
	return int(r.cfg.MergeWindowBytes)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return nil
}

func observePhase(phase string, start time.Time) {
	elapsed := time.Since(start)
	metrics.PhaseDuration.WithLabelValues(phase).Set(elapsed.Seconds())
	util.Info("Time taken to %s file: %.2f seconds", phase, elapsed.Seconds())
}
