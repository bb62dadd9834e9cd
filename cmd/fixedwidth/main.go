package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/downfa11-org/fixedwidth/pkg/config"
	"github.com/downfa11-org/fixedwidth/pkg/metrics"
	"github.com/downfa11-org/fixedwidth/pkg/pipeline"
	"github.com/downfa11-org/fixedwidth/util"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		util.Fatal("❌ %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fixedwidth",
		Short:         "Generate fixed-width files and parse them into CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, func(ctx context.Context, r *pipeline.Runner, _ *config.Config) error {
				return r.Run(ctx)
			})
		},
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Generate the fixed-width file, then parse it into CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, func(ctx context.Context, r *pipeline.Runner, _ *config.Config) error {
				return r.Run(ctx)
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate the fixed-width file only",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, func(ctx context.Context, r *pipeline.Runner, cfg *config.Config) error {
				s, err := r.LoadSpec()
				if err != nil {
					return err
				}
				return r.GenerateFile(ctx, s, cfg.RowCount, cfg.FixedWidthOutput)
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "parse",
		Short: "Parse an existing fixed-width file into CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, func(ctx context.Context, r *pipeline.Runner, cfg *config.Config) error {
				s, err := r.LoadSpec()
				if err != nil {
					return err
				}
				return r.ParseFile(ctx, s, cfg.ParseInput(), cfg.CSVOutput)
			})
		},
	})

	return root
}

type phaseFunc func(ctx context.Context, r *pipeline.Runner, cfg *config.Config) error

func execute(cmd *cobra.Command, phase phaseFunc) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	util.InitLogger(cfg.LogLevel, os.Stderr)
	defer util.Sync()

	util.Info("🚀 Starting fixedwidth with %d workers, unit size %d", cfg.Workers, cfg.MaxUnitRows)
	util.Info("📊 Exporter: %v", cfg.EnableExporter)

	if cfg.EnableExporter {
		srv := metrics.StartMetricsServer(cfg.ExporterPort)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := pipeline.NewRunner(cfg)
	if err != nil {
		return err
	}
	if err := phase(ctx, r, cfg); err != nil {
		util.Error("An error occurred: %v", err)
		return err
	}
	return nil
}
