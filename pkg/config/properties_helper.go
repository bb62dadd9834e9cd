package config

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/downfa11-org/fixedwidth/util"
)

func (cfg *Config) Normalize() {
	// files
	if strings.TrimSpace(cfg.SpecFile) == "" {
		cfg.SpecFile = DefaultSpecFile
	}
	if strings.TrimSpace(cfg.FixedWidthOutput) == "" {
		cfg.FixedWidthOutput = DefaultFixedWidthOutput
	}
	if strings.TrimSpace(cfg.CSVOutput) == "" {
		cfg.CSVOutput = DefaultCSVOutput
	}
	if cfg.RowCount < 0 {
		util.Warn("Invalid row_count (%d), defaulting to 0", cfg.RowCount)
		cfg.RowCount = 0
	}

	// parallelism
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MaxUnitRows <= 0 {
		cfg.MaxUnitRows = DefaultMaxUnitRows
	}
	if cfg.MergeWindowBytes <= 0 {
		cfg.MergeWindowBytes = DefaultMergeWindowBytes
	}

	// retry
	if cfg.RetryMaxRetries < 0 {
		util.Warn("Invalid retry_max_retries (%d), defaulting to 3", cfg.RetryMaxRetries)
		cfg.RetryMaxRetries = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = time.Second
	}

	if cfg.ExporterPort <= 0 {
		cfg.ExporterPort = DefaultExporterPort
	}
}

func overrideEnvInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseInt(v, *target)
	}
}

func overrideEnvByteSize(target *int64, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseByteSize(v, *target)
	}
}

func overrideEnvBool(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseBool(v, *target)
	}
}

func overrideEnvString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func overrideEnvDuration(target *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}

func overrideEnvLogLevel(target *util.LogLevel, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseLogLevel(v)
	}
}
