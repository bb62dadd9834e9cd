package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/downfa11-org/fixedwidth/pkg/retry"
	"github.com/downfa11-org/fixedwidth/util"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSpecFile         = "spec.json"
	DefaultFixedWidthOutput = "output/output.txt"
	DefaultCSVOutput        = "output/output.csv"
	DefaultRowCount         = 100000
	DefaultMaxUnitRows      = 1_000_000
	DefaultMergeWindowBytes = 100 * 1024 * 1024
	DefaultExporterPort     = 9100

	envPrefix = "FIXEDWIDTH_"
)

// Config holds every tunable of a generate/parse run.
type Config struct {
	// Files
	SpecFile         string `yaml:"spec_file" json:"spec.file"`
	FixedWidthOutput string `yaml:"fixed_width_output" json:"fixed_width.output"`
	CSVOutput        string `yaml:"csv_output" json:"csv.output"`
	// InputFile is parsed by the parse command; empty means FixedWidthOutput.
	InputFile string `yaml:"input_file" json:"input.file"`
	TempDir   string `yaml:"temp_dir" json:"temp.dir"`
	RowCount  int    `yaml:"row_count" json:"row.count"`

	// Parallelism
	Workers          int   `yaml:"workers" json:"workers"`
	MaxUnitRows      int   `yaml:"max_unit_rows" json:"max.unit.rows"`
	MergeWindowBytes int64 `yaml:"merge_window_bytes" json:"merge.window.bytes"`
	SyncArtifacts    bool  `yaml:"sync_artifacts" json:"sync.artifacts"`

	// Retry
	RetryMaxRetries int           `yaml:"retry_max_retries" json:"retry.max.retries"`
	RetryDelay      time.Duration `yaml:"retry_delay" json:"retry.delay"`

	// Observability
	LogLevel       util.LogLevel `yaml:"log_level" json:"log_level"`
	EnableExporter bool          `yaml:"enable_exporter" json:"enable.exporter"`
	ExporterPort   int           `yaml:"exporter_port" json:"exporter.port"`
}

// Default returns a Config with every field at its default value.
func Default() *Config {
	cfg := &Config{
		SpecFile:         DefaultSpecFile,
		FixedWidthOutput: DefaultFixedWidthOutput,
		CSVOutput:        DefaultCSVOutput,
		RowCount:         DefaultRowCount,
		MaxUnitRows:      DefaultMaxUnitRows,
		MergeWindowBytes: DefaultMergeWindowBytes,
		RetryMaxRetries:  retry.DefaultMaxRetries,
		RetryDelay:       retry.DefaultDelay,
		LogLevel:         util.LogLevelInfo,
		ExporterPort:     DefaultExporterPort,
	}
	cfg.Normalize()
	return cfg
}

// BindFlags registers the command-line flags understood by Load.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to YAML/JSON config file")
	fs.String("spec", d.SpecFile, "Path to the json specification file")
	fs.String("fixed-width-out", d.FixedWidthOutput, "Path for the generated text file")
	fs.String("csv-out", d.CSVOutput, "Path for the final CSV output file")
	fs.String("input", "", "Fixed-width file to parse (default: --fixed-width-out)")
	fs.String("temp-dir", "", "Directory for temporary artifacts (default: system temp dir)")
	fs.Int("rows", d.RowCount, "Number of rows to generate")
	fs.Int("workers", d.Workers, "Number of parallel workers")
	fs.Int("unit-rows", d.MaxUnitRows, "Maximum rows or lines per unit of work")
	fs.String("merge-window", "100MiB", "Maximum bytes read at a time while merging")
	fs.Bool("sync-artifacts", false, "fsync each temporary artifact after writing")
	fs.Int("retries", d.RetryMaxRetries, "Retries for operations prone to transient failure")
	fs.Duration("retry-delay", d.RetryDelay, "Delay between retries")
	fs.String("log-level", d.LogLevel.String(), "Log Level (debug, info, warn, error)")
	fs.Bool("exporter", false, "Enable Prometheus exporter")
	fs.Int("exporter-port", d.ExporterPort, "Exporter port")
}

// Load layers defaults, the config file (--config or CONFIG_PATH), explicitly
// set flags and FIXEDWIDTH_* environment variables, in that order.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if fs != nil && fs.Changed("config") {
		configPath, _ = fs.GetString("config")
	}
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	if fs != nil {
		if err := cfg.applyExplicitFlags(fs); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	cfg.Normalize()
	return cfg, nil
}

// LoadFile merges a YAML or JSON document into cfg.
func (cfg *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// UnmarshalJSON accepts retry.delay as a duration string ("250ms") or as
// integer nanoseconds.
func (cfg *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		RetryDelay json.RawMessage `json:"retry.delay"`
	}{plain: (*plain)(cfg)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.RetryDelay) == 0 {
		return nil
	}

	var str string
	if err := json.Unmarshal(aux.RetryDelay, &str); err == nil {
		d, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("retry.delay: %w", err)
		}
		cfg.RetryDelay = d
		return nil
	}
	var ns int64
	if err := json.Unmarshal(aux.RetryDelay, &ns); err != nil {
		return fmt.Errorf("retry.delay must be a duration string or integer nanoseconds")
	}
	cfg.RetryDelay = time.Duration(ns)
	return nil
}

func (cfg *Config) applyEnv() {
	overrideEnvString(&cfg.SpecFile, envPrefix+"SPEC_FILE")
	overrideEnvString(&cfg.FixedWidthOutput, envPrefix+"FIXED_WIDTH_OUTPUT")
	overrideEnvString(&cfg.CSVOutput, envPrefix+"CSV_OUTPUT")
	overrideEnvString(&cfg.InputFile, envPrefix+"INPUT_FILE")
	overrideEnvString(&cfg.TempDir, envPrefix+"TEMP_DIR")
	overrideEnvInt(&cfg.RowCount, envPrefix+"ROW_COUNT")
	overrideEnvInt(&cfg.Workers, envPrefix+"WORKERS")
	overrideEnvInt(&cfg.MaxUnitRows, envPrefix+"MAX_UNIT_ROWS")
	overrideEnvByteSize(&cfg.MergeWindowBytes, envPrefix+"MERGE_WINDOW")
	overrideEnvBool(&cfg.SyncArtifacts, envPrefix+"SYNC_ARTIFACTS")
	overrideEnvInt(&cfg.RetryMaxRetries, envPrefix+"RETRIES")
	overrideEnvDuration(&cfg.RetryDelay, envPrefix+"RETRY_DELAY")
	overrideEnvLogLevel(&cfg.LogLevel, envPrefix+"LOG_LEVEL")
	overrideEnvBool(&cfg.EnableExporter, envPrefix+"EXPORTER")
	overrideEnvInt(&cfg.ExporterPort, envPrefix+"EXPORTER_PORT")
}

func (cfg *Config) applyExplicitFlags(fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || fs.Lookup(name) == nil || !fs.Changed(name) {
			return
		}
		if aerr := apply(); aerr != nil {
			err = fmt.Errorf("flag --%s: %w", name, aerr)
		}
	}

	set("spec", func() (e error) { cfg.SpecFile, e = fs.GetString("spec"); return })
	set("fixed-width-out", func() (e error) { cfg.FixedWidthOutput, e = fs.GetString("fixed-width-out"); return })
	set("csv-out", func() (e error) { cfg.CSVOutput, e = fs.GetString("csv-out"); return })
	set("input", func() (e error) { cfg.InputFile, e = fs.GetString("input"); return })
	set("temp-dir", func() (e error) { cfg.TempDir, e = fs.GetString("temp-dir"); return })
	set("rows", func() (e error) { cfg.RowCount, e = fs.GetInt("rows"); return })
	set("workers", func() (e error) { cfg.Workers, e = fs.GetInt("workers"); return })
	set("unit-rows", func() (e error) { cfg.MaxUnitRows, e = fs.GetInt("unit-rows"); return })
	set("merge-window", func() error {
		v, e := fs.GetString("merge-window")
		if e != nil {
			return e
		}
		n := util.ParseByteSize(v, -1)
		if n <= 0 {
			return fmt.Errorf("invalid byte size %q", v)
		}
		cfg.MergeWindowBytes = n
		return nil
	})
	set("sync-artifacts", func() (e error) { cfg.SyncArtifacts, e = fs.GetBool("sync-artifacts"); return })
	set("retries", func() (e error) { cfg.RetryMaxRetries, e = fs.GetInt("retries"); return })
	set("retry-delay", func() (e error) { cfg.RetryDelay, e = fs.GetDuration("retry-delay"); return })
	set("log-level", func() error {
		v, e := fs.GetString("log-level")
		cfg.LogLevel = util.ParseLogLevel(v)
		return e
	})
	set("exporter", func() (e error) { cfg.EnableExporter, e = fs.GetBool("exporter"); return })
	set("exporter-port", func() (e error) { cfg.ExporterPort, e = fs.GetInt("exporter-port"); return })
	return err
}

// RetryPolicy builds the policy used for I/O prone to transient failure.
func (cfg *Config) RetryPolicy() retry.Policy {
	return retry.Policy{MaxRetries: cfg.RetryMaxRetries, Delay: cfg.RetryDelay}
}

// ParseInput is the file read by the parse phase.
func (cfg *Config) ParseInput() string {
	if strings.TrimSpace(cfg.InputFile) != "" {
		return cfg.InputFile
	}
	return cfg.FixedWidthOutput
}
