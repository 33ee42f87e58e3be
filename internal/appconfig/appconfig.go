// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/crossbench.json"
	// DefaultInputData is the shared stimulus file, relative to the working directory.
	DefaultInputData = "Benchmarks/Algorithm_Benchmarks/input"
	// DefaultCompareLedger is the ledger written in compare mode.
	DefaultCompareLedger = "results.csv"
	// DefaultOptDiffLedger is the ledger written in optdiff mode.
	DefaultOptDiffLedger = "llvm-pipeline-results.csv"
	// DefaultOptLevel is the optimization level used when none is configured.
	DefaultOptLevel = 2
	// defaultCompileTimeout bounds one compiler invocation.
	defaultCompileTimeout = 600 * time.Second
	// defaultRunTimeout bounds one benchmark execution.
	defaultRunTimeout = 600 * time.Second
)

// Orchestration modes.
const (
	ModeCompare = "compare"
	ModeOptDiff = "optdiff"
)

// Measurement strategies.
const (
	MeasureWallClock = "wallclock"
	MeasurePerf      = "perf"
	MeasureReported  = "reported"
)

// Ledger backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config represents the top-level application configuration.
type Config struct {
	Root          string     `json:"root" mapstructure:"root"`
	Categories    []string   `json:"categories" mapstructure:"categories"`
	Reference     Language   `json:"reference" mapstructure:"reference"`
	Comparisons   []Language `json:"comparisons" mapstructure:"comparisons"`
	InputData     string     `json:"inputData" mapstructure:"inputData"`
	Output        string     `json:"output,omitempty" mapstructure:"output"`
	LedgerBackend string     `json:"ledgerBackend,omitempty" mapstructure:"ledgerBackend"`
	Mode          string     `json:"mode" mapstructure:"mode"`
	Benchmark     string     `json:"benchmark,omitempty" mapstructure:"benchmark"`
	OptLevel      int        `json:"optLevel" mapstructure:"optLevel"`
	Measure       string     `json:"measure,omitempty" mapstructure:"measure"`
	PerfBinary    string     `json:"perfBinary,omitempty" mapstructure:"perfBinary"`
	PerfEvent     string     `json:"perfEvent,omitempty" mapstructure:"perfEvent"`
	Toolchains    Toolchains `json:"toolchains" mapstructure:"toolchains"`
	Size          SizeConfig `json:"size" mapstructure:"size"`
	// Timeouts in seconds; 0 selects the default.
	CompileTimeoutSeconds int    `json:"compileTimeout,omitempty" mapstructure:"compileTimeout"`
	RunTimeoutSeconds     int    `json:"runTimeout,omitempty" mapstructure:"runTimeout"`
	Seed                  int64  `json:"seed,omitempty" mapstructure:"seed"`
	MetricsFile           string `json:"metricsFile,omitempty" mapstructure:"metricsFile"`
	LogFile               string `json:"logFile,omitempty" mapstructure:"logFile"`
	Debug                 bool   `json:"debug" mapstructure:"debug"`
	ConfigPath            string `json:"-" mapstructure:"-"`
}

// Language describes where one language's sources live inside a category.
type Language struct {
	Name string `json:"name" mapstructure:"name"`
	Dir  string `json:"dir" mapstructure:"dir"`
	Ext  string `json:"ext" mapstructure:"ext"`
}

// Toolchains names the external binaries and fixed linkage inputs.
type Toolchains struct {
	CC    string `json:"cc" mapstructure:"cc"`
	Clang string `json:"clang" mapstructure:"clang"`
	Opt   string `json:"opt" mapstructure:"opt"`
	Rustc string `json:"rustc" mapstructure:"rustc"`
	Cargo string `json:"cargo" mapstructure:"cargo"`

	// Linkage for the compare-mode C compiler.
	CCIncludeDirs []string `json:"ccIncludeDirs,omitempty" mapstructure:"ccIncludeDirs"`
	CCLinkFlags   []string `json:"ccLinkFlags,omitempty" mapstructure:"ccLinkFlags"`

	// Linkage for the optdiff clang builds and the LLVM pipeline.
	ClangIncludeDirs []string `json:"clangIncludeDirs,omitempty" mapstructure:"clangIncludeDirs"`
	ClangLinkFlags   []string `json:"clangLinkFlags,omitempty" mapstructure:"clangLinkFlags"`
	RustFlags        string   `json:"rustFlags,omitempty" mapstructure:"rustFlags"`
}

// SizeConfig names the contract used to inject the dataset size into sources.
type SizeConfig struct {
	Marker   string `json:"marker" mapstructure:"marker"`
	Literal  string `json:"literal" mapstructure:"literal"`
	Template string `json:"template" mapstructure:"template"`
}

// Default returns the configuration used when no file or flag says otherwise.
func Default() Config {
	return Config{
		Root:       ".",
		Categories: []string{"Benchmarks/Algorithm_Benchmarks", "Benchmarks/Performance_Benchmarks"},
		Reference:  Language{Name: "c", Dir: "C", Ext: ".c"},
		Comparisons: []Language{
			{Name: "rust", Dir: "Rust", Ext: ".rs"},
		},
		InputData:     DefaultInputData,
		LedgerBackend: BackendCSV,
		Mode:          ModeCompare,
		OptLevel:      DefaultOptLevel,
		Measure:       MeasureWallClock,
		PerfBinary:    "perf",
		PerfEvent:     "cycles",
		Toolchains: Toolchains{
			CC:        "gcc",
			Clang:     "clang-18",
			Opt:       "opt-18",
			Rustc:     "rustc",
			Cargo:     "cargo",
			RustFlags: "-A warnings",
		},
		Size: SizeConfig{
			Marker:   "crossbench:input-size",
			Literal:  "int n = 97;",
			Template: "int n = %d;",
		},
	}
}

// CompileTimeout returns the per-invocation compiler deadline.
func (c Config) CompileTimeout() time.Duration {
	if c.CompileTimeoutSeconds <= 0 {
		return defaultCompileTimeout
	}
	return time.Duration(c.CompileTimeoutSeconds) * time.Second
}

// RunTimeout returns the per-execution benchmark deadline.
func (c Config) RunTimeout() time.Duration {
	if c.RunTimeoutSeconds <= 0 {
		return defaultRunTimeout
	}
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// LedgerPath returns the configured ledger path, defaulting per mode.
func (c Config) LedgerPath() string {
	if path := strings.TrimSpace(c.Output); path != "" {
		return path
	}
	if c.Mode == ModeOptDiff {
		return DefaultOptDiffLedger
	}
	return DefaultCompareLedger
}

// MeasureStrategy returns the measurement strategy, forcing perf in optdiff mode.
func (c Config) MeasureStrategy() string {
	if c.Mode == ModeOptDiff {
		return MeasurePerf
	}
	if m := strings.TrimSpace(c.Measure); m != "" {
		return m
	}
	return MeasureWallClock
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "crossbench.log"
}

// Validate reports configuration values the orchestrator cannot run with.
func (c Config) Validate() error {
	var problems []string
	switch c.Mode {
	case ModeCompare, ModeOptDiff:
	default:
		problems = append(problems, fmt.Sprintf("mode %q (expected %q or %q)", c.Mode, ModeCompare, ModeOptDiff))
	}
	switch c.MeasureStrategy() {
	case MeasureWallClock, MeasurePerf, MeasureReported:
	default:
		problems = append(problems, fmt.Sprintf("measure %q (expected wallclock, perf or reported)", c.Measure))
	}
	switch c.LedgerBackend {
	case "", BackendCSV, BackendSQLite:
	default:
		problems = append(problems, fmt.Sprintf("ledgerBackend %q (expected csv or sqlite)", c.LedgerBackend))
	}
	if c.OptLevel < 0 || c.OptLevel > 3 {
		problems = append(problems, fmt.Sprintf("optLevel %d out of range (0..3)", c.OptLevel))
	}
	if len(c.Categories) == 0 {
		problems = append(problems, "at least one category is required")
	}
	if strings.TrimSpace(c.Reference.Dir) == "" || strings.TrimSpace(c.Reference.Ext) == "" {
		problems = append(problems, "reference language needs dir and ext")
	}
	if c.Mode == ModeCompare && len(c.Comparisons) == 0 {
		problems = append(problems, "compare mode needs at least one comparison language")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads the application configuration from path on top of Default and validates it.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("no configuration file found at %q", path)
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}
	if err := ValidateDocument(data); err != nil {
		return Config{}, fmt.Errorf("config file %q: %w", path, err)
	}

	config := Default()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("could not parse config file %q: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	config.ConfigPath = path
	return config, nil
}
