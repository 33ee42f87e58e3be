package benchmark

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/mwiater/crossbench/internal/appconfig"
	"github.com/mwiater/crossbench/internal/dataset"
	"github.com/mwiater/crossbench/internal/discovery"
	"github.com/mwiater/crossbench/internal/ledger"
	"github.com/mwiater/crossbench/internal/logging"
	"github.com/mwiater/crossbench/internal/measure"
	"github.com/mwiater/crossbench/internal/metrics"
	"github.com/mwiater/crossbench/internal/toolchain"
)

var (
	loadDataset = dataset.Load
	openLedger  = ledger.Open
	newStrategy = measure.New
)

// RunFromConfig is the CLI entry point for `crossbench run`.
func RunFromConfig(ctx context.Context, cfg *appconfig.Config) (Summary, error) {
	if cfg == nil {
		return Summary{}, fmt.Errorf("config is nil")
	}
	ds, err := loadDataset(Resolve(cfg.Root, cfg.InputData))
	if err != nil {
		return Summary{}, err
	}
	logging.LogEvent("Input data: %s", ds.Path())

	l, err := openLedger(cfg.LedgerPath(), cfg.LedgerBackend, SchemaFor(cfg))
	if err != nil {
		return Summary{}, err
	}
	defer l.Close()

	strategy, err := newStrategy(cfg.MeasureStrategy(), measure.Options{
		PerfBinary: cfg.PerfBinary,
		PerfEvent:  cfg.PerfEvent,
		Timeout:    cfg.RunTimeout(),
	})
	if err != nil {
		return Summary{}, err
	}
	tools, err := ToolchainsFor(cfg)
	if err != nil {
		return Summary{}, err
	}

	rec := metrics.NewRecorder()
	runner := &Runner{
		Options:  OptionsFor(cfg),
		Ledger:   l,
		Dataset:  ds,
		Tools:    tools,
		Strategy: strategy,
		Metrics:  rec,
	}
	logging.LogEvent("mode: %s, level: %d, measure: %s, ledger: %s", cfg.Mode, cfg.OptLevel, strategy.Name(), cfg.LedgerPath())

	sum, runErr := runner.Run(ctx)
	if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
		logging.LogWarn("%v", err)
	} else if cfg.MetricsFile != "" {
		logging.LogEvent("Metrics written to %s", cfg.MetricsFile)
	}
	return sum, runErr
}

// Resolve joins a relative path onto root.
func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) || root == "" || root == "." {
		return path
	}
	return filepath.Join(root, path)
}

// SchemaFor picks the ledger schema for the configured mode.
func SchemaFor(cfg *appconfig.Config) ledger.Schema {
	if cfg.Mode == appconfig.ModeOptDiff {
		return ledger.OptDiff()
	}
	names := make([]string, 0, len(cfg.Comparisons))
	for _, c := range cfg.Comparisons {
		names = append(names, c.Name)
	}
	return ledger.TwoWay(names...)
}

// LayoutFor converts the configured languages into a discovery layout.
func LayoutFor(cfg *appconfig.Config) discovery.Layout {
	layout := discovery.Layout{Reference: discovery.Language(cfg.Reference)}
	for _, c := range cfg.Comparisons {
		layout.Comparisons = append(layout.Comparisons, discovery.Language(c))
	}
	return layout
}

// CategoriesFor returns the configured category directories under Root.
func CategoriesFor(cfg *appconfig.Config) []string {
	dirs := make([]string, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		dirs = append(dirs, Resolve(cfg.Root, c))
	}
	return dirs
}

// OptionsFor builds the runner options.
func OptionsFor(cfg *appconfig.Config) Options {
	opts := Options{
		Mode:       cfg.Mode,
		Level:      cfg.OptLevel,
		Layout:     LayoutFor(cfg),
		Categories: CategoriesFor(cfg),
		Named:      cfg.Benchmark,
		Contract: dataset.SizeContract{
			Marker:   cfg.Size.Marker,
			Literal:  cfg.Size.Literal,
			Template: cfg.Size.Template,
		},
	}
	if cfg.Seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)))
	}
	return opts
}

// ToolchainsFor builds the compilers the configured mode needs.
func ToolchainsFor(cfg *appconfig.Config) (Toolchains, error) {
	settings := toolchain.Settings{
		CC:               cfg.Toolchains.CC,
		Clang:            cfg.Toolchains.Clang,
		Opt:              cfg.Toolchains.Opt,
		Rustc:            cfg.Toolchains.Rustc,
		Cargo:            cfg.Toolchains.Cargo,
		CCIncludeDirs:    cfg.Toolchains.CCIncludeDirs,
		CCLinkFlags:      cfg.Toolchains.CCLinkFlags,
		ClangIncludeDirs: cfg.Toolchains.ClangIncludeDirs,
		ClangLinkFlags:   cfg.Toolchains.ClangLinkFlags,
		RustFlags:        cfg.Toolchains.RustFlags,
		Timeout:          cfg.CompileTimeout(),
	}
	if cfg.Mode == appconfig.ModeOptDiff {
		return Toolchains{Fixed: toolchain.ClangAt(settings), Pipeline: toolchain.Pipeline(settings)}, nil
	}

	tools := Toolchains{Languages: map[string]toolchain.Compiler{}}
	for _, lang := range append([]appconfig.Language{cfg.Reference}, cfg.Comparisons...) {
		c, err := toolchain.ForLanguage(lang.Name, settings)
		if err != nil {
			return Toolchains{}, err
		}
		tools.Languages[lang.Name] = c
	}
	return tools, nil
}
