package appconfig

import (
	"fmt"
	"io"
	"strings"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the current configuration summary. With verbose set the
// whole struct is dumped as well.
func ShowConfig(out io.Writer, file string, cfg *Config, verbose bool) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}
	if cfg == nil {
		d := Default()
		cfg = &d
	}

	comparisons := make([]string, 0, len(cfg.Comparisons))
	for _, c := range cfg.Comparisons {
		comparisons = append(comparisons, fmt.Sprintf("%s (%s/*%s)", c.Name, c.Dir, c.Ext))
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Mode:            %s\n", cfg.Mode)
	fmt.Fprintf(out, "  Categories:      %s\n", strings.Join(cfg.Categories, ", "))
	fmt.Fprintf(out, "  Reference:       %s (%s/*%s)\n", cfg.Reference.Name, cfg.Reference.Dir, cfg.Reference.Ext)
	fmt.Fprintf(out, "  Comparisons:     %s\n", strings.Join(comparisons, ", "))
	fmt.Fprintf(out, "  Benchmark:       %s\n", valueOr(cfg.Benchmark, "(all)"))
	fmt.Fprintf(out, "  Opt Level:       %d\n", cfg.OptLevel)
	fmt.Fprintf(out, "  Measure:         %s\n", cfg.MeasureStrategy())
	fmt.Fprintf(out, "  Input Data:      %s\n", cfg.InputData)
	fmt.Fprintf(out, "  Ledger:          %s (%s)\n", cfg.LedgerPath(), valueOr(cfg.LedgerBackend, BackendCSV))
	fmt.Fprintf(out, "  Compile Timeout: %s\n", cfg.CompileTimeout())
	fmt.Fprintf(out, "  Run Timeout:     %s\n", cfg.RunTimeout())
	fmt.Fprintf(out, "  Size Marker:     %s\n", cfg.Size.Marker)
	fmt.Fprintf(out, "  Size Literal:    %s\n", cfg.Size.Literal)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	if cfg.MetricsFile != "" {
		fmt.Fprintf(out, "  Metrics File:    %s\n", cfg.MetricsFile)
	}

	if verbose {
		fmt.Fprintln(out)
		pp.ColoringEnabled = false
		_, _ = pp.Fprintln(out, cfg)
	}
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
