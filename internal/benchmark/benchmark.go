// internal/benchmark/benchmark.go
// Package benchmark drives discovered units through compile, measure and
// record, one unit at a time, containing every per-unit failure.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwiater/crossbench/internal/dataset"
	"github.com/mwiater/crossbench/internal/discovery"
	"github.com/mwiater/crossbench/internal/ledger"
	"github.com/mwiater/crossbench/internal/logging"
	"github.com/mwiater/crossbench/internal/measure"
	"github.com/mwiater/crossbench/internal/metrics"
	"github.com/mwiater/crossbench/internal/toolchain"
	"github.com/mwiater/crossbench/internal/util"
)

// Orchestration modes.
const (
	ModeCompare = "compare"
	ModeOptDiff = "optdiff"
)

// Skip and failure reasons beyond those discovery reports.
const (
	ReasonDuplicate = "duplicate"
)

// outputPreview bounds how much program output a debug line carries.
const outputPreview = 120

// State is where a unit ended up.
type State int

const (
	Recorded State = iota + 1
	Skipped
	Failed
)

func (s State) String() string {
	switch s {
	case Recorded:
		return "recorded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Measurement pairs a variant label with its record.
type Measurement struct {
	Variant string
	Record  measure.Record
}

// Outcome is the terminal state of one unit.
type Outcome struct {
	Unit     string
	Category string
	State    State
	// Reason is empty for Recorded units.
	Reason       string
	Row          ledger.Row
	Measurements []Measurement
}

// Summary aggregates a run.
type Summary struct {
	Attempted int
	Recorded  int
	Skipped   int
	Failed    int
	Outcomes  []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Attempted++
	switch o.State {
	case Recorded:
		s.Recorded++
	case Skipped:
		s.Skipped++
	case Failed:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Toolchains are the compilers a run may use.
type Toolchains struct {
	// Languages maps a language name (reference and comparisons) to its compiler.
	Languages map[string]toolchain.Compiler
	// Fixed compiles the reference at explicit levels in optdiff mode.
	Fixed toolchain.Compiler
	// Pipeline is the IR pipeline used as the third optdiff variant.
	Pipeline toolchain.Compiler
}

// Options select what a run evaluates.
type Options struct {
	Mode       string
	Level      int
	Layout     discovery.Layout
	Categories []string
	// Named restricts the run to a single benchmark.
	Named    string
	Contract dataset.SizeContract
	// Rand seeds discovery order; nil shuffles from the global source.
	Rand *rand.Rand
}

// Runner owns the collaborators for one run.
type Runner struct {
	Options  Options
	Ledger   ledger.Ledger
	Dataset  *dataset.Dataset
	Tools    Toolchains
	Strategy measure.Strategy
	Metrics  *metrics.Recorder
}

// Run evaluates every eligible unit (or the named one) strictly in sequence.
// Per-unit failures are reported in the Summary; only ledger errors and
// context cancellation end the run early.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	if r.Dataset == nil || r.Ledger == nil || r.Strategy == nil {
		return sum, errors.New("runner is missing a dataset, ledger or measurement strategy")
	}
	start := time.Now()
	defer func() { r.Metrics.RunDuration(time.Since(start)) }()

	logging.LogEvent("Input data length: %d", r.Dataset.Size())

	record := func(o Outcome) {
		sum.add(o)
		r.Metrics.Unit(o.State.String())
	}

	if r.Options.Named != "" {
		u, err := discovery.Find(r.Options.Layout, r.Options.Categories, r.Options.Named)
		if errors.Is(err, discovery.ErrNotFound) {
			logging.LogEvent("benchmark %s not found", r.Options.Named)
			return sum, nil
		}
		if err != nil {
			return sum, err
		}
		if u.Manifest.Excludes(u.Name) {
			logging.LogEvent("Skipping %s: %s", u.Name, discovery.ReasonExcluded)
			record(skipped(u, discovery.ReasonExcluded))
		} else {
			o, err := r.evaluate(ctx, u)
			record(o)
			if err != nil {
				return sum, err
			}
		}
		logging.LogEvent("Total benchmarks: %d", sum.Attempted)
		return sum, ctx.Err()
	}

	units := discovery.Discover(r.Options.Layout, r.Options.Categories, discovery.Options{
		Rand: r.Options.Rand,
		OnSkip: func(u discovery.Unit, reason string) {
			record(skipped(u, reason))
		},
	})
	for u := range units {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		o, err := r.evaluate(ctx, u)
		record(o)
		if err != nil {
			return sum, err
		}
	}
	logging.LogEvent("Total benchmarks: %d", sum.Attempted)
	// An interrupt during the final unit still ends the run as interrupted.
	return sum, ctx.Err()
}

func skipped(u discovery.Unit, reason string) Outcome {
	return Outcome{Unit: u.Name, Category: u.Category, State: Skipped, Reason: reason}
}

func failed(u discovery.Unit, stage, variant string) Outcome {
	return Outcome{Unit: u.Name, Category: u.Category, State: Failed, Reason: stage + ":" + variant}
}

// evaluate runs the per-unit state machine. The returned error is non-nil
// only for ledger failures, which end the run.
func (r *Runner) evaluate(ctx context.Context, u discovery.Unit) (Outcome, error) {
	// CheckLedger
	done, err := r.Ledger.Evaluated(u.Name)
	if err != nil {
		return failed(u, "ledger", u.Name), fmt.Errorf("ledger pre-check for %s: %w", u.Name, err)
	}
	if done {
		logging.LogEvent("Skipping %s as it was already evaluated", u.Name)
		return skipped(u, ReasonDuplicate), nil
	}

	// ResolveComparisons
	if r.Options.Mode != ModeOptDiff && !u.HasCounterpart() {
		logging.LogEvent("Skipping %s: no %s counterpart", u.Name, comparisonNames(r.Options.Layout))
		return skipped(u, discovery.ReasonNoCounterpart), nil
	}

	logging.LogEvent("Evaluating %s", u.Name)

	// ParameterizeInput
	sized, found, cleanup, err := r.Options.Contract.WriteParameterized(u.Reference, r.Dataset.Size())
	if err != nil {
		logging.LogUnit(u.Name, "parameterize", "%v", err)
		return failed(u, "parameterize", "reference"), nil
	}
	defer cleanup()
	if !found {
		logging.LogWarn("[%s] no input-size contract in %s; compiling with its built-in size", u.Name, u.Reference)
	}

	variants, err := r.plan(u, sized)
	if err != nil {
		logging.LogUnit(u.Name, "compile", "%v", err)
		return failed(u, "compile", planFailure(err)), nil
	}

	// CompileAll
	targets := make([]measure.Target, 0, len(variants))
	for _, v := range variants {
		logging.LogUnit(u.Name, "compile", "%s with %s at -O%d", v.Label, v.Compiler.Name(), v.Request.Level)
		art, err := v.Compiler.Compile(ctx, v.Request)
		if err != nil {
			logging.LogUnit(u.Name, "compile", "%s failed: %v", v.Label, err)
			return failed(u, "compile", v.Label), nil
		}
		path, err := filepath.Abs(art.Path)
		if err != nil {
			path = art.Path
		}
		targets = append(targets, measure.Target{Path: path, Stdin: r.Dataset.Stdin})
	}

	// MeasureAll
	measurements := make([]Measurement, 0, len(variants))
	for i, v := range variants {
		rec, err := r.Strategy.Measure(ctx, targets[i])
		if err != nil {
			logging.LogUnit(u.Name, "measure", "%s failed: %v", v.Label, err)
			return failed(u, "measure", v.Label), nil
		}
		if ledger.Seconds(rec.Elapsed) == ledger.Seconds(0) {
			logging.LogUnit(u.Name, "measure", "%s took %s, below ledger resolution", v.Label, rec.Elapsed)
			return failed(u, "measure", v.Label), nil
		}
		logging.LogUnit(u.Name, "measure", "%s: %.3fs", v.Label, rec.Seconds())
		if out := rec.Output; out != "" {
			logging.LogDebug("[%s] %s output: %s", u.Name, v.Label, util.TruncateRunes(util.OneLine(out), outputPreview))
		}
		r.Metrics.Variant(u.Name, v.Label, rec.Elapsed)
		if rec.HasCycles {
			r.Metrics.Cycles(u.Name, v.Label, rec.Cycles)
		}
		measurements = append(measurements, Measurement{Variant: v.Label, Record: rec})
	}

	// Record
	row := r.row(u, measurements)
	if err := r.Ledger.Append(row); err != nil {
		return failed(u, "ledger", u.Name), fmt.Errorf("append %s to ledger: %w", u.Name, err)
	}
	logging.LogUnit(u.Name, "record", "%v", row.Record())
	return Outcome{
		Unit:         u.Name,
		Category:     u.Category,
		State:        Recorded,
		Row:          row,
		Measurements: measurements,
	}, nil
}

func comparisonNames(layout discovery.Layout) string {
	names := make([]string, 0, len(layout.Comparisons))
	for _, l := range layout.Comparisons {
		names = append(names, l.Name)
	}
	return strings.Join(names, "/")
}
