package benchmark

import (
	"errors"
	"path/filepath"
	"strconv"

	"github.com/mwiater/crossbench/internal/discovery"
	"github.com/mwiater/crossbench/internal/ledger"
	"github.com/mwiater/crossbench/internal/toolchain"
)

// Variant is one compile-and-measure step of a unit. Measurement follows plan order.
type Variant struct {
	Label    string
	Compiler toolchain.Compiler
	Request  toolchain.Request
}

// Labels of the reference variant and the optdiff variants.
const (
	LabelReference = "reference"
	LabelO2        = "O2"
	LabelO3        = "O3"
	LabelPipeline  = "LLVM"
)

type missingCompiler struct{ variant string }

func (m missingCompiler) Error() string { return "no compiler configured for " + m.variant }

func planFailure(err error) string {
	var mc missingCompiler
	if errors.As(err, &mc) {
		return mc.variant
	}
	return "plan"
}

func (r *Runner) plan(u discovery.Unit, sized string) ([]Variant, error) {
	if r.Options.Mode == ModeOptDiff {
		return r.optdiffPlan(u, sized)
	}
	return r.comparePlan(u, sized)
}

// artifactPath is <dir of source>/<base>_<suffix>.elf.
func artifactPath(source, base, suffix string) string {
	return filepath.Join(filepath.Dir(source), base+"_"+suffix+".elf")
}

func levelSuffix(level int) string { return "O" + strconv.Itoa(level) }

// comparePlan is the reference followed by every present comparison, in layout order.
func (r *Runner) comparePlan(u discovery.Unit, sized string) ([]Variant, error) {
	level := r.Options.Level
	ref := r.Options.Layout.Reference
	cc, ok := r.Tools.Languages[ref.Name]
	if !ok || cc == nil {
		return nil, missingCompiler{variant: LabelReference}
	}
	variants := []Variant{{
		Label:    LabelReference,
		Compiler: cc,
		Request: toolchain.Request{
			Source:  sized,
			Output:  artifactPath(u.Reference, u.Name, levelSuffix(level)),
			Level:   level,
			Include: u.Manifest.Include,
			LDFlags: u.Manifest.LDFlags,
		},
	}}

	for _, lang := range r.Options.Layout.Comparisons {
		c, present := u.Comparison(lang.Name)
		if !present {
			continue
		}
		comp, ok := r.Tools.Languages[lang.Name]
		if !ok || comp == nil {
			return nil, missingCompiler{variant: lang.Name}
		}
		req := toolchain.Request{Source: c.Path, Level: level, Project: c.Project}
		if !c.Project {
			req.Output = artifactPath(c.Path, u.Name, levelSuffix(level))
		}
		variants = append(variants, Variant{Label: lang.Name, Compiler: comp, Request: req})
	}
	return variants, nil
}

// optdiffPlan compiles the reference at -O2, -O3 and through the IR pipeline.
func (r *Runner) optdiffPlan(u discovery.Unit, sized string) ([]Variant, error) {
	if r.Tools.Fixed == nil {
		return nil, missingCompiler{variant: LabelO2}
	}
	if r.Tools.Pipeline == nil {
		return nil, missingCompiler{variant: LabelPipeline}
	}
	req := func(level int, suffix string) toolchain.Request {
		return toolchain.Request{
			Source:  sized,
			Output:  artifactPath(u.Reference, u.Name, suffix),
			Level:   level,
			Include: u.Manifest.Include,
			LDFlags: u.Manifest.LDFlags,
		}
	}
	return []Variant{
		{Label: LabelO2, Compiler: r.Tools.Fixed, Request: req(2, LabelO2)},
		{Label: LabelO3, Compiler: r.Tools.Fixed, Request: req(3, LabelO3)},
		{Label: LabelPipeline, Compiler: r.Tools.Pipeline, Request: req(3, LabelPipeline)},
	}, nil
}

// row turns the measurements into the ledger row for the active mode.
func (r *Runner) row(u discovery.Unit, ms []Measurement) ledger.Row {
	if r.Options.Mode == ModeOptDiff {
		values := make([]string, 0, 2*len(ms))
		for _, m := range ms {
			cycles := ""
			if m.Record.HasCycles {
				cycles = ledger.Cycles(m.Record.Cycles)
			}
			values = append(values, ledger.Seconds(m.Record.Elapsed), cycles)
		}
		return ledger.Row{Name: u.Name, Values: values}
	}

	refTime := ledger.Seconds(ms[0].Record.Elapsed)
	values := []string{refTime}
	byLabel := make(map[string]Measurement, len(ms))
	for _, m := range ms[1:] {
		byLabel[m.Variant] = m
	}
	for _, lang := range r.Options.Layout.Comparisons {
		m, ok := byLabel[lang.Name]
		if !ok {
			values = append(values, "", "")
			continue
		}
		cmpTime := ledger.Seconds(m.Record.Elapsed)
		values = append(values, cmpTime, ledger.Ratio(speedup(refTime, cmpTime)))
	}
	return ledger.Row{Name: u.Name, Values: values}
}

// speedup is ref/cmp over the formatted ledger times.
func speedup(ref, cmp string) float64 {
	a, err := strconv.ParseFloat(ref, 64)
	if err != nil {
		return 0
	}
	b, err := strconv.ParseFloat(cmp, 64)
	if err != nil || b == 0 {
		return 0
	}
	return a / b
}
