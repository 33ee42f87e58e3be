// Package measure runs compiled benchmarks and records how long they took and,
// with a counter backend, how many hardware cycles they used.
package measure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mwiater/crossbench/internal/process"
)

// ErrMeasure wraps every failed measurement: launch errors, non-zero exits,
// timeouts and unusable readings.
var ErrMeasure = errors.New("measurement failed")

// Target is a compiled artifact ready to run.
type Target struct {
	Path string
	// Dir is the working directory; empty means the harness's own.
	Dir string
	// Stdin returns a fresh reader over the shared input for each launch.
	Stdin func() io.Reader
}

// Record is one measurement.
type Record struct {
	Elapsed   time.Duration
	Cycles    int64
	HasCycles bool
	// Output is the program's stdout, kept for diagnostic logging only.
	Output string
}

// Seconds returns Elapsed as fractional seconds.
func (r Record) Seconds() float64 { return r.Elapsed.Seconds() }

// Strategy measures one run of a target.
type Strategy interface {
	Name() string
	Measure(ctx context.Context, t Target) (Record, error)
}

type launcher struct {
	Exec    process.Runner
	Timeout time.Duration
}

func (l launcher) launch(ctx context.Context, spec process.Spec) (process.Result, error) {
	exec := l.Exec
	if exec == nil {
		exec = process.Run
	}
	spec.Timeout = l.Timeout
	res, err := exec(ctx, spec)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrMeasure, err)
	}
	return res, nil
}

func stdin(t Target) io.Reader {
	if t.Stdin == nil {
		return nil
	}
	return t.Stdin()
}

// WallClock times the process from launch to exit with the input on stdin.
type WallClock struct {
	Exec    process.Runner
	Timeout time.Duration
}

func (WallClock) Name() string { return "wallclock" }

func (w WallClock) Measure(ctx context.Context, t Target) (Record, error) {
	res, err := launcher{Exec: w.Exec, Timeout: w.Timeout}.launch(ctx, process.Spec{Name: t.Path, Dir: t.Dir, Stdin: stdin(t)})
	if err != nil {
		return Record{Output: res.Stdout}, err
	}
	if res.Elapsed <= 0 {
		return Record{Output: res.Stdout}, fmt.Errorf("%w: non-positive elapsed time %s", ErrMeasure, res.Elapsed)
	}
	return Record{Elapsed: res.Elapsed, Output: res.Stdout}, nil
}

// PerfStat wraps the run in a hardware-counter tool and reads elapsed time and
// the counter value from its diagnostic stream.
type PerfStat struct {
	Binary string
	Event  string
	Parser CounterParser
	Exec   process.Runner
	// Timeout bounds the wrapped run.
	Timeout time.Duration
}

func (PerfStat) Name() string { return "perf" }

func (p PerfStat) Measure(ctx context.Context, t Target) (Record, error) {
	parser := p.Parser
	if parser == nil {
		parser = PerfStatV1{}
	}
	event := p.Event
	if event == "" {
		event = "cycles"
	}
	binary := p.Binary
	if binary == "" {
		binary = "perf"
	}
	spec := process.Spec{Name: binary, Args: []string{"stat", "-e", event, t.Path}, Dir: t.Dir, Stdin: stdin(t)}
	res, err := launcher{Exec: p.Exec, Timeout: p.Timeout}.launch(ctx, spec)
	if err != nil {
		return Record{Output: res.Stdout}, err
	}
	reading, err := parser.Parse(res.Stderr, event)
	if err != nil {
		return Record{Output: res.Stdout}, fmt.Errorf("%w: %w", ErrMeasure, err)
	}
	if reading.Elapsed <= 0 {
		return Record{Output: res.Stdout}, fmt.Errorf("%w: non-positive elapsed time %s", ErrMeasure, reading.Elapsed)
	}
	return Record{Elapsed: reading.Elapsed, Cycles: reading.Count, HasCycles: true, Output: res.Stdout}, nil
}

// Reported launches the program like WallClock but takes the elapsed time the
// program prints itself (the first decimal number on stdout).
type Reported struct {
	Exec    process.Runner
	Timeout time.Duration
}

func (Reported) Name() string { return "reported" }

func (r Reported) Measure(ctx context.Context, t Target) (Record, error) {
	res, err := launcher{Exec: r.Exec, Timeout: r.Timeout}.launch(ctx, process.Spec{Name: t.Path, Dir: t.Dir, Stdin: stdin(t)})
	if err != nil {
		return Record{Output: res.Stdout}, err
	}
	seconds, err := ParseReportedSeconds(res.Stdout)
	if err != nil {
		return Record{Output: res.Stdout}, fmt.Errorf("%w: %w", ErrMeasure, err)
	}
	return Record{Elapsed: time.Duration(seconds * float64(time.Second)), Output: res.Stdout}, nil
}

// New returns the strategy registered under name.
func New(name string, opts Options) (Strategy, error) {
	switch name {
	case "", "wallclock":
		return WallClock{Exec: opts.Exec, Timeout: opts.Timeout}, nil
	case "perf":
		return PerfStat{Binary: opts.PerfBinary, Event: opts.PerfEvent, Exec: opts.Exec, Timeout: opts.Timeout}, nil
	case "reported":
		return Reported{Exec: opts.Exec, Timeout: opts.Timeout}, nil
	default:
		return nil, fmt.Errorf("unknown measurement strategy %q", name)
	}
}

// Options configures New.
type Options struct {
	PerfBinary string
	PerfEvent  string
	Timeout    time.Duration
	Exec       process.Runner
}
