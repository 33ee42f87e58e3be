package measure

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrParse is returned when diagnostic output does not have the expected shape.
var ErrParse = errors.New("unrecognized counter output")

// Reading is what a counter tool reported for one run.
type Reading struct {
	Elapsed time.Duration
	Count   int64
}

// CounterParser extracts a Reading from a counter tool's diagnostic text.
// Implementations are tied to one tool output format.
type CounterParser interface {
	Version() string
	Parse(diagnostics, event string) (Reading, error)
}

// PerfStatV1 reads `perf stat` summaries of the form
//
//	     1,234,567      cycles
//	   0.012345678 seconds time elapsed
type PerfStatV1 struct{}

var perfElapsed = regexp.MustCompile(`(\d+\.\d+)\s+seconds time elapsed`)

func (PerfStatV1) Version() string { return "perf-stat/v1" }

func (PerfStatV1) Parse(diagnostics, event string) (Reading, error) {
	tm := perfElapsed.FindStringSubmatch(diagnostics)
	if tm == nil {
		return Reading{}, fmt.Errorf("%w: no elapsed time", ErrParse)
	}
	counter := regexp.MustCompile(`(\d{1,3}(?:,\d{3})+|\d+)\s+` + regexp.QuoteMeta(event) + `\b`)
	cm := counter.FindStringSubmatch(diagnostics)
	if cm == nil {
		return Reading{}, fmt.Errorf("%w: no %s count", ErrParse, event)
	}

	seconds, err := strconv.ParseFloat(tm[1], 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: elapsed %q: %v", ErrParse, tm[1], err)
	}
	count, err := strconv.ParseInt(strings.ReplaceAll(cm[1], ",", ""), 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: count %q: %v", ErrParse, cm[1], err)
	}
	return Reading{Elapsed: time.Duration(seconds * float64(time.Second)), Count: count}, nil
}

var reportedSeconds = regexp.MustCompile(`\d+\.\d+|\d+`)

// ParseReportedSeconds returns the first decimal number printed by a benchmark.
func ParseReportedSeconds(stdout string) (float64, error) {
	m := reportedSeconds.FindString(stdout)
	if m == "" {
		return 0, fmt.Errorf("%w: no time printed", ErrParse)
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrParse, m, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: non-positive time %q", ErrParse, m)
	}
	return v, nil
}
