// Package ledger persists one row per evaluated benchmark and answers whether a
// benchmark has already been evaluated.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrSchemaMismatch is returned when an existing ledger was written with
// different columns than the ones requested.
var ErrSchemaMismatch = errors.New("ledger schema mismatch")

// Backends accepted by Open.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Schema names a ledger layout. Columns[0] is always the benchmark name.
type Schema struct {
	Name    string
	Columns []string
}

// TwoWay is the reference-vs-comparison layout. A single comparison language
// keeps the historical column names; several get one time/speedup pair each.
func TwoWay(comparisons ...string) Schema {
	if len(comparisons) <= 1 {
		return Schema{Name: "compare", Columns: []string{"algorithm", "reference_time", "comparison_time", "speedup"}}
	}
	cols := []string{"algorithm", "reference_time"}
	for _, lang := range comparisons {
		lang = strings.ToLower(lang)
		cols = append(cols, lang+"_time", lang+"_speedup")
	}
	return Schema{Name: "compare", Columns: cols}
}

// OptDiff is the O2 / O3 / LLVM-pipeline layout.
func OptDiff() Schema {
	return Schema{Name: "optdiff", Columns: []string{
		"algorithm",
		"level2_time", "level2_cycles",
		"level3_time", "level3_cycles",
		"pipeline_time", "pipeline_cycles",
	}}
}

// Row is one benchmark's result. Values line up with Columns[1:].
type Row struct {
	Name   string
	Values []string
}

// Record returns the row as it is written to disk.
func (r Row) Record() []string {
	return append([]string{r.Name}, r.Values...)
}

func (s Schema) check(r Row) error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("ledger row has no benchmark name")
	}
	if want := len(s.Columns) - 1; len(r.Values) != want {
		return fmt.Errorf("ledger row %q has %d values, schema %s wants %d", r.Name, len(r.Values), s.Name, want)
	}
	return nil
}

func (s Schema) matches(header []string) bool {
	if len(header) != len(s.Columns) {
		return false
	}
	for i := range header {
		if strings.TrimSpace(header[i]) != s.Columns[i] {
			return false
		}
	}
	return true
}

// Seconds formats an elapsed time with three decimal places.
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// Ratio formats a speedup with three decimal places.
func Ratio(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// Cycles formats a counter value without separators.
func Cycles(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Ledger is the append-only result store.
type Ledger interface {
	Evaluated(name string) (bool, error)
	Append(r Row) error
	Rows() ([]Row, error)
	Header() []string
	Close() error
}

// Open returns the ledger for backend at path.
func Open(path, backend string, schema Schema) (Ledger, error) {
	var (
		l   Ledger
		err error
	)
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendCSV:
		var c *CSV
		c, err = OpenCSV(path, schema)
		l = c
	case BackendSQLite, "sqlite3":
		var s *SQLite
		s, err = OpenSQLite(path, schema)
		l = s
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", backend)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
