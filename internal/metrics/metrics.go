// Package metrics records per-run counters for the benchmark harness and
// writes them in the Prometheus text exposition format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crossbench"

// Recorder owns a private registry so repeated runs in one process (tests)
// never collide on the default registerer. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	units       *prometheus.CounterVec
	variantTime *prometheus.GaugeVec
	cycles      *prometheus.GaugeVec
	runDuration prometheus.Gauge
}

// NewRecorder creates and registers the run metrics.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.units = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Benchmark units by terminal outcome",
		},
		[]string{"outcome"},
	)
	r.variantTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "variant_seconds",
			Help:      "Measured elapsed time of one benchmark variant",
		},
		[]string{"benchmark", "variant"},
	)
	r.cycles = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "variant_cycles",
			Help:      "Hardware counter value of one benchmark variant",
		},
		[]string{"benchmark", "variant"},
	)
	r.runDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the whole harness run",
		},
	)

	r.registry.MustRegister(r.units, r.variantTime, r.cycles, r.runDuration)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Unit counts one unit reaching outcome (recorded, skipped, failed).
func (r *Recorder) Unit(outcome string) {
	if r == nil {
		return
	}
	r.units.WithLabelValues(outcome).Inc()
}

// Variant records the elapsed time of one measured variant.
func (r *Recorder) Variant(benchmark, variant string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.variantTime.WithLabelValues(benchmark, variant).Set(elapsed.Seconds())
}

// Cycles records a variant's counter reading.
func (r *Recorder) Cycles(benchmark, variant string, n int64) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues(benchmark, variant).Set(float64(n))
}

// RunDuration sets the total run time.
func (r *Recorder) RunDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Set(d.Seconds())
}

// WriteTextfile writes every metric to path, creating parent directories.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics file: %w", err)
	}
	return nil
}
