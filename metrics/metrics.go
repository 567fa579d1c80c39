// Package metrics exposes layout measurements through Prometheus collectors.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Registry holds the layout collectors on a private Prometheus registry.
// It implements layout.Recorder.
type Registry struct {
	registry *prometheus.Registry

	LayoutRunsTotal  *prometheus.CounterVec
	LayoutDuration   *prometheus.HistogramVec
	FallbacksTotal   *prometheus.CounterVec
	SpiralCandidates prometheus.Histogram
}

// NewRegistry creates a registry with every layout collector registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.LayoutRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "erd_layout_runs_total",
			Help: "Total number of layout runs by strategy",
		},
		[]string{"strategy"},
	)

	r.LayoutDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erd_layout_duration_seconds",
			Help:    "Layout run duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"strategy"},
	)

	r.FallbacksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "erd_layout_fallbacks_total",
			Help: "Total number of best-effort placements by kind",
		},
		[]string{"kind"},
	)

	r.SpiralCandidates = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "erd_layout_spiral_candidates",
			Help:    "Non-overlapping spiral candidates found per placed entity",
			Buckets: []float64{0, 1, 5, 10, 20, 30},
		},
	)

	return r
}

// ObserveRun records one finished layout run.
func (r *Registry) ObserveRun(strategy string, d time.Duration) {
	r.LayoutRunsTotal.WithLabelValues(strategy).Inc()
	r.LayoutDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// ObserveCandidates records the candidate count of one spiral search.
func (r *Registry) ObserveCandidates(n int) {
	r.SpiralCandidates.Observe(float64(n))
}

// CountFallback records one best-effort placement.
func (r *Registry) CountFallback(kind string) {
	r.FallbacksTotal.WithLabelValues(kind).Inc()
}

// Gatherer returns the underlying registry for exposition.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteText writes every collected metric in the text exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
