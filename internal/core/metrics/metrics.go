// Package metrics provides Prometheus metrics for editor operations.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solatis/filtertree/internal/types"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	registry *prometheus.Registry

	// Operations counts editor operations.
	// Labels: op (add, remove, move, update, preview), result (ok, rejected, error)
	Operations *prometheus.CounterVec

	// Duration tracks how long editor operations take.
	// Labels: op
	Duration *prometheus.HistogramVec

	// Leaves is the leaf count of the most recently edited tree.
	Leaves prometheus.Gauge
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "filtertree",
				Name:      "operations_total",
				Help:      "Total number of editor operations by result",
			},
			[]string{"op", "result"},
		),
		Duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "filtertree",
				Name:      "operation_duration_seconds",
				Help:      "Duration of editor operations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"op"},
		),
		Leaves: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "filtertree",
				Name:      "tree_leaves",
				Help:      "Number of filters in the most recently edited tree",
			},
		),
	}
}

// ObserveApply records one editor operation.
func (m *Metrics) ObserveApply(op string, err error, elapsed time.Duration, leaves int) {
	m.Operations.WithLabelValues(op, Classify(err)).Inc()
	m.Duration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err == nil {
		m.Leaves.Set(float64(leaves))
	}
}

// Classify maps an operation error to a result label. Policy refusals are
// reported apart from failures.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, types.ErrConditionDisabled),
		errors.Is(err, types.ErrLastFilter),
		errors.Is(err, types.ErrTooManyFilters),
		errors.Is(err, types.ErrPathTooDeep):
		return ResultRejected
	default:
		return ResultError
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
