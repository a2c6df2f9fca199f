// Package metrics exposes Prometheus counters for the receipt pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "billsplitter"

// Metrics holds the collectors for one server. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	reconciliations    *prometheus.CounterVec
	splitWarnings      *prometheus.CounterVec
	extractionFailures *prometheus.CounterVec
	rpcDuration        *prometheus.HistogramVec
}

// New creates a Metrics with its own registry, including Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Receipt reconciliations by outcome (tax scenario or error kind).",
		}, []string{"outcome"}),
		splitWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_warnings_total",
			Help:      "Non-fatal split warnings by kind.",
		}, []string{"kind"}),
		extractionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Receipt extraction failures by pipeline stage.",
		}, []string{"stage"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Duration of Connect RPCs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reconciliations,
		m.splitWarnings,
		m.extractionFailures,
		m.rpcDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Reconciliation counts one reconciliation attempt.
func (m *Metrics) Reconciliation(outcome string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
}

// SplitWarnings counts n warnings of the given kind.
func (m *Metrics) SplitWarnings(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.splitWarnings.WithLabelValues(kind).Add(float64(n))
}

// ExtractionFailure counts a failed extraction at stage.
func (m *Metrics) ExtractionFailure(stage string) {
	if m == nil {
		return
	}
	if stage == "" {
		stage = "unknown"
	}
	m.extractionFailures.WithLabelValues(stage).Inc()
}

// ObserveRPC records the duration of one RPC.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}
