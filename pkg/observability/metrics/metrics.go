package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every observation is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	MergeDecisions *prometheus.CounterVec
	MergeBatches   *prometheus.CounterVec
	MergeDuration  *prometheus.HistogramVec

	SearchDuration *prometheus.HistogramVec
	SearchResults  *prometheus.HistogramVec
	SearchFailures *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		MergeDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_sync_merge_records_total",
			Help: "Server records evaluated by the merge engine by entity and decision",
		}, []string{"entity", "decision"}), // decision: applied, skipped, invalid

		MergeBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_sync_merge_batches_total",
			Help: "Merge batches by entity and outcome",
		}, []string{"entity", "outcome"}),

		MergeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_sync_merge_duration_seconds",
			Help:    "Duration of a merge batch including the store transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"entity"}),

		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_sync_search_duration_seconds",
			Help:    "Duration of patient searches by strategy",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"strategy"}),

		SearchResults: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_sync_search_results",
			Help:    "Number of results returned per patient search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"strategy"}),

		SearchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_sync_search_failures_total",
			Help: "Patient searches that returned an error",
		}, []string{"strategy"}),
	}
}

func (m *Metrics) ObserveMerge(entity string, applied, skipped, invalid int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.MergeDuration.WithLabelValues(entity).Observe(d.Seconds())
	if err != nil {
		m.MergeBatches.WithLabelValues(entity, "failed").Inc()
		return
	}
	m.MergeBatches.WithLabelValues(entity, "committed").Inc()
	m.MergeDecisions.WithLabelValues(entity, "applied").Add(float64(applied))
	m.MergeDecisions.WithLabelValues(entity, "skipped").Add(float64(skipped))
	m.MergeDecisions.WithLabelValues(entity, "invalid").Add(float64(invalid))
}

func (m *Metrics) ObserveSearch(strategy string, d time.Duration, results int, err error) {
	if m == nil {
		return
	}
	m.SearchDuration.WithLabelValues(strategy).Observe(d.Seconds())
	if err != nil {
		m.SearchFailures.WithLabelValues(strategy).Inc()
		return
	}
	m.SearchResults.WithLabelValues(strategy).Observe(float64(results))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
