package metrics

import "github.com/prometheus/client_golang/prometheus"

// Hybrid search metrics.
var (
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "georag",
			Name:      "search_duration_seconds",
			Help:      "Hybrid search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// SignalDegradedTotal counts index stages that timed out or failed and
	// were degraded to an empty candidate set.
	SignalDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "georag",
			Name:      "search_signal_degraded_total",
			Help:      "Search signal stages degraded to an empty candidate set",
		},
		[]string{"signal"}, // "vector" / "lexical"
	)

	// IndexGapsTotal counts record ids returned by an index but missing from
	// the record store. A growing rate means the ingestion pipeline left the
	// stores divergent and a reconciliation sweep is due.
	IndexGapsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "georag",
			Name:      "search_index_gaps_total",
			Help:      "Search hits dropped because the record store lacks the record",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SignalDegradedTotal)
	prometheus.MustRegister(IndexGapsTotal)
	searchMetricsRegistered = true
}
