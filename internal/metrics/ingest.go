package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion metrics.
var (
	RecordsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "georag",
			Name:      "records_ingested_total",
			Help:      "Records pushed through the tri-store write path",
		},
		[]string{"status"}, // "success" / "error" / "rolled_back"
	)

	RecordsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "georag",
			Name:      "records_deleted_total",
			Help:      "Records tombstoned from all three stores",
		},
	)

	ReconcileRepairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "georag",
			Name:      "reconcile_repairs_total",
			Help:      "Divergences repaired by the reconciliation sweep",
		},
		[]string{"kind"}, // "missing_vector" / "missing_text" / "orphan"
	)

	// IngestionHalted is 1 while ingestion is suspended after a dimension
	// mismatch and 0 otherwise.
	IngestionHalted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "georag",
			Name:      "ingestion_halted",
			Help:      "Whether ingestion is halted after a dimension mismatch",
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecordsIngestedTotal)
	prometheus.MustRegister(RecordsDeletedTotal)
	prometheus.MustRegister(ReconcileRepairsTotal)
	prometheus.MustRegister(IngestionHalted)
	ingestMetricsRegistered = true
}
