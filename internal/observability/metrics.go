package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adintel_ads_collected_total",
		Help: "Total reconciled ad records by outcome",
	}, []string{"outcome"})

	CollectionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adintel_collection_runs_total",
		Help: "Total pipeline runs by status",
	}, []string{"status"})

	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adintel_run_duration_seconds",
		Help:    "Duration of a single query collection run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	RunFetchedRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adintel_run_fetched_records",
		Help:    "Records fetched per collection run",
		Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
	})

	// ReactivationSignals counts incoming "still active" records for ads
	// already stored as stopped. The monotonic reconciliation rule ignores
	// them; a non-zero rate here means the upstream genuinely reactivates
	// ads and the rule needs revisiting.
	ReactivationSignals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adintel_reactivation_signals_total",
		Help: "Ignored inactive-to-active signals during reconciliation",
	})
)
