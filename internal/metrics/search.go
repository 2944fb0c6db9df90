package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and classification Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seqclass",
			Name:      "search_requests_total",
			Help:      "Total number of BLAST searches",
		},
		[]string{"database", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seqclass",
			Name:      "search_duration_seconds",
			Help:      "BLAST search duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"database"},
	)

	HitCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seqclass",
			Name:      "hit_cache_total",
			Help:      "Search hit cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seqclass",
			Name:      "classifications_total",
			Help:      "Classified queries by outcome",
		},
		[]string{"outcome"}, // "classified" / "unclassified"
	)

	DatabaseBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seqclass",
			Name:      "database_builds_total",
			Help:      "makeblastdb invocations",
		},
		[]string{"database", "status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and classification metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(HitCacheTotal)
	prometheus.MustRegister(ClassificationsTotal)
	prometheus.MustRegister(DatabaseBuildsTotal)
	searchMetricsRegistered = true
}
