package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and extraction Prometheus metrics.
var (
	SearchRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kbsearch",
			Name:      "search_duration_seconds",
			Help:      "End-to-end hybrid search duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SearchDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbsearch",
			Name:      "search_documents_total",
			Help:      "Documents flowing through the ranking stages",
		},
		[]string{"stage"}, // "received" / "prefiltered" / "returned"
	)

	ExtractionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbsearch",
			Name:      "extraction_cache_total",
			Help:      "Extracted content cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbsearch",
			Name:      "extractions_total",
			Help:      "Content extraction outcomes",
		},
		[]string{"outcome"}, // "ok" / "empty" / "error"
	)
)

// RegisterSearchMetrics registers search and extraction metrics with the
// default registry. Called explicitly from the composition root (no init).
func RegisterSearchMetrics() {
	prometheus.MustRegister(
		SearchRequestDuration,
		SearchDocumentsTotal,
		ExtractionCacheTotal,
		ExtractionsTotal,
	)
}
