package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// backendRequests tracks search attempts per backend and outcome.
	backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_backend_requests_total",
		Help: "Total search requests by backend and outcome",
	}, []string{"backend", "outcome"})

	// backendLatency tracks per-backend search latency.
	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_backend_latency_seconds",
		Help:    "Search latency by backend",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"backend"})

	// fallbackDepth tracks how deep the cascade had to go: 0 means the
	// primary answered, len(backends) means total exhaustion.
	fallbackDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_fallback_depth",
		Help:    "Number of failed backends before a search was served",
		Buckets: []float64{0, 1, 2, 3},
	})

	// resultCacheEvents tracks result cache hits, stale serves and misses.
	resultCacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_result_cache_events_total",
		Help: "Result cache events by type (hit, stale, miss)",
	}, []string{"event"})
)
