package category

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// cacheEvents tracks category cache reads and background refresh failures.
var cacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "category_cache_events_total",
	Help: "Category cache events by type (hit, stale, miss, refresh_error)",
}, []string{"event"})
