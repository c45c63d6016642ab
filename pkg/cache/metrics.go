package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by resource type (search, place, deeplink)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"resource"},
	)

	// CacheMisses tracks cache misses by resource type
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"resource"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "ping"
	)

	// CacheSkipped tracks operations skipped because the store was disconnected
	CacheSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_cache_skipped_total",
			Help: "Total number of cache operations skipped while disconnected",
		},
		[]string{"operation"},
	)

	// CacheConnected reports the current connection health flag (1 or 0)
	CacheConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "places_cache_connected",
			Help: "Whether the cache store currently considers Redis reachable",
		},
	)
)
