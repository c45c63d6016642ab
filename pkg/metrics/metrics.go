// Package metrics provides the centralized Prometheus metrics registry
// for the places gateway. All metrics are defined in their respective
// packages (cache, googleplaces, ratelimit, server) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the gateway.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - places_cache_hits_total{resource} (Counter): Cache hits by resource kind
//   - places_cache_misses_total{resource} (Counter): Cache misses by resource kind
//   - places_cache_errors_total{operation} (Counter): Cache operation errors
//   - places_cache_skipped_total{operation} (Counter): Operations skipped while disconnected
//   - places_cache_connected (Gauge): 1 when the Redis connection is healthy
//
// Provider Metrics (pkg/googleplaces):
//   - places_provider_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - places_provider_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - places_provider_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, provider)
//
// Retry Metrics (pkg/googleplaces):
//   - places_provider_retries_total{error_class} (Counter): Retry attempts by error class
//   - places_provider_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - places_rate_limit_blocked_total (Counter): Requests blocked by the per-client limit
//   - places_rate_limit_skipped_total (Counter): Checks skipped because Redis was unavailable
//
// HTTP Metrics (internal/server):
//   - places_http_requests_total{route, method, status} (Counter): Gateway requests by route and status
//   - places_http_request_duration_seconds{route} (Histogram): Gateway request duration by route
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(places_cache_hits_total[5m])) /
//   (sum(rate(places_cache_hits_total[5m])) + sum(rate(places_cache_misses_total[5m])))
//
//   # Provider Error Rate
//   rate(places_provider_errors_total[5m])
//
//   # P95 Gateway Latency
//   histogram_quantile(0.95, rate(places_http_request_duration_seconds_bucket[5m]))
//
//   # Blocked Clients
//   rate(places_rate_limit_blocked_total[5m])
