// Package metrics provides the Prometheus registry and handler shared by the
// responses server and viewer.
// All metrics are defined in their respective packages (client, cache, pager,
// server, store) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer exposes the metrics registered on Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler serving all registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Server Metrics (pkg/server):
//   - responses_server_requests_total{status} (Counter): Responses endpoint requests by HTTP status
//   - responses_server_request_duration_seconds (Histogram): Responses endpoint latency
//   - responses_server_batch_size (Histogram): Responses returned per batch
//
// Store Metrics (pkg/store):
//   - responses_store_errors_total{backend, operation} (Counter): Store operation errors
//
// Cache Metrics (pkg/cache):
//   - responses_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - responses_cache_misses_total (Counter): Cache misses
//   - responses_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the cache
//   - responses_cache_invalidated_keys_total (Counter): Batches removed by invalidation
//   - responses_cache_errors_total{operation} (Counter): Cache operation errors
//
// Client Metrics (pkg/client):
//   - responses_client_requests_total{status} (Counter): Requests by HTTP status
//   - responses_client_request_duration_seconds (Histogram): Request duration
//   - responses_client_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//   - responses_client_retries_total{error_class} (Counter): Retry attempts by error class
//   - responses_client_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - responses_client_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// View Metrics (pkg/pager):
//   - responses_view_fetches_total{operation, outcome} (Counter): Initialize and load-more fetches
//   - responses_view_fetches_discarded_total (Counter): Superseded fetch results dropped
//   - responses_view_navigations_total{direction, moved} (Counter): Previous/next navigation
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(responses_cache_hits_total[5m])) /
//   (sum(rate(responses_cache_hits_total[5m])) + sum(rate(responses_cache_misses_total[5m])))
//
//   # Rejected Reload Indices
//   rate(responses_server_requests_total{status="400"}[5m])
//
//   # P95 Endpoint Latency
//   histogram_quantile(0.95, rate(responses_server_request_duration_seconds_bucket[5m]))
