// Package metrics exposes the Prometheus registry shared by the brewery pager.
// Request, store and paging metrics are defined in their own packages
// (client, ratelimit, cache, pagination) and registered via promauto; this
// package holds the process-wide collectors and the scrape handler.
package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package's promauto collectors use.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

var (
	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "brewery_pager_build_info",
		Help: "Build information of the running binary; value is always 1",
	}, []string{"version", "goversion"})

	// ActiveStreams is the number of pagers held by stream registries.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "brewery_pager_active_streams",
		Help: "Number of brewery type streams currently cached",
	})

	// WarmRuns counts warm runs by outcome (ok, error).
	WarmRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brewery_pager_warm_runs_total",
		Help: "Total cache warm runs by outcome",
	}, []string{"outcome"})
)

// SetBuildInfo records the running version.
func SetBuildInfo(version string) {
	buildInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// Handler returns the HTTP handler serving Gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Paging Metrics (pkg/pagination):
//   - brewery_page_loads_total{type, source} (Counter): Page loads served from store or remote
//   - brewery_page_load_errors_total{type, op} (Counter): Failed loads by failing step
//   - brewery_page_load_duration_seconds{source} (Histogram): Load duration
//
// Store Metrics (pkg/cache):
//   - brewery_store_hits_total{layer="redis"} (Counter): Records found
//   - brewery_store_misses_total (Counter): Records or freshness entries not found
//   - brewery_store_errors_total{operation} (Counter): Redis operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - brewery_api_requests_remaining (Gauge): Requests left in the current window
//   - brewery_api_rate_limit_blocks_total (Counter): Requests blocked
//   - brewery_api_rate_limit_throttles_total (Counter): Requests throttled
//
// Request Metrics (pkg/client):
//   - brewery_api_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - brewery_api_request_duration_seconds{endpoint} (Histogram): Request duration
//   - brewery_api_errors_total{class} (Counter): Errors by class
//   - brewery_api_retries_total{error_class} (Counter): Retry attempts
//   - brewery_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration
//   - brewery_api_retry_exhausted_total{error_class} (Counter): Exhausted retries
//
// Process Metrics (this package):
//   - brewery_pager_build_info{version, goversion} (Gauge)
//   - brewery_pager_active_streams (Gauge)
//   - brewery_pager_warm_runs_total{outcome} (Counter)
//
// Example Prometheus Queries:
//
//   # Store hit rate of page loads
//   sum(rate(brewery_page_loads_total{source="store"}[5m])) /
//   sum(rate(brewery_page_loads_total[5m]))
//
//   # Failing load steps
//   sum by (op) (rate(brewery_page_load_errors_total[5m]))
//
//   # P95 remote page latency
//   histogram_quantile(0.95, rate(brewery_page_load_duration_seconds_bucket{source="remote"}[5m]))
