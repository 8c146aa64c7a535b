// Package metrics defines the Prometheus metrics exported by the catalog service.
// All Record methods are safe to call on a nil *Metrics so components can run
// without a registry in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Source metrics
	SourceRequestsTotal   *prometheus.CounterVec
	SourceDurationSeconds *prometheus.HistogramVec
	SourceFallbacksTotal  *prometheus.CounterVec
	SnapshotSkippedFiles  prometheus.Counter
	SingleflightDedup     prometheus.Counter

	// Catalog metrics
	CatalogLoadsTotal     *prometheus.CounterVec
	CatalogCacheHitsTotal prometheus.Counter
	CatalogStaleDiscards  prometheus.Counter
	CatalogActiveSessions prometheus.Gauge

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Subscription metrics
	SubscriptionsTotal *prometheus.CounterVec
	SubscribersGauge   prometheus.Gauge

	// Snapshot distribution metrics
	SnapshotRefreshTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimitedTotal  *prometheus.CounterVec
	RateLimitedActive prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		SourceRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_source_requests_total",
				Help: "Total number of catalog source requests by origin and status",
			},
			[]string{"origin", "status"}, // origin: remote, local; status: success, error, not_found
		),

		SourceDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_source_duration_seconds",
				Help:    "Catalog source request duration in seconds by origin",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5}, // Matches 5s remote timeout
			},
			[]string{"origin"},
		),

		SourceFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_source_fallbacks_total",
				Help: "Total number of requests served from the local snapshot",
			},
			[]string{"reason"}, // reason: probe_failed, remote_error
		),

		SnapshotSkippedFiles: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_snapshot_skipped_files_total",
				Help: "Total number of snapshot files skipped because they could not be read or parsed",
			},
		),

		SingleflightDedup: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_singleflight_dedup_total",
				Help: "Total number of catalog loads that joined an in-flight load",
			},
		),

		CatalogLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_loads_total",
				Help: "Total number of catalog loads by result",
			},
			[]string{"result"}, // result: ready, error, stale
		),

		CatalogCacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_cache_hits_total",
				Help: "Total number of page changes served from the session's filtered set",
			},
		),

		CatalogStaleDiscards: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_stale_discards_total",
				Help: "Total number of superseded catalog responses discarded",
			},
		),

		CatalogActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_active_sessions",
				Help: "Number of catalog sessions currently tracked",
			},
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: invalid_input, not_found, stale, unavailable, internal
		),

		SubscriptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_subscriptions_total",
				Help: "Total newsletter subscription changes by action",
			},
			[]string{"action"}, // action: subscribe, unsubscribe
		),

		SubscribersGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_subscribers",
				Help: "Current number of newsletter subscribers",
			},
		),

		SnapshotRefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_snapshot_refresh_total",
				Help: "Total snapshot refresh attempts from object storage by status",
			},
			[]string{"status"}, // status: success, error, not_found
		),

		RateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_rate_limited_total",
				Help: "Total requests rejected by a rate limiter",
			},
			[]string{"limiter"},
		),

		RateLimitedActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_rate_limiter_clients",
				Help: "Number of clients currently tracked by the API rate limiter",
			},
		),
	}
}

// RecordSourceRequest records a source request with its origin, status and duration.
func (m *Metrics) RecordSourceRequest(origin, status string, duration float64) {
	if m == nil {
		return
	}
	m.SourceRequestsTotal.WithLabelValues(origin, status).Inc()
	m.SourceDurationSeconds.WithLabelValues(origin).Observe(duration)
}

// RecordFallback records a request served locally.
func (m *Metrics) RecordFallback(reason string) {
	if m == nil {
		return
	}
	m.SourceFallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordSkippedFile records a snapshot file dropped during a local load.
func (m *Metrics) RecordSkippedFile() {
	if m == nil {
		return
	}
	m.SnapshotSkippedFiles.Inc()
}

// RecordSingleflightDedup records a load that shared another caller's result.
func (m *Metrics) RecordSingleflightDedup() {
	if m == nil {
		return
	}
	m.SingleflightDedup.Inc()
}

// RecordCatalogLoad records the outcome of a catalog session load.
func (m *Metrics) RecordCatalogLoad(result string) {
	if m == nil {
		return
	}
	m.CatalogLoadsTotal.WithLabelValues(result).Inc()
	if result == "stale" {
		m.CatalogStaleDiscards.Inc()
	}
}

// RecordCatalogCacheHit records a page change served without querying the source.
func (m *Metrics) RecordCatalogCacheHit() {
	if m == nil {
		return
	}
	m.CatalogCacheHitsTotal.Inc()
}

// SetActiveSessions sets the active session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.CatalogActiveSessions.Set(float64(n))
}

// RecordHTTPError records an HTTP error response.
func (m *Metrics) RecordHTTPError(errorType, module string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordSubscription records a subscription change.
func (m *Metrics) RecordSubscription(action string) {
	if m == nil {
		return
	}
	m.SubscriptionsTotal.WithLabelValues(action).Inc()
}

// SetSubscribers sets the subscriber gauge.
func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.SubscribersGauge.Set(float64(n))
}

// RecordSnapshotRefresh records a startup snapshot refresh attempt.
func (m *Metrics) RecordSnapshotRefresh(status string) {
	if m == nil {
		return
	}
	m.SnapshotRefreshTotal.WithLabelValues(status).Inc()
}

// RecordRateLimited records a request rejected by the named limiter.
func (m *Metrics) RecordRateLimited(limiter string) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(limiter).Inc()
}

// SetRateLimitedClients sets the number of tracked rate limiter keys.
func (m *Metrics) SetRateLimitedClients(n int) {
	if m == nil {
		return
	}
	m.RateLimitedActive.Set(float64(n))
}
