package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Theme resolution
	ThemeFallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrin_theme_fallback_total",
			Help: "Number of unknown theme ids resolved to the default variant",
		},
		[]string{"theme_id"},
	)

	// Cart
	CartRejectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrin_cart_rejections_total",
			Help: "Cart mutations rejected, by reason",
		},
		[]string{"reason"},
	)

	// Capability toggles
	CapabilityToggleCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrin_capability_toggles_total",
			Help: "Plugin toggle requests by plugin and outcome",
		},
		[]string{"plugin", "outcome"},
	)

	// Tenant loader
	StaleFetchCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrin_stale_fetch_discarded_total",
			Help: "Tenant fetches discarded because the session moved on",
		},
	)

	// Catalog normalization
	CatalogAnomalyCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrin_catalog_anomalies_total",
			Help: "Catalog records corrected or excluded during normalization",
		},
		[]string{"entity"},
	)

	// Snapshot cache
	SnapshotCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrin_snapshot_cache_total",
			Help: "Snapshot cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	// Backend adapter
	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitrin_backend_request_duration_seconds",
			Help:    "Duration of backend calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "outcome"},
	)
)

// RecordThemeFallback records a tenant whose theme id was not recognized
func RecordThemeFallback(themeID string) {
	ThemeFallbackCounter.WithLabelValues(themeID).Inc()
}

// RecordCartRejection records a refused cart mutation
func RecordCartRejection(reason string) {
	CartRejectionCounter.WithLabelValues(reason).Inc()
}

// RecordCapabilityToggle records the outcome of a plugin toggle
func RecordCapabilityToggle(plugin, outcome string) {
	CapabilityToggleCounter.WithLabelValues(plugin, outcome).Inc()
}

// RecordStaleFetch records a discarded late response
func RecordStaleFetch() {
	StaleFetchCounter.Inc()
}

// RecordCatalogAnomaly records a record fixed or dropped by normalization
func RecordCatalogAnomaly(entity string) {
	CatalogAnomalyCounter.WithLabelValues(entity).Inc()
}

// RecordCacheLookup records a snapshot cache hit or miss
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	SnapshotCacheCounter.WithLabelValues(kind, result).Inc()
}

// RecordBackendRequest records the duration of a backend call
func RecordBackendRequest(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	BackendRequestDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}
