// Package metrics registers the projector's Prometheus instruments.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

var (
	// Sync metrics
	SyncRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projector_sync_rows_total",
			Help: "Rows processed by projection syncs, by outcome",
		},
		[]string{"entity", "target", "outcome"}, // inserted, updated, unchanged, failed
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projector_sync_duration_seconds",
			Help:    "Duration of one entity sync against one target",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"entity", "target"},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projector_sync_errors_total",
			Help: "Errors raised during projection syncs, by kind",
		},
		[]string{"target", "kind"},
	)

	// Cache metrics
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projector_cache_requests_total",
			Help: "Balance cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)
)

// Cache results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// ErrorKind maps an error to the kind label used by SyncErrors.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, store.ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, store.ErrTargetUnavailable):
		return "target_unavailable"
	case errors.Is(err, store.ErrRowMapping):
		return "row_mapping"
	case errors.Is(err, store.ErrStaleWrite):
		return "stale_write"
	case errors.Is(err, store.ErrUnsupportedProjection):
		return "unsupported_projection"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "other"
	}
}

// RecordRows adds the per-outcome row counts of one sync.
func RecordRows(entity, target string, inserted, updated, unchanged, failed int) {
	SyncRows.WithLabelValues(entity, target, "inserted").Add(float64(inserted))
	SyncRows.WithLabelValues(entity, target, "updated").Add(float64(updated))
	SyncRows.WithLabelValues(entity, target, "unchanged").Add(float64(unchanged))
	SyncRows.WithLabelValues(entity, target, "failed").Add(float64(failed))
}

func RecordSyncDuration(entity, target string, d time.Duration) {
	SyncDuration.WithLabelValues(entity, target).Observe(d.Seconds())
}

func RecordSyncError(target string, err error) {
	SyncErrors.WithLabelValues(target, ErrorKind(err)).Inc()
}

func RecordCacheRequest(result string) {
	CacheRequests.WithLabelValues(result).Inc()
}
