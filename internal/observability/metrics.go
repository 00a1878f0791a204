package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostWrites counts post mutations by operation.
	PostWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jamsesh_post_writes_total",
		Help: "Total number of post creates, updates and deletes",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by keyspace and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jamsesh_cache_lookups_total",
		Help: "Cache-aside lookups by keyspace and result",
	}, []string{"keyspace", "result"})

	// Uploads counts stored objects by bucket and result.
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jamsesh_uploads_total",
		Help: "Uploaded objects by bucket and result",
	}, []string{"bucket", "result"})

	// GeocodeLookups counts reverse geocode calls by result (hit, miss, error).
	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jamsesh_geocode_lookups_total",
		Help: "Reverse geocode lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jamsesh_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
