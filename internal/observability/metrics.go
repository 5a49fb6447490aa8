package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextfilm_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheOperations counts cache lookups by key family and result (hit, miss, error).
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextfilm_cache_operations_total",
		Help: "Cache-aside lookups by key family and result",
	}, []string{"family", "result"})

	// BlobOperations counts blob store calls by operation and result.
	BlobOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextfilm_blob_operations_total",
		Help: "Blob store operations by operation and result",
	}, []string{"op", "result"})

	// BlobLatency records blob store call latency.
	BlobLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nextfilm_blob_operation_seconds",
		Help:    "Blob store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// LikesToggled counts like toggles by resulting state.
	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextfilm_likes_toggled_total",
		Help: "Like toggles by resulting state (liked, unliked)",
	}, []string{"state"})

	// FollowEvents counts follow graph mutations.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextfilm_follow_events_total",
		Help: "Follow graph mutations by action (follow, unfollow)",
	}, []string{"action"})

	// FeedEnrichmentFailures counts per-item enrichment steps that degraded to null.
	FeedEnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextfilm_feed_enrichment_failures_total",
		Help: "Feed enrichment steps that failed and degraded",
	}, []string{"field"})

	// FeedAssemblyLatency records how long building one feed page takes.
	FeedAssemblyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nextfilm_feed_assembly_seconds",
		Help:    "Feed page assembly latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// ActiveWebSockets tracks open activity stream connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nextfilm_active_websockets",
		Help: "Open activity stream websocket connections",
	})

	// WebSocketBackpressureDrops counts events dropped because a client buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextfilm_websocket_backpressure_drops_total",
		Help: "Activity events dropped per websocket client by reason (full, closed)",
	}, []string{"reason"})
)
