package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appfeed_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records repository call latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "appfeed_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthorCacheLookups counts author snapshot lookups by result (hit, miss).
	AuthorCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appfeed_author_cache_lookups_total",
		Help: "Author snapshot cache lookups by result",
	}, []string{"result"})

	// FeedEventsPublished counts domain events handed to sinks by type and outcome.
	FeedEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appfeed_feed_events_published_total",
		Help: "Feed domain events published by type, sink and outcome",
	}, []string{"event_type", "sink", "outcome"})

	// LikeToggles counts toggles by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appfeed_like_toggles_total",
		Help: "Like toggles by resulting state",
	}, []string{"liked"})

	// OrphanedReplies is the last observed count of replies whose comment is gone.
	OrphanedReplies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "appfeed_orphaned_replies",
		Help: "Replies whose parent comment no longer exists",
	})

	// WebSocketAppConnections is the gauge of live connections per app.
	WebSocketAppConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "appfeed_websocket_app_connections",
		Help: "Number of WebSocket connections per app",
	}, []string{"app_id"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "appfeed_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appfeed_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
