package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broadcast Metrics
var (
	// BroadcastActiveChannels tracks the number of channels with at least one subscriber
	BroadcastActiveChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_active_channels",
			Help: "Number of channels with at least one subscribed session",
		},
	)

	// BroadcastSubscribedSessions tracks total channel memberships across all channels
	BroadcastSubscribedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_subscribed_sessions_total",
			Help: "Total channel memberships across all channels",
		},
	)

	// EventsPublishedTotal tracks events published by frame type
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_events_published_total",
			Help: "Total events published by frame type",
		},
		[]string{"frame"},
	)

	// EventsDeliveredTotal tracks per-session deliveries
	EventsDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_events_delivered_total",
			Help: "Total event deliveries to individual sessions",
		},
	)

	// SlowSessionsEvicted tracks sessions closed because their outbound queue filled
	SlowSessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_slow_sessions_evicted_total",
			Help: "Total sessions closed because the outbound queue was full",
		},
	)

	// RelayMessagesTotal tracks cross-instance relay traffic by direction
	RelayMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_relay_messages_total",
			Help: "Cross-instance relay messages by direction (published/received/skipped)",
		},
		[]string{"direction"},
	)

	// RelayReconnectsTotal tracks relay subscription reconnection attempts
	RelayReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_relay_reconnects_total",
			Help: "Total relay subscription reconnection attempts after disconnect",
		},
	)
)

// WebSocket Metrics
var (
	// WebSocketConnectionsCurrent tracks current active WebSocket connections
	WebSocketConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_current",
			Help: "Current number of active WebSocket connections",
		},
	)

	// WebSocketConnectionsTotal tracks total WebSocket connection attempts by result
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total WebSocket connection attempts by result (success/error/rejected)",
		},
		[]string{"result"},
	)

	// WebSocketConnectionsRejected tracks rejected connection attempts by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total WebSocket connections rejected by reason (rate_limit/per_ip_limit/global_limit)",
		},
		[]string{"reason"},
	)

	// WebSocketMessageSendDuration tracks WebSocket message send duration
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// WebSocketPingFailures tracks WebSocket keepalive ping failures
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures (client not responding)",
		},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks database query duration by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks database errors by query name
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database errors by query",
		},
		[]string{"query"},
	)
)

// Incident Processing Metrics
var (
	// IncidentsReportedTotal tracks incidents by detection source and type
	IncidentsReportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incidents_reported_total",
			Help: "Total incidents reported by detection source and type",
		},
		[]string{"source", "type"},
	)

	// AlertsEscalatedTotal tracks alerts auto-created from critical incidents
	AlertsEscalatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_escalated_total",
			Help: "Total alerts auto-created from critical incidents",
		},
	)
)
