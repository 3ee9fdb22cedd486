package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betportal_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "betportal_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betportal_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	// Realtime metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "betportal_websocket_connections",
			Help: "Currently connected websocket clients",
		},
	)

	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betportal_events_broadcast_total",
			Help: "Events fanned out by the hub",
		},
		[]string{"type"},
	)

	SlowClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "betportal_slow_clients_dropped_total",
			Help: "Connections closed because their send buffer was full",
		},
	)

	// Business metrics
	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betportal_messages_posted_total",
			Help: "Total chat messages posted",
		},
		[]string{"collection"}, // "support" or "main"
	)

	LedgerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betportal_ledger_transitions_total",
			Help: "Deposit and withdrawal status transitions",
		},
		[]string{"kind", "status"},
	)

	RequestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betportal_requests_submitted_total",
			Help: "Deposit and withdrawal requests submitted",
		},
		[]string{"kind"},
	)

	// Infrastructure metrics
	StorageCorruptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betportal_storage_corruptions_total",
			Help: "Collections that failed to decode and were read as empty",
		},
		[]string{"collection"},
	)
)
