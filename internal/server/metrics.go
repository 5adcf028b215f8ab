package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namescan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "namescan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Recognition metrics, by transport: http or websocket
	recognizeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namescan_recognize_requests_total",
			Help: "Total number of recognition requests",
		},
		[]string{"transport", "status"},
	)

	recognizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "namescan_recognize_duration_seconds",
			Help:    "Recognition request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"transport"},
	)

	sightingsPerRequest = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "namescan_sightings_per_request",
			Help:    "Number of resolved names per recognition request",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		},
		[]string{"transport"},
	)

	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namescan_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // minute, hour, requests, data
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "namescan_upload_size_bytes",
			Help:    "Size of uploaded viewport files in bytes",
			Buckets: []float64{1024, 4 * 1024, 16 * 1024, 64 * 1024, 256 * 1024, 1024 * 1024, 4 * 1024 * 1024},
		},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "namescan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namescan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // sent, received
	)
)
