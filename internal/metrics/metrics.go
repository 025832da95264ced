package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drone_dashboard_build_info",
			Help: "Build information of the drone dashboard",
		},
		[]string{"version", "commit", "date"},
	)

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drone_dashboard_requests_total",
		Help: "Total number of requests issued to the simulation endpoint",
	}, []string{"endpoint", "result"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drone_dashboard_request_duration_seconds",
		Help:    "Duration of requests issued to the simulation endpoint",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
	}, []string{"endpoint"})

	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drone_dashboard_connected",
		Help: "1 while the simulation endpoint answers pings, 0 otherwise",
	})

	ConnectionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drone_dashboard_connection_transitions_total",
		Help: "Total number of connection state transitions",
	}, []string{"to"})

	PingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "drone_dashboard_ping_latency_milliseconds",
		Help:    "Round-trip latency reported by successful pings",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms .. ~2s
	})

	TelemetryTicksSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drone_dashboard_telemetry_ticks_skipped_total",
		Help: "Telemetry ticks skipped because the dashboard was disconnected",
	})

	ViewSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drone_dashboard_view_subscribers",
		Help: "Number of websocket clients receiving view updates",
	})

	SimulatorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drone_simulator_requests_total",
		Help: "Total number of requests served by the drone simulator",
	}, []string{"endpoint", "code"})
)
