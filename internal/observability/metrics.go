package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatmesh",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests handled by the gateway.",
		},
		[]string{"app", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatmesh",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"app", "method", "path", "status"},
	)
	rpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatmesh",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "RPC requests dispatched by service hosts.",
		},
		[]string{"service", "type", "outcome"},
	)
	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatmesh",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "RPC request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "type", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, rpcRequests, rpcDuration)
	})
}

func RecordHTTPRequest(app, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(app, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(app, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordRPCRequest(service, msgType, outcome string, duration time.Duration) {
	RegisterMetrics()
	rpcRequests.WithLabelValues(service, msgType, outcome).Inc()
	rpcDuration.WithLabelValues(service, msgType, outcome).Observe(duration.Seconds())
}
