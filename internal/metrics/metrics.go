package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dealtracker"

//nolint:gochecknoglobals
var (
	gatewayRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Requests sent to the hosted backend, by operation and HTTP status.",
	}, []string{"op", "status"})

	gatewayDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Latency of requests sent to the hosted backend.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	notificationsPushed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_pushed_total",
		Help:      "User notifications pushed, by kind.",
	}, []string{"kind"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "API requests served, by route pattern and status code.",
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(gatewayRequests, gatewayDuration, notificationsPushed, httpRequests)
}

// ObserveGateway records one backend request. status 0 means the request
// never got a response.
func ObserveGateway(op string, status int, d time.Duration) {
	gatewayRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	gatewayDuration.WithLabelValues(op).Observe(d.Seconds())
}

func NotificationPushed(kind string) {
	notificationsPushed.WithLabelValues(kind).Inc()
}

func HTTPRequest(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
