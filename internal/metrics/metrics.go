package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnmatchedRoute labels requests that no route matched, so arbitrary paths do not create series.
const UnmatchedRoute = "unmatched"

var (
	// RequestDuration tracks HTTP request duration in seconds by method, route, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, route, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// BodyParseErrors counts rejected request bodies by parser (json, urlencoded) and reason.
	BodyParseErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_body_parse_errors_total",
			Help: "Request bodies rejected by the body parsers",
		},
		[]string{"parser", "reason"},
	)
)

var initOnce sync.Once

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, BodyParseErrors)
	})
}

// RecordRequest records duration and count for an HTTP request. path should be a route pattern, not the raw URL.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	if path == "" {
		path = UnmatchedRoute
	}
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncBodyParseError increments the rejected body counter.
func IncBodyParseError(parser, reason string) {
	BodyParseErrors.WithLabelValues(parser, reason).Inc()
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
