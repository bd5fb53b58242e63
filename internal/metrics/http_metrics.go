// Package metrics exposes Prometheus counters for the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	reservationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_decisions_total",
			Help: "Reservation status transitions by resulting status",
		},
		[]string{"status"},
	)

	overlapRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_overlap_rejections_total",
			Help: "Writes rejected because the date range was already taken",
		},
	)
)

// HTTPMetrics records request metrics for the service.
type HTTPMetrics struct{}

// NewHTTPMetrics registers the collectors and returns the middleware host.
func NewHTTPMetrics() *HTTPMetrics {
	prometheus.MustRegister(requestCounter, requestDuration, reservationDecisions, overlapRejections)
	return &HTTPMetrics{}
}

// Middleware records a counter increment and duration sample per request.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			path := c.Path()
			requestCounter.WithLabelValues(method, path, status).Inc()
			requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// CountDecision records a reservation landing in a final status.
func CountDecision(status string) { reservationDecisions.WithLabelValues(status).Inc() }

// CountOverlapRejection records a write lost to a range conflict.
func CountOverlapRejection() { overlapRejections.Inc() }

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }
