package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Lead search outcomes partitioned by route and result class
	leadSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_searches_total",
			Help: "Total number of lead searches by outcome",
		},
		[]string{"route", "outcome"},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		// Call the next handler in the chain
		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		if isLeadSearchRoute(route) {
			leadSearchesTotal.With(prometheus.Labels{
				"route":   route,
				"outcome": searchOutcome(status),
			}).Inc()
		}

		return err
	}
}

func isLeadSearchRoute(route string) bool {
	switch route {
	case "/search", "/search/", "/search/export":
		return true
	}
	return false
}

func searchOutcome(status int) string {
	switch {
	case status == fiber.StatusOK:
		return "ok"
	case status == fiber.StatusForbidden:
		return "quota_exceeded"
	case status == fiber.StatusNotFound:
		return "not_found"
	case status >= 500:
		return "upstream_error"
	default:
		return "rejected"
	}
}
