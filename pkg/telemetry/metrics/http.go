package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/config"
)

// HTTPMetrics tracks metrics for the management API.
//
// Metrics:
//   - retention_http_requests_total: Requests by method, route, and status
//   - retention_http_request_duration_seconds: Request latency by route
//
// Routes are label values like "/api/v1/policies/{id}", never raw paths,
// so policy IDs do not explode cardinality.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers management API metrics with the
// provided registry.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "http_requests_total",
				Help:      "Management API requests by method, route, and status code",
			},
			[]string{"method", "route", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Management API request latency by method and route",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		hm.requestsTotal,
		hm.requestDuration,
	)

	return hm
}

// RecordRequest records a completed API request.
func (hm *HTTPMetrics) RecordRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	hm.requestsTotal.WithLabelValues(method, route, code).Inc()
	hm.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
