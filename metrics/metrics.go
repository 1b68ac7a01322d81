// Package metrics provides Prometheus metrics for the medicines frontend.
// HTTP metrics describe the pages it serves, backend metrics describe the calls it
// makes to the medicines service, and table metrics describe the data it renders.
//
// All metrics are registered with the Prometheus default registry during package
// initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (client IPs currently tracked)",
		},
	)

	BackendRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_request_total",
			Help: "Calls made to the medicines backend",
		},
		[]string{"operation", "outcome"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Medicines backend call latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	TableRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medicines_table_rows",
			Help: "Rows of the last applied medicines table, by price state",
		},
		[]string{"price_state"},
	)

	RefreshTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicines_refresh_total",
			Help: "List refreshes by result (applied, failed, stale)",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(BackendRequestTotals)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(TableRows)
	prometheus.MustRegister(RefreshTotals)
}
