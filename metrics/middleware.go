package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics records count, latency and concurrency of HTTP requests.
// Paths are labelled with the chi route pattern to keep label cardinality bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		HTTPRequestInFlight.Inc()
		defer HTTPRequestInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		HTTPRequestTotals.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(wrapped.statusCode),
		).Inc()

		HTTPRequestDuration.WithLabelValues(
			r.Method,
			path,
		).Observe(time.Since(start).Seconds())
	})
}

// ObserveBackendCall records one call to the medicines backend
func ObserveBackendCall(operation, outcome string, duration time.Duration) {
	BackendRequestTotals.WithLabelValues(operation, outcome).Inc()
	BackendRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetTableRows publishes the row counts of the table currently shown
func SetTableRows(formatted, unavailable, invalid int) {
	TableRows.WithLabelValues("formatted").Set(float64(formatted))
	TableRows.WithLabelValues("unavailable").Set(float64(unavailable))
	TableRows.WithLabelValues("invalid").Set(float64(invalid))
}
