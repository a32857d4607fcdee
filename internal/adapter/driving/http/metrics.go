package httphandler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// requestsTotal counts served requests by method and status class.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certpanel_http_requests_total",
			Help: "Total HTTP requests served by the console",
		},
		[]string{"method", "status"},
	)

	// requestDuration tracks request latency.
	// Buckets: 5ms, 25ms, 100ms, 250ms, 1s, 5s
	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "certpanel_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 1, 5},
		},
	)
)

// metricsMiddleware records request counts and latencies.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		requestsTotal.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
		requestDuration.Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler exposes the prometheus registry for scraping.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
