package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Workflow metrics
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_transitions_total",
			Help: "Total number of attempted appointment status transitions",
		},
		[]string{"from", "to", "role", "outcome", "service"},
	)

	// Storage metrics
	storageWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_writes_total",
			Help: "Total number of collection writes",
		},
		[]string{"collection", "outcome", "service"},
	)

	storageReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_reads_total",
			Help: "Total number of collection reads",
		},
		[]string{"collection", "service"},
	)

	// Authentication metrics
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status", "service"},
	)

	// Export metrics
	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_exports_total",
			Help: "Total number of patient record exports",
		},
		[]string{"outcome", "service"},
	)
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

// NewMetricsCollector creates a new metrics collector and registers the
// collectors on the default registry. Call once per process.
func NewMetricsCollector(serviceName string) *MetricsCollector {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		transitionsTotal,
		storageWritesTotal,
		storageReadsTotal,
		authAttemptsTotal,
		exportsTotal,
	)

	return &MetricsCollector{serviceName: serviceName}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordTransition records an attempted appointment status transition.
func (m *MetricsCollector) RecordTransition(from, to, role string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	transitionsTotal.WithLabelValues(from, to, role, outcome, m.serviceName).Inc()
}

// RecordStorageWrite records a collection write outcome.
func (m *MetricsCollector) RecordStorageWrite(collection string, success bool) {
	outcome := "ok"
	if !success {
		outcome = "failed"
	}
	storageWritesTotal.WithLabelValues(collection, outcome, m.serviceName).Inc()
}

// RecordStorageRead records a collection read.
func (m *MetricsCollector) RecordStorageRead(collection string) {
	storageReadsTotal.WithLabelValues(collection, m.serviceName).Inc()
}

// RecordAuthAttempt records an authentication attempt.
func (m *MetricsCollector) RecordAuthAttempt(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	authAttemptsTotal.WithLabelValues(status, m.serviceName).Inc()
}

// RecordExport records a patient record export outcome.
func (m *MetricsCollector) RecordExport(success bool) {
	outcome := "ok"
	if !success {
		outcome = "failed"
	}
	exportsTotal.WithLabelValues(outcome, m.serviceName).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware creates middleware for HTTP request metrics
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		m.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(wrapper.statusCode), time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
