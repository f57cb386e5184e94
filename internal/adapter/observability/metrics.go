// Package observability provides logging, metrics, and tracing setup.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus collectors for the engine. Registered once via InitMetrics.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP requests by method, path and status."},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cv_analyses_total", Help: "CV analyses by outcome (completed, degraded, cached)."},
		[]string{"outcome"},
	)
	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "cv_analysis_duration_seconds", Help: "End-to-end analysis latency for cache misses.", Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120}},
	)
	CacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cache_ops_total", Help: "Cache lookups by cache name and result (hit, miss)."},
		[]string{"cache", "result"},
	)
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "analysis_queue_depth", Help: "Pending tasks in the analysis admission queue."},
	)
	ExternalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "external_call_duration_seconds", Help: "Latency of calls to external collaborators.", Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}},
		[]string{"target"},
	)
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cv_searches_total", Help: "Index searches by outcome."},
		[]string{"outcome"},
	)
)

// InitMetrics registers all collectors with the default registry. Call once
// per process.
func InitMetrics() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AnalysesTotal,
		AnalysisDuration,
		CacheOpsTotal,
		QueueDepth,
		ExternalCallDuration,
		SearchesTotal,
	)
}

// HTTPMetricsMiddleware records request count and latency per route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ObserveExternalCall records the latency of one external collaborator call.
func ObserveExternalCall(target string, start time.Time) {
	ExternalCallDuration.WithLabelValues(target).Observe(time.Since(start).Seconds())
}
