package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	gradingQueueDepth     prometheus.Gauge
	gradingProcessedTotal *prometheus.CounterVec
	uploadRequestsTotal   *prometheus.CounterVec
	uploadRejectedTotal   *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evalia",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "evalia",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evalia",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradingQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evalia",
			Subsystem: "grading",
			Name:      "queue_depth",
			Help:      "Number of submissions currently waiting for grading.",
		})

		gradingProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evalia",
			Subsystem: "grading",
			Name:      "processed_total",
			Help:      "Grading tasks processed, labelled by outcome.",
		}, []string{"outcome"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evalia",
			Subsystem: "upload",
			Name:      "requests_total",
			Help:      "Accepted uploads, labelled by detected type.",
		}, []string{"type"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evalia",
			Subsystem: "upload",
			Name:      "rejected_total",
			Help:      "Rejected uploads, labelled by rejection reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evalia",
			Subsystem: "upload",
			Name:      "latency_seconds",
			Help:      "Latency distribution for upload handling.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradingQueueDepth,
			gradingProcessedTotal,
			uploadRequestsTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradingQueueDepth exposes the gauge tracking queued grading tasks.
func GradingQueueDepth() prometheus.Gauge {
	RegisterMetrics()
	return gradingQueueDepth
}

// GradingProcessed exposes the counter for finished grading tasks.
func GradingProcessed() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingProcessedTotal
}

// UploadRequests exposes the counter for accepted uploads.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected exposes the counter for rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the histogram for upload handling latency.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}
