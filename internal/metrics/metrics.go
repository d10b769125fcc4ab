package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// API call metrics
	apiCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_requests_total",
			Help: "Total number of API requests issued by the client",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	apiCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_client_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Credential store metrics
	credStoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credstore_operations_total",
			Help: "Total number of credential store operations",
		},
		[]string{"backend", "operation", "status"}, // save/load/clear, success/failure
	)

	// Submission metrics
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_submissions_total",
			Help: "Total number of evidence submissions by phase outcome",
		},
		[]string{"phase", "status"}, // form/upload, success/failure
	)

	submissionImages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evidence_submission_images",
			Help:    "Number of images attached per submission",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)
)

// Init initializes the metrics
func Init() error {
	// Register metrics
	prometheus.MustRegister(
		apiCallsTotal,
		apiCallDuration,
		credStoreOperationsTotal,
		submissionsTotal,
		submissionImages,
	)

	return nil
}

// RecordAPICall records metrics for an outbound API call
func RecordAPICall(endpoint, method string, statusCode int, duration time.Duration) {
	statusStr := strconv.Itoa(statusCode)
	apiCallsTotal.WithLabelValues(endpoint, method, statusStr).Inc()
	apiCallDuration.WithLabelValues(endpoint, method, statusStr).Observe(duration.Seconds())
}

// RecordCredStoreOperation records credential store operations
func RecordCredStoreOperation(backend, operation, status string) {
	credStoreOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}

// RecordSubmissionPhase records the outcome of a submission phase
func RecordSubmissionPhase(phase, status string) {
	submissionsTotal.WithLabelValues(phase, status).Inc()
}

// RecordSubmissionImages records how many images a submission carried
func RecordSubmissionImages(count int) {
	submissionImages.Observe(float64(count))
}
