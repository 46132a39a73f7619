package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	DetectionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_detections_total",
			Help: "Total number of similarity detection runs",
		},
		[]string{"status"},
	)

	DetectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_detection_duration_seconds",
			Help:    "Similarity detection duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	CandidatePairs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_candidate_pairs",
			Help:    "Candidate pairs found per detection run, before the cap",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	MatchesReported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_matches_reported_total",
			Help: "Total number of pairs reported above the report threshold",
		},
	)

	SubmissionsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_ingested_total",
			Help: "Submissions consumed from the ingestion stream",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// InitPrometheus registers all collectors with the default registry
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCount,
			RequestDuration,
			DetectionCount,
			DetectionDuration,
			CandidatePairs,
			MatchesReported,
			SubmissionsIngested,
		)
	})
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	RequestCount.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

func ObserveDetection(status string, elapsed time.Duration, candidates, matches int) {
	DetectionCount.WithLabelValues(status).Inc()
	DetectionDuration.Observe(elapsed.Seconds())
	if status == "completed" {
		CandidatePairs.Observe(float64(candidates))
		MatchesReported.Add(float64(matches))
	}
}

func ObserveIngest(result string) {
	SubmissionsIngested.WithLabelValues(result).Inc()
}
