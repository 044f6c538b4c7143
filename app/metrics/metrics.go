package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_candidates_total",
			Help: "Total number of candidates processed, by final state and skip reason",
		},
		[]string{"state", "reason"},
	)

	CandidateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_candidate_duration_seconds",
			Help:    "Time spent on one candidate from fetch to append",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"state"},
	)

	ExtractedFields = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listing_extracted_fields",
			Help:    "Number of schema fields filled per extraction",
			Buckets: prometheus.LinearBuckets(0, 1, 13),
		},
	)

	ExtractionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_extraction_failures_total",
			Help: "Total number of extractions that returned empty fields because of an error",
		},
		[]string{"kind"},
	)

	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"trigger", "status"},
	)

	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listing_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run",
		},
	)

	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"version", "mode"},
	)
)

func Init(version, mode string) {
	ApplicationInfo.WithLabelValues(version, mode).Set(1)
}
