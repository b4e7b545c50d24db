// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Total number of bot messages run through the analysis pipeline",
		},
		[]string{"outcome"}, // map, chart, both, none, sentinel
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "analysis_duration_seconds",
			Help: "Duration of one full analysis run in seconds",
		},
	)

	CapabilityRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_capability_rounds",
			Help:    "Capability-invocation rounds the model needed per analysis",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_lookups_total",
			Help: "Total geocoding lookups by status",
		},
		[]string{"status"}, // resolved, absent, error
	)

	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_backend_requests_total",
			Help: "Requests forwarded to the chat backend by status",
		},
		[]string{"status"}, // ok, rejected, unreachable
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests served by the API",
		},
		[]string{"route", "method", "code"},
	)
)
