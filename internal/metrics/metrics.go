// Package metrics declares the process-wide Prometheus collectors. They register with the
// default registry on import and are served by the admin router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts finished runs by gate decision ("accepted", "blocked", "invalid", "error").
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hre_runs_total",
		Help: "Total resonance engine runs by outcome",
	}, []string{"decision"})

	// CandidatesGenerated tracks the candidate set size per run.
	CandidatesGenerated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hre_candidates_generated",
		Help:    "Number of candidate hypotheses generated per run",
		Buckets: prometheus.ExponentialBuckets(2, 2, 10),
	})

	// StageDuration tracks pipeline stage latency.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hre_stage_duration_seconds",
		Help:    "Resonance pipeline stage duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"stage"})

	// DegenerateCandidates counts candidates excluded because D_fractal collapsed.
	DegenerateCandidates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hre_degenerate_candidates_total",
		Help: "Candidates excluded from ranking due to degenerate input",
	})

	// StressTotal counts stress test outcomes.
	StressTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hre_stress_total",
		Help: "Stress test results by status",
	}, []string{"status"})

	// HistoryErrors counts failed history writes; they never change the response.
	HistoryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hre_history_errors_total",
		Help: "History store failures by operation",
	}, []string{"op"})

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hre_http_requests_total",
		Help: "API requests by route and status",
	}, []string{"route", "code"})
)
