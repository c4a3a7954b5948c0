package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching run Prometheus metrics.
var (
	MatchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchdex",
			Name:      "match_runs_total",
			Help:      "Total number of matching runs",
		},
		[]string{"status"}, // "ok" / "error"
	)

	MatchRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchdex",
			Name:      "match_run_duration_seconds",
			Help:      "End-to-end matching run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	MatchRetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchdex",
			Name:      "match_retrieval_duration_seconds",
			Help:      "Vector retrieval duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	MatchCandidatesRetrieved = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchdex",
			Name:      "match_candidates_retrieved",
			Help:      "Candidates returned by vector retrieval per run",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	MatchCandidatesEvaluated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchdex",
			Name:      "match_candidates_evaluated",
			Help:      "Candidates run through the rule engine per run",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	MatchCandidatesExcluded = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchdex",
			Name:      "match_candidates_excluded",
			Help:      "Candidates excluded by hard rule failures per run",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	MatchShortlistSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchdex",
			Name:      "match_shortlist_size",
			Help:      "Persisted shortlist size per run",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)
)

var matchMetricsRegistered bool

// RegisterMatchMetrics registers matching metrics. Called once from main.
func RegisterMatchMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchRunsTotal)
	prometheus.MustRegister(MatchRunDuration)
	prometheus.MustRegister(MatchRetrievalDuration)
	prometheus.MustRegister(MatchCandidatesRetrieved)
	prometheus.MustRegister(MatchCandidatesEvaluated)
	prometheus.MustRegister(MatchCandidatesExcluded)
	prometheus.MustRegister(MatchShortlistSize)
	matchMetricsRegistered = true
}
