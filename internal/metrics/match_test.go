package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMatchRunMetrics_Observe(t *testing.T) {
	MatchRunsTotal.WithLabelValues("ok").Inc()
	MatchRetrievalDuration.Observe(0.02)
	MatchCandidatesRetrieved.Observe(120)
	MatchCandidatesEvaluated.Observe(118)
	MatchCandidatesExcluded.Observe(30)
	MatchShortlistSize.Observe(50)

	if v := testutil.ToFloat64(MatchRunsTotal.WithLabelValues("ok")); v < 1 {
		t.Errorf("expected match_runs_total >= 1, got %f", v)
	}
	for name, count := range map[string]int{
		"match_retrieval_duration_seconds": testutil.CollectAndCount(MatchRetrievalDuration),
		"match_candidates_retrieved":       testutil.CollectAndCount(MatchCandidatesRetrieved),
		"match_candidates_evaluated":       testutil.CollectAndCount(MatchCandidatesEvaluated),
		"match_candidates_excluded":        testutil.CollectAndCount(MatchCandidatesExcluded),
		"match_shortlist_size":             testutil.CollectAndCount(MatchShortlistSize),
	} {
		if count == 0 {
			t.Errorf("expected %s to have observations", name)
		}
	}
}
