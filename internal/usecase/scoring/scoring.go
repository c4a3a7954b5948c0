// Package scoring combines retrieval similarity and soft-rule deltas into a
// final score, orders candidates deterministically, and assigns dense ranks.
package scoring

import (
	"sort"

	"github.com/hirelens/matchdex/internal/domain/rules"
)

// DefaultBaseScale puts base scores on a 0-100 scale comparable to bonus
// magnitudes.
const DefaultBaseScale = 100

// Scorer turns similarity into a base score via a linear transform and adds
// soft-rule deltas on top.
type Scorer struct {
	baseScale float64
}

// New creates a scorer. baseScale <= 0 falls back to DefaultBaseScale.
func New(baseScale float64) *Scorer {
	if baseScale <= 0 {
		baseScale = DefaultBaseScale
	}
	return &Scorer{baseScale: baseScale}
}

// Score computes final_score = similarity*baseScale + sum of verdict deltas.
// Hard and skipped verdicts carry zero deltas, so summing the whole trace is
// safe.
func (s *Scorer) Score(similarity float64, trace []rules.Verdict) float64 {
	score := similarity * s.baseScale
	for _, v := range trace {
		score += v.ScoreDelta
	}
	return score
}

// Scored is one candidate awaiting ranking.
type Scored struct {
	CandidateID string
	Similarity  float64
	FinalScore  float64
	Trace       []rules.Verdict
}

// Rank sorts candidates by final score descending, breaking ties by
// similarity descending then candidate id ascending, truncates to topN and
// returns the result in rank order (rank = 1-based index). The total order
// makes runs reproducible.
func Rank(candidates []Scored, topN int) []Scored {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return a.CandidateID < b.CandidateID
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}
