// Package match defines the per-candidate evaluation record and the job
// shortlist snapshot it is persisted in.
package match

import (
	"errors"
	"time"

	"github.com/hirelens/matchdex/internal/domain/rules"
)

// Versions are the three provenance tags stamped on every match result.
type Versions struct {
	EmbeddingModel string `json:"embedding_model_version"`
	Taxonomy       string `json:"taxonomy_version"`
	Rules          string `json:"rules_version"`
}

// Validate checks that every tag is populated.
func (v Versions) Validate() error {
	if v.EmbeddingModel == "" {
		return errors.New("embedding model version is required")
	}
	if v.Taxonomy == "" {
		return errors.New("taxonomy version is required")
	}
	if v.Rules == "" {
		return errors.New("rules version is required")
	}
	return nil
}

// Result is one candidate's evaluation record in a shortlist: rank,
// retrieval similarity, final score and the full ordered rule trace (hard
// rules in configured order, then soft rules in configured order). Each
// record carries the job id and its own staleness flag so an entry read in
// isolation is self-describing.
type Result struct {
	JobID               string          `json:"job_id"`
	CandidateID         string          `json:"candidate_id"`
	Rank                int             `json:"rank"`
	RetrievalSimilarity float64         `json:"retrieval_similarity"`
	FinalScore          float64         `json:"final_score"`
	RuleTrace           []rules.Verdict `json:"rule_trace"`
	Versions
	ComputedAt time.Time `json:"computed_at"`
	IsStale    bool      `json:"is_stale"`
}

// Builder assembles a Result and rejects construction when any provenance
// tag is missing. Orchestration code never builds Results directly.
type Builder struct {
	jobID       string
	candidateID string
	rank        int
	similarity  float64
	finalScore  float64
	trace       []rules.Verdict
	versions    Versions
	computedAt  time.Time
}

// NewBuilder starts a result for one candidate of one job.
func NewBuilder(jobID, candidateID string) *Builder {
	return &Builder{jobID: jobID, candidateID: candidateID}
}

// WithRetrieval records the retrieval similarity.
func (b *Builder) WithRetrieval(similarity float64) *Builder {
	b.similarity = similarity
	return b
}

// WithScore records the final score and dense 1-based rank.
func (b *Builder) WithScore(finalScore float64, rank int) *Builder {
	b.finalScore = finalScore
	b.rank = rank
	return b
}

// WithTrace records the ordered verdict list.
func (b *Builder) WithTrace(trace []rules.Verdict) *Builder {
	b.trace = trace
	return b
}

// WithVersions records the provenance tags.
func (b *Builder) WithVersions(v Versions) *Builder {
	b.versions = v
	return b
}

// WithComputedAt records the computation timestamp.
func (b *Builder) WithComputedAt(t time.Time) *Builder {
	b.computedAt = t
	return b
}

// Build validates and assembles the Result.
func (b *Builder) Build() (Result, error) {
	if b.jobID == "" {
		return Result{}, errors.New("job id is required")
	}
	if b.candidateID == "" {
		return Result{}, errors.New("candidate id is required")
	}
	if err := b.versions.Validate(); err != nil {
		return Result{}, err
	}
	if b.rank < 1 {
		return Result{}, errors.New("rank must be 1-based")
	}
	if b.computedAt.IsZero() {
		return Result{}, errors.New("computed_at is required")
	}
	return Result{
		JobID:               b.jobID,
		CandidateID:         b.candidateID,
		Rank:                b.rank,
		RetrievalSimilarity: b.similarity,
		FinalScore:          b.finalScore,
		RuleTrace:           b.trace,
		Versions:            b.versions,
		ComputedAt:          b.computedAt,
	}, nil
}

// Shortlist is the persisted snapshot of one job's ranked matches. It is
// created or replaced wholesale by each matching run; flipping IsStale is
// the only in-place mutation outside a full recompute.
type Shortlist struct {
	JobID   string   `json:"job_id"`
	Matches []Result `json:"matches"`
	Versions
	ComputedAt time.Time `json:"computed_at"`
	IsStale    bool      `json:"is_stale"`
}

// Contains reports whether the shortlist includes the candidate.
func (s *Shortlist) Contains(candidateID string) bool {
	for i := range s.Matches {
		if s.Matches[i].CandidateID == candidateID {
			return true
		}
	}
	return false
}
