package match

import (
	"context"

	dommatch "github.com/hirelens/matchdex/internal/domain/match"
	"github.com/hirelens/matchdex/internal/domain/profile"
	domrules "github.com/hirelens/matchdex/internal/domain/rules"
	"github.com/hirelens/matchdex/internal/usecase/retrieval"
)

// Retriever narrows the candidate universe for a job via vector KNN.
type Retriever interface {
	TopK(ctx context.Context, jobID string, k int) (retrieval.Result, error)
}

// ProfileReader reads job and candidate profiles.
type ProfileReader interface {
	GetJob(ctx context.Context, id string) (profile.Job, error)
	GetCandidates(ctx context.Context, ids []string) (map[string]profile.Candidate, error)
}

// RulesReader loads immutable rule config versions.
type RulesReader interface {
	Get(ctx context.Context, version string) (*domrules.Config, error)
}

// ShortlistStore persists and reads shortlist snapshots.
type ShortlistStore interface {
	Persist(ctx context.Context, sl *dommatch.Shortlist) error
	Read(ctx context.Context, jobID string) (*dommatch.Shortlist, error)
	MarkStale(ctx context.Context, jobID string) error
	MarkStaleForCandidate(ctx context.Context, candidateID string) ([]string, error)
}

// Evaluator runs a rule config against one job/candidate pair.
type Evaluator interface {
	Evaluate(cfg domrules.Config, job profile.Job, candidate profile.Candidate, similarity float64) ([]domrules.Verdict, bool, error)
}
