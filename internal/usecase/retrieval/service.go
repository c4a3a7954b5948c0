// Package retrieval narrows the candidate universe for a job via vector KNN
// before any rule evaluation happens.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hirelens/matchdex/internal/domain"
	"github.com/hirelens/matchdex/internal/repository/embedding"
)

// Service retrieves the top-K nearest candidates for a job embedding.
type Service struct {
	embeddings    EmbeddingReader
	minSimilarity float64
	timeout       time.Duration
}

// New creates a retrieval service. minSimilarity is the similarity floor
// applied after KNN; hits below it never reach the rule engine. timeout
// bounds a single retrieval call.
func New(embeddings EmbeddingReader, minSimilarity float64, timeout time.Duration) *Service {
	return &Service{
		embeddings:    embeddings,
		minSimilarity: minSimilarity,
		timeout:       timeout,
	}
}

// Result is one retrieval run: the surviving hits plus the model version the
// job embedding was computed with, for provenance stamping downstream.
type Result struct {
	Hits         []embedding.Hit
	ModelVersion string
}

// TopK returns up to k candidate hits for the job, ordered by similarity
// descending with candidate id ascending as tie-break. An empty result is
// not an error: a job with no candidates above the floor simply matches
// nobody. A missing job embedding is domain.ErrEmbeddingNotFound; exceeding
// the retrieval timeout is domain.ErrRetrievalTimeout.
func (s *Service) TopK(ctx context.Context, jobID string, k int) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	emb, err := s.embeddings.GetJob(ctx, jobID)
	if err != nil {
		return Result{}, s.wrapErr(ctx, fmt.Errorf("get job embedding %s: %w", jobID, err))
	}

	hits, err := s.embeddings.NearestCandidates(ctx, emb.Vector, k)
	if err != nil {
		return Result{}, s.wrapErr(ctx, fmt.Errorf("knn for job %s: %w", jobID, err))
	}

	// Hits arrive sorted; the floor only trims the tail and below-floor gaps.
	filtered := hits[:0]
	for _, h := range hits {
		if h.Similarity >= s.minSimilarity {
			filtered = append(filtered, h)
		}
	}
	return Result{Hits: filtered, ModelVersion: emb.ModelVersion}, nil
}

func (s *Service) wrapErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrRetrievalTimeout, err)
	}
	return err
}
