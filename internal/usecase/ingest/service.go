// Package ingest handles job and candidate upserts: confidence clamping,
// embedding, persistence, and staleness propagation to affected shortlists.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hirelens/matchdex/internal/domain"
	"github.com/hirelens/matchdex/internal/domain/profile"
)

// Service ingests profiles. Upserts replace the stored profile and its
// embedding wholesale; there is no partial update.
type Service struct {
	profiles   ProfileStore
	embeddings EmbeddingStore
	embedder   Embedder
	shortlists ShortlistStore
	model      string
	logger     *zap.Logger
	now        func() time.Time
}

// New creates an ingest service. model names the embedding model requested
// from the provider; the provider reports the exact version it served.
func New(
	profiles ProfileStore,
	embeddings EmbeddingStore,
	embedder Embedder,
	shortlists ShortlistStore,
	model string,
	logger *zap.Logger,
) *Service {
	return &Service{
		profiles:   profiles,
		embeddings: embeddings,
		embedder:   embedder,
		shortlists: shortlists,
		model:      model,
		logger:     logger,
		now:        time.Now,
	}
}

// UpsertJob stores the job profile and its embedding, then marks the job's
// shortlist stale. A supplied vector skips the embedding provider; its model
// version must then accompany it.
func (s *Service) UpsertJob(ctx context.Context, job profile.Job, vector []float32, modelVersion string) (bool, error) {
	if job.ID == "" {
		return false, fmt.Errorf("%w: job id is required", domain.ErrInvalidArgument)
	}
	job.Skills = profile.ClampConfidence(job.Skills)
	job.UpdatedAt = s.now().UnixMilli()

	emb, err := s.resolveEmbedding(ctx, job.Description, vector, modelVersion)
	if err != nil {
		return false, fmt.Errorf("embed job %s: %w", job.ID, err)
	}

	created, err := s.profiles.UpsertJob(ctx, &job)
	if err != nil {
		return false, fmt.Errorf("upsert job %s: %w", job.ID, err)
	}
	if err := s.embeddings.PutJob(ctx, job.ID, emb); err != nil {
		return false, fmt.Errorf("store job embedding %s: %w", job.ID, err)
	}

	if err := s.shortlists.MarkStale(ctx, job.ID); err != nil {
		return false, fmt.Errorf("mark shortlist stale for job %s: %w", job.ID, err)
	}

	s.logger.Info("Job ingested",
		zap.String("job_id", job.ID),
		zap.Bool("created", created),
		zap.String("model_version", emb.ModelVersion),
	)
	return created, nil
}

// UpsertCandidate stores the candidate profile and its embedding, then marks
// every shortlist containing the candidate stale.
func (s *Service) UpsertCandidate(ctx context.Context, cand profile.Candidate, vector []float32, modelVersion string) (bool, error) {
	if cand.ID == "" {
		return false, fmt.Errorf("%w: candidate id is required", domain.ErrInvalidArgument)
	}
	cand.Skills = profile.ClampConfidence(cand.Skills)
	cand.UpdatedAt = s.now().UnixMilli()

	emb, err := s.resolveEmbedding(ctx, cand.Resume, vector, modelVersion)
	if err != nil {
		return false, fmt.Errorf("embed candidate %s: %w", cand.ID, err)
	}

	created, err := s.profiles.UpsertCandidate(ctx, &cand)
	if err != nil {
		return false, fmt.Errorf("upsert candidate %s: %w", cand.ID, err)
	}
	if err := s.embeddings.PutCandidate(ctx, cand.ID, emb); err != nil {
		return false, fmt.Errorf("store candidate embedding %s: %w", cand.ID, err)
	}

	stale, err := s.shortlists.MarkStaleForCandidate(ctx, cand.ID)
	if err != nil {
		return false, fmt.Errorf("mark shortlists stale for candidate %s: %w", cand.ID, err)
	}

	s.logger.Info("Candidate ingested",
		zap.String("candidate_id", cand.ID),
		zap.Bool("created", created),
		zap.Int("shortlists_invalidated", len(stale)),
	)
	return created, nil
}

// DeleteJob removes the job's profile, embedding and shortlist.
func (s *Service) DeleteJob(ctx context.Context, jobID string) error {
	if err := s.shortlists.Delete(ctx, jobID); err != nil {
		return fmt.Errorf("delete shortlist for job %s: %w", jobID, err)
	}
	if err := s.embeddings.DeleteJob(ctx, jobID); err != nil {
		return fmt.Errorf("delete job embedding %s: %w", jobID, err)
	}
	if err := s.profiles.DeleteJob(ctx, jobID); err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}

	s.logger.Info("Job deleted", zap.String("job_id", jobID))
	return nil
}

// DeleteCandidate removes the candidate's profile and embedding and marks
// every shortlist that contained the candidate stale.
func (s *Service) DeleteCandidate(ctx context.Context, candidateID string) error {
	stale, err := s.shortlists.MarkStaleForCandidate(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("mark shortlists stale for candidate %s: %w", candidateID, err)
	}

	if err := s.embeddings.DeleteCandidate(ctx, candidateID); err != nil {
		return fmt.Errorf("delete candidate embedding %s: %w", candidateID, err)
	}
	if err := s.profiles.DeleteCandidate(ctx, candidateID); err != nil {
		return fmt.Errorf("delete candidate %s: %w", candidateID, err)
	}

	s.logger.Info("Candidate deleted",
		zap.String("candidate_id", candidateID),
		zap.Int("shortlists_invalidated", len(stale)),
	)
	return nil
}

func (s *Service) resolveEmbedding(ctx context.Context, text string, vector []float32, modelVersion string) (domain.StoredEmbedding, error) {
	computedAt := s.now().UnixMilli()

	if len(vector) > 0 {
		if modelVersion == "" {
			return domain.StoredEmbedding{}, fmt.Errorf("%w: model version is required with a precomputed vector", domain.ErrInvalidArgument)
		}
		return domain.StoredEmbedding{
			Vector:       vector,
			Model:        s.model,
			ModelVersion: modelVersion,
			ComputedAt:   computedAt,
		}, nil
	}

	if s.embedder == nil {
		return domain.StoredEmbedding{}, fmt.Errorf("%w: no embedding provider configured, a precomputed vector is required", domain.ErrInvalidArgument)
	}
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return domain.StoredEmbedding{}, err
	}
	return domain.StoredEmbedding{
		Vector:       res.Embedding,
		Model:        s.model,
		ModelVersion: res.ModelVersion,
		ComputedAt:   computedAt,
	}, nil
}
