package ingest

import (
	"context"

	"github.com/hirelens/matchdex/internal/domain"
	"github.com/hirelens/matchdex/internal/domain/profile"
)

// ProfileStore persists job and candidate profiles.
type ProfileStore interface {
	UpsertJob(ctx context.Context, job *profile.Job) (bool, error)
	UpsertCandidate(ctx context.Context, cand *profile.Candidate) (bool, error)
	DeleteJob(ctx context.Context, id string) error
	DeleteCandidate(ctx context.Context, id string) error
}

// EmbeddingStore persists embedding vectors alongside their provenance.
type EmbeddingStore interface {
	PutJob(ctx context.Context, jobID string, emb domain.StoredEmbedding) error
	PutCandidate(ctx context.Context, candidateID string, emb domain.StoredEmbedding) error
	DeleteJob(ctx context.Context, jobID string) error
	DeleteCandidate(ctx context.Context, candidateID string) error
}

// Embedder vectorizes normalized profile text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ShortlistStore invalidates or removes shortlists affected by a profile change.
type ShortlistStore interface {
	MarkStale(ctx context.Context, jobID string) error
	MarkStaleForCandidate(ctx context.Context, candidateID string) ([]string, error)
	Delete(ctx context.Context, jobID string) error
}
