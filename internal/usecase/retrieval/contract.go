package retrieval

import (
	"context"

	"github.com/hirelens/matchdex/internal/domain"
	"github.com/hirelens/matchdex/internal/repository/embedding"
)

// EmbeddingReader reads job embeddings and runs KNN over candidate embeddings.
type EmbeddingReader interface {
	GetJob(ctx context.Context, jobID string) (domain.StoredEmbedding, error)
	NearestCandidates(ctx context.Context, vector []float32, k int) ([]embedding.Hit, error)
}
