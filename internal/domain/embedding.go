package domain

import "context"

// Embedder is the external embedding provider contract. The core never
// computes embeddings itself; it only stores and queries vectors produced
// by an implementation of this interface.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector, the producing model version
// and token usage back from the provider.
type EmbeddingResult struct {
	Embedding    []float32
	ModelVersion string
	PromptTokens int
	TotalTokens  int
}

// StoredEmbedding is a persisted fixed-dimension vector with its model
// provenance. Profiles are re-embedded (never patched) on update, so a
// stored embedding is immutable once written.
type StoredEmbedding struct {
	Vector       []float32
	Model        string
	ModelVersion string
	ComputedAt   int64 // unix millis
}
