// Package embedding is the embedding store accessor: it persists and queries
// fixed-dimension vectors per job/candidate together with their model
// provenance. Vectors arrive from the external provider; nothing here
// computes them.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hirelens/matchdex/internal/db"
	"github.com/hirelens/matchdex/internal/domain"
)

const (
	jobKeyPrefix       = domain.KeyPrefix + "jobemb:"
	candidateKeyPrefix = domain.KeyPrefix + "candemb:"
	candidateIndexName = "idx:candemb"
)

// store is the consumer interface for embeddings (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig carries index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores job and candidate embeddings as hashes and maintains the FT
// vector index over candidate embeddings used for retrieval.
type Repo struct {
	store store
	dim   int
	hnsw  HNSWConfig
}

// New creates an embedding repository for vectors of the given dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// WithHNSW sets HNSW index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureCandidateIndex creates the candidate vector index if it is missing.
func (r *Repo) EnsureCandidateIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, candidateIndexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", candidateIndexName, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:        candidateIndexName,
		StorageType: db.StorageHash,
		Prefixes:    []string{candidateKeyPrefix},
		Fields: []db.IndexField{
			{
				Name:              fieldVector,
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", candidateIndexName, err)
	}
	return nil
}

// PutJob stores a job embedding, replacing any prior one.
func (r *Repo) PutJob(ctx context.Context, jobID string, emb domain.StoredEmbedding) error {
	return r.put(ctx, jobKey(jobID), emb)
}

// PutCandidate stores a candidate embedding, replacing any prior one.
func (r *Repo) PutCandidate(ctx context.Context, candidateID string, emb domain.StoredEmbedding) error {
	return r.put(ctx, candidateKey(candidateID), emb)
}

func (r *Repo) put(ctx context.Context, key string, emb domain.StoredEmbedding) error {
	if len(emb.Vector) != r.dim {
		return fmt.Errorf("%w: vector dimension %d, want %d",
			domain.ErrInvalidArgument, len(emb.Vector), r.dim)
	}
	if err := r.store.HSet(ctx, key, buildHashFields(emb)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// GetJob returns a job's stored embedding or domain.ErrEmbeddingNotFound.
func (r *Repo) GetJob(ctx context.Context, jobID string) (domain.StoredEmbedding, error) {
	return r.get(ctx, jobKey(jobID))
}

func (r *Repo) get(ctx context.Context, key string) (domain.StoredEmbedding, error) {
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.StoredEmbedding{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domain.StoredEmbedding{}, domain.ErrEmbeddingNotFound
	}
	return parseHashFields(m), nil
}

// DeleteJob removes a job embedding.
func (r *Repo) DeleteJob(ctx context.Context, jobID string) error {
	return r.store.Del(ctx, jobKey(jobID))
}

// DeleteCandidate removes a candidate embedding from storage and thereby
// from the retrieval index.
func (r *Repo) DeleteCandidate(ctx context.Context, candidateID string) error {
	return r.store.Del(ctx, candidateKey(candidateID))
}

// Hit is one candidate returned by vector retrieval.
type Hit struct {
	CandidateID string
	Similarity  float64
}

// NearestCandidates runs KNN over the candidate vector index and returns up
// to k hits ordered by similarity descending, ties broken by candidate id
// ascending.
func (r *Repo) NearestCandidates(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if len(vector) != r.dim {
		return nil, fmt.Errorf("%w: vector dimension %d, want %d",
			domain.ErrInvalidArgument, len(vector), r.dim)
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    candidateIndexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	hits := make([]Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, Hit{
			CandidateID: strings.TrimPrefix(e.Key, candidateKeyPrefix),
			Similarity:  e.Score,
		})
	}

	// Deterministic total order regardless of index traversal.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].CandidateID < hits[j].CandidateID
	})

	return hits, nil
}

func jobKey(id string) string       { return jobKeyPrefix + id }
func candidateKey(id string) string { return candidateKeyPrefix + id }
