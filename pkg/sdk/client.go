package matchdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hirelens/matchdex/internal/db"
	dbRedis "github.com/hirelens/matchdex/internal/db/redis"
	dommatch "github.com/hirelens/matchdex/internal/domain/match"
	"github.com/hirelens/matchdex/internal/domain/profile"
	domrules "github.com/hirelens/matchdex/internal/domain/rules"
	embeddingrepo "github.com/hirelens/matchdex/internal/repository/embedding"
	profilerepo "github.com/hirelens/matchdex/internal/repository/profile"
	rulesrepo "github.com/hirelens/matchdex/internal/repository/rules"
	shortlistrepo "github.com/hirelens/matchdex/internal/repository/shortlist"
	ingestuc "github.com/hirelens/matchdex/internal/usecase/ingest"
	matchuc "github.com/hirelens/matchdex/internal/usecase/match"
	retrievaluc "github.com/hirelens/matchdex/internal/usecase/retrieval"
	rulesuc "github.com/hirelens/matchdex/internal/usecase/rules"
	scoringuc "github.com/hirelens/matchdex/internal/usecase/scoring"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultRetrievalTimeout = 5 * time.Second
)

// Client is the matchdex SDK entry point.
type Client struct {
	store  db.Store
	match  *matchuc.Service
	ingest *ingestuc.Service
	rules  *rulesrepo.Repo
}

// New creates a matchdex Client and connects to the store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dimensions:    1536,
		taxonomyVer:   "v1",
		minSimilarity: 0.3,
		topK:          500,
		topN:          50,
		parallelism:   8,
		baseScale:     scoringuc.DefaultBaseScale,
		logger:        zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("matchdex: store address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("matchdex: create store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("matchdex: store not ready: %w", err)
	}

	return wireClient(ctx, store, cfg)
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	profileRepo := profilerepo.New(store)
	embeddingRepo := embeddingrepo.New(store, cfg.dimensions)
	rulesRepo := rulesrepo.New(store)
	shortlistRepo := shortlistrepo.New(store)

	if err := embeddingRepo.EnsureCandidateIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("matchdex: ensure candidate index: %w", err)
	}

	retrievalSvc := retrievaluc.New(embeddingRepo, cfg.minSimilarity, defaultRetrievalTimeout)
	matchSvc := matchuc.New(
		retrievalSvc, profileRepo, rulesRepo, shortlistRepo,
		rulesuc.NewEngine(), scoringuc.New(cfg.baseScale),
		cfg.logger, cfg.taxonomyVer, cfg.topK, cfg.topN, cfg.parallelism,
	)
	ingestSvc := ingestuc.New(
		profileRepo, embeddingRepo, cfg.embedder, shortlistRepo, cfg.model, cfg.logger,
	)

	return &Client{
		store:  store,
		match:  matchSvc,
		ingest: ingestSvc,
		rules:  rulesRepo,
	}, nil
}

// Close releases the store connection.
func (c *Client) Close() { c.store.Close() }

// UpsertJob stores a job profile. Pass a precomputed vector with its model
// version to skip the embedding provider.
func (c *Client) UpsertJob(ctx context.Context, job profile.Job, vector []float32, modelVersion string) (bool, error) {
	return c.ingest.UpsertJob(ctx, job, vector, modelVersion)
}

// UpsertCandidate stores a candidate profile.
func (c *Client) UpsertCandidate(ctx context.Context, cand profile.Candidate, vector []float32, modelVersion string) (bool, error) {
	return c.ingest.UpsertCandidate(ctx, cand, vector, modelVersion)
}

// DeleteJob removes a job, its embedding and its shortlist.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	return c.ingest.DeleteJob(ctx, jobID)
}

// DeleteCandidate removes a candidate and invalidates affected shortlists.
func (c *Client) DeleteCandidate(ctx context.Context, candidateID string) error {
	return c.ingest.DeleteCandidate(ctx, candidateID)
}

// Match recomputes and persists the shortlist for a job. topK/topN of 0 use
// the client defaults.
func (c *Client) Match(ctx context.Context, jobID, rulesVersion string, topK, topN int) (*dommatch.Shortlist, error) {
	return c.match.Run(ctx, jobID, matchuc.Params{
		RulesVersion: rulesVersion,
		TopK:         topK,
		TopN:         topN,
	})
}

// Shortlist reads the stored shortlist snapshot for a job.
func (c *Client) Shortlist(ctx context.Context, jobID string) (*dommatch.Shortlist, error) {
	return c.match.GetShortlist(ctx, jobID)
}

// Invalidate marks the job's shortlist stale without recomputing it.
func (c *Client) Invalidate(ctx context.Context, jobID string) error {
	return c.match.Invalidate(ctx, jobID)
}

// PutRules stores a new immutable rule config version from raw JSON.
func (c *Client) PutRules(ctx context.Context, raw []byte) (*domrules.Config, error) {
	return c.rules.Put(ctx, raw)
}

// GetRules loads a rule config version.
func (c *Client) GetRules(ctx context.Context, version string) (*domrules.Config, error) {
	return c.rules.Get(ctx, version)
}
