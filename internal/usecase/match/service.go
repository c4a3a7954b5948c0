// Package match orchestrates a full matching run: retrieval, rule
// evaluation, scoring, ranking, and shortlist persistence.
package match

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hirelens/matchdex/internal/domain"
	dommatch "github.com/hirelens/matchdex/internal/domain/match"
	"github.com/hirelens/matchdex/internal/domain/profile"
	domrules "github.com/hirelens/matchdex/internal/domain/rules"
	"github.com/hirelens/matchdex/internal/metrics"
	"github.com/hirelens/matchdex/internal/usecase/retrieval"
	"github.com/hirelens/matchdex/internal/usecase/scoring"
)

// Allowed parameter ranges. Values outside them are rejected, not clamped.
const (
	MinTopK = 10
	MaxTopK = 5000
	MinTopN = 1
	MaxTopN = 500
)

// Params are the per-run knobs. RulesVersion is required: there is no
// process-wide default rules version, the caller always names one. Zero TopK
// or TopN fall back to the service defaults.
type Params struct {
	RulesVersion string
	TopK         int
	TopN         int
}

// Service runs matching end to end. Runs for the same job are serialized so
// two concurrent recomputes cannot interleave their shortlist writes.
type Service struct {
	retriever   Retriever
	profiles    ProfileReader
	rules       RulesReader
	shortlists  ShortlistStore
	engine      Evaluator
	scorer      *scoring.Scorer
	locks       *jobLocks
	logger      *zap.Logger
	taxonomyVer string
	defaultTopK int
	defaultTopN int
	parallelism int
	now         func() time.Time
}

// New creates a match service.
func New(
	retriever Retriever,
	profiles ProfileReader,
	rules RulesReader,
	shortlists ShortlistStore,
	engine Evaluator,
	scorer *scoring.Scorer,
	logger *zap.Logger,
	taxonomyVersion string,
	defaultTopK, defaultTopN, parallelism int,
) *Service {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Service{
		retriever:   retriever,
		profiles:    profiles,
		rules:       rules,
		shortlists:  shortlists,
		engine:      engine,
		scorer:      scorer,
		locks:       newJobLocks(),
		logger:      logger,
		taxonomyVer: taxonomyVersion,
		defaultTopK: defaultTopK,
		defaultTopN: defaultTopN,
		parallelism: parallelism,
		now:         time.Now,
	}
}

// Run recomputes the shortlist for one job and persists it wholesale. A
// failed run persists nothing: the prior shortlist, stale or not, stays
// untouched.
func (s *Service) Run(ctx context.Context, jobID string, p Params) (*dommatch.Shortlist, error) {
	sl, err := s.run(ctx, jobID, p)
	if err != nil {
		metrics.MatchRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.MatchRunsTotal.WithLabelValues("ok").Inc()
	metrics.MatchShortlistSize.Observe(float64(len(sl.Matches)))
	return sl, nil
}

func (s *Service) run(ctx context.Context, jobID string, p Params) (*dommatch.Shortlist, error) {
	topK, topN, err := s.resolveParams(p)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(jobID)
	defer unlock()

	runID := uuid.NewString()
	log := s.logger.With(
		zap.String("run_id", runID),
		zap.String("job_id", jobID),
		zap.String("rules_version", p.RulesVersion),
	)
	started := s.now()

	job, err := s.profiles.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}

	cfg, err := s.rules.Get(ctx, p.RulesVersion)
	if err != nil {
		return nil, fmt.Errorf("get rules %s: %w", p.RulesVersion, err)
	}

	retrievalStarted := s.now()
	retrieved, err := s.retriever.TopK(ctx, jobID, topK)
	if err != nil {
		return nil, err
	}
	metrics.MatchRetrievalDuration.Observe(s.now().Sub(retrievalStarted).Seconds())
	metrics.MatchCandidatesRetrieved.Observe(float64(len(retrieved.Hits)))

	ids := make([]string, len(retrieved.Hits))
	for i, h := range retrieved.Hits {
		ids[i] = h.CandidateID
	}
	candidates, err := s.profiles.GetCandidates(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get candidates: %w", err)
	}

	scored, evaluated, err := s.evaluateAll(ctx, *cfg, job, retrieved, candidates)
	if err != nil {
		return nil, err
	}
	metrics.MatchCandidatesEvaluated.Observe(float64(evaluated))
	metrics.MatchCandidatesExcluded.Observe(float64(evaluated - len(scored)))

	ranked := scoring.Rank(scored, topN)

	versions := dommatch.Versions{
		EmbeddingModel: retrieved.ModelVersion,
		Taxonomy:       s.taxonomyVer,
		Rules:          cfg.Version,
	}
	computedAt := s.now().UTC()

	matches := make([]dommatch.Result, len(ranked))
	for i, c := range ranked {
		res, err := dommatch.NewBuilder(jobID, c.CandidateID).
			WithRetrieval(c.Similarity).
			WithScore(c.FinalScore, i+1).
			WithTrace(c.Trace).
			WithVersions(versions).
			WithComputedAt(computedAt).
			Build()
		if err != nil {
			return nil, fmt.Errorf("build result for %s: %w", c.CandidateID, err)
		}
		matches[i] = res
	}

	sl := &dommatch.Shortlist{
		JobID:      jobID,
		Matches:    matches,
		Versions:   versions,
		ComputedAt: computedAt,
	}
	if err := s.shortlists.Persist(ctx, sl); err != nil {
		return nil, fmt.Errorf("persist shortlist: %w", err)
	}

	took := s.now().Sub(started)
	metrics.MatchRunDuration.Observe(took.Seconds())
	log.Info("Match run completed",
		zap.Int("retrieved", len(retrieved.Hits)),
		zap.Int("evaluated", evaluated),
		zap.Int("excluded", evaluated-len(scored)),
		zap.Int("shortlisted", len(matches)),
		zap.Duration("took", took),
	)
	return sl, nil
}

// evaluateAll runs the rule engine over every retrieved candidate in
// parallel and keeps only those passing all hard rules. Verdicts land in a
// slot per hit so the output order never depends on goroutine scheduling.
// evaluated counts candidates that actually reached the engine (index
// orphans never do).
func (s *Service) evaluateAll(
	ctx context.Context,
	cfg domrules.Config,
	job profile.Job,
	retrieved retrieval.Result,
	candidates map[string]profile.Candidate,
) (scored []scoring.Scored, evaluated int, err error) {
	type slot struct {
		scored    scoring.Scored
		keep      bool
		evaluated bool
	}
	slots := make([]slot, len(retrieved.Hits))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, hit := range retrieved.Hits {
		i, hit := i, hit
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cand, ok := candidates[hit.CandidateID]
			if !ok {
				// Embedding present but profile gone: index orphan, skip.
				return nil
			}
			trace, hardPassed, err := s.engine.Evaluate(cfg, job, cand, hit.Similarity)
			if err != nil {
				return err
			}
			if !hardPassed {
				slots[i] = slot{evaluated: true}
				return nil
			}
			slots[i] = slot{
				scored: scoring.Scored{
					CandidateID: hit.CandidateID,
					Similarity:  hit.Similarity,
					FinalScore:  s.scorer.Score(hit.Similarity, trace),
					Trace:       trace,
				},
				keep:      true,
				evaluated: true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	scored = make([]scoring.Scored, 0, len(slots))
	for _, sl := range slots {
		if sl.evaluated {
			evaluated++
		}
		if sl.keep {
			scored = append(scored, sl.scored)
		}
	}
	return scored, evaluated, nil
}

func (s *Service) resolveParams(p Params) (topK, topN int, err error) {
	if p.RulesVersion == "" {
		return 0, 0, fmt.Errorf("%w: rules version is required", domain.ErrInvalidArgument)
	}
	topK, topN = p.TopK, p.TopN
	if topK == 0 {
		topK = s.defaultTopK
	}
	if topN == 0 {
		topN = s.defaultTopN
	}
	if topK < MinTopK || topK > MaxTopK {
		return 0, 0, fmt.Errorf("%w: top_k must be in [%d,%d], got %d", domain.ErrInvalidArgument, MinTopK, MaxTopK, topK)
	}
	if topN < MinTopN || topN > MaxTopN {
		return 0, 0, fmt.Errorf("%w: top_n must be in [%d,%d], got %d", domain.ErrInvalidArgument, MinTopN, MaxTopN, topN)
	}
	return topK, topN, nil
}

// GetShortlist returns the stored shortlist snapshot for a job.
func (s *Service) GetShortlist(ctx context.Context, jobID string) (*dommatch.Shortlist, error) {
	return s.shortlists.Read(ctx, jobID)
}

// Invalidate flips is_stale on the job's stored shortlist. Content and
// computed_at stay untouched; a job without a shortlist is a no-op.
func (s *Service) Invalidate(ctx context.Context, jobID string) error {
	unlock := s.locks.lock(jobID)
	defer unlock()
	return s.shortlists.MarkStale(ctx, jobID)
}

// InvalidateForCandidate marks every shortlist containing the candidate as
// stale and returns the affected job ids.
func (s *Service) InvalidateForCandidate(ctx context.Context, candidateID string) ([]string, error) {
	jobs, err := s.shortlists.MarkStaleForCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("mark stale for candidate %s: %w", candidateID, err)
	}
	if len(jobs) > 0 {
		s.logger.Info("Shortlists invalidated for candidate",
			zap.String("candidate_id", candidateID),
			zap.Strings("job_ids", jobs),
		)
	}
	return jobs, nil
}
