package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hirelens/matchdex/internal/domain"
	"github.com/hirelens/matchdex/internal/domain/profile"
)

// --- Mocks ---

type mockProfiles struct {
	jobs       map[string]*profile.Job
	candidates map[string]*profile.Candidate
	deleted    []string
}

func newMockProfiles() *mockProfiles {
	return &mockProfiles{
		jobs:       make(map[string]*profile.Job),
		candidates: make(map[string]*profile.Candidate),
	}
}

func (m *mockProfiles) UpsertJob(_ context.Context, job *profile.Job) (bool, error) {
	_, exists := m.jobs[job.ID]
	m.jobs[job.ID] = job
	return !exists, nil
}

func (m *mockProfiles) UpsertCandidate(_ context.Context, cand *profile.Candidate) (bool, error) {
	_, exists := m.candidates[cand.ID]
	m.candidates[cand.ID] = cand
	return !exists, nil
}

func (m *mockProfiles) DeleteJob(_ context.Context, id string) error {
	delete(m.jobs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockProfiles) DeleteCandidate(_ context.Context, id string) error {
	delete(m.candidates, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockEmbeddings struct {
	jobs       map[string]domain.StoredEmbedding
	candidates map[string]domain.StoredEmbedding
	deleted    []string
}

func newMockEmbeddings() *mockEmbeddings {
	return &mockEmbeddings{
		jobs:       make(map[string]domain.StoredEmbedding),
		candidates: make(map[string]domain.StoredEmbedding),
	}
}

func (m *mockEmbeddings) PutJob(_ context.Context, jobID string, emb domain.StoredEmbedding) error {
	m.jobs[jobID] = emb
	return nil
}

func (m *mockEmbeddings) PutCandidate(_ context.Context, candidateID string, emb domain.StoredEmbedding) error {
	m.candidates[candidateID] = emb
	return nil
}

func (m *mockEmbeddings) DeleteJob(_ context.Context, jobID string) error {
	delete(m.jobs, jobID)
	m.deleted = append(m.deleted, jobID)
	return nil
}

func (m *mockEmbeddings) DeleteCandidate(_ context.Context, candidateID string) error {
	m.deleted = append(m.deleted, candidateID)
	return nil
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

type mockShortlists struct {
	staleJobs      []string
	staleCandidate []string
	affected       []string
	deleted        []string
}

func (m *mockShortlists) MarkStale(_ context.Context, jobID string) error {
	m.staleJobs = append(m.staleJobs, jobID)
	return nil
}

func (m *mockShortlists) MarkStaleForCandidate(_ context.Context, candidateID string) ([]string, error) {
	m.staleCandidate = append(m.staleCandidate, candidateID)
	return m.affected, nil
}

func (m *mockShortlists) Delete(_ context.Context, jobID string) error {
	m.deleted = append(m.deleted, jobID)
	return nil
}

// --- Helpers ---

type fixture struct {
	svc        *Service
	profiles   *mockProfiles
	embeddings *mockEmbeddings
	embedder   *mockEmbedder
	shortlists *mockShortlists
}

func newFixture() *fixture {
	f := &fixture{
		profiles:   newMockProfiles(),
		embeddings: newMockEmbeddings(),
		embedder: &mockEmbedder{result: domain.EmbeddingResult{
			Embedding:    []float32{0.1, 0.2},
			ModelVersion: "text-embedding-3-small-2024",
		}},
		shortlists: &mockShortlists{},
	}
	f.svc = New(f.profiles, f.embeddings, f.embedder, f.shortlists, "text-embedding-3-small", zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

// --- Tests ---

func TestService_UpsertJob(t *testing.T) {
	f := newFixture()
	job := profile.Job{
		ID:          "job-1",
		Title:       "Backend Engineer",
		Description: "build services",
		Skills: []profile.Skill{
			{Canonical: "python", Confidence: 1.7},
			{Canonical: "postgresql", Confidence: -0.3},
		},
	}

	created, err := f.svc.UpsertJob(context.Background(), job, nil, "")
	if err != nil {
		t.Fatalf("UpsertJob() error = %v", err)
	}
	if !created {
		t.Error("UpsertJob() created = false, want true on first insert")
	}

	stored := f.profiles.jobs["job-1"]
	if stored == nil {
		t.Fatal("job not persisted")
	}
	if stored.Skills[0].Confidence != 1 || stored.Skills[1].Confidence != 0 {
		t.Errorf("confidence not clamped: %v, %v", stored.Skills[0].Confidence, stored.Skills[1].Confidence)
	}
	if stored.UpdatedAt == 0 {
		t.Error("updated_at not stamped")
	}

	emb, ok := f.embeddings.jobs["job-1"]
	if !ok {
		t.Fatal("job embedding not persisted")
	}
	if emb.ModelVersion != "text-embedding-3-small-2024" {
		t.Errorf("embedding model_version = %q, want provider version", emb.ModelVersion)
	}
	if f.embedder.calls != 1 || f.embedder.texts[0] != "build services" {
		t.Errorf("embedder calls = %d texts = %v, want 1 call with job description", f.embedder.calls, f.embedder.texts)
	}

	if len(f.shortlists.staleJobs) != 1 || f.shortlists.staleJobs[0] != "job-1" {
		t.Errorf("stale jobs = %v, want [job-1]", f.shortlists.staleJobs)
	}
}

func TestService_UpsertJobSecondTimeUpdates(t *testing.T) {
	f := newFixture()
	job := profile.Job{ID: "job-1", Description: "text"}
	ctx := context.Background()

	if _, err := f.svc.UpsertJob(ctx, job, nil, ""); err != nil {
		t.Fatalf("UpsertJob() error = %v", err)
	}
	created, err := f.svc.UpsertJob(ctx, job, nil, "")
	if err != nil {
		t.Fatalf("UpsertJob() error = %v", err)
	}
	if created {
		t.Error("UpsertJob() created = true on second upsert, want false")
	}
}

func TestService_UpsertJobMissingID(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpsertJob(context.Background(), profile.Job{}, nil, "")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("UpsertJob() error = %v, want ErrInvalidArgument", err)
	}
}

func TestService_UpsertCandidatePrecomputedVector(t *testing.T) {
	f := newFixture()
	cand := profile.Candidate{ID: "cand-1", Resume: "resume text"}

	_, err := f.svc.UpsertCandidate(context.Background(), cand, []float32{0.3, 0.4}, "custom-model-v2")
	if err != nil {
		t.Fatalf("UpsertCandidate() error = %v", err)
	}
	if f.embedder.calls != 0 {
		t.Errorf("embedder calls = %d, want 0 with a precomputed vector", f.embedder.calls)
	}

	emb := f.embeddings.candidates["cand-1"]
	if emb.ModelVersion != "custom-model-v2" {
		t.Errorf("embedding model_version = %q, want custom-model-v2", emb.ModelVersion)
	}
	if len(emb.Vector) != 2 || emb.Vector[0] != 0.3 {
		t.Errorf("embedding vector = %v, want the supplied vector", emb.Vector)
	}
}

func TestService_UpsertCandidateVectorWithoutModelVersion(t *testing.T) {
	f := newFixture()
	cand := profile.Candidate{ID: "cand-1", Resume: "resume text"}

	_, err := f.svc.UpsertCandidate(context.Background(), cand, []float32{0.3}, "")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("UpsertCandidate() error = %v, want ErrInvalidArgument", err)
	}
	if len(f.profiles.candidates) != 0 {
		t.Error("candidate persisted despite invalid arguments")
	}
}

func TestService_UpsertJobNoEmbedderNoVector(t *testing.T) {
	f := newFixture()
	f.svc = New(f.profiles, f.embeddings, nil, f.shortlists, "text-embedding-3-small", zap.NewNop())

	_, err := f.svc.UpsertJob(context.Background(), profile.Job{ID: "job-1", Description: "desc"}, nil, "")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("UpsertJob() error = %v, want ErrInvalidArgument", err)
	}
	if len(f.profiles.jobs) != 0 {
		t.Error("job persisted despite missing embedding provider")
	}

	// A precomputed vector still works without a provider.
	created, err := f.svc.UpsertJob(context.Background(), profile.Job{ID: "job-1", Description: "desc"}, []float32{0.1, 0.2}, "custom-model-v2")
	if err != nil {
		t.Fatalf("UpsertJob() with vector error = %v", err)
	}
	if !created {
		t.Error("UpsertJob() created = false, want true")
	}
}

func TestService_UpsertCandidateInvalidatesShortlists(t *testing.T) {
	f := newFixture()
	f.shortlists.affected = []string{"job-1", "job-7"}
	cand := profile.Candidate{ID: "cand-1", Resume: "resume text"}

	if _, err := f.svc.UpsertCandidate(context.Background(), cand, nil, ""); err != nil {
		t.Fatalf("UpsertCandidate() error = %v", err)
	}
	if len(f.shortlists.staleCandidate) != 1 || f.shortlists.staleCandidate[0] != "cand-1" {
		t.Errorf("stale candidates = %v, want [cand-1]", f.shortlists.staleCandidate)
	}
}

func TestService_UpsertCandidateEmbedderError(t *testing.T) {
	f := newFixture()
	f.embedder.err = domain.ErrEmbeddingProviderError
	cand := profile.Candidate{ID: "cand-1", Resume: "resume text"}

	_, err := f.svc.UpsertCandidate(context.Background(), cand, nil, "")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("UpsertCandidate() error = %v, want ErrEmbeddingProviderError", err)
	}
	if len(f.profiles.candidates) != 0 {
		t.Error("candidate persisted despite embedding failure")
	}
}

func TestService_DeleteJob(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.UpsertJob(ctx, profile.Job{ID: "job-1", Description: "x"}, nil, ""); err != nil {
		t.Fatalf("UpsertJob() error = %v", err)
	}
	if err := f.svc.DeleteJob(ctx, "job-1"); err != nil {
		t.Fatalf("DeleteJob() error = %v", err)
	}

	if len(f.profiles.jobs) != 0 {
		t.Error("job profile still present after delete")
	}
	if len(f.embeddings.jobs) != 0 {
		t.Error("job embedding still present after delete")
	}
	if len(f.shortlists.deleted) != 1 || f.shortlists.deleted[0] != "job-1" {
		t.Errorf("shortlist deletes = %v, want [job-1]", f.shortlists.deleted)
	}
}

func TestService_DeleteCandidate(t *testing.T) {
	f := newFixture()
	f.shortlists.affected = []string{"job-1"}
	ctx := context.Background()

	if _, err := f.svc.UpsertCandidate(ctx, profile.Candidate{ID: "cand-1", Resume: "x"}, nil, ""); err != nil {
		t.Fatalf("UpsertCandidate() error = %v", err)
	}
	if err := f.svc.DeleteCandidate(ctx, "cand-1"); err != nil {
		t.Fatalf("DeleteCandidate() error = %v", err)
	}

	if len(f.profiles.candidates) != 0 {
		t.Error("candidate profile still present after delete")
	}
	if len(f.embeddings.deleted) != 1 || f.embeddings.deleted[0] != "cand-1" {
		t.Errorf("embedding deletes = %v, want [cand-1]", f.embeddings.deleted)
	}
	// Staleness must be marked before the profile disappears so scans still
	// see the candidate in stored shortlists.
	if len(f.shortlists.staleCandidate) == 0 || f.shortlists.staleCandidate[len(f.shortlists.staleCandidate)-1] != "cand-1" {
		t.Errorf("stale candidates = %v, want cand-1 marked", f.shortlists.staleCandidate)
	}
}
