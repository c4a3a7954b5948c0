package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/hirelens/matchdex/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	hashes map[string]map[string]string

	getErr error
	setErr error
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.hashes[key] = fields
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.hashes[key], nil
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

// --- Tests ---

func TestCachedEmbedder_MissThenHit(t *testing.T) {
	store := newMockStore()
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		ModelVersion: "text-embedding-3-small-2024",
		TotalTokens:  12,
	}}
	cached := New(inner, store, nil, zap.NewNop())
	ctx := context.Background()

	first, err := cached.Embed(ctx, "senior backend engineer")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
	if first.TotalTokens != 12 {
		t.Errorf("miss TotalTokens = %d, want 12", first.TotalTokens)
	}

	second, err := cached.Embed(ctx, "senior backend engineer")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls after hit = %d, want 1", inner.calls)
	}
	if second.ModelVersion != first.ModelVersion {
		t.Errorf("hit ModelVersion = %q, want %q", second.ModelVersion, first.ModelVersion)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit TotalTokens = %d, want 0", second.TotalTokens)
	}
	if len(second.Embedding) != 3 || second.Embedding[2] != first.Embedding[2] {
		t.Errorf("hit Embedding = %v, want %v", second.Embedding, first.Embedding)
	}
}

func TestCachedEmbedder_DistinctTextsDistinctKeys(t *testing.T) {
	store := newMockStore()
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{1},
		ModelVersion: "v1",
	}}
	cached := New(inner, store, nil, zap.NewNop())
	ctx := context.Background()

	if _, err := cached.Embed(ctx, "text one"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if _, err := cached.Embed(ctx, "text two"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2 for distinct texts", inner.calls)
	}
	if len(store.hashes) != 2 {
		t.Errorf("cached entries = %d, want 2", len(store.hashes))
	}
}

func TestCachedEmbedder_CorruptEntryFallsThrough(t *testing.T) {
	store := newMockStore()
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.5},
		ModelVersion: "v1",
	}}
	cached := New(inner, store, nil, zap.NewNop())
	ctx := context.Background()

	key := cached.cacheKey("some text")
	store.hashes[key] = map[string]string{
		fieldVector:       "abc", // not a multiple of 4 bytes
		fieldModelVersion: "v1",
	}

	res, err := cached.Embed(ctx, "some text")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 after corrupt cache entry", inner.calls)
	}
	if res.ModelVersion != "v1" || len(res.Embedding) != 1 {
		t.Errorf("Embed() = %+v, want fresh provider result", res)
	}
}

func TestCachedEmbedder_StoreErrorsDoNotFailEmbed(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.5},
		ModelVersion: "v1",
	}}
	cached := New(inner, store, nil, zap.NewNop())

	res, err := cached.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Embed() error = %v, want provider result despite cache failure", err)
	}
	if res.ModelVersion != "v1" {
		t.Errorf("ModelVersion = %q, want v1", res.ModelVersion)
	}
}

func TestCachedEmbedder_ProviderError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	cached := New(inner, newMockStore(), nil, zap.NewNop())

	_, err := cached.Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("Embed() error = %v, want ErrEmbeddingProviderError", err)
	}
}
