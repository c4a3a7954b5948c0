// Package profile persists job and candidate profiles as JSON documents.
// Profiles are replaced wholesale on update, never patched, so re-reads
// always see a consistent snapshot.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hirelens/matchdex/internal/db"
	"github.com/hirelens/matchdex/internal/domain"
	"github.com/hirelens/matchdex/internal/domain/profile"
)

const (
	jobKeyPrefix       = domain.KeyPrefix + "job:"
	candidateKeyPrefix = domain.KeyPrefix + "candidate:"
)

// store is the consumer interface for profiles (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo stores profiles as JSON documents.
type Repo struct {
	store store
}

// New creates a profile repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// UpsertJob creates or replaces a job profile. Returns true if created.
func (r *Repo) UpsertJob(ctx context.Context, job *profile.Job) (bool, error) {
	return r.upsert(ctx, jobKey(job.ID), job)
}

// UpsertCandidate creates or replaces a candidate profile. Returns true if created.
func (r *Repo) UpsertCandidate(ctx context.Context, cand *profile.Candidate) (bool, error) {
	return r.upsert(ctx, candidateKey(cand.ID), cand)
}

func (r *Repo) upsert(ctx context.Context, key string, doc any) (bool, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("marshal profile: %w", err)
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}
	return !exists, nil
}

// GetJob returns a job profile or domain.ErrJobNotFound.
func (r *Repo) GetJob(ctx context.Context, id string) (profile.Job, error) {
	var job profile.Job
	if err := r.get(ctx, jobKey(id), &job, domain.ErrJobNotFound); err != nil {
		return profile.Job{}, err
	}
	return job, nil
}

// GetCandidate returns a candidate profile or domain.ErrCandidateNotFound.
func (r *Repo) GetCandidate(ctx context.Context, id string) (profile.Candidate, error) {
	var cand profile.Candidate
	if err := r.get(ctx, candidateKey(id), &cand, domain.ErrCandidateNotFound); err != nil {
		return profile.Candidate{}, err
	}
	return cand, nil
}

// GetCandidates loads multiple candidate profiles. Missing ids are skipped:
// a candidate present in the retrieval index but without a profile cannot be
// rule-evaluated and is excluded rather than failing the run.
func (r *Repo) GetCandidates(ctx context.Context, ids []string) (map[string]profile.Candidate, error) {
	out := make(map[string]profile.Candidate, len(ids))
	for _, id := range ids {
		cand, err := r.GetCandidate(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrCandidateNotFound) {
				continue
			}
			return nil, err
		}
		out[id] = cand
	}
	return out, nil
}

func (r *Repo) get(ctx context.Context, key string, dst any, notFound error) error {
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return notFound
		}
		return fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSON.GET with $ returns a one-element array.
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	if len(docs) == 0 {
		return notFound
	}
	if err := json.Unmarshal(docs[0], dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// DeleteJob removes a job profile.
func (r *Repo) DeleteJob(ctx context.Context, id string) error {
	return r.delete(ctx, jobKey(id), domain.ErrJobNotFound)
}

// DeleteCandidate removes a candidate profile.
func (r *Repo) DeleteCandidate(ctx context.Context, id string) error {
	return r.delete(ctx, candidateKey(id), domain.ErrCandidateNotFound)
}

func (r *Repo) delete(ctx context.Context, key string, notFound error) error {
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return notFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func jobKey(id string) string       { return jobKeyPrefix + id }
func candidateKey(id string) string { return candidateKeyPrefix + id }
