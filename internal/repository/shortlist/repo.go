// Package shortlist persists shortlist snapshots. A snapshot is written
// wholesale by a single JSON.SET, so readers never observe a partially
// updated shortlist; flipping the staleness flag is the only in-place
// mutation.
package shortlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hirelens/matchdex/internal/db"
	"github.com/hirelens/matchdex/internal/domain"
	"github.com/hirelens/matchdex/internal/domain/match"
)

const keyPrefix = domain.KeyPrefix + "shortlist:"

// store is the consumer interface for shortlists (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores one shortlist snapshot per job.
type Repo struct {
	store store
}

// New creates a shortlist repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Persist replaces the job's shortlist with the given snapshot.
func (r *Repo) Persist(ctx context.Context, sl *match.Shortlist) error {
	data, err := json.Marshal(sl)
	if err != nil {
		return fmt.Errorf("marshal shortlist: %w", err)
	}
	if err := r.store.JSONSet(ctx, key(sl.JobID), "$", data); err != nil {
		return fmt.Errorf("json.set shortlist %s: %w", sl.JobID, err)
	}
	return nil
}

// Read returns the stored snapshot or domain.ErrShortlistNotFound.
func (r *Repo) Read(ctx context.Context, jobID string) (*match.Shortlist, error) {
	raw, err := r.store.JSONGet(ctx, key(jobID), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: job %s", domain.ErrShortlistNotFound, jobID)
		}
		return nil, fmt.Errorf("json.get shortlist %s: %w", jobID, err)
	}

	var docs []match.Shortlist
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal shortlist %s: %w", jobID, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: job %s", domain.ErrShortlistNotFound, jobID)
	}
	return &docs[0], nil
}

// MarkStale flips the staleness flags in place, leaving match content and
// computed_at untouched. The recursive path reaches both the snapshot flag
// and the per-entry flags in one command. A missing shortlist is a no-op:
// invalidation events may race deletes.
func (r *Repo) MarkStale(ctx context.Context, jobID string) error {
	exists, err := r.store.Exists(ctx, key(jobID))
	if err != nil {
		return fmt.Errorf("check exists shortlist %s: %w", jobID, err)
	}
	if !exists {
		return nil
	}
	if err := r.store.JSONSet(ctx, key(jobID), "$..is_stale", []byte("true")); err != nil {
		return fmt.Errorf("mark stale %s: %w", jobID, err)
	}
	return nil
}

// MarkStaleForCandidate marks every shortlist containing the candidate as
// stale. Returns the ids of affected jobs.
func (r *Repo) MarkStaleForCandidate(ctx context.Context, candidateID string) ([]string, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan shortlists: %w", err)
	}

	var affected []string
	for _, k := range keys {
		jobID := k[len(keyPrefix):]
		sl, err := r.Read(ctx, jobID)
		if err != nil {
			if errors.Is(err, domain.ErrShortlistNotFound) {
				continue
			}
			return affected, err
		}
		if !sl.Contains(candidateID) {
			continue
		}
		if err := r.MarkStale(ctx, jobID); err != nil {
			return affected, err
		}
		affected = append(affected, jobID)
	}
	return affected, nil
}

// Delete removes a job's shortlist snapshot.
func (r *Repo) Delete(ctx context.Context, jobID string) error {
	if err := r.store.Del(ctx, key(jobID)); err != nil {
		return fmt.Errorf("del shortlist %s: %w", jobID, err)
	}
	return nil
}

func key(jobID string) string { return keyPrefix + jobID }
