// Package rules stores versioned rule configurations as immutable JSON
// documents. Raw JSON is checked against a JSON Schema and parsed into the
// typed tagged-variant representation once, at load time; matching runs
// never see a malformed config.
package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hirelens/matchdex/internal/db"
	"github.com/hirelens/matchdex/internal/domain"
	domrules "github.com/hirelens/matchdex/internal/domain/rules"
)

const keyPrefix = domain.KeyPrefix + "rules:"

// store is the consumer interface for rule configs (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetNX(ctx context.Context, key, path string, data []byte) (bool, error)
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo reads and writes versioned rule configurations.
type Repo struct {
	store  store
	schema *gojsonschema.Schema
}

// New creates a rules repository. Panics if the embedded schema does not
// compile; that is a programming error, not a runtime condition.
func New(s store) *Repo {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(configSchema))
	if err != nil {
		panic("rules: invalid embedded config schema: " + err.Error())
	}
	return &Repo{store: s, schema: schema}
}

// Get loads, validates and parses the rule config stored under version.
func (r *Repo) Get(ctx context.Context, version string) (*domrules.Config, error) {
	raw, err := r.store.JSONGet(ctx, key(version), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRulesVersionNotFound, version)
		}
		return nil, fmt.Errorf("json.get rules %s: %w", version, err)
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal rules %s: %w", version, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrRulesVersionNotFound, version)
	}

	return r.parse(docs[0])
}

// GetRaw returns the stored config JSON as written, for API reads.
func (r *Repo) GetRaw(ctx context.Context, version string) ([]byte, error) {
	raw, err := r.store.JSONGet(ctx, key(version), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRulesVersionNotFound, version)
		}
		return nil, fmt.Errorf("json.get rules %s: %w", version, err)
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal rules %s: %w", version, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrRulesVersionNotFound, version)
	}
	return docs[0], nil
}

// Put stores a new immutable rule config version. The payload is fully
// validated before the write; an existing version is never overwritten.
func (r *Repo) Put(ctx context.Context, raw []byte) (*domrules.Config, error) {
	cfg, err := r.parse(raw)
	if err != nil {
		return nil, err
	}

	created, err := r.store.JSONSetNX(ctx, key(cfg.Version), "$", raw)
	if err != nil {
		return nil, fmt.Errorf("json.set rules %s: %w", cfg.Version, err)
	}
	if !created {
		return nil, fmt.Errorf("%w: %s", domain.ErrRulesVersionExists, cfg.Version)
	}
	return cfg, nil
}

func (r *Repo) parse(raw []byte) (*domrules.Config, error) {
	result, err := r.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRuleConfig, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRuleConfig, schemaErrors(result))
	}

	var doc configDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRuleConfig, err)
	}
	return parseConfig(&doc)
}

func schemaErrors(result *gojsonschema.Result) string {
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}

func key(version string) string { return keyPrefix + version }
