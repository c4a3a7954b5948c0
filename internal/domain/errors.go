package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound signals an unknown job id.
	ErrJobNotFound = errors.New("job not found")
	// ErrCandidateNotFound signals an unknown candidate id.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrEmbeddingNotFound signals that a profile has no stored embedding.
	ErrEmbeddingNotFound = errors.New("embedding not found")
	// ErrShortlistNotFound signals that a job has no computed shortlist.
	ErrShortlistNotFound = errors.New("shortlist not found")
	// ErrRulesVersionNotFound signals an unknown rule-config version.
	ErrRulesVersionNotFound = errors.New("rules version not found")
	// ErrRulesVersionExists signals an attempt to overwrite an immutable rule config.
	ErrRulesVersionExists = errors.New("rules version already exists")

	// ErrRetrievalTimeout signals that vector retrieval exceeded its deadline.
	// Retryable by the caller; the failed run persists nothing.
	ErrRetrievalTimeout = errors.New("retrieval timed out")

	// ErrUnknownRuleType signals a rule-type tag outside the closed set.
	// Always run-fatal: a config error affects every candidate identically.
	ErrUnknownRuleType = errors.New("unknown rule type")
	// ErrInvalidRuleConfig signals a malformed rule configuration.
	ErrInvalidRuleConfig = errors.New("invalid rule config")

	// ErrInvalidArgument signals an out-of-range caller parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// RuleConfigError wraps a config-level failure with the offending rule id so
// callers can point at the broken rule.
type RuleConfigError struct {
	RuleID string
	Err    error
}

func (e *RuleConfigError) Error() string {
	return fmt.Sprintf("rule %q: %s", e.RuleID, e.Err.Error())
}

func (e *RuleConfigError) Unwrap() error { return e.Err }

// NewRuleConfigError creates a rule config error for the given rule id.
func NewRuleConfigError(ruleID string, err error) error {
	return &RuleConfigError{RuleID: ruleID, Err: err}
}
