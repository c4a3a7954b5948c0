package rules

import "github.com/hirelens/matchdex/internal/domain/profile"

// Status is the outcome of evaluating one rule against one candidate.
type Status string

const (
	// StatusPass means the rule was satisfied.
	StatusPass Status = "PASS"
	// StatusFail means the rule was not satisfied.
	StatusFail Status = "FAIL"
	// StatusSkip means the rule was not evaluated (hard-rule exclusion).
	StatusSkip Status = "SKIP"
)

// Evidence points at the text a verdict was derived from. Source and Text
// are always populated when a rule consulted free text; Span is set when the
// extractor reported character offsets.
type Evidence struct {
	Source string        `json:"source"`
	Text   string        `json:"text"`
	Span   *profile.Span `json:"span,omitempty"`
}

// Verdict is the audit record for a single rule evaluation. ScoreDelta is
// always 0 for hard rules.
type Verdict struct {
	RuleID     string     `json:"rule_id"`
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	Reason     string     `json:"reason"`
	ScoreDelta float64    `json:"score_delta"`
	Evidence   []Evidence `json:"evidence,omitempty"`
}
