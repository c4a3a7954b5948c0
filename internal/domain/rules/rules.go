// Package rules defines the versioned, immutable rule configuration and the
// verdicts produced by evaluating it. A rule's behavior is selected by a
// closed type tag; each tag carries a strongly-typed parameter struct so
// adding a rule type is a compile-time-checked extension.
package rules

import (
	"fmt"
	"math"

	"github.com/hirelens/matchdex/internal/domain"
)

// Type tags the behavior of a rule. The set is closed: an unrecognized tag
// is a configuration error, never a silent skip.
type Type string

const (
	// TypeSkillsRequired is a hard filter on must-have skills.
	TypeSkillsRequired Type = "skills_required"
	// TypeMinYears is a hard filter on years of experience.
	TypeMinYears Type = "min_years"
	// TypeLocationMatch is a hard filter on location compatibility.
	TypeLocationMatch Type = "location_match"

	// TypeSkillsBonus awards points per matched nice-to-have skill.
	TypeSkillsBonus Type = "skills_bonus"
	// TypeYearsBonus awards points for experience, capped.
	TypeYearsBonus Type = "years_bonus"
	// TypeLocationBonus awards points for location compatibility.
	TypeLocationBonus Type = "location_bonus"
)

// IsHard reports whether the type is a hard (filtering) rule.
func (t Type) IsHard() bool {
	switch t {
	case TypeSkillsRequired, TypeMinYears, TypeLocationMatch:
		return true
	}
	return false
}

// Known reports whether the type belongs to the closed set.
func (t Type) Known() bool {
	switch t {
	case TypeSkillsRequired, TypeMinYears, TypeLocationMatch,
		TypeSkillsBonus, TypeYearsBonus, TypeLocationBonus:
		return true
	}
	return false
}

// LocationPolicy selects how location_match compares job and candidate.
type LocationPolicy string

const (
	// PolicyAny accepts every candidate.
	PolicyAny LocationPolicy = "any"
	// PolicySameCity requires matching locations.
	PolicySameCity LocationPolicy = "same_city"
	// PolicyRemoteOK accepts remote candidates or matching locations.
	PolicyRemoteOK LocationPolicy = "remote_ok"
)

// Params is the marker interface for type-specific rule parameters.
type Params interface {
	validate() error
}

// SkillsRequiredParams configures the skills_required hard rule.
type SkillsRequiredParams struct {
	AllOf         []string
	MinConfidence float64
}

// MinYearsParams configures the min_years hard rule. A nil Min falls back to
// the job profile's own minimum-experience threshold.
type MinYearsParams struct {
	Min *float64
}

// LocationMatchParams configures the location_match hard rule.
type LocationMatchParams struct {
	Policy LocationPolicy
}

// SkillsBonusParams configures the skills_bonus soft rule.
type SkillsBonusParams struct {
	AnyOf         []string
	PerSkillBonus float64
	MaxBonus      *float64 // optional cap on the total bonus
	MinConfidence float64
}

// YearsBonusParams configures the years_bonus soft rule.
type YearsBonusParams struct {
	BonusPerYear float64
	MaxBonus     float64
}

// LocationBonusParams configures the location_bonus soft rule.
type LocationBonusParams struct {
	Policy LocationPolicy
	Bonus  float64
}

func (p SkillsRequiredParams) validate() error {
	if len(p.AllOf) == 0 {
		return fmt.Errorf("all_of must not be empty")
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %g", p.MinConfidence)
	}
	return nil
}

func (p MinYearsParams) validate() error {
	if p.Min != nil && (!isFinite(*p.Min) || *p.Min < 0) {
		return fmt.Errorf("min must be a non-negative finite number")
	}
	return nil
}

func (p LocationMatchParams) validate() error { return validatePolicy(p.Policy) }

func (p SkillsBonusParams) validate() error {
	if len(p.AnyOf) == 0 {
		return fmt.Errorf("any_of must not be empty")
	}
	if !isFinite(p.PerSkillBonus) {
		return fmt.Errorf("per_skill_bonus must be finite")
	}
	if p.MaxBonus != nil && !isFinite(*p.MaxBonus) {
		return fmt.Errorf("max_bonus must be finite")
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %g", p.MinConfidence)
	}
	return nil
}

func (p YearsBonusParams) validate() error {
	if !isFinite(p.BonusPerYear) || !isFinite(p.MaxBonus) {
		return fmt.Errorf("bonus_per_year and max_bonus must be finite")
	}
	return nil
}

func (p LocationBonusParams) validate() error {
	if !isFinite(p.Bonus) {
		return fmt.Errorf("bonus must be finite")
	}
	return validatePolicy(p.Policy)
}

func validatePolicy(p LocationPolicy) error {
	switch p {
	case PolicyAny, PolicySameCity, PolicyRemoteOK:
		return nil
	}
	return fmt.Errorf("unknown location policy %q", p)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Rule is one configured rule. Params is always the struct matching Type;
// the config loader enforces the pairing before any evaluation starts.
type Rule struct {
	ID     string
	Name   string
	Type   Type
	Weight float64 // multiplier on soft score deltas, 1.0 if unset
	Params Params
}

// Config is a versioned, immutable rule bundle: hard rules in configured
// order, then soft rules in configured order. Configs are never mutated in
// place; a changed rule set is stored under a new version.
type Config struct {
	Version string
	Hard    []Rule
	Soft    []Rule
}

// Validate checks structural consistency: unique non-empty ids, known types,
// correct hard/soft placement and well-formed params. Runs once at config
// load time so evaluation never sees a malformed rule.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("%w: version is required", domain.ErrInvalidRuleConfig)
	}
	seen := make(map[string]bool, len(c.Hard)+len(c.Soft))
	check := func(r *Rule, wantHard bool) error {
		if r.ID == "" {
			return domain.NewRuleConfigError(r.ID, fmt.Errorf("%w: rule id is required", domain.ErrInvalidRuleConfig))
		}
		if seen[r.ID] {
			return domain.NewRuleConfigError(r.ID, fmt.Errorf("%w: duplicate rule id", domain.ErrInvalidRuleConfig))
		}
		seen[r.ID] = true
		if !r.Type.Known() {
			return domain.NewRuleConfigError(r.ID, fmt.Errorf("%w: %q", domain.ErrUnknownRuleType, r.Type))
		}
		if r.Type.IsHard() != wantHard {
			return domain.NewRuleConfigError(r.ID,
				fmt.Errorf("%w: rule type %q listed in the wrong section", domain.ErrInvalidRuleConfig, r.Type))
		}
		if !isFinite(r.Weight) || r.Weight < 0 {
			return domain.NewRuleConfigError(r.ID,
				fmt.Errorf("%w: weight must be a non-negative finite number", domain.ErrInvalidRuleConfig))
		}
		if r.Params == nil {
			return domain.NewRuleConfigError(r.ID, fmt.Errorf("%w: params are required", domain.ErrInvalidRuleConfig))
		}
		if err := r.Params.validate(); err != nil {
			return domain.NewRuleConfigError(r.ID, fmt.Errorf("%w: %w", domain.ErrInvalidRuleConfig, err))
		}
		return nil
	}
	for i := range c.Hard {
		if err := check(&c.Hard[i], true); err != nil {
			return err
		}
	}
	for i := range c.Soft {
		if err := check(&c.Soft[i], false); err != nil {
			return err
		}
	}
	return nil
}
