package rules

import (
	"encoding/json"
	"fmt"

	"github.com/hirelens/matchdex/internal/domain"
	domrules "github.com/hirelens/matchdex/internal/domain/rules"
)

// defaultMinConfidence is applied when a skills rule omits min_confidence.
const defaultMinConfidence = 0.6

// configDoc is the stored wire shape: one ordered rule list; the hard/soft
// split is derived from the rule types, preserving configured order within
// each group.
type configDoc struct {
	Version string    `json:"version"`
	Rules   []ruleDoc `json:"rules"`
}

type ruleDoc struct {
	ID     string          `json:"id"`
	Name   string          `json:"name,omitempty"`
	Type   string          `json:"type"`
	Weight *float64        `json:"weight,omitempty"`
	Params json.RawMessage `json:"params"`
}

type skillsRequiredDoc struct {
	AllOf         []string `json:"all_of"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
}

type minYearsDoc struct {
	Min *float64 `json:"min,omitempty"`
}

type locationMatchDoc struct {
	Policy string `json:"policy"`
}

type skillsBonusDoc struct {
	AnyOf         []string `json:"any_of"`
	PerSkillBonus float64  `json:"per_skill_bonus"`
	MaxBonus      *float64 `json:"max_bonus,omitempty"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
}

type yearsBonusDoc struct {
	BonusPerYear float64  `json:"bonus_per_year"`
	MaxBonus     *float64 `json:"max_bonus,omitempty"`
}

type locationBonusDoc struct {
	Policy string  `json:"policy"`
	Bonus  float64 `json:"bonus"`
}

// parseConfig converts the wire shape into the typed tagged-variant config.
// Unknown rule types and malformed param bags fail here, before any matching
// run can observe the config.
func parseConfig(doc *configDoc) (*domrules.Config, error) {
	cfg := &domrules.Config{Version: doc.Version}

	for i := range doc.Rules {
		rule, err := parseRule(&doc.Rules[i])
		if err != nil {
			return nil, err
		}
		if rule.Type.IsHard() {
			cfg.Hard = append(cfg.Hard, rule)
		} else {
			cfg.Soft = append(cfg.Soft, rule)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseRule(doc *ruleDoc) (domrules.Rule, error) {
	rule := domrules.Rule{
		ID:     doc.ID,
		Name:   doc.Name,
		Type:   domrules.Type(doc.Type),
		Weight: 1.0,
	}
	if rule.Name == "" {
		rule.Name = rule.ID
	}
	if doc.Weight != nil {
		rule.Weight = *doc.Weight
	}

	if !rule.Type.Known() {
		return domrules.Rule{}, domain.NewRuleConfigError(doc.ID,
			fmt.Errorf("%w: %q", domain.ErrUnknownRuleType, doc.Type))
	}

	params, err := parseParams(rule.Type, doc.Params)
	if err != nil {
		return domrules.Rule{}, domain.NewRuleConfigError(doc.ID,
			fmt.Errorf("%w: %w", domain.ErrInvalidRuleConfig, err))
	}
	rule.Params = params
	return rule, nil
}

func parseParams(t domrules.Type, raw json.RawMessage) (domrules.Params, error) {
	switch t {
	case domrules.TypeSkillsRequired:
		var d skillsRequiredDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
		return domrules.SkillsRequiredParams{
			AllOf:         d.AllOf,
			MinConfidence: confidenceOrDefault(d.MinConfidence),
		}, nil

	case domrules.TypeMinYears:
		var d minYearsDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
		return domrules.MinYearsParams{Min: d.Min}, nil

	case domrules.TypeLocationMatch:
		var d locationMatchDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
		return domrules.LocationMatchParams{Policy: domrules.LocationPolicy(d.Policy)}, nil

	case domrules.TypeSkillsBonus:
		var d skillsBonusDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
		return domrules.SkillsBonusParams{
			AnyOf:         d.AnyOf,
			PerSkillBonus: d.PerSkillBonus,
			MaxBonus:      d.MaxBonus,
			MinConfidence: confidenceOrDefault(d.MinConfidence),
		}, nil

	case domrules.TypeYearsBonus:
		var d yearsBonusDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
		if d.MaxBonus == nil {
			return nil, fmt.Errorf("params: max_bonus is required")
		}
		return domrules.YearsBonusParams{
			BonusPerYear: d.BonusPerYear,
			MaxBonus:     *d.MaxBonus,
		}, nil

	case domrules.TypeLocationBonus:
		var d locationBonusDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
		return domrules.LocationBonusParams{
			Policy: domrules.LocationPolicy(d.Policy),
			Bonus:  d.Bonus,
		}, nil
	}
	return nil, fmt.Errorf("no param parser for type %q", t)
}

func confidenceOrDefault(v *float64) float64 {
	if v == nil {
		return defaultMinConfidence
	}
	return *v
}
