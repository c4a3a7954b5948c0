// Package rules evaluates a rule configuration against a job/candidate pair,
// producing an ordered verdict trace.
package rules

import (
	"fmt"

	"github.com/hirelens/matchdex/internal/domain"
	"github.com/hirelens/matchdex/internal/domain/profile"
	domrules "github.com/hirelens/matchdex/internal/domain/rules"
)

const skipReason = "excluded by hard rule failure"

// Engine dispatches rule evaluation by rule type. It is stateless and safe
// for concurrent use.
type Engine struct{}

// NewEngine creates a rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs every hard rule, then every soft rule, in configured order.
// Hard rules are never short-circuited: the trace must show every hard
// verdict so "why not matched" is always derivable. Soft rules are skipped
// (status SKIP, delta 0) when any hard rule failed. The only fatal condition
// is an unknown rule type, which is a config error, not a candidate error.
func (e *Engine) Evaluate(
	cfg domrules.Config, job profile.Job, candidate profile.Candidate, similarity float64,
) ([]domrules.Verdict, bool, error) {
	verdicts := make([]domrules.Verdict, 0, len(cfg.Hard)+len(cfg.Soft))

	hardPassed := true
	for _, r := range cfg.Hard {
		v, err := e.evalHard(r, job, candidate)
		if err != nil {
			return nil, false, err
		}
		if v.Status != domrules.StatusPass {
			hardPassed = false
		}
		verdicts = append(verdicts, v)
	}

	for _, r := range cfg.Soft {
		if !hardPassed {
			verdicts = append(verdicts, domrules.Verdict{
				RuleID: r.ID,
				Name:   r.Name,
				Status: domrules.StatusSkip,
				Reason: skipReason,
			})
			continue
		}
		v, err := e.evalSoft(r, job, candidate, similarity)
		if err != nil {
			return nil, false, err
		}
		verdicts = append(verdicts, v)
	}

	return verdicts, hardPassed, nil
}

func (e *Engine) evalHard(r domrules.Rule, job profile.Job, candidate profile.Candidate) (domrules.Verdict, error) {
	switch r.Type {
	case domrules.TypeSkillsRequired:
		p, ok := r.Params.(domrules.SkillsRequiredParams)
		if !ok {
			return faultVerdict(r), nil
		}
		return evalSkillsRequired(r, p, candidate), nil
	case domrules.TypeMinYears:
		p, ok := r.Params.(domrules.MinYearsParams)
		if !ok {
			return faultVerdict(r), nil
		}
		return evalMinYears(r, p, job, candidate), nil
	case domrules.TypeLocationMatch:
		p, ok := r.Params.(domrules.LocationMatchParams)
		if !ok {
			return faultVerdict(r), nil
		}
		return evalLocationMatch(r, p, job, candidate), nil
	default:
		return domrules.Verdict{}, fmt.Errorf("%w: rule %s has type %q", domain.ErrUnknownRuleType, r.ID, r.Type)
	}
}

func (e *Engine) evalSoft(
	r domrules.Rule, job profile.Job, candidate profile.Candidate, similarity float64,
) (domrules.Verdict, error) {
	_ = similarity // threaded through for similarity-aware rule types

	switch r.Type {
	case domrules.TypeSkillsBonus:
		p, ok := r.Params.(domrules.SkillsBonusParams)
		if !ok {
			return faultVerdict(r), nil
		}
		return weighted(r, evalSkillsBonus(r, p, candidate)), nil
	case domrules.TypeYearsBonus:
		p, ok := r.Params.(domrules.YearsBonusParams)
		if !ok {
			return faultVerdict(r), nil
		}
		return weighted(r, evalYearsBonus(r, p, job, candidate)), nil
	case domrules.TypeLocationBonus:
		p, ok := r.Params.(domrules.LocationBonusParams)
		if !ok {
			return faultVerdict(r), nil
		}
		return weighted(r, evalLocationBonus(r, p, job, candidate)), nil
	default:
		return domrules.Verdict{}, fmt.Errorf("%w: rule %s has type %q", domain.ErrUnknownRuleType, r.ID, r.Type)
	}
}

// weighted applies the rule weight to a soft verdict's delta. FAIL and SKIP
// verdicts carry a zero delta already, so the multiply is a no-op for them.
func weighted(r domrules.Rule, v domrules.Verdict) domrules.Verdict {
	v.ScoreDelta *= r.Weight
	return v
}

// faultVerdict records a soft- or hard-rule runtime fault as an explicit FAIL
// with a diagnostic reason instead of aborting the run. Only unknown rule
// types are run-fatal.
func faultVerdict(r domrules.Rule) domrules.Verdict {
	return domrules.Verdict{
		RuleID: r.ID,
		Name:   r.Name,
		Status: domrules.StatusFail,
		Reason: fmt.Sprintf("rule evaluation fault: params do not match type %q", r.Type),
	}
}
