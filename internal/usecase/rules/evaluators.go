package rules

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hirelens/matchdex/internal/domain/profile"
	domrules "github.com/hirelens/matchdex/internal/domain/rules"
)

func evalSkillsRequired(r domrules.Rule, p domrules.SkillsRequiredParams, candidate profile.Candidate) domrules.Verdict {
	have := profile.SkillsAtConfidence(candidate.Skills, p.MinConfidence)

	var missing []string
	var evidence []domrules.Evidence
	for _, want := range p.AllOf {
		s, ok := have[profile.CanonicalKey(want)]
		if !ok {
			missing = append(missing, want)
			continue
		}
		if ev, ok := skillEvidence(s); ok {
			evidence = append(evidence, ev)
		}
	}

	if len(missing) > 0 {
		return domrules.Verdict{
			RuleID:   r.ID,
			Name:     r.Name,
			Status:   domrules.StatusFail,
			Reason:   fmt.Sprintf("missing required skills: %s", strings.Join(missing, ", ")),
			Evidence: evidence,
		}
	}
	return domrules.Verdict{
		RuleID:   r.ID,
		Name:     r.Name,
		Status:   domrules.StatusPass,
		Reason:   fmt.Sprintf("all %d required skills present", len(p.AllOf)),
		Evidence: evidence,
	}
}

func evalMinYears(r domrules.Rule, p domrules.MinYearsParams, job profile.Job, candidate profile.Candidate) domrules.Verdict {
	min := job.MinYears
	if p.Min != nil {
		min = *p.Min
	}

	if candidate.Years < min {
		return domrules.Verdict{
			RuleID: r.ID,
			Name:   r.Name,
			Status: domrules.StatusFail,
			Reason: fmt.Sprintf("%.1f years of experience, %.1f required", candidate.Years, min),
		}
	}
	return domrules.Verdict{
		RuleID: r.ID,
		Name:   r.Name,
		Status: domrules.StatusPass,
		Reason: fmt.Sprintf("%.1f years of experience meets the %.1f minimum", candidate.Years, min),
	}
}

func evalLocationMatch(r domrules.Rule, p domrules.LocationMatchParams, job profile.Job, candidate profile.Candidate) domrules.Verdict {
	ok, reason := locationCompatible(p.Policy, job, candidate)
	status := domrules.StatusFail
	if ok {
		status = domrules.StatusPass
	}
	return domrules.Verdict{RuleID: r.ID, Name: r.Name, Status: status, Reason: reason}
}

func evalSkillsBonus(r domrules.Rule, p domrules.SkillsBonusParams, candidate profile.Candidate) domrules.Verdict {
	have := profile.SkillsAtConfidence(candidate.Skills, p.MinConfidence)

	var matched []string
	var evidence []domrules.Evidence
	for _, want := range p.AnyOf {
		s, ok := have[profile.CanonicalKey(want)]
		if !ok {
			continue
		}
		matched = append(matched, want)
		if ev, ok := skillEvidence(s); ok {
			evidence = append(evidence, ev)
		}
	}

	delta := p.PerSkillBonus * float64(len(matched))
	if p.MaxBonus != nil {
		delta = math.Min(delta, *p.MaxBonus)
	}

	if len(matched) == 0 {
		return domrules.Verdict{
			RuleID: r.ID,
			Name:   r.Name,
			Status: domrules.StatusPass,
			Reason: "no bonus skills matched",
		}
	}
	sort.Strings(matched)
	return domrules.Verdict{
		RuleID:     r.ID,
		Name:       r.Name,
		Status:     domrules.StatusPass,
		Reason:     fmt.Sprintf("matched bonus skills: %s", strings.Join(matched, ", ")),
		ScoreDelta: delta,
		Evidence:   evidence,
	}
}

func evalYearsBonus(r domrules.Rule, p domrules.YearsBonusParams, job profile.Job, candidate profile.Candidate) domrules.Verdict {
	above := math.Max(0, candidate.Years-job.MinYears)
	delta := math.Min(p.BonusPerYear*above, p.MaxBonus)

	return domrules.Verdict{
		RuleID:     r.ID,
		Name:       r.Name,
		Status:     domrules.StatusPass,
		Reason:     fmt.Sprintf("%.1f years above the %.1f minimum", above, job.MinYears),
		ScoreDelta: delta,
	}
}

func evalLocationBonus(r domrules.Rule, p domrules.LocationBonusParams, job profile.Job, candidate profile.Candidate) domrules.Verdict {
	ok, reason := locationCompatible(p.Policy, job, candidate)
	v := domrules.Verdict{RuleID: r.ID, Name: r.Name, Status: domrules.StatusPass, Reason: reason}
	if ok {
		v.ScoreDelta = p.Bonus
	}
	return v
}

// locationCompatible applies a location policy to a job/candidate pair and
// returns the outcome plus a human-readable reason.
func locationCompatible(policy domrules.LocationPolicy, job profile.Job, candidate profile.Candidate) (bool, string) {
	sameCity := job.Location != "" &&
		strings.EqualFold(strings.TrimSpace(job.Location), strings.TrimSpace(candidate.Location))

	switch policy {
	case domrules.PolicyAny:
		return true, "any location accepted"
	case domrules.PolicySameCity:
		if sameCity {
			return true, fmt.Sprintf("candidate is in %s", job.Location)
		}
		return false, fmt.Sprintf("candidate location %q does not match %q", candidate.Location, job.Location)
	case domrules.PolicyRemoteOK:
		if candidate.Remote {
			return true, "candidate works remotely"
		}
		if sameCity {
			return true, fmt.Sprintf("candidate is in %s", job.Location)
		}
		return false, fmt.Sprintf("candidate is neither remote nor in %q", job.Location)
	default:
		// Config validation rejects unknown policies before evaluation.
		return false, fmt.Sprintf("unknown location policy %q", policy)
	}
}

// skillEvidence converts an extracted skill into verdict evidence. Skills
// without a text snippet yield no evidence: a verdict that references text
// must have a non-empty source and text.
func skillEvidence(s profile.Skill) (domrules.Evidence, bool) {
	if s.Evidence == "" {
		return domrules.Evidence{}, false
	}
	return domrules.Evidence{Source: "resume", Text: s.Evidence, Span: s.Span}, true
}
