// Package profile defines the job and candidate profile value types consumed
// by rule evaluation. Profiles are immutable once their embedding is
// computed; updates re-create the profile wholesale.
package profile

import "strings"

// Span is a half-open character range [Start, End) into a source text field.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsZero reports whether the span is unset.
func (s Span) IsZero() bool { return s.Start == 0 && s.End == 0 }

// Skill is one extracted skill with its extraction confidence and the text
// evidence it was derived from. Confidence is clamped to [0,1] at ingestion;
// downstream consumers assume this holds.
type Skill struct {
	Canonical  string  `json:"canonical"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
	Span       *Span   `json:"span,omitempty"`
}

// Job is a job posting profile.
type Job struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"` // normalized text the embedding was computed from
	Location     string  `json:"location,omitempty"`
	RemotePolicy string  `json:"remote_policy,omitempty"` // onsite, hybrid, remote
	MinYears     float64 `json:"min_years_experience"`
	Skills       []Skill `json:"skills,omitempty"`
	UpdatedAt    int64   `json:"updated_at"` // unix millis
}

// Candidate is a candidate profile.
type Candidate struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	Resume    string  `json:"resume"` // normalized text the embedding was computed from
	Location  string  `json:"location,omitempty"`
	Remote    bool    `json:"remote"`
	Years     float64 `json:"years_experience"`
	Skills    []Skill `json:"skills,omitempty"`
	UpdatedAt int64   `json:"updated_at"` // unix millis
}

// SkillsAtConfidence returns the candidate-side skill set keyed by canonical
// name, keeping only skills at or above the confidence floor. When a skill
// appears more than once the highest-confidence occurrence wins.
func SkillsAtConfidence(skills []Skill, minConfidence float64) map[string]Skill {
	out := make(map[string]Skill, len(skills))
	for _, s := range skills {
		if s.Confidence < minConfidence {
			continue
		}
		key := CanonicalKey(s.Canonical)
		if prev, ok := out[key]; !ok || s.Confidence > prev.Confidence {
			out[key] = s
		}
	}
	return out
}

// CanonicalKey normalizes a skill name for matching: case-insensitive,
// surrounding whitespace ignored.
func CanonicalKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ClampConfidence bounds every skill confidence to [0,1]. Called once at
// ingestion so the rule engine never has to re-clamp.
func ClampConfidence(skills []Skill) []Skill {
	for i := range skills {
		if skills[i].Confidence < 0 {
			skills[i].Confidence = 0
		}
		if skills[i].Confidence > 1 {
			skills[i].Confidence = 1
		}
	}
	return skills
}
