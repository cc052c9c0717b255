package rules

import (
	"errors"
	"fmt"
	"strings"

	"supplymatch/domain/core"
)

// Direction controls which way a rule may be applied during matching.
type Direction string

const (
	DirectionBidirectional Direction = "bidirectional"
	DirectionForward       Direction = "forward"
	DirectionReverse       Direction = "reverse"
)

// RuleType identifies the kind of rule. Only capability_match exists today;
// the field is kept in the serialized form for forward compatibility.
type RuleType string

const TypeCapabilityMatch RuleType = "capability_match"

// CapabilityRule declares that one capability satisfies a set of
// requirements with a given confidence. Rules are immutable after
// construction; updates replace the whole rule.
type CapabilityRule struct {
	ID                    core.RuleID    `json:"id"`
	Type                  RuleType       `json:"type"`
	Capability            string         `json:"capability"`
	SatisfiesRequirements []string       `json:"satisfies_requirements"`
	Confidence            float64        `json:"confidence"`
	Domain                core.Domain    `json:"domain"`
	Direction             Direction      `json:"direction"`
	Tags                  []string       `json:"tags,omitempty"`
	CreatedAt             core.Timestamp `json:"created_at"`
	UpdatedAt             core.Timestamp `json:"updated_at"`
}

// NewCapabilityRule is the only way to obtain a CapabilityRule: fields are
// trimmed and validated before the value exists, so a partially-valid rule
// is never observable. The returned error joins every validation issue.
func NewCapabilityRule(id core.RuleID, capability string, satisfies []string, confidence float64, domain core.Domain, direction Direction, tags []string) (CapabilityRule, error) {
	now := core.Now()
	rule := CapabilityRule{
		ID:                    id,
		Type:                  TypeCapabilityMatch,
		Capability:            strings.TrimSpace(capability),
		SatisfiesRequirements: trimNonEmpty(satisfies),
		Confidence:            confidence,
		Domain:                domain.OrGeneral(),
		Direction:             direction,
		Tags:                  trimNonEmpty(tags),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if rule.Direction == "" {
		rule.Direction = DirectionBidirectional
	}

	if issues := ValidateRule(rule); len(issues) > 0 {
		errs := make([]error, len(issues))
		for i, issue := range issues {
			errs[i] = issue
		}
		return CapabilityRule{}, errors.Join(errs...)
	}
	return rule, nil
}

// ValidateRule checks the rule invariants and returns one issue per
// offending field. Loaders use this to skip invalid rules while keeping
// the valid remainder of a batch.
func ValidateRule(r CapabilityRule) []core.ValidationIssue {
	var issues []core.ValidationIssue

	if strings.TrimSpace(string(r.ID)) == "" {
		issues = append(issues, core.NewValidationIssue(r.ID, "id", "rule id is empty"))
	}
	if strings.TrimSpace(r.Capability) == "" {
		issues = append(issues, core.NewValidationIssue(r.ID, "capability", "empty after trimming"))
	}
	if len(trimNonEmpty(r.SatisfiesRequirements)) == 0 {
		issues = append(issues, core.NewValidationIssue(r.ID, "satisfies_requirements", "no non-empty requirements"))
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		issues = append(issues, core.NewValidationIssue(r.ID, "confidence", fmt.Sprintf("%.4f outside [0,1]", r.Confidence)))
	}
	switch r.Direction {
	case DirectionBidirectional, DirectionForward, DirectionReverse, "":
	default:
		issues = append(issues, core.NewValidationIssue(r.ID, "direction", fmt.Sprintf("unknown direction %q", r.Direction)))
	}
	return issues
}

// Satisfies reports whether the rule covers the given requirement, using
// case-insensitive trimmed equality against satisfies_requirements.
func (r CapabilityRule) Satisfies(requirement string) bool {
	want := strings.ToLower(strings.TrimSpace(requirement))
	for _, s := range r.SatisfiesRequirements {
		if strings.ToLower(strings.TrimSpace(s)) == want {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the rule's capability equals the given
// capability, case-insensitively.
func (r CapabilityRule) AppliesTo(capability string) bool {
	return strings.EqualFold(strings.TrimSpace(r.Capability), strings.TrimSpace(capability))
}

// EquivalentTo compares two rules structurally, ignoring timestamps. Backs
// rule-set diffing and the serialization round-trip law.
func (r CapabilityRule) EquivalentTo(other CapabilityRule) bool {
	return r.ID == other.ID &&
		r.Type == other.Type &&
		r.Capability == other.Capability &&
		stringSlicesEqual(r.SatisfiesRequirements, other.SatisfiesRequirements) &&
		r.Confidence == other.Confidence &&
		r.Domain == other.Domain &&
		r.Direction == other.Direction &&
		stringSlicesEqual(r.Tags, other.Tags)
}

// Clone returns a deep copy of the rule.
func (r CapabilityRule) Clone() CapabilityRule {
	out := r
	out.SatisfiesRequirements = append([]string(nil), r.SatisfiesRequirements...)
	out.Tags = append([]string(nil), r.Tags...)
	return out
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
