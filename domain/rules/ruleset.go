package rules

import (
	"sort"

	"supplymatch/domain/core"
)

// RuleSet is a domain-scoped collection of capability rules keyed by rule
// id. Insertion order is irrelevant; serialization sorts by id.
type RuleSet struct {
	Domain      core.Domain                    `json:"domain"`
	Version     string                         `json:"version"`
	Description string                         `json:"description,omitempty"`
	Rules       map[core.RuleID]CapabilityRule `json:"rules"`
	UpdatedAt   core.Timestamp                 `json:"updated_at"`
}

// NewRuleSet creates an empty rule set for a domain.
func NewRuleSet(domain core.Domain, version string) *RuleSet {
	return &RuleSet{
		Domain:    domain.OrGeneral(),
		Version:   version,
		Rules:     make(map[core.RuleID]CapabilityRule),
		UpdatedAt: core.Now(),
	}
}

// Add inserts or replaces a rule. The rule must belong to the set's domain
// or be marked general.
func (s *RuleSet) Add(rule CapabilityRule) error {
	if rule.Domain != s.Domain && rule.Domain != core.DomainGeneral {
		return core.NewValidationIssue(rule.ID, "domain", "rule domain does not match rule set domain")
	}
	if s.Rules == nil {
		s.Rules = make(map[core.RuleID]CapabilityRule)
	}
	s.Rules[rule.ID] = rule
	s.UpdatedAt = core.Now()
	return nil
}

// Remove deletes a rule by id, reporting whether it existed.
func (s *RuleSet) Remove(id core.RuleID) bool {
	if _, ok := s.Rules[id]; !ok {
		return false
	}
	delete(s.Rules, id)
	s.UpdatedAt = core.Now()
	return true
}

// Get returns the rule with the given id.
func (s *RuleSet) Get(id core.RuleID) (CapabilityRule, bool) {
	r, ok := s.Rules[id]
	return r, ok
}

// Len returns the number of rules in the set.
func (s *RuleSet) Len() int {
	return len(s.Rules)
}

// RuleIDs returns the rule ids in sorted order.
func (s *RuleSet) RuleIDs() []core.RuleID {
	ids := make([]core.RuleID, 0, len(s.Rules))
	for id := range s.Rules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate re-checks every rule plus the domain-consistency invariant.
func (s *RuleSet) Validate() []core.ValidationIssue {
	var issues []core.ValidationIssue
	for _, id := range s.RuleIDs() {
		rule := s.Rules[id]
		issues = append(issues, ValidateRule(rule)...)
		if rule.Domain != s.Domain && rule.Domain != core.DomainGeneral {
			issues = append(issues, core.NewValidationIssue(id, "domain", "rule domain does not match rule set domain"))
		}
	}
	return issues
}

// Clone returns a deep copy of the set.
func (s *RuleSet) Clone() *RuleSet {
	out := &RuleSet{
		Domain:      s.Domain,
		Version:     s.Version,
		Description: s.Description,
		Rules:       make(map[core.RuleID]CapabilityRule, len(s.Rules)),
		UpdatedAt:   s.UpdatedAt,
	}
	for id, rule := range s.Rules {
		out.Rules[id] = rule.Clone()
	}
	return out
}

// EquivalentTo compares two rule sets structurally, ignoring timestamps.
func (s *RuleSet) EquivalentTo(other *RuleSet) bool {
	if other == nil {
		return false
	}
	if s.Domain != other.Domain || s.Version != other.Version || s.Description != other.Description {
		return false
	}
	if len(s.Rules) != len(other.Rules) {
		return false
	}
	for id, rule := range s.Rules {
		theirs, ok := other.Rules[id]
		if !ok || !rule.EquivalentTo(theirs) {
			return false
		}
	}
	return true
}
