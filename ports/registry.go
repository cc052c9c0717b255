package ports

import (
	"supplymatch/domain/core"
	"supplymatch/domain/rules"
)

// ImportStats summarizes a rule-set import.
type ImportStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// RuleDiff is a dry-run preview of what importing a rule set would change.
type RuleDiff struct {
	Added   []core.RuleID `json:"added"`
	Updated []core.RuleID `json:"updated"`
	Deleted []core.RuleID `json:"deleted"`
}

// Empty reports whether the diff contains no changes.
func (d RuleDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}

// RuleRegistry is the seam an HTTP layer, CLI, or storage adapter binds
// against for rule lookup and lifecycle. Implementations must support many
// concurrent readers and serialize writers.
type RuleRegistry interface {
	// Get returns the rule with the given id in the given domain.
	// Absence is signaled with core.ErrNotFound.
	Get(domain core.Domain, id core.RuleID) (rules.CapabilityRule, error)

	// FindRulesFor returns every rule in the domain whose capability equals
	// the given capability and whose satisfies_requirements covers the
	// given requirement, both case-insensitively after trimming.
	FindRulesFor(domain core.Domain, capability, requirement string) []rules.CapabilityRule

	// Domains lists the domains that currently hold rules, sorted.
	Domains() []core.Domain

	// RuleSet returns a deep copy of the domain's rule set.
	RuleSet(domain core.Domain) (*rules.RuleSet, error)

	// Create adds a rule; it fails if the id already exists in the domain.
	Create(domain core.Domain, rule rules.CapabilityRule) error

	// Update replaces a rule; it fails if the id does not exist.
	Update(domain core.Domain, rule rules.CapabilityRule) error

	// Delete removes a rule. Deleting the last rule of a domain removes
	// the domain's rule set entirely.
	Delete(domain core.Domain, id core.RuleID) error

	// ImportRuleSet merges (partial) or replaces (full) the domain's rule
	// set transactionally: on post-import validation failure every domain
	// is restored from a pre-import snapshot and an ImportError returned.
	ImportRuleSet(set *rules.RuleSet, partial bool) (ImportStats, error)

	// Compare diffs the given set against the live state for its domain
	// without mutating anything. Used for dry-run import preview.
	Compare(set *rules.RuleSet) (RuleDiff, error)
}
