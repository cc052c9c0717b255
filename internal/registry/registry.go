package registry

import (
	"sort"
	"sync"

	"supplymatch/domain/core"
	"supplymatch/domain/rules"
	"supplymatch/internal"
	"supplymatch/ports"
)

// Registry is the in-memory, domain-partitioned rule store. It supports
// many concurrent readers; writers (create/update/delete/import) are
// serialized behind the write lock. Import holds the write lock for the
// full snapshot -> mutate -> validate -> commit|restore sequence so no
// reader ever observes a partially-imported state.
type Registry struct {
	mu      sync.RWMutex
	domains map[core.Domain]*rules.RuleSet
	logger  *internal.Logger
}

var _ ports.RuleRegistry = (*Registry)(nil)

// New creates an empty registry. There is no lazy initialization: the
// returned value is fully usable.
func New(logger *internal.Logger) *Registry {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Registry{
		domains: make(map[core.Domain]*rules.RuleSet),
		logger:  logger.Named("registry"),
	}
}

// Get returns the rule with the given id in the given domain.
func (r *Registry) Get(domain core.Domain, id core.RuleID) (rules.CapabilityRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.domains[domain.OrGeneral()]
	if !ok {
		return rules.CapabilityRule{}, core.NewNotFoundError("domain", domain.String())
	}
	rule, ok := set.Get(id)
	if !ok {
		return rules.CapabilityRule{}, core.NewNotFoundError("rule", id.String())
	}
	return rule.Clone(), nil
}

// FindRulesFor returns every rule in the domain whose capability equals
// capability and whose satisfies_requirements covers requirement, both
// case-insensitively after trimming. Results are ordered by confidence
// descending, then rule id, so selection is deterministic.
func (r *Registry) FindRulesFor(domain core.Domain, capability, requirement string) []rules.CapabilityRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.domains[domain.OrGeneral()]
	if !ok {
		return nil
	}

	var found []rules.CapabilityRule
	for _, id := range set.RuleIDs() {
		rule := set.Rules[id]
		if rule.AppliesTo(capability) && rule.Satisfies(requirement) {
			found = append(found, rule.Clone())
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Confidence != found[j].Confidence {
			return found[i].Confidence > found[j].Confidence
		}
		return found[i].ID < found[j].ID
	})
	return found
}

// Domains lists the domains that currently hold rules, sorted.
func (r *Registry) Domains() []core.Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Domain, 0, len(r.domains))
	for d := range r.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RuleSet returns a deep copy of the domain's rule set.
func (r *Registry) RuleSet(domain core.Domain) (*rules.RuleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.domains[domain.OrGeneral()]
	if !ok {
		return nil, core.NewNotFoundError("domain", domain.String())
	}
	return set.Clone(), nil
}

// Create adds a rule to the domain, failing if the id already exists.
func (r *Registry) Create(domain core.Domain, rule rules.CapabilityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	domain = domain.OrGeneral()
	set, ok := r.domains[domain]
	if !ok {
		set = rules.NewRuleSet(domain, "1.0.0")
		r.domains[domain] = set
	}
	if _, exists := set.Get(rule.ID); exists {
		return core.ErrRuleExists
	}
	return set.Add(rule)
}

// Update replaces an existing rule, failing if the id does not exist.
func (r *Registry) Update(domain core.Domain, rule rules.CapabilityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.domains[domain.OrGeneral()]
	if !ok {
		return core.NewNotFoundError("domain", domain.String())
	}
	if _, exists := set.Get(rule.ID); !exists {
		return core.NewNotFoundError("rule", rule.ID.String())
	}
	return set.Add(rule)
}

// Delete removes a rule. When the domain's rule set becomes empty the
// domain entry is removed entirely.
func (r *Registry) Delete(domain core.Domain, id core.RuleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	domain = domain.OrGeneral()
	set, ok := r.domains[domain]
	if !ok {
		return core.NewNotFoundError("domain", domain.String())
	}
	if !set.Remove(id) {
		return core.NewNotFoundError("rule", id.String())
	}
	if set.Len() == 0 {
		delete(r.domains, domain)
	}
	return nil
}

// ImportRuleSet merges (partial) or replaces (full) the domain's rule set.
// The operation is transactional across all domains: a snapshot is taken
// before mutation, post-import validation runs over every rule set, and on
// failure the snapshot is restored and an ImportError returned.
func (r *Registry) ImportRuleSet(set *rules.RuleSet, partial bool) (ports.ImportStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	domain := set.Domain.OrGeneral()
	snapshot := r.snapshotLocked()

	old := r.domains[domain]
	stats := ports.ImportStats{}

	if partial && old != nil {
		for _, id := range set.RuleIDs() {
			if _, exists := old.Get(id); exists {
				stats.Updated++
			} else {
				stats.Added++
			}
			if err := old.Add(set.Rules[id].Clone()); err != nil {
				r.domains = snapshot
				issue := core.NewValidationIssue(id, "domain", err.Error())
				return ports.ImportStats{}, &core.ImportError{Domain: domain, Issues: []core.ValidationIssue{issue}}
			}
		}
		old.Version = set.Version
		if set.Description != "" {
			old.Description = set.Description
		}
	} else {
		incoming := set.Clone()
		incoming.Domain = domain
		if old != nil {
			for _, id := range incoming.RuleIDs() {
				if _, exists := old.Get(id); exists {
					stats.Updated++
				} else {
					stats.Added++
				}
			}
		} else {
			stats.Added = incoming.Len()
		}
		r.domains[domain] = incoming
	}

	if issues := r.validateAllLocked(); len(issues) > 0 {
		r.domains = snapshot
		r.logger.Warn("import into %q rolled back: %d validation issue(s)", domain, len(issues))
		return ports.ImportStats{}, &core.ImportError{Domain: domain, Issues: issues}
	}

	r.logger.Info("imported rule set %q: %d added, %d updated (partial=%v)", domain, stats.Added, stats.Updated, partial)
	return stats, nil
}

// Compare diffs the given set against the live state for its domain
// without mutating anything.
func (r *Registry) Compare(set *rules.RuleSet) (ports.RuleDiff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	diff := ports.RuleDiff{}
	old, ok := r.domains[set.Domain.OrGeneral()]
	if !ok {
		diff.Added = set.RuleIDs()
		return diff, nil
	}

	for _, id := range set.RuleIDs() {
		theirs := set.Rules[id]
		ours, exists := old.Get(id)
		switch {
		case !exists:
			diff.Added = append(diff.Added, id)
		case !ours.EquivalentTo(theirs):
			diff.Updated = append(diff.Updated, id)
		}
	}
	for _, id := range old.RuleIDs() {
		if _, exists := set.Get(id); !exists {
			diff.Deleted = append(diff.Deleted, id)
		}
	}
	return diff, nil
}

// snapshotLocked deep-copies every domain's rule set. Caller holds the
// write lock.
func (r *Registry) snapshotLocked() map[core.Domain]*rules.RuleSet {
	snap := make(map[core.Domain]*rules.RuleSet, len(r.domains))
	for d, set := range r.domains {
		snap[d] = set.Clone()
	}
	return snap
}

// validateAllLocked re-validates every rule set. Caller holds the write
// lock.
func (r *Registry) validateAllLocked() []core.ValidationIssue {
	var issues []core.ValidationIssue
	for _, d := range r.sortedDomainsLocked() {
		issues = append(issues, r.domains[d].Validate()...)
	}
	return issues
}

func (r *Registry) sortedDomainsLocked() []core.Domain {
	out := make([]core.Domain, 0, len(r.domains))
	for d := range r.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
