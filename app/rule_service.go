package app

import (
	"fmt"

	"supplymatch/domain/core"
	"supplymatch/domain/rules"
	"supplymatch/internal"
	"supplymatch/ports"
)

// RuleService layers batch import/export semantics over the registry.
type RuleService struct {
	registry ports.RuleRegistry
	logger   *internal.Logger
}

// NewRuleService creates a rule service over a registry.
func NewRuleService(registry ports.RuleRegistry, logger *internal.Logger) *RuleService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &RuleService{registry: registry, logger: logger.Named("rules")}
}

// Registry exposes the underlying registry for direct rule CRUD.
func (s *RuleService) Registry() ports.RuleRegistry {
	return s.registry
}

// ImportReport summarizes a batch import across domains.
type ImportReport struct {
	Domains map[core.Domain]ports.ImportStats `json:"domains"`
	Skipped []core.ValidationIssue            `json:"skipped,omitempty"`
}

// Total returns the combined added and updated counts.
func (r ImportReport) Total() (added, updated int) {
	for _, stats := range r.Domains {
		added += stats.Added
		updated += stats.Updated
	}
	return added, updated
}

// ImportFrom loads every rule set the reader yields and imports each one.
// Rules the reader skipped are reported, not fatal; a failed import aborts
// the batch with the offending domain's error.
func (s *RuleService) ImportFrom(reader ports.RuleSetReader, partial bool) (ImportReport, error) {
	report := ImportReport{Domains: make(map[core.Domain]ports.ImportStats)}

	sets, skipped, err := reader.ReadRuleSets()
	if err != nil {
		return report, err
	}
	report.Skipped = skipped

	for _, set := range sets {
		stats, err := s.registry.ImportRuleSet(set, partial)
		if err != nil {
			return report, fmt.Errorf("importing domain %s: %w", set.Domain, err)
		}
		report.Domains[set.Domain] = stats
	}

	added, updated := report.Total()
	s.logger.Info("imported %d domain(s): %d added, %d updated, %d skipped", len(sets), added, updated, len(skipped))
	return report, nil
}

// Preview diffs every rule set the reader yields against the registry
// without changing anything.
func (s *RuleService) Preview(reader ports.RuleSetReader) (map[core.Domain]ports.RuleDiff, []core.ValidationIssue, error) {
	sets, skipped, err := reader.ReadRuleSets()
	if err != nil {
		return nil, nil, err
	}

	diffs := make(map[core.Domain]ports.RuleDiff, len(sets))
	for _, set := range sets {
		diff, err := s.registry.Compare(set)
		if err != nil {
			return nil, skipped, fmt.Errorf("comparing domain %s: %w", set.Domain, err)
		}
		diffs[set.Domain] = diff
	}
	return diffs, skipped, nil
}

// Export returns a deep copy of a domain's rule set for serialization.
func (s *RuleService) Export(domain core.Domain) (*rules.RuleSet, error) {
	return s.registry.RuleSet(domain)
}
