package match

import (
	"context"
	"time"

	"supplymatch/domain/core"
	"supplymatch/domain/matching"
	"supplymatch/ports"
)

// HeuristicLayer scores pairs against the curated capability rules for
// one domain. When any rule covers the pair, the highest-confidence rule
// wins and its id is recorded in the result.
type HeuristicLayer struct {
	registry ports.RuleRegistry
	domain   core.Domain
}

// NewHeuristic creates a heuristic layer bound to a domain's rules.
func NewHeuristic(registry ports.RuleRegistry, domain core.Domain) *HeuristicLayer {
	return &HeuristicLayer{registry: registry, domain: domain.OrGeneral()}
}

func (l *HeuristicLayer) Name() matching.Layer {
	return matching.LayerHeuristic
}

func (l *HeuristicLayer) Score(_ context.Context, requirement, capability string) (matching.Result, error) {
	start := time.Now()
	res := matching.Result{
		Requirement: requirement,
		Capability:  capability,
		Layer:       matching.LayerHeuristic,
		Quality:     matching.QualityNoMatch,
	}

	// FindRulesFor orders by confidence descending, id ascending.
	if found := l.registry.FindRulesFor(l.domain, capability, requirement); len(found) > 0 {
		best := found[0]
		res.Matched = true
		res.Confidence = best.Confidence
		res.Quality = matching.QualityRuleMatch
		res.RuleID = best.ID
	}

	res.Duration = time.Since(start)
	res.Timestamp = core.Now()
	return res, nil
}
