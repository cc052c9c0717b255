package ports

import (
	"context"

	"supplymatch/domain/core"
	"supplymatch/domain/rules"
	"supplymatch/domain/supply"
)

// SolutionRepository persists solutions by opaque key. The core owns only
// the in-memory representation; storage mechanics live behind this seam.
type SolutionRepository interface {
	Save(ctx context.Context, solution *supply.Solution) error
	Get(ctx context.Context, id core.SolutionID) (*supply.Solution, error)
	List(ctx context.Context) ([]*supply.Solution, error)
	Delete(ctx context.Context, id core.SolutionID) error
}

// RuleSetRepository persists rule sets keyed by domain.
type RuleSetRepository interface {
	Save(ctx context.Context, set *rules.RuleSet) error
	Get(ctx context.Context, domain core.Domain) (*rules.RuleSet, error)
	List(ctx context.Context) ([]*rules.RuleSet, error)
	Delete(ctx context.Context, domain core.Domain) error
}

// RuleSetReader loads rule sets from an external representation (YAML/JSON
// files, spreadsheets). Invalid rules are skipped and reported as issues;
// valid rules still load.
type RuleSetReader interface {
	ReadRuleSets() ([]*rules.RuleSet, []core.ValidationIssue, error)
}
