package match

import (
	"context"

	"supplymatch/domain/matching"
)

// MatchLayer scores one requirement/capability pair. The four concrete
// layers (direct, heuristic, semantic, generative) all sit behind this
// interface; the pipeline holds a list of layers and never switches on
// concrete type.
//
// A returned error means "no result from this layer for this pair" (for
// example a canceled semantic provider); it never fails the pipeline.
type MatchLayer interface {
	Name() matching.Layer
	Score(ctx context.Context, requirement, capability string) (matching.Result, error)
}

// ScoreAll applies one layer to the full requirements x capabilities
// cross-product in requirement-major, capability-minor order. Pairs whose
// layer returns an error are omitted.
func ScoreAll(ctx context.Context, layer MatchLayer, requirements, capabilities []string) []matching.Result {
	results := make([]matching.Result, 0, len(requirements)*len(capabilities))
	for _, req := range requirements {
		for _, cap := range capabilities {
			res, err := layer.Score(ctx, req, cap)
			if err != nil {
				continue
			}
			results = append(results, res)
		}
	}
	return results
}
