package match

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"supplymatch/domain/matching"
	"supplymatch/internal"
)

// Pipeline applies the configured layers to a requirements x capabilities
// cross-product and merges per-pair results: highest confidence wins, ties
// break on layer priority (direct > heuristic > semantic > generative).
//
// Scoring is fanned out across a bounded worker pool; the flattened result
// list stays requirement-major/capability-minor regardless of completion
// order, so output is deterministic.
type Pipeline struct {
	layers  []MatchLayer
	workers int
	logger  *internal.Logger
}

// NewPipeline creates a pipeline over the given layers. A non-positive
// worker count defaults to GOMAXPROCS.
func NewPipeline(layers []MatchLayer, workers int, logger *internal.Logger) *Pipeline {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Pipeline{
		layers:  layers,
		workers: workers,
		logger:  logger.Named("pipeline"),
	}
}

// Layers returns the names of the configured layers in application order.
func (p *Pipeline) Layers() []matching.Layer {
	out := make([]matching.Layer, len(p.layers))
	for i, l := range p.layers {
		out[i] = l.Name()
	}
	return out
}

// ScoreAll scores every (requirement, capability) pair and returns one
// merged result per pair in requirement-major order. Layer errors skip
// that layer for that pair; they never fail the call. The only returned
// error is context cancellation.
func (p *Pipeline) ScoreAll(ctx context.Context, requirements, capabilities []string) ([]matching.Result, error) {
	results := make([]matching.Result, len(requirements)*len(capabilities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, req := range requirements {
		for j, cap := range capabilities {
			idx := i*len(capabilities) + j
			req, cap := req, cap
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[idx] = p.scorePair(gctx, req, cap)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// scorePair runs every layer on one pair and keeps the winning result.
func (p *Pipeline) scorePair(ctx context.Context, requirement, capability string) matching.Result {
	best := matching.Result{
		Requirement: requirement,
		Capability:  capability,
		Quality:     matching.QualityNoMatch,
	}
	scored := false

	for _, layer := range p.layers {
		res, err := layer.Score(ctx, requirement, capability)
		if err != nil {
			p.logger.Debug("layer %s skipped for (%q, %q): %v", layer.Name(), requirement, capability, err)
			continue
		}
		if !scored || res.Beats(best) {
			best = res
			scored = true
		}
	}
	return best
}
