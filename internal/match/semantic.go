package match

import (
	"context"
	"fmt"
	"time"

	"supplymatch/domain/core"
	"supplymatch/domain/matching"
	"supplymatch/ports"
)

// DefaultSemanticThreshold is the similarity score at or above which a
// semantic comparison counts as a match.
const DefaultSemanticThreshold = 0.75

// SemanticLayer scores pairs through a pluggable similarity provider.
// The provider is the only suspension point; it is invoked with the
// caller's context and a provider failure or cancellation yields "no
// result for this layer", never a pipeline failure.
type SemanticLayer struct {
	provider  ports.SemanticProvider
	threshold float64
}

// NewSemantic creates a semantic layer. A non-positive threshold falls
// back to DefaultSemanticThreshold.
func NewSemantic(provider ports.SemanticProvider, threshold float64) *SemanticLayer {
	if threshold <= 0 {
		threshold = DefaultSemanticThreshold
	}
	return &SemanticLayer{provider: provider, threshold: threshold}
}

func (l *SemanticLayer) Name() matching.Layer {
	return matching.LayerSemantic
}

func (l *SemanticLayer) Score(ctx context.Context, requirement, capability string) (matching.Result, error) {
	if l.provider == nil {
		return matching.Result{}, core.ErrLayerUnavailable
	}

	start := time.Now()
	score, err := l.provider.Similarity(ctx, requirement, capability)
	if err != nil {
		return matching.Result{}, fmt.Errorf("semantic provider: %w", err)
	}
	if score < 0 || score > 1 {
		return matching.Result{}, fmt.Errorf("semantic provider returned similarity %f outside [0,1]", score)
	}

	res := matching.Result{
		Requirement: requirement,
		Capability:  capability,
		Layer:       matching.LayerSemantic,
		Confidence:  score,
		Quality:     matching.QualityNoMatch,
		Duration:    time.Since(start),
		Timestamp:   core.Now(),
	}
	if score >= l.threshold {
		res.Matched = true
		res.Quality = matching.QualitySemanticMatch
	}
	return res, nil
}
