package match

import (
	"context"
	"fmt"
	"time"

	"supplymatch/domain/core"
	"supplymatch/domain/matching"
	"supplymatch/ports"
)

// GenerativeLayer scores pairs through an external generative service.
// The layer must never be constructed without a provider: the pipeline
// simply omits it when no credentials are configured, and callers fall
// back to human review.
type GenerativeLayer struct {
	provider      ports.GenerativeProvider
	domainContext string
}

// NewGenerative creates a generative layer for a domain context string
// passed through to the provider with every pair.
func NewGenerative(provider ports.GenerativeProvider, domainContext string) *GenerativeLayer {
	return &GenerativeLayer{provider: provider, domainContext: domainContext}
}

func (l *GenerativeLayer) Name() matching.Layer {
	return matching.LayerGenerative
}

func (l *GenerativeLayer) Score(ctx context.Context, requirement, capability string) (matching.Result, error) {
	if l.provider == nil {
		return matching.Result{}, core.ErrLayerUnavailable
	}

	start := time.Now()
	verdict, err := l.provider.Analyze(ctx, requirement, capability, l.domainContext)
	if err != nil {
		return matching.Result{}, fmt.Errorf("generative provider: %w", err)
	}
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		return matching.Result{}, fmt.Errorf("generative provider returned confidence %f outside [0,1]", verdict.Confidence)
	}

	res := matching.Result{
		Requirement: requirement,
		Capability:  capability,
		Layer:       matching.LayerGenerative,
		Matched:     verdict.Matched,
		Confidence:  verdict.Confidence,
		Quality:     matching.QualityNoMatch,
		Reasoning:   verdict.Reasoning,
		Duration:    time.Since(start),
		Timestamp:   core.Now(),
	}
	if verdict.Matched {
		res.Quality = matching.QualitySemanticMatch
	}
	return res, nil
}
