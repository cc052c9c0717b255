package match

import (
	"context"
	"errors"
	"testing"

	"supplymatch/domain/core"
	"supplymatch/domain/matching"
	"supplymatch/ports"
)

type fakeGenerative struct {
	verdict ports.GenerativeAssessment
	err     error
}

func (f fakeGenerative) Analyze(_ context.Context, _, _, _ string) (ports.GenerativeAssessment, error) {
	return f.verdict, f.err
}

func TestGenerativeLayerVerdict(t *testing.T) {
	layer := NewGenerative(fakeGenerative{verdict: ports.GenerativeAssessment{
		Matched:    true,
		Confidence: 0.85,
		Reasoning:  "a food processor can knead dough",
	}}, "cooking")

	res, err := layer.Score(context.Background(), "kneading", "food processor")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if !res.Matched || res.Confidence != 0.85 {
		t.Errorf("Expected matched verdict at 0.85, got %+v", res)
	}
	if res.Reasoning == "" {
		t.Error("Expected reasoning to be carried through")
	}
	if res.Layer != matching.LayerGenerative {
		t.Errorf("Expected generative layer tag, got %s", res.Layer)
	}
}

func TestGenerativeLayerUnconfigured(t *testing.T) {
	layer := NewGenerative(nil, "cooking")
	if _, err := layer.Score(context.Background(), "a", "b"); !errors.Is(err, core.ErrLayerUnavailable) {
		t.Errorf("Expected ErrLayerUnavailable, got %v", err)
	}
}

func TestGenerativeLayerRejectsBadConfidence(t *testing.T) {
	layer := NewGenerative(fakeGenerative{verdict: ports.GenerativeAssessment{Matched: true, Confidence: 1.2}}, "")
	if _, err := layer.Score(context.Background(), "a", "b"); err == nil {
		t.Error("Expected out-of-range confidence to be rejected")
	}
}
