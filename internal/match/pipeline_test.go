package match

import (
	"context"
	"errors"
	"testing"

	"supplymatch/domain/core"
	"supplymatch/domain/matching"
	"supplymatch/domain/rules"
	"supplymatch/internal"
	"supplymatch/internal/registry"
)

func seededRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New(internal.NewLogger(internal.LogLevelError))
	rule, err := rules.NewCapabilityRule("cnc", "cnc machining", []string{"milling", "machining", "material removal"}, 0.9, "manufacturing", rules.DirectionBidirectional, nil)
	if err != nil {
		t.Fatalf("Failed to build rule: %v", err)
	}
	if err := r.Create("manufacturing", rule); err != nil {
		t.Fatalf("Failed to seed registry: %v", err)
	}
	return r
}

func TestHeuristicLayer(t *testing.T) {
	layer := NewHeuristic(seededRegistry(t), "manufacturing")

	res, err := layer.Score(context.Background(), "milling", "cnc machining")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if !res.Matched || res.Confidence != 0.9 {
		t.Errorf("Expected rule match at 0.9, got matched=%v confidence=%f", res.Matched, res.Confidence)
	}
	if res.Quality != matching.QualityRuleMatch {
		t.Errorf("Expected rule_match quality, got %s", res.Quality)
	}
	if res.RuleID != "cnc" {
		t.Errorf("Expected winning rule id recorded, got %q", res.RuleID)
	}

	res, _ = layer.Score(context.Background(), "welding", "cnc machining")
	if res.Matched || res.Confidence != 0 || res.Quality != matching.QualityNoMatch {
		t.Errorf("Expected no_match for uncovered requirement, got %+v", res)
	}
}

type fakeSemantic struct {
	score float64
	err   error
}

func (f fakeSemantic) Similarity(_ context.Context, _, _ string) (float64, error) {
	return f.score, f.err
}

func TestSemanticLayerThreshold(t *testing.T) {
	layer := NewSemantic(fakeSemantic{score: 0.8}, 0.75)
	res, err := layer.Score(context.Background(), "milling", "cnc machining")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if !res.Matched || res.Quality != matching.QualitySemanticMatch {
		t.Errorf("Expected semantic match at 0.8 >= 0.75, got %+v", res)
	}

	layer = NewSemantic(fakeSemantic{score: 0.5}, 0.75)
	res, _ = layer.Score(context.Background(), "milling", "cnc machining")
	if res.Matched || res.Confidence != 0.5 {
		t.Errorf("Expected unmatched below threshold with raw score kept, got %+v", res)
	}
}

func TestSemanticLayerErrors(t *testing.T) {
	layer := NewSemantic(fakeSemantic{err: errors.New("model offline")}, 0.75)
	if _, err := layer.Score(context.Background(), "a", "b"); err == nil {
		t.Error("Expected provider error to surface as layer skip")
	}

	layer = NewSemantic(nil, 0.75)
	if _, err := layer.Score(context.Background(), "a", "b"); !errors.Is(err, core.ErrLayerUnavailable) {
		t.Errorf("Expected ErrLayerUnavailable for nil provider, got %v", err)
	}

	layer = NewSemantic(fakeSemantic{score: 1.5}, 0.75)
	if _, err := layer.Score(context.Background(), "a", "b"); err == nil {
		t.Error("Expected out-of-range similarity to be rejected")
	}
}

func TestPipelineOrderingIsRequirementMajor(t *testing.T) {
	p := NewPipeline([]MatchLayer{NewDirect(2)}, 4, internal.NewLogger(internal.LogLevelError))

	reqs := []string{"r1", "r2"}
	caps := []string{"c1", "c2", "c3"}
	results, err := p.ScoreAll(context.Background(), reqs, caps)
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("Expected 6 results, got %d", len(results))
	}
	k := 0
	for _, req := range reqs {
		for _, cap := range caps {
			if results[k].Requirement != req || results[k].Capability != cap {
				t.Errorf("Position %d: expected (%s, %s), got (%s, %s)", k, req, cap, results[k].Requirement, results[k].Capability)
			}
			k++
		}
	}
}

func TestPipelineMergesHighestConfidence(t *testing.T) {
	// "milling" vs "cnc machining": direct is a no_match at 0.0 but the
	// curated rule matches at 0.9, so the heuristic result wins.
	p := NewPipeline([]MatchLayer{
		NewDirect(2),
		NewHeuristic(seededRegistry(t), "manufacturing"),
	}, 2, internal.NewLogger(internal.LogLevelError))

	results, err := p.ScoreAll(context.Background(), []string{"milling"}, []string{"cnc machining"})
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}
	res := results[0]
	if res.Layer != matching.LayerHeuristic || !res.Matched || res.Confidence != 0.9 {
		t.Errorf("Expected heuristic win, got %+v", res)
	}

	// "machining" vs "cnc machining" is lexically distant but covered by
	// the same rule.
	results, err = p.ScoreAll(context.Background(), []string{"machining"}, []string{"cnc machining"})
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}
	if results[0].Layer != matching.LayerHeuristic {
		t.Errorf("Expected rule to win over lexical no-match, got %s", results[0].Layer)
	}
}

func TestPipelineEqualConfidenceTieBreak(t *testing.T) {
	// Direct near-miss at 0.8 vs semantic 0.8: direct has priority.
	p := NewPipeline([]MatchLayer{
		NewSemantic(fakeSemantic{score: 0.8}, 0.75),
		NewDirect(2),
	}, 1, internal.NewLogger(internal.LogLevelError))

	results, err := p.ScoreAll(context.Background(), []string{"flour"}, []string{"flor"})
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}
	if results[0].Layer != matching.LayerDirect {
		t.Errorf("Expected direct to win the 0.8 tie, got %s", results[0].Layer)
	}
	if results[0].Matched {
		t.Error("Direct near-miss should remain unmatched")
	}
}

func TestPipelineSkipsFailedLayers(t *testing.T) {
	p := NewPipeline([]MatchLayer{
		NewSemantic(fakeSemantic{err: errors.New("timeout")}, 0.75),
		NewDirect(2),
	}, 2, internal.NewLogger(internal.LogLevelError))

	results, err := p.ScoreAll(context.Background(), []string{"flour"}, []string{"flour"})
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}
	if results[0].Quality != matching.QualityPerfect {
		t.Errorf("Expected direct result despite semantic failure, got %+v", results[0])
	}
}

func TestPipelineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline([]MatchLayer{NewDirect(2)}, 2, internal.NewLogger(internal.LogLevelError))
	if _, err := p.ScoreAll(ctx, []string{"a"}, []string{"b"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestScoreAllHelperCrossProduct(t *testing.T) {
	results := ScoreAll(context.Background(), NewDirect(2), []string{"a", "b"}, []string{"x"})
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Requirement != "a" || results[1].Requirement != "b" {
		t.Error("Expected requirement-major order")
	}
}
