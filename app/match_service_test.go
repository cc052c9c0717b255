package app

import (
	"context"
	"testing"

	"supplymatch/domain/core"
	"supplymatch/domain/matching"
	"supplymatch/domain/rules"
	"supplymatch/internal"
	"supplymatch/internal/registry"
)

func testLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func seededRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(testLogger())
	rule, err := rules.NewCapabilityRule("butter-sub", "margarine", []string{"butter"}, 0.7, "bakery", rules.DirectionBidirectional, nil)
	if err != nil {
		t.Fatalf("Failed to build rule: %v", err)
	}
	if err := reg.Create("bakery", rule); err != nil {
		t.Fatalf("Failed to seed registry: %v", err)
	}
	return reg
}

type stubSemantic struct {
	score float64
}

func (s stubSemantic) Similarity(ctx context.Context, a, b string) (float64, error) {
	return s.score, nil
}

func TestRunDirectOnly(t *testing.T) {
	svc := NewMatchService(seededRegistry(t), stubSemantic{score: 0.99}, nil, MatchServiceConfig{}, testLogger())

	run, err := svc.Run(context.Background(), MatchRequest{
		Domain:       "bakery",
		Requirements: []string{"flour"},
		Capabilities: []string{"Flour"},
		DirectOnly:   true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(run.Layers) != 1 || run.Layers[0] != matching.LayerDirect {
		t.Errorf("Expected only the direct layer, got %v", run.Layers)
	}
	if run.Mode != "direct" {
		t.Errorf("Expected direct mode, got %s", run.Mode)
	}
	if len(run.Results) != 1 || !run.Results[0].Matched || run.Results[0].Quality != matching.QualityCaseDiff {
		t.Errorf("Unexpected result: %+v", run.Results)
	}
}

func TestRunUsesRules(t *testing.T) {
	svc := NewMatchService(seededRegistry(t), nil, nil, MatchServiceConfig{}, testLogger())

	run, err := svc.Run(context.Background(), MatchRequest{
		Domain:       "bakery",
		Requirements: []string{"butter"},
		Capabilities: []string{"margarine"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	res := run.Results[0]
	if !res.Matched || res.Layer != matching.LayerHeuristic || res.RuleID != "butter-sub" {
		t.Errorf("Expected rule match, got %+v", res)
	}
	if res.Confidence != 0.7 {
		t.Errorf("Expected rule confidence 0.7, got %f", res.Confidence)
	}
}

func TestRunSkipsUnconfiguredLayers(t *testing.T) {
	svc := NewMatchService(seededRegistry(t), nil, nil, MatchServiceConfig{}, testLogger())

	run, err := svc.Run(context.Background(), MatchRequest{
		Domain:       "bakery",
		Requirements: []string{"flour"},
		Capabilities: []string{"flour"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, layer := range run.Layers {
		if layer == matching.LayerSemantic || layer == matching.LayerGenerative {
			t.Errorf("Unexpected layer %s without a provider", layer)
		}
	}
}

func TestRunSemanticLayer(t *testing.T) {
	svc := NewMatchService(seededRegistry(t), stubSemantic{score: 0.9}, nil, MatchServiceConfig{}, testLogger())

	run, err := svc.Run(context.Background(), MatchRequest{
		Domain:       "bakery",
		Requirements: []string{"whole wheat flour"},
		Capabilities: []string{"graham flour"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	res := run.Results[0]
	if !res.Matched || res.Layer != matching.LayerSemantic || res.Confidence != 0.9 {
		t.Errorf("Expected semantic match, got %+v", res)
	}
}

func TestRunRequiresInput(t *testing.T) {
	svc := NewMatchService(nil, nil, nil, MatchServiceConfig{}, testLogger())

	if _, err := svc.Run(context.Background(), MatchRequest{Capabilities: []string{"flour"}}); err == nil {
		t.Error("Expected error without requirements")
	}
	if _, err := svc.Run(context.Background(), MatchRequest{Requirements: []string{"flour"}}); err == nil {
		t.Error("Expected error without capabilities")
	}
}

func TestRunDefaultsDomain(t *testing.T) {
	svc := NewMatchService(nil, nil, nil, MatchServiceConfig{}, testLogger())

	run, err := svc.Run(context.Background(), MatchRequest{
		Requirements: []string{"flour"},
		Capabilities: []string{"flour"},
		DirectOnly:   true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if run.Domain != core.DomainGeneral {
		t.Errorf("Expected general domain fallback, got %s", run.Domain)
	}
}
