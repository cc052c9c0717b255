package supply

import (
	"math"
	"testing"

	"supplymatch/domain/core"
)

func TestGroupKeyPrecedence(t *testing.T) {
	n := TreeNode{ID: "n1", ComponentID: "c1", ComponentName: "frame"}
	if n.GroupKey() != "c1" {
		t.Errorf("Expected component id to win, got %q", n.GroupKey())
	}

	n.ComponentID = ""
	if n.GroupKey() != "frame" {
		t.Errorf("Expected component name fallback, got %q", n.GroupKey())
	}

	n.ComponentName = ""
	if n.GroupKey() != "n1" {
		t.Errorf("Expected node id fallback, got %q", n.GroupKey())
	}
}

func TestSolutionIndexAndLookup(t *testing.T) {
	sol := NewSolution([]TreeNode{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	if sol.ID == "" {
		t.Error("NewSolution should assign an id")
	}
	if sol.CreatedAt.IsZero() {
		t.Error("NewSolution should stamp creation time")
	}

	idx := sol.Index()
	if idx["b"] != 1 {
		t.Errorf("Expected node b at position 1, got %d", idx["b"])
	}

	if _, ok := sol.Node("missing"); ok {
		t.Error("Expected lookup miss for unknown node id")
	}
	n, ok := sol.Node("c")
	if !ok || n.ID != core.NodeID("c") {
		t.Errorf("Expected to find node c, got %v ok=%v", n, ok)
	}
}

func TestConfidenceSummary(t *testing.T) {
	sol := NewSolution([]TreeNode{
		{ID: "a", Confidence: 0.5},
		{ID: "b", Confidence: 1.0},
		{ID: "c", Confidence: 0.9},
	})

	sum := sol.ConfidenceSummary()
	if sum.Count != 3 {
		t.Errorf("Expected count 3, got %d", sum.Count)
	}
	if math.Abs(sum.Mean-0.8) > 1e-9 {
		t.Errorf("Expected mean 0.8, got %f", sum.Mean)
	}
	if sum.Median != 0.9 {
		t.Errorf("Expected median 0.9, got %f", sum.Median)
	}
	if sum.Min != 0.5 || sum.Max != 1.0 {
		t.Errorf("Expected min 0.5 max 1.0, got %f/%f", sum.Min, sum.Max)
	}
}

func TestConfidenceSummaryEmptySolution(t *testing.T) {
	sol := NewSolution(nil)
	sum := sol.ConfidenceSummary()
	if sum != (ConfidenceSummary{}) {
		t.Errorf("Expected zero summary for empty solution, got %+v", sum)
	}
}
