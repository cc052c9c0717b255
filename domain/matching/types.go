package matching

import (
	"time"

	"supplymatch/domain/core"
)

// Layer identifies which scorer produced a match result.
type Layer string

const (
	LayerDirect     Layer = "direct"
	LayerHeuristic  Layer = "heuristic"
	LayerSemantic   Layer = "semantic"
	LayerGenerative Layer = "generative"
)

// Priority orders layers for confidence tie-breaking: a manually curated
// rule displaces an automatic string match of equal confidence, and both
// displace model output.
func (l Layer) Priority() int {
	switch l {
	case LayerDirect:
		return 4
	case LayerHeuristic:
		return 3
	case LayerSemantic:
		return 2
	case LayerGenerative:
		return 1
	default:
		return 0
	}
}

// Quality classifies how a pair matched. Closed enumeration.
type Quality string

const (
	QualityPerfect        Quality = "perfect"
	QualityCaseDiff       Quality = "case_diff"
	QualityWhitespaceDiff Quality = "whitespace_diff"
	QualityNearMiss       Quality = "near_miss"
	QualityRuleMatch      Quality = "rule_match"
	QualitySemanticMatch  Quality = "semantic_match"
	QualityNoMatch        Quality = "no_match"
)

// Confidence constants for the direct layer.
const (
	ConfidencePerfect        = 1.0
	ConfidenceCaseDiff       = 0.95
	ConfidenceWhitespaceDiff = 0.95
	ConfidenceBothDiff       = 0.9
	ConfidenceNearMiss       = 0.8
)

// Result pairs one requirement with one capability and records how the
// pair scored, with enough metadata to explain the verdict.
type Result struct {
	Requirement          string         `json:"requirement"`
	Capability           string         `json:"capability"`
	Matched              bool           `json:"matched"`
	Confidence           float64        `json:"confidence"`
	Layer                Layer          `json:"layer"`
	Quality              Quality        `json:"quality"`
	CharDifference       int            `json:"char_difference,omitempty"`
	CaseDifference       bool           `json:"case_difference,omitempty"`
	WhitespaceDifference bool           `json:"whitespace_difference,omitempty"`
	RuleID               core.RuleID    `json:"rule_id,omitempty"`
	Reasoning            string         `json:"reasoning,omitempty"`
	Duration             time.Duration  `json:"duration_ns"`
	Timestamp            core.Timestamp `json:"timestamp"`
}

// Beats reports whether r should displace other when merging per-pair
// results across layers: highest confidence wins, equal confidence falls
// back to layer priority.
func (r Result) Beats(other Result) bool {
	if r.Confidence != other.Confidence {
		return r.Confidence > other.Confidence
	}
	return r.Layer.Priority() > other.Layer.Priority()
}
