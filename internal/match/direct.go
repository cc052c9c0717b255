package match

import (
	"context"
	"strings"
	"time"
	"unicode"

	"supplymatch/domain/core"
	"supplymatch/domain/matching"
)

// DefaultNearMissThreshold is the edit distance at or under which a
// non-match is flagged as a near miss.
const DefaultNearMissThreshold = 2

// DirectLayer scores pairs by lexical comparison: exact and
// case/whitespace-insensitive equality first, then edit distance for
// near-miss detection. It is pure and never returns an error.
type DirectLayer struct {
	nearMissThreshold int
}

// NewDirect creates a direct layer. A non-positive threshold falls back
// to DefaultNearMissThreshold.
func NewDirect(nearMissThreshold int) *DirectLayer {
	if nearMissThreshold <= 0 {
		nearMissThreshold = DefaultNearMissThreshold
	}
	return &DirectLayer{nearMissThreshold: nearMissThreshold}
}

func (l *DirectLayer) Name() matching.Layer {
	return matching.LayerDirect
}

func (l *DirectLayer) Score(_ context.Context, requirement, capability string) (matching.Result, error) {
	start := time.Now()
	res := matching.Result{
		Requirement: requirement,
		Capability:  capability,
		Layer:       matching.LayerDirect,
	}

	lowerReq := strings.ToLower(requirement)
	lowerCap := strings.ToLower(capability)

	switch {
	case requirement == capability:
		res.Matched = true
		res.Confidence = matching.ConfidencePerfect
		res.Quality = matching.QualityPerfect

	case lowerReq == lowerCap:
		// Same characters, different case only.
		res.Matched = true
		res.Confidence = matching.ConfidenceCaseDiff
		res.Quality = matching.QualityCaseDiff
		res.CaseDifference = true

	case whitespaceOnlyDiff(requirement, capability):
		res.Matched = true
		res.Confidence = matching.ConfidenceWhitespaceDiff
		res.Quality = matching.QualityWhitespaceDiff
		res.WhitespaceDifference = true

	case whitespaceOnlyDiff(lowerReq, lowerCap):
		// Case and whitespace both differ.
		res.Matched = true
		res.Confidence = matching.ConfidenceBothDiff
		res.Quality = matching.QualityCaseDiff
		res.CaseDifference = true
		res.WhitespaceDifference = true

	default:
		dist := Levenshtein(lowerReq, lowerCap)
		res.CharDifference = dist
		if dist <= l.nearMissThreshold {
			res.Confidence = matching.ConfidenceNearMiss
			res.Quality = matching.QualityNearMiss
		} else {
			res.Quality = matching.QualityNoMatch
		}
	}

	res.Duration = time.Since(start)
	res.Timestamp = core.Now()
	return res, nil
}

// whitespaceOnlyDiff reports whether two strings differ only in
// whitespace: removing all whitespace makes them equal, collapsing
// repeated whitespace and trimming also makes them equal, and the raw
// strings differ.
func whitespaceOnlyDiff(a, b string) bool {
	if a == b {
		return false
	}
	if stripWhitespace(a) != stripWhitespace(b) {
		return false
	}
	return collapseWhitespace(a) == collapseWhitespace(b)
}

func stripWhitespace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
