package supply

import (
	"github.com/montanaflynn/stats"
)

// ConfidenceSummary aggregates node confidences for reporting.
type ConfidenceSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ConfidenceSummary computes aggregate confidence statistics over the
// solution's nodes. An empty solution yields a zero summary.
func (s *Solution) ConfidenceSummary() ConfidenceSummary {
	if len(s.Nodes) == 0 {
		return ConfidenceSummary{}
	}

	values := make(stats.Float64Data, len(s.Nodes))
	for i, n := range s.Nodes {
		values[i] = n.Confidence
	}

	// These only fail on empty input, which is handled above.
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)

	return ConfidenceSummary{
		Count:  len(values),
		Mean:   mean,
		Median: median,
		Min:    min,
		Max:    max,
	}
}
