package graph

import (
	"sort"

	"supplymatch/domain/core"
)

// Schedule computes a stage-parallelized production sequence via Kahn's
// algorithm: each stage collects every node with zero remaining
// unscheduled dependencies, so all nodes within one stage are mutually
// independent and may be produced in parallel, and stage order enforces
// every dependency constraint.
//
// A graph with no edges yields a single stage containing every node. If
// nodes remain but no stage can be formed, a residual cycle slipped past
// construction and a CycleError is returned; a partial schedule is never
// returned.
func Schedule(g *Graph) ([][]core.NodeID, error) {
	remaining := make(map[core.NodeID]int, len(g.nodes))
	for _, id := range g.nodes {
		remaining[id] = g.indegree[id]
	}

	var stages [][]core.NodeID
	scheduled := 0

	for scheduled < len(g.nodes) {
		var stage []core.NodeID
		for _, id := range g.nodes {
			if deg, ok := remaining[id]; ok && deg == 0 {
				stage = append(stage, id)
			}
		}
		if len(stage) == 0 {
			leftover := make([]core.NodeID, 0, len(remaining))
			for id := range remaining {
				leftover = append(leftover, id)
			}
			sort.Slice(leftover, func(i, j int) bool { return leftover[i] < leftover[j] })
			return nil, &core.CycleError{Nodes: leftover}
		}

		sort.Slice(stage, func(i, j int) bool { return stage[i] < stage[j] })
		for _, id := range stage {
			delete(remaining, id)
			for _, dependent := range g.edges[id] {
				if _, ok := remaining[dependent]; ok {
					remaining[dependent]--
				}
			}
		}

		stages = append(stages, stage)
		scheduled += len(stage)
	}

	return stages, nil
}
