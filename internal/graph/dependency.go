package graph

import (
	"sort"

	"supplymatch/domain/core"
	"supplymatch/domain/supply"
)

// Graph is a directed dependency graph over tree nodes. Edges point from
// dependency to dependent: an edge u -> v means u must be produced before
// v. Nodes are referenced by id into the owning solution; the graph never
// copies or mutates node identity.
type Graph struct {
	nodes    []core.NodeID
	edges    map[core.NodeID][]core.NodeID
	indegree map[core.NodeID]int
}

// Build constructs the dependency graph for a node set. Every id a node
// references (children it is assembled from, explicit depends-on entries)
// becomes a dependency of that node. References to ids absent from the
// node set are dropped silently. A cycle fails construction with a
// CycleError naming the offending nodes; cycles are never silently
// resolved. A node that lists its own id is the shortest cycle and is
// rejected the same way.
func Build(nodes []supply.TreeNode) (*Graph, error) {
	exists := make(map[core.NodeID]bool, len(nodes))
	for _, n := range nodes {
		exists[n.ID] = true
	}

	g := &Graph{
		nodes:    make([]core.NodeID, 0, len(nodes)),
		edges:    make(map[core.NodeID][]core.NodeID, len(nodes)),
		indegree: make(map[core.NodeID]int, len(nodes)),
	}
	for _, n := range nodes {
		g.nodes = append(g.nodes, n.ID)
		g.indegree[n.ID] = 0
	}

	selfRefs := make(map[core.NodeID]bool)
	seen := make(map[[2]core.NodeID]bool)
	addEdge := func(dep, dependent core.NodeID) {
		if !exists[dep] || !exists[dependent] {
			return
		}
		if dep == dependent {
			selfRefs[dep] = true
			return
		}
		key := [2]core.NodeID{dep, dependent}
		if seen[key] {
			return
		}
		seen[key] = true
		g.edges[dep] = append(g.edges[dep], dependent)
		g.indegree[dependent]++
	}

	for _, n := range nodes {
		for _, child := range n.Children {
			addEdge(child, n.ID)
		}
		for _, dep := range n.DependsOn {
			addEdge(dep, n.ID)
		}
	}

	for id := range g.edges {
		deps := g.edges[id]
		sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
	}

	if len(selfRefs) > 0 {
		ids := make([]core.NodeID, 0, len(selfRefs))
		for id := range selfRefs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return nil, &core.CycleError{Nodes: ids}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &core.CycleError{Nodes: cycle}
	}
	return g, nil
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dependents returns the ids that directly depend on the given id.
func (g *Graph) Dependents(id core.NodeID) []core.NodeID {
	return g.edges[id]
}

// findCycle runs a three-color depth-first search and returns the node
// ids of the first cycle found, or nil for an acyclic graph.
func (g *Graph) findCycle() []core.NodeID {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	color := make(map[core.NodeID]int, len(g.nodes))
	var stack []core.NodeID

	var visit func(id core.NodeID) []core.NodeID
	visit = func(id core.NodeID) []core.NodeID {
		color[id] = gray
		stack = append(stack, id)

		for _, next := range g.edges[id] {
			switch color[next] {
			case gray:
				// Found a back edge: report the path from the first
				// occurrence of next, closing the loop.
				for i, n := range stack {
					if n == next {
						cycle := append([]core.NodeID{}, stack[i:]...)
						return append(cycle, next)
					}
				}
			case white:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	ordered := append([]core.NodeID{}, g.nodes...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	for _, id := range ordered {
		if color[id] == white {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
