package graph

import (
	"sort"

	"supplymatch/domain/core"
	"supplymatch/domain/supply"
)

// ComponentNode is one entry in the component hierarchy: a tree node with
// its recursively discovered children.
type ComponentNode struct {
	Node     supply.TreeNode  `json:"node"`
	Key      string           `json:"key"`
	Children []*ComponentNode `json:"children,omitempty"`
}

// Hierarchy is the rooted forest a solution's nodes form under their
// parent/child links, plus the ids that had to be cut to keep traversal
// finite.
type Hierarchy struct {
	Roots []*ComponentNode `json:"roots"`
	// Flagged lists nodes whose parent chain loops back on itself; they
	// are reported instead of recursed into.
	Flagged []core.NodeID `json:"flagged,omitempty"`
}

// BuildHierarchy groups a solution's nodes into a component parent/child
// forest. This is a pure read-only traversal: a node is a root if it has
// no parent id or its parent id is absent from the solution (a dangling
// parent makes the node effectively a root, never an error), and children
// are discovered by scanning for nodes whose parent id equals the current
// node's id. Nodes already on the current path are flagged, not revisited,
// so self-referential data terminates.
func BuildHierarchy(sol *supply.Solution) *Hierarchy {
	exists := make(map[core.NodeID]bool, len(sol.Nodes))
	childrenOf := make(map[core.NodeID][]supply.TreeNode)
	for _, n := range sol.Nodes {
		exists[n.ID] = true
	}
	for _, n := range sol.Nodes {
		if n.ParentID != "" && exists[n.ParentID] && n.ParentID != n.ID {
			childrenOf[n.ParentID] = append(childrenOf[n.ParentID], n)
		}
	}
	for id := range childrenOf {
		kids := childrenOf[id]
		sort.Slice(kids, func(i, j int) bool { return kids[i].ID < kids[j].ID })
	}

	h := &Hierarchy{}
	onPath := make(map[core.NodeID]bool)
	placed := make(map[core.NodeID]bool, len(sol.Nodes))

	var build func(n supply.TreeNode) *ComponentNode
	build = func(n supply.TreeNode) *ComponentNode {
		node := &ComponentNode{Node: n, Key: n.GroupKey()}
		onPath[n.ID] = true
		placed[n.ID] = true
		for _, child := range childrenOf[n.ID] {
			if onPath[child.ID] {
				h.Flagged = append(h.Flagged, child.ID)
				continue
			}
			node.Children = append(node.Children, build(child))
		}
		delete(onPath, n.ID)
		return node
	}

	for _, n := range sol.Nodes {
		isRoot := n.ParentID == "" || !exists[n.ParentID] || n.ParentID == n.ID
		if n.ParentID == n.ID {
			// A node that names itself as parent is both a root and a
			// reportable data defect.
			h.Flagged = append(h.Flagged, n.ID)
		}
		if isRoot {
			h.Roots = append(h.Roots, build(n))
		}
	}
	// Nodes in a mutual-parent loop are reachable from no root; report
	// them rather than dropping them silently.
	for _, n := range sol.Nodes {
		if !placed[n.ID] {
			h.Flagged = append(h.Flagged, n.ID)
		}
	}

	sort.Slice(h.Roots, func(i, j int) bool { return h.Roots[i].Node.ID < h.Roots[j].Node.ID })
	return h
}

// Groups buckets every node in the hierarchy by component identity
// (component id, else component name, else node id) for aggregation.
func (h *Hierarchy) Groups() map[string][]core.NodeID {
	groups := make(map[string][]core.NodeID)
	var walk func(n *ComponentNode)
	walk = func(n *ComponentNode) {
		groups[n.Key] = append(groups[n.Key], n.Node.ID)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range h.Roots {
		walk(r)
	}
	for key := range groups {
		ids := groups[key]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return groups
}
