package supply

import (
	"supplymatch/domain/core"
)

// TreeNode is one matched production step: a requirement/component/facility
// combination with optional parent/child/dependency links. Links are stored
// by id, never by reference; resolving them is the graph layer's job, so a
// dangling id is a data condition, not a crash.
type TreeNode struct {
	ID            core.NodeID      `json:"id"`
	ComponentID   core.ComponentID `json:"component_id,omitempty"`
	ComponentName string           `json:"component_name,omitempty"`
	FacilityID    core.FacilityID  `json:"facility_id,omitempty"`
	Requirement   string           `json:"requirement,omitempty"`
	Capability    string           `json:"capability,omitempty"`
	Confidence    float64          `json:"confidence"`
	Depth         int              `json:"depth"`
	Stage         string           `json:"stage,omitempty"`
	ParentID      core.NodeID      `json:"parent_id,omitempty"`
	Children      []core.NodeID    `json:"children,omitempty"`
	DependsOn     []core.NodeID    `json:"depends_on,omitempty"`
}

// GroupKey returns the component identity used for hierarchical grouping:
// component id if present, else component name, else the node id.
func (n TreeNode) GroupKey() string {
	if n.ComponentID != "" {
		return n.ComponentID.String()
	}
	if n.ComponentName != "" {
		return n.ComponentName
	}
	return n.ID.String()
}

// Solution is a persisted bundle of tree nodes representing one complete
// matching run. The solution owns its nodes; graph and hierarchy builders
// hold only id references into it.
type Solution struct {
	ID        core.SolutionID `json:"id"`
	Nodes     []TreeNode      `json:"nodes"`
	CreatedAt core.Timestamp  `json:"created_at"`
	ExpiresAt *core.Timestamp `json:"expires_at,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	MatchMode string          `json:"match_mode,omitempty"`
}

// NewSolution creates a solution over the given nodes, stamped now.
func NewSolution(nodes []TreeNode) *Solution {
	return &Solution{
		ID:        core.SolutionID(core.NewID()),
		Nodes:     nodes,
		CreatedAt: core.Now(),
	}
}

// Index returns a lookup from node id to the node's position in Nodes.
func (s *Solution) Index() map[core.NodeID]int {
	idx := make(map[core.NodeID]int, len(s.Nodes))
	for i, n := range s.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Node returns the node with the given id.
func (s *Solution) Node(id core.NodeID) (TreeNode, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return TreeNode{}, false
}

// NodeIDs returns the ids of all nodes in solution order.
func (s *Solution) NodeIDs() []core.NodeID {
	ids := make([]core.NodeID, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}
