package mapf

import "github.com/elektrokombinacija/mapf-cbs-core/internal/grid"

// VertexConstraint forbids Agent from occupying Cell at time T.
type VertexConstraint struct {
	Agent AgentID
	Cell  grid.Cell
	T     int
}

// EdgeConstraint forbids Agent from traversing From->To during the step
// T -> T+1. The reverse direction (To->From) is a distinct constraint.
type EdgeConstraint struct {
	Agent    AgentID
	From, To grid.Cell
	T        int
}

// ConstraintSet is an (immutable-in-use) set of vertex and edge constraints
// with O(1) membership tests. Children along a CBS branch are built by
// With{Vertex,Edge}, which copy the parent's map of the kind being extended
// and share the parent's map of the other kind.
type ConstraintSet struct {
	vertex map[VertexConstraint]struct{}
	edge   map[EdgeConstraint]struct{}
}

// NewConstraintSet returns an empty constraint set (a CBS root).
func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{
		vertex: map[VertexConstraint]struct{}{},
		edge:   map[EdgeConstraint]struct{}{},
	}
}

// WithVertex returns a new ConstraintSet equal to cs plus c. The parent's
// maps are not mutated; the child gets a fresh copy of the vertex map with
// room for one more entry and shares the parent's edge map, so parent and
// child can be queried concurrently (spec §5).
func (cs *ConstraintSet) WithVertex(c VertexConstraint) *ConstraintSet {
	child := &ConstraintSet{
		vertex: make(map[VertexConstraint]struct{}, len(cs.vertex)+1),
		edge:   cs.edge,
	}
	for k := range cs.vertex {
		child.vertex[k] = struct{}{}
	}
	child.vertex[c] = struct{}{}
	return child
}

// WithEdge returns a new ConstraintSet equal to cs plus c.
func (cs *ConstraintSet) WithEdge(c EdgeConstraint) *ConstraintSet {
	child := &ConstraintSet{
		vertex: cs.vertex,
		edge:   make(map[EdgeConstraint]struct{}, len(cs.edge)+1),
	}
	for k := range cs.edge {
		child.edge[k] = struct{}{}
	}
	child.edge[c] = struct{}{}
	return child
}

// ForbidsVertex reports whether agent is forbidden from cell at time t.
func (cs *ConstraintSet) ForbidsVertex(agent AgentID, cell grid.Cell, t int) bool {
	_, ok := cs.vertex[VertexConstraint{Agent: agent, Cell: cell, T: t}]
	return ok
}

// ForbidsEdge reports whether agent is forbidden from traversing from->to
// during the step t -> t+1.
func (cs *ConstraintSet) ForbidsEdge(agent AgentID, from, to grid.Cell, t int) bool {
	_, ok := cs.edge[EdgeConstraint{Agent: agent, From: from, To: to, T: t}]
	return ok
}

// MaxVertexTime returns the largest t such that a vertex constraint
// (agent, cell, t) exists, or -1 if none does. LowLevelSearch uses this to
// compute T_forbid per spec §4.3.
func (cs *ConstraintSet) MaxVertexTime(agent AgentID, cell grid.Cell) int {
	max := -1
	for vc := range cs.vertex {
		if vc.Agent == agent && vc.Cell == cell && vc.T > max {
			max = vc.T
		}
	}
	return max
}

// ForAgent projects cs down to the constraints naming agent, for use by one
// LowLevelSearch call (spec §4.2's per-agent index). The returned set shares
// no storage with cs and is safe to query concurrently with it.
func (cs *ConstraintSet) ForAgent(agent AgentID) *ConstraintSet {
	out := NewConstraintSet()
	for vc := range cs.vertex {
		if vc.Agent == agent {
			out.vertex[vc] = struct{}{}
		}
	}
	for ec := range cs.edge {
		if ec.Agent == agent {
			out.edge[ec] = struct{}{}
		}
	}
	return out
}
