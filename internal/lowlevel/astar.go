// Package lowlevel implements time-expanded A*: a cost-minimal single-agent
// search over (cell, time) states that honors a ConstraintSet. See spec §4.3.
package lowlevel

import (
	"container/heap"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

// state is a point in the time-expanded search space: a cell at a time step.
type state struct {
	cell grid.Cell
	t    int
}

// node is one entry in the A* open list.
type node struct {
	state  state
	g      int
	f      int
	h      int
	seq    int // insertion order, for the canonical (f, h, insertion) tiebreak
	parent *node
	index  int
}

type openHeap struct {
	nodes           []*node
	tiebreakPreferH bool
}

func (h openHeap) Len() int { return len(h.nodes) }

func (h openHeap) Less(i, j int) bool {
	a, b := h.nodes[i], h.nodes[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if h.tiebreakPreferH && a.h != b.h {
		// Canonical tiebreak: prefer lower h (closer to goal).
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (h openHeap) Swap(i, j int) {
	h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i]
	h.nodes[i].index = i
	h.nodes[j].index = j
}

func (h *openHeap) Push(x any) {
	n := x.(*node)
	n.index = len(h.nodes)
	h.nodes = append(h.nodes, n)
}

func (h *openHeap) Pop() any {
	old := h.nodes
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	h.nodes = old[:n-1]
	return x
}

// Search finds a cost-minimal Plan for agent under constraints, bounded by
// the horizon cfg.MaxTimeSteps (spec's H_max). Returns (nil, false) when the
// search exhausts the open list without reaching the goal — a local
// Infeasible signal to the high level, not an error.
//
// The goal test requires t >= T_forbid(agent), the largest t such that a
// vertex constraint (agent, goal, t) exists (0 if none): without this an
// agent could "arrive" before a constraint that later forces it back out,
// producing an invalid plan once padded to the joint plan's makespan.
func Search(g *grid.Grid, agent mapf.AgentID, start, goal grid.Cell, constraints *mapf.ConstraintSet, cfg mapf.Config) (mapf.Plan, bool) {
	maxT := cfg.MaxTimeSteps
	tForbid := constraints.MaxVertexTime(agent, goal)
	if tForbid < 0 {
		tForbid = 0
	}

	open := &openHeap{tiebreakPreferH: cfg.TiebreakPreferH}
	heap.Init(open)
	seq := 0

	startNode := &node{state: state{cell: start, t: 0}, g: 0, h: grid.Manhattan(start, goal)}
	startNode.f = startNode.g + startNode.h
	startNode.seq = seq
	seq++
	heap.Push(open, startNode)

	// best[g] holds the lowest g seen for a state; duplicates with a
	// strictly lower g reopen it by being pushed again (stale heap entries
	// are skipped via this check on pop).
	best := map[state]int{startNode.state: 0}
	closed := map[state]bool{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)

		if cur.g > best[cur.state] {
			continue // stale entry superseded by a cheaper path
		}

		if cur.state.cell == goal && cur.state.t >= tForbid {
			return reconstruct(cur), true
		}

		if closed[cur.state] {
			continue
		}
		closed[cur.state] = true

		if cur.state.t >= maxT {
			continue
		}

		nextT := cur.state.t + 1
		for _, nc := range g.Neighbors(cur.state.cell) {
			if constraints.ForbidsVertex(agent, nc, nextT) {
				continue
			}
			if nc != cur.state.cell && constraints.ForbidsEdge(agent, cur.state.cell, nc, cur.state.t) {
				continue
			}

			ns := state{cell: nc, t: nextT}
			if closed[ns] {
				continue
			}
			ng := cur.g + 1
			if prev, ok := best[ns]; ok && prev <= ng {
				continue
			}
			best[ns] = ng

			n := &node{
				state:  ns,
				g:      ng,
				h:      grid.Manhattan(nc, goal),
				parent: cur,
				seq:    seq,
			}
			n.f = n.g + n.h
			seq++
			heap.Push(open, n)
		}
	}

	return nil, false
}

func reconstruct(n *node) mapf.Plan {
	var path mapf.Plan
	for cur := n; cur != nil; cur = cur.parent {
		path = append(mapf.Plan{cur.state.cell}, path...)
	}
	return path
}
