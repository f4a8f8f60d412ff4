// Package highlevel implements the CBS constraint tree: a best-first search
// over joint plans where each node adds one constraint to resolve a single
// conflict found in its parent. See spec §4.5.
package highlevel

import (
	"container/heap"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/conflict"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/lowlevel"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

// Planner replans a single agent under a constraint set. NewPlanner builds
// one as a thin wrapper over lowlevel.Search for a fixed grid and per-agent
// start/goal cells; internal/solver and the tests use it.
type Planner func(agent mapf.AgentID, constraints *mapf.ConstraintSet) (mapf.Plan, bool)

// cbsNode is one node of the constraint tree: the full joint plan it
// resolves to, the constraint set that produced it, and the cached
// sum-of-costs and conflict count used to order the frontier.
type cbsNode struct {
	constraints *mapf.ConstraintSet
	plan        mapf.JointPlan
	sumOfCosts  int
	numConflict int
	id          int
	parentID    int
	index       int // heap.Interface bookkeeping
}

// NodeInfo is the read-only snapshot of a cbsNode handed to a Hook, for a
// caller that wants to visualize or log the search (spec's core itself
// performs no I/O; a Hook is invoked synchronously and must not block).
type NodeInfo struct {
	ID, ParentID int
	SumOfCosts   int
	NumConflicts int
}

// Hook observes CBS's progress. Implementations must return promptly: calls
// happen inline on the search goroutine.
type Hook interface {
	OnNodeExpanded(NodeInfo)
	OnConflictDetected(mapf.Conflict)
	OnSolutionFound(mapf.JointPlan)
}

// noopHook is the default Hook when the caller doesn't want observation.
type noopHook struct{}

func (noopHook) OnNodeExpanded(NodeInfo)          {}
func (noopHook) OnConflictDetected(mapf.Conflict) {}
func (noopHook) OnSolutionFound(mapf.JointPlan)   {}

type cbsHeap []*cbsNode

func (h cbsHeap) Len() int { return len(h) }

// Less implements the deterministic frontier order from spec §4.5:
// (sum_of_costs, fewer conflicts, lower node id).
func (h cbsHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.sumOfCosts != b.sumOfCosts {
		return a.sumOfCosts < b.sumOfCosts
	}
	if a.numConflict != b.numConflict {
		return a.numConflict < b.numConflict
	}
	return a.id < b.id
}

func (h cbsHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *cbsHeap) Push(x any) {
	n := x.(*cbsNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *cbsHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// Result is the outcome of a Search call.
type Result struct {
	Plan   mapf.JointPlan
	Status mapf.Status
}

// Search runs CBS starting from rootConstraints and rootPlan (the initial,
// per-agent-independent plans) and returns the first conflict-free joint
// plan found, replanning only the affected agent at each branch.
//
// Unlike the source this was adapted from, an edge conflict between A and B
// produces two directional EdgeConstraint values — one per child — instead
// of being folded into a VertexConstraint; see spec §4.5 and §9.
func Search(ids []mapf.AgentID, rootConstraints *mapf.ConstraintSet, rootPlan mapf.JointPlan, replan Planner, cfg mapf.Config) Result {
	return SearchObserved(ids, rootConstraints, rootPlan, replan, cfg, noopHook{})
}

// SearchObserved is Search with a Hook notified of node expansions, detected
// conflicts, and the final solution — grounded in the observer pattern
// internal/progress streams onward over a websocket.
func SearchObserved(ids []mapf.AgentID, rootConstraints *mapf.ConstraintSet, rootPlan mapf.JointPlan, replan Planner, cfg mapf.Config, hook Hook) Result {
	if hook == nil {
		hook = noopHook{}
	}

	open := &cbsHeap{}
	heap.Init(open)

	nextID := 0
	var best *cbsNode // lowest-sum-of-costs conflict-free node pushed so far, for the budget fallback
	push := func(cs *mapf.ConstraintSet, plan mapf.JointPlan, parentID int) {
		n := &cbsNode{
			constraints: cs,
			plan:        plan,
			sumOfCosts:  plan.SumOfCosts(),
			numConflict: len(conflict.All(plan)),
			id:          nextID,
			parentID:    parentID,
		}
		nextID++
		if n.numConflict == 0 && (best == nil || n.sumOfCosts < best.sumOfCosts) {
			best = n
		}
		heap.Push(open, n)
	}

	push(rootConstraints, rootPlan, -1)

	expanded := 0

	for open.Len() > 0 {
		if cfg.MaxHighLevelNodes > 0 && expanded >= cfg.MaxHighLevelNodes {
			if best != nil {
				return Result{Plan: best.plan, Status: mapf.BudgetExceeded}
			}
			return Result{Status: mapf.BudgetExceeded}
		}

		node := heap.Pop(open).(*cbsNode)
		expanded++

		hook.OnNodeExpanded(NodeInfo{
			ID: node.id, ParentID: node.parentID,
			SumOfCosts: node.sumOfCosts, NumConflicts: node.numConflict,
		})

		c, found := conflict.First(node.plan)
		if !found {
			hook.OnSolutionFound(node.plan)
			return Result{Plan: node.plan, Status: mapf.Ok}
		}
		if cfg.EnumerateAllConflicts {
			for _, conf := range conflict.All(node.plan) {
				hook.OnConflictDetected(conf)
			}
		} else {
			hook.OnConflictDetected(c)
		}

		for _, child := range branch(node, c, replan) {
			push(child.constraints, child.plan, node.id)
		}
	}

	return Result{Status: mapf.NoSolution}
}

type childPlan struct {
	constraints *mapf.ConstraintSet
	plan        mapf.JointPlan
}

// branch produces the (at most two) children of node that resolve c, each
// replanning only the newly constrained agent and leaving every other
// agent's plan untouched — spec §4.5's single-agent replan rule.
func branch(node *cbsNode, c mapf.Conflict, replan Planner) []childPlan {
	var children []childPlan

	switch c.Kind {
	case mapf.VertexConflict:
		for _, agent := range [2]mapf.AgentID{c.A, c.B} {
			vc := mapf.VertexConstraint{Agent: agent, Cell: c.Cell, T: c.T}
			cs := node.constraints.WithVertex(vc)
			if child, ok := replanOne(node, agent, cs, replan); ok {
				children = append(children, child)
			}
		}
	case mapf.EdgeConflict:
		// c.CellA/c.CellB name A's step (CellA->CellB during T->T+1); B's
		// step is the reverse, CellB->CellA. Each child forbids only the
		// direction its own agent actually took.
		dirs := [2]struct {
			agent    mapf.AgentID
			from, to grid.Cell
		}{
			{c.A, c.CellA, c.CellB},
			{c.B, c.CellB, c.CellA},
		}
		for _, d := range dirs {
			ec := mapf.EdgeConstraint{Agent: d.agent, From: d.from, To: d.to, T: c.T}
			cs := node.constraints.WithEdge(ec)
			if child, ok := replanOne(node, d.agent, cs, replan); ok {
				children = append(children, child)
			}
		}
	}

	return children
}

// replanOne rebuilds node's joint plan with agent's path recomputed under
// cs, leaving every other agent's plan shared from the parent. Returns
// (childPlan{}, false) if the constrained agent has become unreachable.
func replanOne(node *cbsNode, agent mapf.AgentID, cs *mapf.ConstraintSet, replan Planner) (childPlan, bool) {
	newPath, ok := replan(agent, cs.ForAgent(agent))
	if !ok {
		return childPlan{}, false
	}

	plan := make(mapf.JointPlan, len(node.plan))
	for id, p := range node.plan {
		plan[id] = p
	}
	plan[agent] = newPath

	return childPlan{constraints: cs, plan: plan}, true
}

// adaptPlanner builds a Planner bound to a fixed grid, start/goal pair, and
// config, for callers (internal/solver) that already know those per-agent.
func adaptPlanner(g *grid.Grid, starts, goals map[mapf.AgentID]grid.Cell, cfg mapf.Config) Planner {
	return func(agent mapf.AgentID, constraints *mapf.ConstraintSet) (mapf.Plan, bool) {
		return lowlevel.Search(g, agent, starts[agent], goals[agent], constraints, cfg)
	}
}

// NewPlanner exposes adaptPlanner to internal/solver.
func NewPlanner(g *grid.Grid, starts, goals map[mapf.AgentID]grid.Cell, cfg mapf.Config) Planner {
	return adaptPlanner(g, starts, goals, cfg)
}
