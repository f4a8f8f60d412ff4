// Package mapf defines the shared data model of the core solver: agents,
// plans, constraints, conflicts, and the recognized configuration surface
// from spec §6.
package mapf

import (
	"errors"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
)

// Sentinel errors surfaced to callers, per spec §7.
var (
	// ErrOutOfBounds is raised at solve entry for a start/goal outside the grid.
	ErrOutOfBounds = errors.New("mapf: agent start or goal out of bounds")
	// ErrBlockedStartOrGoal is raised at solve entry for a start/goal on a blocked cell.
	ErrBlockedStartOrGoal = errors.New("mapf: agent start or goal is blocked")
	// ErrNoSolution is returned when the root node is infeasible or the
	// frontier empties without a conflict-free node.
	ErrNoSolution = errors.New("mapf: no solution exists")
	// ErrBudgetExceeded is returned when the high-level node budget is exhausted.
	ErrBudgetExceeded = errors.New("mapf: high-level node budget exceeded")
)

// AgentID is a dense integer identifier in [0, N).
type AgentID int

// Agent is an immutable input: a start cell and a goal cell. The core never
// mutates an Agent or stores a plan on it (spec §9 flags this as a bug in
// the source this was distilled from).
type Agent struct {
	ID    AgentID
	Start grid.Cell
	Goal  grid.Cell
}

// Validate checks that the agent's start and goal are traversable cells of g.
func (a Agent) Validate(g *grid.Grid) error {
	for _, c := range [2]grid.Cell{a.Start, a.Goal} {
		if !g.InBounds(c) {
			return ErrOutOfBounds
		}
		if !g.IsFree(c) {
			return ErrBlockedStartOrGoal
		}
	}
	return nil
}

// Plan is an ordered, non-empty sequence of cells: plan[0] is the agent's
// start, plan[len-1] its goal. Consecutive cells are equal (wait) or
// 4-adjacent.
type Plan []grid.Cell

// Cost returns len(plan)-1, the number of move/wait steps.
func (p Plan) Cost() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// At returns the cell occupied at time t, holding position at the final
// cell once t exceeds the plan's length (an agent rests at its goal).
func (p Plan) At(t int) grid.Cell {
	if len(p) == 0 {
		return grid.Cell{}
	}
	if t < 0 {
		t = 0
	}
	if t >= len(p) {
		t = len(p) - 1
	}
	return p[t]
}

// JointPlan maps agent id to its individual Plan.
type JointPlan map[AgentID]Plan

// Makespan returns max_i (len(plan_i) - 1).
func (jp JointPlan) Makespan() int {
	m := 0
	for _, p := range jp {
		if c := p.Cost(); c > m {
			m = c
		}
	}
	return m
}

// SumOfCosts returns Sum_i (len(plan_i) - 1), CBS's minimization objective.
func (jp JointPlan) SumOfCosts() int {
	total := 0
	for _, p := range jp {
		total += p.Cost()
	}
	return total
}

// Status is the outcome of a solve call.
type Status int

const (
	// Ok indicates a conflict-free joint plan was found.
	Ok Status = iota
	// NoSolution indicates the root node (or every branch) was infeasible.
	NoSolution
	// BudgetExceeded indicates the high-level node budget was exhausted.
	BudgetExceeded
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "Ok"
	case NoSolution:
		return "NoSolution"
	case BudgetExceeded:
		return "BudgetExceeded"
	default:
		return "Unknown"
	}
}

// Config is the recognized set of solve-time options from spec §6.
type Config struct {
	// MaxTimeSteps bounds the low-level search horizon (H_max). Default 300.
	MaxTimeSteps int
	// MaxHighLevelNodes bounds CBS frontier expansions. Default 1000.
	MaxHighLevelNodes int
	// TiebreakPreferH prefers lower h at equal f in the low-level open list. Default true.
	TiebreakPreferH bool
	// EnumerateAllConflicts makes CBS report every conflict of each expanded
	// node (conflict.All) to its Hook instead of just the first; CBS still
	// splits on the first one. Default false.
	EnumerateAllConflicts bool
}

// DefaultConfig returns the spec §6 defaults.
func DefaultConfig() Config {
	return Config{
		MaxTimeSteps:          300,
		MaxHighLevelNodes:     1000,
		TiebreakPreferH:       true,
		EnumerateAllConflicts: false,
	}
}
