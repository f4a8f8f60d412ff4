// Package solver exposes the single entry point of the core: Solve. It
// validates inputs, builds the CBS root node (planning every agent
// independently, in parallel), and hands off to internal/highlevel. See
// spec §4.6.
package solver

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/highlevel"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

// Solve is the core's only operation: a pure function of (Grid, Agents,
// Config) that returns a joint plan and status, per spec §4.6. It never
// mutates g or agents, never persists state across calls, and performs no
// I/O.
func Solve(g *grid.Grid, agents []mapf.Agent, cfg mapf.Config) (mapf.JointPlan, mapf.Status, error) {
	return solve(g, agents, cfg, nil)
}

// SolveObserved behaves exactly like Solve, but additionally notifies hook
// of every high-level node expansion, conflict, and the final solution, so a
// caller (e.g. a server streaming progress to a browser) can observe the
// search as it runs.
func SolveObserved(g *grid.Grid, agents []mapf.Agent, cfg mapf.Config, hook highlevel.Hook) (mapf.JointPlan, mapf.Status, error) {
	return solve(g, agents, cfg, hook)
}

func solve(g *grid.Grid, agents []mapf.Agent, cfg mapf.Config, hook highlevel.Hook) (mapf.JointPlan, mapf.Status, error) {
	if len(agents) == 0 {
		return mapf.JointPlan{}, mapf.Ok, nil
	}

	ids := make([]mapf.AgentID, len(agents))
	starts := make(map[mapf.AgentID]grid.Cell, len(agents))
	goals := make(map[mapf.AgentID]grid.Cell, len(agents))
	for i, a := range agents {
		if err := a.Validate(g); err != nil {
			return nil, mapf.NoSolution, fmt.Errorf("agent %d: %w", a.ID, err)
		}
		ids[i] = a.ID
		starts[a.ID] = a.Start
		goals[a.ID] = a.Goal
	}

	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	root, err := planRootIndependently(ids, planner)
	if err != nil {
		// A lone agent already unreachable under no constraints at all: the
		// root is infeasible, so the whole instance has no solution.
		return nil, mapf.NoSolution, nil
	}

	var res highlevel.Result
	if hook != nil {
		res = highlevel.SearchObserved(ids, mapf.NewConstraintSet(), root, planner, cfg, hook)
	} else {
		res = highlevel.Search(ids, mapf.NewConstraintSet(), root, planner, cfg)
	}
	switch res.Status {
	case mapf.Ok:
		return res.Plan, mapf.Ok, nil
	case mapf.BudgetExceeded:
		return res.Plan, mapf.BudgetExceeded, nil
	default:
		return nil, mapf.NoSolution, nil
	}
}

// planRootIndependently plans every agent's unconstrained shortest path
// concurrently (spec §5 permits parallelizing root-level initial plans).
// Each goroutine only writes to its own slot of a pre-sized result slice, so
// no data is shared mutably across tasks.
func planRootIndependently(ids []mapf.AgentID, planner highlevel.Planner) (mapf.JointPlan, error) {
	plans := make([]mapf.Plan, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			p, ok := planner(id, mapf.NewConstraintSet())
			if !ok {
				return fmt.Errorf("agent %d: %w", id, mapf.ErrNoSolution)
			}
			plans[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	root := make(mapf.JointPlan, len(ids))
	for i, id := range ids {
		root[id] = plans[i]
	}
	return root, nil
}
