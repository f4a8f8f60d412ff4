package solver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/conflict"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/solver"
)

func freeGrid(t *testing.T, h, w int) *grid.Grid {
	t.Helper()
	rows := make([][]bool, h)
	for r := range rows {
		rows[r] = make([]bool, w)
	}
	g, err := grid.New(rows)
	require.NoError(t, err)
	return g
}

func assertConflictFree(t *testing.T, plan mapf.JointPlan) {
	t.Helper()
	_, found := conflict.First(plan)
	assert.False(t, found, "returned plan must be conflict-free")
}

func assertEndpoints(t *testing.T, plan mapf.JointPlan, agents []mapf.Agent) {
	t.Helper()
	for _, a := range agents {
		p := plan[a.ID]
		require.NotEmpty(t, p)
		assert.Equal(t, a.Start, p[0], "agent %d must start at its start cell", a.ID)
		assert.Equal(t, a.Goal, p[len(p)-1], "agent %d must end at its goal cell", a.ID)
	}
}

// S1 - head-on swap in a 1xN corridor: no side cell to pass, so the only
// correct answer is NoSolution.
func TestS1HeadOnSwap1x5CorridorHasNoSolution(t *testing.T) {
	g := freeGrid(t, 1, 5)
	agents := []mapf.Agent{
		{ID: 0, Start: grid.Cell{Row: 0, Col: 0}, Goal: grid.Cell{Row: 0, Col: 4}},
		{ID: 1, Start: grid.Cell{Row: 0, Col: 4}, Goal: grid.Cell{Row: 0, Col: 0}},
	}
	cfg := mapf.DefaultConfig()
	cfg.MaxTimeSteps = 30

	_, status, err := solver.Solve(g, agents, cfg)
	assert.NoError(t, err)
	assert.Equal(t, mapf.NoSolution, status)
}

// S2 - passing in a 2-row corridor: Ok, with a valid conflict-free plan.
func TestS2PassingInTwoRowCorridor(t *testing.T) {
	g := freeGrid(t, 2, 5)
	agents := []mapf.Agent{
		{ID: 0, Start: grid.Cell{Row: 0, Col: 0}, Goal: grid.Cell{Row: 0, Col: 4}},
		{ID: 1, Start: grid.Cell{Row: 0, Col: 4}, Goal: grid.Cell{Row: 0, Col: 0}},
	}
	cfg := mapf.DefaultConfig()

	plan, status, err := solver.Solve(g, agents, cfg)
	require.NoError(t, err)
	require.Equal(t, mapf.Ok, status)
	assertConflictFree(t, plan)
	assertEndpoints(t, plan, agents)
	soc := plan.SumOfCosts()
	assert.GreaterOrEqual(t, soc, 8, "no valid joint plan can beat the 8-move lower bound")
	assert.LessOrEqual(t, soc, 12, "an optimal CBS solution should not need more than a couple of detour steps")
}

// S3 - vertex conflict at a pinch point: both shortest paths cross (1,1) at
// t=1; the optimum routes one agent through a one-step wait, sum 5.
func TestS3VertexConflictAtPinchPoint(t *testing.T) {
	g := freeGrid(t, 3, 3)
	agents := []mapf.Agent{
		{ID: 0, Start: grid.Cell{Row: 0, Col: 1}, Goal: grid.Cell{Row: 2, Col: 1}},
		{ID: 1, Start: grid.Cell{Row: 1, Col: 0}, Goal: grid.Cell{Row: 1, Col: 2}},
	}
	cfg := mapf.DefaultConfig()

	plan, status, err := solver.Solve(g, agents, cfg)
	require.NoError(t, err)
	require.Equal(t, mapf.Ok, status)
	assertConflictFree(t, plan)
	assertEndpoints(t, plan, agents)
	assert.Equal(t, 5, plan.SumOfCosts())
}

// S4 - fully independent agents on a 10x10 empty grid: no splits needed,
// each agent takes its own Manhattan-optimal path.
func TestS4IndependentAgents(t *testing.T) {
	g := freeGrid(t, 10, 10)
	agents := []mapf.Agent{
		{ID: 0, Start: grid.Cell{Row: 0, Col: 0}, Goal: grid.Cell{Row: 0, Col: 9}},
		{ID: 1, Start: grid.Cell{Row: 9, Col: 0}, Goal: grid.Cell{Row: 9, Col: 9}},
	}
	cfg := mapf.DefaultConfig()

	plan, status, err := solver.Solve(g, agents, cfg)
	require.NoError(t, err)
	require.Equal(t, mapf.Ok, status)
	assertConflictFree(t, plan)
	assertEndpoints(t, plan, agents)
	assert.Equal(t, 18, plan.SumOfCosts())
}

// S5 - start == goal: a single-cell plan of cost 0.
func TestS5StartEqualsGoal(t *testing.T) {
	g := freeGrid(t, 5, 5)
	agents := []mapf.Agent{
		{ID: 0, Start: grid.Cell{Row: 2, Col: 2}, Goal: grid.Cell{Row: 2, Col: 2}},
	}
	cfg := mapf.DefaultConfig()

	plan, status, err := solver.Solve(g, agents, cfg)
	require.NoError(t, err)
	require.Equal(t, mapf.Ok, status)
	assert.Equal(t, mapf.Plan{{Row: 2, Col: 2}}, plan[0])
	assert.Equal(t, 0, plan.SumOfCosts())
}

// S6 - infeasible by blockage: the agent's start is walled in on all four
// sides, so no plan exists regardless of other agents.
func TestS6InfeasibleByBlockage(t *testing.T) {
	rows := [][]bool{
		{true, true, true},
		{true, false, true},
		{true, true, true},
	}
	g, err := grid.New(rows)
	require.NoError(t, err)
	agents := []mapf.Agent{
		{ID: 0, Start: grid.Cell{Row: 1, Col: 1}, Goal: grid.Cell{Row: 1, Col: 1}},
	}
	cfg := mapf.DefaultConfig()

	_, status, solveErr := solver.Solve(g, agents, cfg)
	assert.NoError(t, solveErr)
	assert.Equal(t, mapf.Ok, status, "start==goal is reachable even fully walled in")

	blocked := []mapf.Agent{
		{ID: 0, Start: grid.Cell{Row: 1, Col: 1}, Goal: grid.Cell{Row: 0, Col: 0}},
	}
	_, status2, err2 := solver.Solve(g, blocked, cfg)
	assert.NoError(t, err2)
	assert.Equal(t, mapf.NoSolution, status2)
}

func TestSolveRejectsOutOfBoundsAgent(t *testing.T) {
	g := freeGrid(t, 3, 3)
	agents := []mapf.Agent{{ID: 0, Start: grid.Cell{Row: 9, Col: 9}, Goal: grid.Cell{Row: 0, Col: 0}}}
	_, _, err := solver.Solve(g, agents, mapf.DefaultConfig())
	assert.ErrorIs(t, err, mapf.ErrOutOfBounds)
}

func TestSolveRejectsBlockedStartOrGoal(t *testing.T) {
	rows := [][]bool{{true, false}, {false, false}}
	g, err := grid.New(rows)
	require.NoError(t, err)
	agents := []mapf.Agent{{ID: 0, Start: grid.Cell{Row: 0, Col: 0}, Goal: grid.Cell{Row: 1, Col: 1}}}
	_, _, solveErr := solver.Solve(g, agents, mapf.DefaultConfig())
	assert.ErrorIs(t, solveErr, mapf.ErrBlockedStartOrGoal)
}

func TestSolveIsDeterministicAcrossRepeatedCalls(t *testing.T) {
	g := freeGrid(t, 3, 3)
	agents := []mapf.Agent{
		{ID: 0, Start: grid.Cell{Row: 0, Col: 1}, Goal: grid.Cell{Row: 2, Col: 1}},
		{ID: 1, Start: grid.Cell{Row: 1, Col: 0}, Goal: grid.Cell{Row: 1, Col: 2}},
	}
	cfg := mapf.DefaultConfig()

	p1, s1, err1 := solver.Solve(g, agents, cfg)
	p2, s2, err2 := solver.Solve(g, agents, cfg)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, s1, s2)
	assert.Equal(t, p1, p2)
}

func TestSolveNoAgentsReturnsEmptyOkPlan(t *testing.T) {
	g := freeGrid(t, 3, 3)
	plan, status, err := solver.Solve(g, nil, mapf.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, mapf.Ok, status)
	assert.Empty(t, plan)
}
