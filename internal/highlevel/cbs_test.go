package highlevel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/conflict"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/highlevel"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

func openGrid(t *testing.T, h, w int) *grid.Grid {
	t.Helper()
	rows := make([][]bool, h)
	for r := range rows {
		rows[r] = make([]bool, w)
	}
	g, err := grid.New(rows)
	require.NoError(t, err)
	return g
}

// buildRoot plans every agent independently (no cross-agent constraints) and
// returns the root joint plan, mirroring what internal/solver does before
// handing off to CBS.
func buildRoot(t *testing.T, planner highlevel.Planner, ids []mapf.AgentID) mapf.JointPlan {
	t.Helper()
	root := mapf.NewConstraintSet()
	plan := mapf.JointPlan{}
	for _, id := range ids {
		p, ok := planner(id, root)
		require.True(t, ok)
		plan[id] = p
	}
	return plan
}

func TestSearchResolvesVertexConflictViaDetour(t *testing.T) {
	// A 3x3 open grid: agent 0 goes (0,0)->(0,2), agent 1 goes (2,2)->(0,2)
	// is too coincidental; use a simple head-on setup with room to detour.
	g := openGrid(t, 3, 3)
	starts := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 0}, 1: {Row: 0, Col: 2}}
	goals := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 2}, 1: {Row: 0, Col: 0}}
	cfg := mapf.DefaultConfig()
	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	ids := []mapf.AgentID{0, 1}
	root := buildRoot(t, planner, ids)

	res := highlevel.Search(ids, mapf.NewConstraintSet(), root, planner, cfg)
	require.Equal(t, mapf.Ok, res.Status)

	_, found := conflict.First(res.Plan)
	assert.False(t, found, "resolved plan must be conflict-free")
}

func TestSearchReturnsNoSolutionOn1xNCorridorSwap(t *testing.T) {
	// A 1x5 corridor with a head-on swap has no cell to pass through:
	// CBS must exhaust the tree and report NoSolution, not loop forever.
	g := openGrid(t, 1, 5)
	starts := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 0}, 1: {Row: 0, Col: 4}}
	goals := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 4}, 1: {Row: 0, Col: 0}}
	cfg := mapf.DefaultConfig()
	cfg.MaxTimeSteps = 20
	cfg.MaxHighLevelNodes = 200
	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	ids := []mapf.AgentID{0, 1}
	root := buildRoot(t, planner, ids)

	res := highlevel.Search(ids, mapf.NewConstraintSet(), root, planner, cfg)
	assert.Equal(t, mapf.NoSolution, res.Status)
}

func TestSearchHonorsNodeBudget(t *testing.T) {
	g := openGrid(t, 1, 5)
	starts := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 0}, 1: {Row: 0, Col: 4}}
	goals := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 4}, 1: {Row: 0, Col: 0}}
	cfg := mapf.DefaultConfig()
	cfg.MaxHighLevelNodes = 1
	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	ids := []mapf.AgentID{0, 1}
	root := buildRoot(t, planner, ids)

	res := highlevel.Search(ids, mapf.NewConstraintSet(), root, planner, cfg)
	assert.Equal(t, mapf.BudgetExceeded, res.Status)
	// The root node (the only one expanded under this budget) still has its
	// head-on swap conflict, so it must never surface as the fallback plan.
	assert.Nil(t, res.Plan)
}

func TestSearchBudgetFallbackOnlyReturnsConflictFreeNodes(t *testing.T) {
	// A 2x3 grid where the root's swap conflict resolves after a few
	// expansions. With a budget of 2 the search stops while every node it
	// has generated is still conflicted, so any fallback plan it returns
	// must be conflict-free (here there is none).
	g := openGrid(t, 2, 3)
	starts := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 0}, 1: {Row: 0, Col: 1}}
	goals := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 1}, 1: {Row: 0, Col: 0}}
	cfg := mapf.DefaultConfig()
	cfg.MaxHighLevelNodes = 2
	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	ids := []mapf.AgentID{0, 1}
	root := buildRoot(t, planner, ids)

	res := highlevel.Search(ids, mapf.NewConstraintSet(), root, planner, cfg)
	require.Equal(t, mapf.BudgetExceeded, res.Status)
	if res.Plan != nil {
		_, found := conflict.First(res.Plan)
		assert.False(t, found, "budget fallback plan must be conflict-free")
	}
}

func TestSearchResolvesEdgeConflictDirectionally(t *testing.T) {
	// A 2x3 grid with a side row to pass through: agents swap across a
	// single edge, and CBS separates them with directional edge constraints
	// (one agent detours through row 1) rather than a full vertex block
	// (which would over-constrain the shared cell).
	g := openGrid(t, 2, 3)
	starts := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 0}, 1: {Row: 0, Col: 1}}
	goals := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 1}, 1: {Row: 0, Col: 0}}
	cfg := mapf.DefaultConfig()
	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	ids := []mapf.AgentID{0, 1}
	root := buildRoot(t, planner, ids)

	res := highlevel.Search(ids, mapf.NewConstraintSet(), root, planner, cfg)
	require.Equal(t, mapf.Ok, res.Status)
	_, found := conflict.First(res.Plan)
	assert.False(t, found)
}

type recordingHook struct {
	expanded  int
	conflicts int
	solved    bool
}

func (h *recordingHook) OnNodeExpanded(highlevel.NodeInfo) { h.expanded++ }
func (h *recordingHook) OnConflictDetected(mapf.Conflict)  { h.conflicts++ }
func (h *recordingHook) OnSolutionFound(mapf.JointPlan)    { h.solved = true }

func TestSearchObservedNotifiesHook(t *testing.T) {
	g := openGrid(t, 3, 3)
	starts := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 1}, 1: {Row: 1, Col: 0}}
	goals := map[mapf.AgentID]grid.Cell{0: {Row: 2, Col: 1}, 1: {Row: 1, Col: 2}}
	cfg := mapf.DefaultConfig()
	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	ids := []mapf.AgentID{0, 1}
	root := buildRoot(t, planner, ids)

	hook := &recordingHook{}
	res := highlevel.SearchObserved(ids, mapf.NewConstraintSet(), root, planner, cfg, hook)

	require.Equal(t, mapf.Ok, res.Status)
	assert.Greater(t, hook.expanded, 0)
	assert.True(t, hook.solved)
}

func TestSearchEnumeratesAllConflictsWhenConfigured(t *testing.T) {
	// Three agents funneled through a single row so the root plan carries
	// more than one simultaneous conflict.
	g := openGrid(t, 1, 3)
	starts := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 0}, 1: {Row: 0, Col: 0}, 2: {Row: 0, Col: 2}}
	goals := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 2}, 1: {Row: 0, Col: 2}, 2: {Row: 0, Col: 0}}
	cfg := mapf.DefaultConfig()
	cfg.EnumerateAllConflicts = true
	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	ids := []mapf.AgentID{0, 1, 2}
	root := mapf.JointPlan{}
	for _, id := range ids {
		p, ok := planner(id, mapf.NewConstraintSet())
		require.True(t, ok)
		root[id] = p
	}

	all := conflict.All(root)
	require.Greater(t, len(all), 1, "fixture must start with more than one simultaneous conflict")

	hook := &recordingHook{}
	highlevel.SearchObserved(ids, mapf.NewConstraintSet(), root, planner, cfg, hook)

	assert.GreaterOrEqual(t, hook.conflicts, len(all))
}

func TestSearchReportsOnlyFirstConflictWhenNotEnumerating(t *testing.T) {
	g := openGrid(t, 1, 3)
	starts := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 0}, 1: {Row: 0, Col: 0}, 2: {Row: 0, Col: 2}}
	goals := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 2}, 1: {Row: 0, Col: 2}, 2: {Row: 0, Col: 0}}
	cfg := mapf.DefaultConfig()
	cfg.EnumerateAllConflicts = false
	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	ids := []mapf.AgentID{0, 1, 2}
	root := mapf.JointPlan{}
	for _, id := range ids {
		p, ok := planner(id, mapf.NewConstraintSet())
		require.True(t, ok)
		root[id] = p
	}

	hook := &recordingHook{}
	highlevel.SearchObserved(ids, mapf.NewConstraintSet(), root, planner, cfg, hook)

	assert.Equal(t, hook.expanded, hook.conflicts+boolToInt(hook.solved))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestSearchTrivialAlreadyConflictFree(t *testing.T) {
	g := openGrid(t, 3, 3)
	starts := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 0}, 1: {Row: 2, Col: 2}}
	goals := map[mapf.AgentID]grid.Cell{0: {Row: 0, Col: 2}, 1: {Row: 2, Col: 0}}
	cfg := mapf.DefaultConfig()
	planner := highlevel.NewPlanner(g, starts, goals, cfg)

	ids := []mapf.AgentID{0, 1}
	root := buildRoot(t, planner, ids)

	res := highlevel.Search(ids, mapf.NewConstraintSet(), root, planner, cfg)
	require.Equal(t, mapf.Ok, res.Status)
	assert.Equal(t, root[0], res.Plan[0])
	assert.Equal(t, root[1], res.Plan[1])
}
