// Package scenario generates random agent populations over a Grid: start/goal
// pairs sampled from free cells, rejecting pairs that are too close to each
// other or to already-placed agents, and stamps each generated run with a
// unique id for result correlation.
package scenario

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

// ErrNotEnoughFreeCells is returned when the grid has fewer than 2*n free
// cells, so n agents cannot be placed even ignoring the distance rule.
var ErrNotEnoughFreeCells = errors.New("scenario: not enough free cells for requested agent count")

// maxAttemptsPerAgent bounds the rejection-sampling loop per agent before
// falling back to an arbitrary free pair, mirroring the generator this was
// adapted from.
const maxAttemptsPerAgent = 100

// Options controls random scenario generation.
type Options struct {
	NumAgents int
	// MinDistance is the minimum Manhattan distance required between an
	// agent's own start and goal.
	MinDistance int
	Seed        int64
}

// Run is a generated scenario: its agents and a unique id for correlating
// logs, metrics, and reports produced from the same random draw.
type Run struct {
	ID     string
	Agents []mapf.Agent
}

// pair is a candidate (start, goal) draw for one agent.
type pair struct{ start, goal grid.Cell }

// Generate draws Options.NumAgents agents over g's free cells.
func Generate(g *grid.Grid, opts Options) (Run, error) {
	free := freeCells(g)
	if len(free) < 2*opts.NumAgents {
		return Run{}, fmt.Errorf("%w: have %d free cells, need %d", ErrNotEnoughFreeCells, len(free), 2*opts.NumAgents)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	var placed []pair

	for i := 0; i < opts.NumAgents; i++ {
		found := false
		var chosen pair

		for attempt := 0; attempt < maxAttemptsPerAgent; attempt++ {
			s := free[rng.Intn(len(free))]
			gl := free[rng.Intn(len(free))]
			if s == gl {
				continue
			}
			if grid.Manhattan(s, gl) < opts.MinDistance {
				continue
			}
			if tooCloseToPlaced(s, gl, placed, opts.MinDistance/2) {
				continue
			}
			chosen = pair{start: s, goal: gl}
			found = true
			break
		}

		if !found {
			// Fall back to an arbitrary disjoint pair, same as the generator
			// this was adapted from: better a placed-but-suboptimal agent
			// than a failed scenario draw.
			chosen = pair{start: free[(2*i)%len(free)], goal: free[(2*i+1)%len(free)]}
		}
		placed = append(placed, chosen)
	}

	agents := make([]mapf.Agent, len(placed))
	for i, p := range placed {
		agents[i] = mapf.Agent{ID: mapf.AgentID(i), Start: p.start, Goal: p.goal}
	}

	return Run{ID: uuid.NewString(), Agents: agents}, nil
}

func freeCells(g *grid.Grid) []grid.Cell {
	cells := make([]grid.Cell, 0, g.H*g.W)
	for r := 0; r < g.H; r++ {
		for c := 0; c < g.W; c++ {
			cell := grid.Cell{Row: r, Col: c}
			if g.IsFree(cell) {
				cells = append(cells, cell)
			}
		}
	}
	return cells
}

func tooCloseToPlaced(start, goal grid.Cell, placed []pair, threshold int) bool {
	for _, p := range placed {
		if grid.Manhattan(start, p.start) < threshold || grid.Manhattan(goal, p.goal) < threshold {
			return true
		}
	}
	return false
}
