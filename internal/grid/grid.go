// Package grid defines the static occupancy grid the solver plans over:
// cell lookup, 4-connected neighborhoods with wait, and the Manhattan
// distance heuristic.
package grid

import "errors"

// Sentinel errors for grid construction and cell validation.
var (
	// ErrEmptyGrid indicates a grid with zero rows or zero columns.
	ErrEmptyGrid = errors.New("grid: must have at least one row and one column")
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("grid: all rows must have the same length")
	// ErrOutOfBounds indicates a cell outside [0,H)x[0,W).
	ErrOutOfBounds = errors.New("grid: cell out of bounds")
	// ErrBlockedCell indicates a cell marked occupied.
	ErrBlockedCell = errors.New("grid: cell is blocked")
)

// Cell is a (row, col) coordinate. Equality is structural.
type Cell struct {
	Row, Col int
}

// Grid is an immutable H x W occupancy map. A cell is free iff occupied[row][col]
// is false.
type Grid struct {
	H, W     int
	occupied [][]bool
}

// New builds a Grid from a row-major occupancy matrix: rows[r][c] is true
// when (r, c) is blocked. Every row must have the same length W.
func New(rows [][]bool) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	w := len(rows[0])
	occupied := make([][]bool, len(rows))
	for r, row := range rows {
		if len(row) != w {
			return nil, ErrNonRectangular
		}
		occupied[r] = append([]bool(nil), row...)
	}
	return &Grid{H: len(rows), W: w, occupied: occupied}, nil
}

// InBounds reports whether c lies within [0,H) x [0,W).
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.H && c.Col >= 0 && c.Col < g.W
}

// IsFree reports whether c is in-bounds and unoccupied.
func (g *Grid) IsFree(c Cell) bool {
	return g.InBounds(c) && !g.occupied[c.Row][c.Col]
}

// Validate returns an error if c is not a traversable cell.
func (g *Grid) Validate(c Cell) error {
	if !g.InBounds(c) {
		return ErrOutOfBounds
	}
	if g.occupied[c.Row][c.Col] {
		return ErrBlockedCell
	}
	return nil
}

var deltas = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Neighbors yields the four 4-connected neighbors of c plus c itself (the
// wait action), each filtered by IsFree. Order is deterministic: up, down,
// left, right, wait — matching the teacher's MOVES ordering.
func (g *Grid) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, 5)
	for _, d := range deltas {
		n := Cell{Row: c.Row + d[0], Col: c.Col + d[1]}
		if g.IsFree(n) {
			out = append(out, n)
		}
	}
	if g.IsFree(c) {
		out = append(out, c)
	}
	return out
}

// Manhattan returns the L1 distance between a and b: an admissible,
// consistent heuristic for unit-cost 4-connected motion with wait.
func Manhattan(a, b Cell) int {
	return absInt(a.Row-b.Row) + absInt(a.Col-b.Col)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
