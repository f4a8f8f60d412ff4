// Package report renders a solved instance — grid, obstacles, and per-agent
// paths — as a static SVG, the successor to the interactive GUI the teacher
// repo drew with gioui.org: a typed, file-based output a caller can open or
// embed, not a window to drive.
package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

// palette cycles through a handful of clearly distinguishable colors, one
// per agent, wrapping if there are more agents than colors.
var palette = []color.RGBA{
	{R: 0xE6, G: 0x19, B: 0x4B, A: 0xFF},
	{R: 0x3C, G: 0xB4, B: 0x4B, A: 0xFF},
	{R: 0x43, G: 0x63, B: 0xD8, A: 0xFF},
	{R: 0xF5, G: 0x82, B: 0x31, A: 0xFF},
	{R: 0x91, G: 0x1E, B: 0xB4, A: 0xFF},
	{R: 0x46, G: 0xF0, B: 0xF0, A: 0xFF},
	{R: 0xF0, G: 0x32, B: 0xE6, A: 0xFF},
	{R: 0xBC, G: 0xF6, B: 0x0C, A: 0xFF},
}

// Render draws g's occupancy and every agent's plan onto a single plot and
// saves it as an SVG at path, sized w x h.
func Render(g *grid.Grid, plan mapf.JointPlan, path string, w, h vg.Length) error {
	p := plot.New()
	p.Title.Text = "MAPF solution"
	p.X.Min, p.X.Max = 0, float64(g.W)
	p.Y.Min, p.Y.Max = 0, float64(g.H)
	p.Y.Scale = flippedScale{}

	if err := addObstacles(p, g); err != nil {
		return err
	}
	if err := addPaths(p, plan); err != nil {
		return err
	}

	return p.Save(w, h, path)
}

func addObstacles(p *plot.Plot, g *grid.Grid) error {
	var pts plotter.XYs
	for r := 0; r < g.H; r++ {
		for c := 0; c < g.W; c++ {
			if !g.IsFree(grid.Cell{Row: r, Col: c}) {
				pts = append(pts, plotter.XY{X: float64(c) + 0.5, Y: float64(r) + 0.5})
			}
		}
	}
	if len(pts) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("report: obstacles: %w", err)
	}
	sc.GlyphStyle.Shape = draw.BoxGlyph{}
	sc.GlyphStyle.Color = color.Black
	sc.GlyphStyle.Radius = vg.Points(6)
	p.Add(sc)
	return nil
}

func addPaths(p *plot.Plot, plan mapf.JointPlan) error {
	ids := sortedAgentIDs(plan)
	for i, id := range ids {
		agentColor := palette[i%len(palette)]
		pathPlan := plan[id]

		pts := make(plotter.XYs, len(pathPlan))
		for t, cell := range pathPlan {
			pts[t] = plotter.XY{X: float64(cell.Col) + 0.5, Y: float64(cell.Row) + 0.5}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("report: agent %d line: %w", id, err)
		}
		line.Color = agentColor
		line.Width = vg.Points(2)
		p.Add(line)

		markers, err := plotter.NewScatter(plotter.XYs{pts[0], pts[len(pts)-1]})
		if err != nil {
			return fmt.Errorf("report: agent %d markers: %w", id, err)
		}
		markers.GlyphStyle.Color = agentColor
		markers.GlyphStyle.Radius = vg.Points(4)
		p.Add(markers)

		p.Legend.Add(fmt.Sprintf("agent %d", id), line)
	}
	return nil
}

func sortedAgentIDs(plan mapf.JointPlan) []mapf.AgentID {
	ids := make([]mapf.AgentID, 0, len(plan))
	for id := range plan {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// flippedScale inverts the y axis so row 0 renders at the top, matching the
// grid's own row-major, top-down indexing instead of plot's bottom-up
// default.
type flippedScale struct{}

func (flippedScale) Normalize(min, max, x float64) float64 {
	return 1 - (x-min)/(max-min)
}
