// Command mapfcli runs a single end-to-end MAPF solve: load a map, generate
// random agents, run CBS, report metrics, and optionally write an
// SVG visualization and a results file.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"gonum.org/v1/plot/vg"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/config"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapio"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/metrics"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/obslog"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/report"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/scenario"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/solver"
)

// CLI is the full flag/argument surface, parsed by kong.
var CLI struct {
	Map         string `arg:"" help:"Map file to load (spec's width/height/map text format)."`
	Config      string `help:"Optional YAML config file layered over defaults." short:"c"`
	NumAgents   int    `help:"Number of agents to generate if not overridden by config." default:"8"`
	Seed        int64  `help:"Random seed for scenario generation." default:"1"`
	MinDistance int    `help:"Minimum start/goal Manhattan distance for generated agents." default:"20"`
	Out         string `help:"Output directory for the SVG report and results file." default:"results"`
	NoVisualize bool   `help:"Skip writing the SVG report."`
	NoSave      bool   `help:"Skip writing the results text file."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("mapfcli"),
		kong.Description("Solve a multi-agent pathfinding instance with Conflict-Based Search."),
		kong.UsageOnError(),
	)

	if err := run(); err != nil {
		log.Error("mapfcli failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := obslog.New(obslog.Options{Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	logger.Info("starting solve", "map", CLI.Map)

	g, err := mapio.Load(CLI.Map)
	if err != nil {
		return fmt.Errorf("loading map %s: %w", CLI.Map, err)
	}
	logger.Info("map loaded", "height", g.H, "width", g.W)

	numAgents := CLI.NumAgents
	if cfg.NumAgents > 0 {
		numAgents = cfg.NumAgents
	}
	logger.Info("generating agents", "count", numAgents, "seed", CLI.Seed)

	run, err := scenario.Generate(g, scenario.Options{
		NumAgents:   numAgents,
		MinDistance: CLI.MinDistance,
		Seed:        CLI.Seed,
	})
	if err != nil {
		return fmt.Errorf("generating agents: %w", err)
	}
	for _, a := range run.Agents {
		logger.Debug("agent", "id", a.ID, "start", a.Start, "goal", a.Goal)
	}

	logger.Info("starting CBS search")
	start := time.Now()
	plan, status, err := solver.Solve(g, run.Agents, cfg.Solver())
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("solving: %w", err)
	}
	logger.Info("search finished", "status", status.String(), "elapsed", elapsed)

	summary := metrics.Summarize(plan, run.Agents)
	logger.Info("metrics",
		"makespan", summary.Makespan,
		"sum_of_costs", summary.SumOfCosts,
		"average_cost", summary.AverageCost,
		"success_rate", summary.SuccessRate,
		"collisions", len(summary.CollisionLog),
	)
	if len(summary.CollisionLog) > 0 {
		logger.Warn("plan reported with unresolved collisions", "count", len(summary.CollisionLog))
	}

	if status != mapf.Ok && status != mapf.BudgetExceeded {
		logger.Warn("no plan produced", "status", status.String())
		return nil
	}

	if err := os.MkdirAll(CLI.Out, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	if !CLI.NoVisualize {
		svgPath := filepath.Join(CLI.Out, fmt.Sprintf("%s.svg", run.ID))
		if err := report.Render(g, plan, svgPath, 20*vg.Centimeter, 20*vg.Centimeter); err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
		logger.Info("report written", "path", svgPath)
	}

	if !CLI.NoSave {
		resultsPath := filepath.Join(CLI.Out, fmt.Sprintf("results_%s.txt", run.ID))
		if err := writeResults(resultsPath, run, plan, status, summary, elapsed); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
		logger.Info("results written", "path", resultsPath)
	}

	return nil
}

func writeResults(path string, scRun scenario.Run, plan mapf.JointPlan, status mapf.Status, s metrics.Summary, elapsed time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "=== MAPF Results ===")
	fmt.Fprintf(f, "Run: %s\n", scRun.ID)
	fmt.Fprintf(f, "Status: %s\n", status.String())
	fmt.Fprintf(f, "Computation Time: %s\n", elapsed)
	fmt.Fprintf(f, "Makespan: %d\n", s.Makespan)
	fmt.Fprintf(f, "Sum of Costs: %d\n", s.SumOfCosts)
	fmt.Fprintf(f, "Average Cost: %.2f\n", s.AverageCost)
	fmt.Fprintf(f, "Success Rate: %.2f%%\n", s.SuccessRate*100)
	fmt.Fprintf(f, "Collisions: %d\n\n", len(s.CollisionLog))

	fmt.Fprintln(f, "=== Agent Details ===")
	for _, a := range scRun.Agents {
		p := plan[a.ID]
		fmt.Fprintf(f, "Agent %d:\n", a.ID)
		fmt.Fprintf(f, "  Start: %v\n", a.Start)
		fmt.Fprintf(f, "  Goal: %v\n", a.Goal)
		fmt.Fprintf(f, "  Path Length: %d\n", len(p))
		fmt.Fprintf(f, "  Cost: %d\n\n", p.Cost())
	}
	return nil
}
