// Package metrics computes result statistics for a solved (or failed)
// instance and exposes them as Prometheus gauges for long-running benchmark
// or server processes to scrape.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/conflict"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

// Summary is the computed result of one solve attempt.
type Summary struct {
	Makespan     int
	SumOfCosts   int
	AverageCost  float64
	SuccessRate  float64
	CollisionLog []mapf.Conflict
}

// Summarize computes a Summary for plan against the agents that were asked
// to be solved (agents, not just the ones present in plan, so a partial or
// failed solve still reports a meaningful success rate).
func Summarize(plan mapf.JointPlan, agents []mapf.Agent) Summary {
	s := Summary{
		Makespan:     plan.Makespan(),
		SumOfCosts:   plan.SumOfCosts(),
		CollisionLog: conflict.All(plan),
	}
	if len(plan) > 0 {
		s.AverageCost = float64(s.SumOfCosts) / float64(len(plan))
	}
	s.SuccessRate = successRate(plan, agents)
	return s
}

func successRate(plan mapf.JointPlan, agents []mapf.Agent) float64 {
	if len(agents) == 0 {
		return 0
	}
	successful := 0
	for _, a := range agents {
		if p, ok := plan[a.ID]; ok && len(p) > 0 && p[len(p)-1] == a.Goal {
			successful++
		}
	}
	return float64(successful) / float64(len(agents))
}

// Collector exposes the last Summarize result as Prometheus gauges, for a
// server or long-running benchmark loop to register once and update per
// solve (spec's core itself performs no I/O or reporting; this is an
// external collaborator per spec §1).
type Collector struct {
	makespan    prometheus.Gauge
	sumOfCosts  prometheus.Gauge
	averageCost prometheus.Gauge
	successRate prometheus.Gauge
	collisions  prometheus.Gauge
}

// NewCollector builds a Collector and registers its gauges with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		makespan: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapf", Name: "makespan", Help: "Largest individual plan cost (steps) of the most recent solve.",
		}),
		sumOfCosts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapf", Name: "sum_of_costs", Help: "Sum of plan costs of the most recent solve.",
		}),
		averageCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapf", Name: "average_cost", Help: "Mean plan cost of the most recent solve.",
		}),
		successRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapf", Name: "success_rate", Help: "Fraction of agents that reached their goal.",
		}),
		collisions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapf", Name: "collisions_detected", Help: "Conflicts found in the most recently reported plan.",
		}),
	}
	reg.MustRegister(c.makespan, c.sumOfCosts, c.averageCost, c.successRate, c.collisions)
	return c
}

// Observe updates the gauges from s.
func (c *Collector) Observe(s Summary) {
	c.makespan.Set(float64(s.Makespan))
	c.sumOfCosts.Set(float64(s.SumOfCosts))
	c.averageCost.Set(s.AverageCost)
	c.successRate.Set(s.SuccessRate)
	c.collisions.Set(float64(len(s.CollisionLog)))
}
