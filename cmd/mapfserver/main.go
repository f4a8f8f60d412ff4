// Command mapfserver exposes CBS solving as an HTTP JSON service: POST a map
// and agents, get back a joint plan and metrics. A websocket endpoint
// streams the same search's progress (node expansions, conflicts, solution)
// to any connected subscriber.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/metrics"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/obslog"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/progress"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/solver"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger, err := obslog.New(obslog.Options{Level: *logLevel})
	if err != nil {
		panic(err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	broadcaster := progress.NewBroadcaster()

	h := &handler{logger: logger, collector: collector, broadcaster: broadcaster}

	r := mux.NewRouter()
	r.HandleFunc("/solve", h.serveSolve).Methods(http.MethodPost)
	r.HandleFunc("/progress", broadcaster.ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.HandleFunc("/healthz", h.serveHealthz).Methods(http.MethodGet)

	logger.Info("listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}

type handler struct {
	logger      *log.Logger
	collector   *metrics.Collector
	broadcaster *progress.Broadcaster
}

// cellDTO is the wire shape of a grid.Cell.
type cellDTO struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// agentDTO is the wire shape of one mapf.Agent.
type agentDTO struct {
	ID    int     `json:"id"`
	Start cellDTO `json:"start"`
	Goal  cellDTO `json:"goal"`
}

// solveRequest is the /solve POST body: an inline occupancy grid plus the
// agents to route through it.
type solveRequest struct {
	Occupied [][]bool   `json:"occupied"`
	Agents   []agentDTO `json:"agents"`
	Config   *struct {
		MaxTimeSteps          int  `json:"max_time_steps"`
		MaxHighLevelNodes     int  `json:"max_high_level_nodes"`
		TiebreakPreferH       bool `json:"tiebreak_prefer_h"`
		EnumerateAllConflicts bool `json:"enumerate_all_conflicts"`
	} `json:"config,omitempty"`
	Stream bool `json:"stream"`
}

// solveResponse is the /solve JSON reply.
type solveResponse struct {
	Status     string            `json:"status"`
	Paths      map[int][]cellDTO `json:"paths"`
	Makespan   int               `json:"makespan"`
	SumOfCosts int               `json:"sum_of_costs"`
	Elapsed    string            `json:"elapsed"`
}

func (h *handler) serveSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	g, err := grid.New(req.Occupied)
	if err != nil {
		http.Error(w, "invalid grid: "+err.Error(), http.StatusBadRequest)
		return
	}

	agents := make([]mapf.Agent, len(req.Agents))
	for i, a := range req.Agents {
		agents[i] = mapf.Agent{
			ID:    mapf.AgentID(a.ID),
			Start: grid.Cell{Row: a.Start.Row, Col: a.Start.Col},
			Goal:  grid.Cell{Row: a.Goal.Row, Col: a.Goal.Col},
		}
	}

	cfg := mapf.DefaultConfig()
	if req.Config != nil {
		cfg.MaxTimeSteps = req.Config.MaxTimeSteps
		cfg.MaxHighLevelNodes = req.Config.MaxHighLevelNodes
		cfg.TiebreakPreferH = req.Config.TiebreakPreferH
		cfg.EnumerateAllConflicts = req.Config.EnumerateAllConflicts
	}

	h.logger.Info("solve request", "agents", len(agents), "stream", req.Stream)
	start := time.Now()

	var plan mapf.JointPlan
	var status mapf.Status
	if req.Stream {
		plan, status, err = solver.SolveObserved(g, agents, cfg, h.broadcaster)
	} else {
		plan, status, err = solver.Solve(g, agents, cfg)
	}
	elapsed := time.Since(start)
	if err != nil {
		http.Error(w, "solve failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	summary := metrics.Summarize(plan, agents)
	h.collector.Observe(summary)

	paths := make(map[int][]cellDTO, len(plan))
	for id, p := range plan {
		cells := make([]cellDTO, len(p))
		for i, c := range p {
			cells[i] = cellDTO{Row: c.Row, Col: c.Col}
		}
		paths[int(id)] = cells
	}

	resp := solveResponse{
		Status:     status.String(),
		Paths:      paths,
		Makespan:   summary.Makespan,
		SumOfCosts: summary.SumOfCosts,
		Elapsed:    elapsed.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encoding response", "error", err)
	}
}

func (h *handler) serveHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
