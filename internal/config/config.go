// Package config loads the settings a solve run needs beyond the core's own
// mapf.Config: which map file to read, how many agents to generate, where
// to write results. It's viper-backed so the same keys can come from
// defaults, a YAML file, or environment variables, each layer overriding
// the one before it.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapf"
)

// Run is the full configuration of one end-to-end solve invocation: map
// input, scenario generation, the core's own Config, and output locations.
type Run struct {
	MapFile      string `mapstructure:"map_file"`
	NumAgents    int    `mapstructure:"num_agents"`
	Seed         int64  `mapstructure:"seed"`
	OutputDir    string `mapstructure:"output_dir"`
	LogLevel     string `mapstructure:"log_level"`
	Visualize    bool   `mapstructure:"visualize"`
	SaveResults  bool   `mapstructure:"save_results"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
	ProgressAddr string `mapstructure:"progress_addr"`

	MaxTimeSteps          int  `mapstructure:"max_time_steps"`
	MaxHighLevelNodes     int  `mapstructure:"max_high_level_nodes"`
	TiebreakPreferH       bool `mapstructure:"tiebreak_prefer_h"`
	EnumerateAllConflicts bool `mapstructure:"enumerate_all_conflicts"`
}

// Solver extracts the mapf.Config subset of r.
func (r Run) Solver() mapf.Config {
	return mapf.Config{
		MaxTimeSteps:          r.MaxTimeSteps,
		MaxHighLevelNodes:     r.MaxHighLevelNodes,
		TiebreakPreferH:       r.TiebreakPreferH,
		EnumerateAllConflicts: r.EnumerateAllConflicts,
	}
}

func defaults() Run {
	d := mapf.DefaultConfig()
	return Run{
		NumAgents:             8,
		OutputDir:             "results",
		LogLevel:              "info",
		Visualize:             true,
		SaveResults:           true,
		MaxTimeSteps:          d.MaxTimeSteps,
		MaxHighLevelNodes:     d.MaxHighLevelNodes,
		TiebreakPreferH:       d.TiebreakPreferH,
		EnumerateAllConflicts: d.EnumerateAllConflicts,
	}
}

// Load reads configuration from path (if non-empty) layered over defaults;
// MAPF_-prefixed environment variables override both. path may be empty, in
// which case only defaults and the environment apply.
func Load(path string) (Run, error) {
	d := defaults()

	vp := viper.New()
	vp.SetEnvPrefix("mapf")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	vp.SetDefault("map_file", d.MapFile)
	vp.SetDefault("num_agents", d.NumAgents)
	vp.SetDefault("seed", d.Seed)
	vp.SetDefault("output_dir", d.OutputDir)
	vp.SetDefault("log_level", d.LogLevel)
	vp.SetDefault("visualize", d.Visualize)
	vp.SetDefault("save_results", d.SaveResults)
	vp.SetDefault("metrics_addr", d.MetricsAddr)
	vp.SetDefault("progress_addr", d.ProgressAddr)
	vp.SetDefault("max_time_steps", d.MaxTimeSteps)
	vp.SetDefault("max_high_level_nodes", d.MaxHighLevelNodes)
	vp.SetDefault("tiebreak_prefer_h", d.TiebreakPreferH)
	vp.SetDefault("enumerate_all_conflicts", d.EnumerateAllConflicts)

	if path != "" {
		vp.SetConfigFile(path)
		if err := vp.ReadInConfig(); err != nil {
			return Run{}, err
		}
	}

	var out Run
	if err := vp.Unmarshal(&out); err != nil {
		return Run{}, err
	}
	return out, nil
}
