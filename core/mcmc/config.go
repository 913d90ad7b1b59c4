package mcmc

import (
	"os"

	"gopkg.in/yaml.v3"

	"vacuum-landscape/internal/errors"
)

// LadderPolicy selects how replica temperatures are generated.
type LadderPolicy string

const (
	// PolicyGeometric spaces temperatures by a fixed multiplicative ratio.
	PolicyGeometric LadderPolicy = "geometric"
	// PolicyManual uses an explicit temperature list.
	PolicyManual LadderPolicy = "manual"
)

// LadderConfig describes the replica temperature ladder.
type LadderConfig struct {
	Replicas        int          `json:"replicas" yaml:"replicas"`
	BaseTemperature float64      `json:"base_temperature" yaml:"base_temperature"`
	Policy          LadderPolicy `json:"policy" yaml:"policy"`
	// Ratio applies to the geometric policy.
	Ratio float64 `json:"ratio,omitempty" yaml:"ratio,omitempty"`
	// Temperatures applies to the manual policy and overrides Replicas.
	Temperatures []float64 `json:"temperatures,omitempty" yaml:"temperatures,omitempty"`
}

// DefaultLadderConfig is three replicas spaced geometrically from T=1.
func DefaultLadderConfig() LadderConfig {
	return LadderConfig{
		Replicas:        3,
		BaseTemperature: 1.0,
		Policy:          PolicyGeometric,
		Ratio:           1.5,
	}
}

// MoveCounts sets how many proposals of each move type run per sweep.
type MoveCounts struct {
	GeneratorFlips int `json:"generator_flips" yaml:"generator_flips"`
	RowOps         int `json:"row_ops" yaml:"row_ops"`
	GraphRewires   int `json:"graph_rewires" yaml:"graph_rewires"`
	WormMoves      int `json:"worm_moves" yaml:"worm_moves"`
}

// DefaultMoveCounts runs one proposal of every kind per sweep.
func DefaultMoveCounts() MoveCounts {
	return MoveCounts{GeneratorFlips: 1, RowOps: 1, GraphRewires: 1, WormMoves: 1}
}

// CheckpointConfig controls checkpoint emission and retention.
type CheckpointConfig struct {
	// Interval in sweeps between checkpoints. Zero disables checkpointing.
	Interval  int    `json:"interval" yaml:"interval"`
	Directory string `json:"directory,omitempty" yaml:"directory,omitempty"`
	MaxToKeep int    `json:"max_to_keep" yaml:"max_to_keep"`
}

// DefaultCheckpointConfig disables checkpointing and retains four files.
func DefaultCheckpointConfig() CheckpointConfig {
	return CheckpointConfig{Interval: 0, MaxToKeep: 4}
}

// ScoringWeights weight the three energy proxies in the total.
type ScoringWeights struct {
	Cmdl float64 `json:"cmdl" yaml:"cmdl"`
	Spec float64 `json:"spec" yaml:"spec"`
	Curv float64 `json:"curv" yaml:"curv"`
}

// DefaultScoringWeights weight every proxy equally.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{Cmdl: 1.0, Spec: 1.0, Curv: 1.0}
}

// SeedPolicy records the master seed and an optional provenance label.
type SeedPolicy struct {
	MasterSeed uint64 `json:"master_seed" yaml:"master_seed"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
}

// DefaultSeedPolicy returns the fixed default master seed.
func DefaultSeedPolicy() SeedPolicy {
	return SeedPolicy{MasterSeed: 0x05EED5EEDD155EED}
}

// OutputConfig names the artifacts of a run. An empty RunDirectory
// disables all file output.
type OutputConfig struct {
	RunDirectory  string `json:"run_directory,omitempty" yaml:"run_directory,omitempty"`
	MetricsFile   string `json:"metrics_file" yaml:"metrics_file"`
	ManifestFile  string `json:"manifest_file" yaml:"manifest_file"`
	CheckpointDir string `json:"checkpoint_dir" yaml:"checkpoint_dir"`
	EndStateDir   string `json:"end_state_dir" yaml:"end_state_dir"`
}

// DefaultOutputConfig uses the standard run layout with output disabled.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		MetricsFile:   "metrics.csv",
		ManifestFile:  "manifest.json",
		CheckpointDir: "checkpoints",
		EndStateDir:   "end_state",
	}
}

// RunConfig gathers every knob of an ensemble run.
type RunConfig struct {
	Sweeps     int              `json:"sweeps" yaml:"sweeps"`
	BurnIn     int              `json:"burn_in" yaml:"burn_in"`
	Thinning   int              `json:"thinning" yaml:"thinning"`
	Ladder     LadderConfig     `json:"ladder" yaml:"ladder"`
	MoveCounts MoveCounts       `json:"move_counts" yaml:"move_counts"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`
	Scoring    ScoringWeights   `json:"scoring" yaml:"scoring"`
	SeedPolicy SeedPolicy       `json:"seed_policy" yaml:"seed_policy"`
	Output     OutputConfig     `json:"output" yaml:"output"`
}

// DefaultRunConfig runs 32 sweeps with metrics recorded every sweep.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Sweeps:     32,
		BurnIn:     0,
		Thinning:   1,
		Ladder:     DefaultLadderConfig(),
		MoveCounts: DefaultMoveCounts(),
		Checkpoint: DefaultCheckpointConfig(),
		Scoring:    DefaultScoringWeights(),
		SeedPolicy: DefaultSeedPolicy(),
		Output:     DefaultOutputConfig(),
	}
}

// Sanitized clamps the counters a run loop depends on.
func (c RunConfig) Sanitized() RunConfig {
	out := c
	if out.Sweeps < 0 {
		out.Sweeps = 0
	}
	if out.BurnIn < 0 {
		out.BurnIn = 0
	}
	if out.Thinning < 1 {
		out.Thinning = 1
	}
	if out.Checkpoint.MaxToKeep < 1 {
		out.Checkpoint.MaxToKeep = 1
	}
	if out.Ladder.Replicas < 1 {
		out.Ladder.Replicas = 1
	}
	if out.Output.MetricsFile == "" {
		out.Output.MetricsFile = "metrics.csv"
	}
	if out.Output.ManifestFile == "" {
		out.Output.ManifestFile = "manifest.json"
	}
	if out.Output.CheckpointDir == "" {
		out.Output.CheckpointDir = "checkpoints"
	}
	if out.Output.EndStateDir == "" {
		out.Output.EndStateDir = "end_state"
	}
	return out
}

// LoadConfig reads a YAML run configuration, filling omitted fields with
// defaults.
func LoadConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, errors.Wrap(errors.FamilySerde, "config-read",
			"failed to read run config", err).WithContext("path", path)
	}
	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, errors.Wrap(errors.FamilySerde, "config-parse",
			"failed to parse run config", err).WithContext("path", path)
	}
	return cfg.Sanitized(), nil
}
