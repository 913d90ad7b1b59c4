package mcmc

import (
	"os"
	"path/filepath"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/errors"
)

// LoadEndState reads the cold replica end state from a run directory.
func LoadEndState(runDir string) (*code.Code, *graph.Hypergraph, error) {
	codePath := filepath.Join(runDir, "end_state", "code.json")
	graphPath := filepath.Join(runDir, "end_state", "graph.json")

	codeData, err := os.ReadFile(codePath)
	if err != nil {
		return nil, nil, errors.Wrap(errors.FamilySerde, "end-state-read",
			"failed to read end state code", err).WithContext("path", codePath)
	}
	graphData, err := os.ReadFile(graphPath)
	if err != nil {
		return nil, nil, errors.Wrap(errors.FamilySerde, "end-state-read",
			"failed to read end state graph", err).WithContext("path", graphPath)
	}

	c, err := code.Unmarshal(codeData)
	if err != nil {
		return nil, nil, err
	}
	g, err := graph.Unmarshal(graphData)
	if err != nil {
		return nil, nil, err
	}
	return c, g, nil
}

// DispersionForState computes dispersion data for a sampled state.
func DispersionForState(c *code.Code, g *graph.Hypergraph, spec spectrum.DispersionSpec, seed uint64) (*spectrum.DispersionReport, error) {
	operators, err := spectrum.BuildOperators(g, c, spectrum.DefaultOpOpts())
	if err != nil {
		return nil, err
	}
	return spectrum.DispersionScan(operators, spec, seed)
}

// DispersionForCheckpoint computes dispersion data for the cold replica
// stored inside a checkpoint file.
func DispersionForCheckpoint(path string, spec spectrum.DispersionSpec, seed uint64) (*spectrum.DispersionReport, error) {
	payload, err := LoadCheckpoint(path)
	if err != nil {
		return nil, err
	}
	states, err := RestoreCheckpoint(payload)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, errors.New(errors.FamilySerde, "empty-checkpoint",
			"checkpoint contained no replicas").WithContext("path", path)
	}
	cold := states[0]
	return DispersionForState(cold.Code, cold.Graph, spec, seed)
}

// ResolveCheckpointPaths joins the manifest-relative checkpoint listing
// with the run directory.
func ResolveCheckpointPaths(runDir string, manifestPaths []string) []string {
	out := make([]string, 0, len(manifestPaths))
	for _, rel := range manifestPaths {
		out = append(out, filepath.Join(runDir, rel))
	}
	return out
}
