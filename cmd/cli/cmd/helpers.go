// Package cmd - shared helpers for the pipeline commands
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/graph"
)

// statePaths points at the serialized code and graph of a sampled state.
type statePaths struct {
	Code  string `json:"code"`
	Graph string `json:"graph"`
}

// loadState reads a state manifest and deserializes both halves. Relative
// paths inside the manifest resolve against the manifest's directory.
func loadState(manifestPath string) (*code.Code, *graph.Hypergraph, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read state manifest: %w", err)
	}
	var paths statePaths
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, nil, fmt.Errorf("failed to parse state manifest: %w", err)
	}

	base := filepath.Dir(manifestPath)
	codeData, err := os.ReadFile(resolvePath(base, paths.Code))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read code state: %w", err)
	}
	graphData, err := os.ReadFile(resolvePath(base, paths.Graph))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read graph state: %w", err)
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

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// writeJSON stores a value as canonical JSON, creating parents as needed.
func writeJSON(path string, value interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := codec.Marshal(value)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// readJSON parses a canonical JSON artefact into value.
func readJSON(path string, value interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return codec.Unmarshal(data, value)
}

// copyFile duplicates a small artefact for reproducibility records.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
