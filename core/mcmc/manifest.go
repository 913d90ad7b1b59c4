package mcmc

import (
	"os"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/internal/errors"
)

// RunManifest describes a completed or in-flight ensemble run. Paths are
// relative to the run directory.
type RunManifest struct {
	Config      RunConfig `json:"config"`
	MasterSeed  uint64    `json:"master_seed"`
	SeedLabel   string    `json:"seed_label,omitempty"`
	CodeHash    string    `json:"code_hash"`
	GraphHash   string    `json:"graph_hash"`
	MetricsFile string    `json:"metrics_file,omitempty"`
	Checkpoints []string  `json:"checkpoints"`
}

// WriteManifest stores the manifest atomically as canonical JSON.
func (m *RunManifest) WriteManifest(path string) error {
	data, err := codec.Marshal(m)
	if err != nil {
		return errors.Wrap(errors.FamilySerde, "manifest-serialize",
			"failed to serialize manifest", err).WithContext("path", path)
	}
	return atomicWrite(path, data, "manifest")
}

// LoadManifest reads a manifest from disk.
func LoadManifest(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "manifest-read",
			"failed to read manifest", err).WithContext("path", path)
	}
	var manifest RunManifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "manifest-parse",
			"failed to parse manifest", err).WithContext("path", path)
	}
	return &manifest, nil
}
