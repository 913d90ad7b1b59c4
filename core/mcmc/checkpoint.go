package mcmc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/internal/errors"
)

// ReplicaCheckpoint is the serialized form of one replica.
type ReplicaCheckpoint struct {
	Temperature float64         `json:"temperature"`
	CodeJSON    string          `json:"code_json"`
	GraphJSON   string          `json:"graph_json"`
	Energy      EnergyBreakdown `json:"energy"`
}

// CheckpointPayload is a full sampler snapshot sufficient to resume.
type CheckpointPayload struct {
	Sweep      int                 `json:"sweep"`
	Config     RunConfig           `json:"config"`
	MasterSeed uint64              `json:"master_seed"`
	Replicas   []ReplicaCheckpoint `json:"replicas"`
}

// RestoredReplica is a replica reconstructed from a checkpoint.
type RestoredReplica struct {
	Temperature float64
	Code        *code.Code
	Graph       *graph.Hypergraph
	Energy      EnergyBreakdown
}

// BuildCheckpoint serializes replica states into a payload.
func BuildCheckpoint(sweep int, cfg RunConfig, masterSeed uint64, replicas []RestoredReplica) (*CheckpointPayload, error) {
	payload := &CheckpointPayload{
		Sweep:      sweep,
		Config:     cfg,
		MasterSeed: masterSeed,
		Replicas:   make([]ReplicaCheckpoint, 0, len(replicas)),
	}
	for _, replica := range replicas {
		codeJSON, err := replica.Code.Marshal()
		if err != nil {
			return nil, err
		}
		graphJSON, err := replica.Graph.Marshal()
		if err != nil {
			return nil, err
		}
		payload.Replicas = append(payload.Replicas, ReplicaCheckpoint{
			Temperature: replica.Temperature,
			CodeJSON:    string(codeJSON),
			GraphJSON:   string(graphJSON),
			Energy:      replica.Energy,
		})
	}
	return payload, nil
}

// RestoreCheckpoint reconstructs concrete replica states from a payload.
func RestoreCheckpoint(payload *CheckpointPayload) ([]RestoredReplica, error) {
	states := make([]RestoredReplica, 0, len(payload.Replicas))
	for _, replica := range payload.Replicas {
		c, err := code.Unmarshal([]byte(replica.CodeJSON))
		if err != nil {
			return nil, err
		}
		g, err := graph.Unmarshal([]byte(replica.GraphJSON))
		if err != nil {
			return nil, err
		}
		states = append(states, RestoredReplica{
			Temperature: replica.Temperature,
			Code:        c,
			Graph:       g,
			Energy:      replica.Energy,
		})
	}
	return states, nil
}

// LoadCheckpoint reads a payload from disk.
func LoadCheckpoint(path string) (*CheckpointPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "checkpoint-read",
			"failed to read checkpoint", err).WithContext("path", path)
	}
	var payload CheckpointPayload
	if err := codec.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrap(errors.FamilySerde, "checkpoint-parse",
			"failed to parse checkpoint", err).WithContext("path", path)
	}
	return &payload, nil
}

// StoreCheckpoint writes the payload atomically: the bytes land in a
// uuid-named sibling first and are renamed into place.
func (p *CheckpointPayload) StoreCheckpoint(path string) error {
	data, err := codec.Marshal(p)
	if err != nil {
		return errors.Wrap(errors.FamilySerde, "checkpoint-serialize",
			"failed to serialize checkpoint", err).WithContext("path", path)
	}
	return atomicWrite(path, data, "checkpoint")
}

// CheckpointPath names the checkpoint file for a sweep.
func CheckpointPath(dir string, sweep int) string {
	return filepath.Join(dir, fmt.Sprintf("ckpt_%05d.json", sweep))
}

func atomicWrite(path string, data []byte, label string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.FamilySerde, label+"-mkdir",
			"failed to create output directory", err).WithContext("path", dir)
	}
	temp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return errors.Wrap(errors.FamilySerde, label+"-write",
			"failed to write temporary file", err).WithContext("path", temp)
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return errors.Wrap(errors.FamilySerde, label+"-rename",
			"failed to move file into place", err).WithContext("path", path)
	}
	return nil
}
