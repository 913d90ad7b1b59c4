// Package graph implements the directed hypergraph engine: an ordered
// mutable store with tombstoned nodes and edges, structural invariants
// (arity, degree caps, acyclicity), canonical hashing, Forman curvature,
// reversible rewiring moves, and deterministic generators.
package graph

import (
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// UniformityMode selects how edge arity is constrained.
type UniformityMode string

const (
	// UniformityTotal constrains |S|+|D| with a minimum source count.
	UniformityTotal UniformityMode = "total"
	// UniformityBalanced pins |S| and |D| exactly.
	UniformityBalanced UniformityMode = "balanced"
)

// KUniformity is an optional arity rule applied to every edge.
type KUniformity struct {
	Mode UniformityMode `json:"mode"`

	// Total endpoint count and minimum source count (total mode).
	Total      int `json:"total,omitempty"`
	MinSources int `json:"min_sources,omitempty"`

	// Exact source and destination counts (balanced mode).
	Sources      int `json:"sources,omitempty"`
	Destinations int `json:"destinations,omitempty"`
}

// Validate checks an edge's endpoint counts against the rule.
func (k *KUniformity) Validate(sources, destinations int) error {
	switch k.Mode {
	case UniformityTotal:
		if sources+destinations != k.Total || sources < k.MinSources || destinations < 1 {
			return errors.Newf(errors.FamilyGraph, "invalid-arity",
				"edge with %d sources and %d destinations violates total-%d uniformity",
				sources, destinations, k.Total).
				WithContext("min_sources", k.MinSources)
		}
	case UniformityBalanced:
		if sources != k.Sources || destinations != k.Destinations {
			return errors.Newf(errors.FamilyGraph, "invalid-arity",
				"edge with %d sources and %d destinations violates balanced %d/%d uniformity",
				sources, destinations, k.Sources, k.Destinations)
		}
	}
	return nil
}

// SchemaVersion identifies the on-disk graph schema.
type SchemaVersion struct {
	Major uint32 `json:"major"`
	Minor uint32 `json:"minor"`
	Patch uint32 `json:"patch"`
}

// Config parameterizes a hypergraph instance.
type Config struct {
	// CausalMode forbids directed cycles in the edge expansion.
	CausalMode bool `json:"causal_mode"`

	// MaxInDegree / MaxOutDegree cap per-node incident live edges.
	// Nil means unbounded.
	MaxInDegree  *int `json:"max_in_degree,omitempty"`
	MaxOutDegree *int `json:"max_out_degree,omitempty"`

	// KUniform is an optional arity rule.
	KUniform *KUniformity `json:"k_uniform,omitempty"`

	Schema SchemaVersion `json:"schema"`
}

// DefaultConfig returns the standard causal balanced-2/2 configuration.
func DefaultConfig() Config {
	in, out := 8, 8
	return Config{
		CausalMode:   true,
		MaxInDegree:  &in,
		MaxOutDegree: &out,
		KUniform: &KUniformity{
			Mode:         UniformityBalanced,
			Sources:      2,
			Destinations: 2,
		},
		Schema: SchemaVersion{Major: 2, Minor: 0, Patch: 0},
	}
}

// hashBytes encodes the configuration for the canonical graph hash. The
// layout is frozen; any change invalidates every persisted hash.
func (c *Config) hashBytes() []byte {
	buf := make([]byte, 0, 64)
	if c.CausalMode {
		buf = append(buf, []byte("causal")...)
	} else {
		buf = append(buf, []byte("acyclic-off")...)
	}
	buf = appendCap(buf, "max-in", c.MaxInDegree)
	buf = appendCap(buf, "max-out", c.MaxOutDegree)
	switch {
	case c.KUniform == nil:
		buf = append(buf, []byte("kuniform:none")...)
	case c.KUniform.Mode == UniformityBalanced:
		buf = append(buf, []byte("kuniform:balanced")...)
		buf = determinism.AppendUint64LE(buf, uint64(c.KUniform.Sources))
		buf = determinism.AppendUint64LE(buf, uint64(c.KUniform.Destinations))
	default:
		buf = append(buf, []byte("kuniform:total")...)
		buf = determinism.AppendUint64LE(buf, uint64(c.KUniform.Total))
		buf = determinism.AppendUint64LE(buf, uint64(c.KUniform.MinSources))
	}
	buf = determinism.AppendUint32LE(buf, c.Schema.Major)
	buf = determinism.AppendUint32LE(buf, c.Schema.Minor)
	buf = determinism.AppendUint32LE(buf, c.Schema.Patch)
	return buf
}

func appendCap(buf []byte, label string, cap *int) []byte {
	buf = append(buf, []byte(label)...)
	if cap != nil {
		buf = append(buf, []byte(":some")...)
		buf = determinism.AppendUint64LE(buf, uint64(*cap))
	} else {
		buf = append(buf, []byte(":none")...)
	}
	return buf
}
