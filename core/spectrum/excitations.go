package spectrum

import (
	"sort"

	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// ExcitationKind names the supported excitation families.
type ExcitationKind string

const (
	// LocalDefect probes the highest-degree nodes.
	LocalDefect ExcitationKind = "local-defect"
	// PlaneWave walks the sorted node list from a mode-dependent offset.
	PlaneWave ExcitationKind = "plane-wave"
	// RandomLowWeight draws a seeded random subset.
	RandomLowWeight ExcitationKind = "random-low-weight"
)

// ExcitationSpec describes how an excitation is seeded.
type ExcitationSpec struct {
	Kind       ExcitationKind `json:"kind"`
	Support    int            `json:"support"`
	PlaneWaveK int            `json:"plane_wave_k"`
}

// DefaultExcitationSpec is a support-3 local defect.
func DefaultExcitationSpec() ExcitationSpec {
	return ExcitationSpec{Kind: LocalDefect, Support: 3}
}

func excitationSupport(operators *Operators, spec ExcitationSpec, seed uint64) ([]uint64, error) {
	nodes := len(operators.NodeDegrees)
	if nodes == 0 {
		return nil, errors.New(errors.FamilyCode, "no-nodes",
			"cannot seed excitations without available nodes")
	}
	if spec.Support == 0 {
		return nil, errors.New(errors.FamilyCode, "invalid-support",
			"excitation support must be at least one")
	}
	if spec.Support > nodes {
		return nil, errors.Newf(errors.FamilyCode, "support-too-large",
			"requested support %d exceeds available nodes %d", spec.Support, nodes)
	}
	switch spec.Kind {
	case PlaneWave:
		return selectPlaneWave(operators, spec.Support, spec.PlaneWaveK), nil
	case RandomLowWeight:
		return selectRandomLowWeight(operators, spec.Support, seed), nil
	default:
		return selectLocalDefect(operators, spec.Support), nil
	}
}

func selectLocalDefect(operators *Operators, support int) []uint64 {
	summaries := append([]NodeSummary(nil), operators.NodeDegrees...)
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Degree != summaries[j].Degree {
			return summaries[i].Degree > summaries[j].Degree
		}
		return summaries[i].Node < summaries[j].Node
	})
	out := make([]uint64, support)
	for i := 0; i < support; i++ {
		out[i] = summaries[i].Node
	}
	return out
}

func selectPlaneWave(operators *Operators, support, mode int) []uint64 {
	nodes := sortedNodeIDs(operators)
	offset := 0
	if len(nodes) > 0 {
		offset = mode % len(nodes)
	}
	out := make([]uint64, support)
	for i := 0; i < support; i++ {
		out[i] = nodes[(offset+i)%len(nodes)]
	}
	return out
}

func selectRandomLowWeight(operators *Operators, support int, seed uint64) []uint64 {
	nodes := sortedNodeIDs(operators)
	stream := determinism.NewStream(seed)
	limit := support
	if len(nodes) < limit {
		limit = len(nodes)
	}
	for i := 0; i < limit; i++ {
		remaining := len(nodes) - i
		choice := int(stream.Uint64()%uint64(remaining)) + i
		nodes[i], nodes[choice] = nodes[choice], nodes[i]
	}
	return nodes[:limit]
}

func sortedNodeIDs(operators *Operators) []uint64 {
	nodes := make([]uint64, len(operators.NodeDegrees))
	for i, summary := range operators.NodeDegrees {
		nodes[i] = summary.Node
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}
