// Package spectrum assembles effective operators from a hypergraph and CSS
// code and runs deterministic dispersion, correlation, and propagation
// scans over them.
package spectrum

import (
	"sort"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/internal/errors"
)

// OpsVariant selects the edge kernel used during operator assembly.
type OpsVariant string

const (
	// VariantDefault weights each pair 1/(|S|*|D|).
	VariantDefault OpsVariant = "default"
	// VariantAlt weights each pair (|S|+|D|)/(2*|S|*|D|).
	VariantAlt OpsVariant = "alt"
)

// OpOpts controls operator construction.
type OpOpts struct {
	Variant OpsVariant `json:"variant"`
}

// DefaultOpOpts uses the canonical kernel.
func DefaultOpOpts() OpOpts {
	return OpOpts{Variant: VariantDefault}
}

// OperatorEntry is one coordinate-form matrix entry.
type OperatorEntry struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Weight float64 `json:"weight"`
}

// NodeSummary records the total degree seen for one node.
type NodeSummary struct {
	Node   uint64 `json:"node"`
	Degree int    `json:"degree"`
}

// OperatorsInfo is the metadata block of an operator bundle.
type OperatorsInfo struct {
	NumNodes      int     `json:"num_nodes"`
	NumEdges      int     `json:"num_edges"`
	Nnz           int     `json:"nnz"`
	AvgDegree     float64 `json:"avg_degree"`
	MaxDegree     int     `json:"max_degree"`
	CodeVariables int     `json:"code_variables"`
	CodeRankX     int     `json:"code_rank_x"`
	CodeRankZ     int     `json:"code_rank_z"`
	Hash          string  `json:"hash"`
}

// Operators is the assembled sparse operator with per-node summaries.
type Operators struct {
	Info        OperatorsInfo   `json:"info"`
	Entries     []OperatorEntry `json:"entries"`
	NodeDegrees []NodeSummary   `json:"node_degrees"`
}

// BuildOperators walks every live edge and accumulates kernel-weighted
// entries (row = source index, col = destination index), coalescing
// coincident coordinates.
func BuildOperators(g *graph.Hypergraph, c *code.Code, opts OpOpts) (*Operators, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, errors.New(errors.FamilyGraph, "empty-graph",
			"cannot build operators for empty graph")
	}
	indexOf := make(map[graph.NodeID]int, len(nodes))
	for idx, id := range nodes {
		indexOf[id] = idx
	}

	degrees := make([]int, len(nodes))
	var entries []OperatorEntry
	edgeCount := 0
	for _, edgeID := range g.Edges() {
		sources, err := g.Sources(edgeID)
		if err != nil {
			return nil, err
		}
		destinations, err := g.Destinations(edgeID)
		if err != nil {
			return nil, err
		}
		weight := entryWeight(opts.Variant, len(sources), len(destinations))
		for _, src := range sources {
			row := indexOf[src]
			degrees[row]++
			for _, dst := range destinations {
				col := indexOf[dst]
				degrees[col]++
				entries = append(entries, OperatorEntry{Row: row, Col: col, Weight: weight})
			}
		}
		edgeCount++
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Row != entries[j].Row {
			return entries[i].Row < entries[j].Row
		}
		if entries[i].Col != entries[j].Col {
			return entries[i].Col < entries[j].Col
		}
		return entries[i].Weight < entries[j].Weight
	})
	coalesced := make([]OperatorEntry, 0, len(entries))
	for _, entry := range entries {
		if n := len(coalesced); n > 0 &&
			coalesced[n-1].Row == entry.Row && coalesced[n-1].Col == entry.Col {
			coalesced[n-1].Weight = determinism.Round(coalesced[n-1].Weight + entry.Weight)
			continue
		}
		coalesced = append(coalesced, entry)
	}

	totalDegree := 0
	maxDegree := 0
	for _, d := range degrees {
		totalDegree += d
		if d > maxDegree {
			maxDegree = d
		}
	}
	avgDegree := determinism.Round(float64(totalDegree) / float64(len(degrees)))

	nodeDegrees := make([]NodeSummary, len(nodes))
	for idx, id := range nodes {
		nodeDegrees[idx] = NodeSummary{Node: uint64(id), Degree: degrees[idx]}
	}

	hash, err := codec.StableHash(coalesced)
	if err != nil {
		return nil, err
	}
	return &Operators{
		Info: OperatorsInfo{
			NumNodes:      len(nodes),
			NumEdges:      edgeCount,
			Nnz:           len(coalesced),
			AvgDegree:     avgDegree,
			MaxDegree:     maxDegree,
			CodeVariables: c.NumVariables(),
			CodeRankX:     c.RankX(),
			CodeRankZ:     c.RankZ(),
			Hash:          hash,
		},
		Entries:     coalesced,
		NodeDegrees: nodeDegrees,
	}, nil
}

func entryWeight(variant OpsVariant, sources, destinations int) float64 {
	s := float64(sources)
	if s < 1 {
		s = 1
	}
	d := float64(destinations)
	if d < 1 {
		d = 1
	}
	if variant == VariantAlt {
		return determinism.Round((s + d) / (s * d) * 0.5)
	}
	return determinism.Round(1 / (s * d))
}

// baseScale normalizes formulas by the average degree, defaulting to one
// for degenerate graphs.
func (o *Operators) baseScale() float64 {
	if o.Info.AvgDegree == 0 {
		return 1
	}
	return o.Info.AvgDegree
}
