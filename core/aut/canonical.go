// Package aut computes symmetry and invariant reports for a hypergraph and
// CSS code pair: canonical views, bounded automorphism enumeration, spectral
// invariants, similarity scoring, and deterministic clustering.
package aut

import (
	"sort"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/graph"
)

// CanonicalEdge is a hyperedge expressed in canonical node indices.
type CanonicalEdge struct {
	Sources      []int `json:"sources"`
	Destinations []int `json:"destinations"`
}

// CanonicalGraph is the order-independent view of a hypergraph.
type CanonicalGraph struct {
	NodeOrder []graph.NodeID  `json:"node_order"`
	Edges     []CanonicalEdge `json:"edges"`
}

// Len returns the number of canonical nodes.
func (g CanonicalGraph) Len() int {
	return len(g.NodeOrder)
}

// CanonicalCode is the order-independent view of a CSS code.
type CanonicalCode struct {
	NumVariables int     `json:"num_variables"`
	XChecks      [][]int `json:"x_checks"`
	ZChecks      [][]int `json:"z_checks"`
}

// CanonicalState bundles both canonical views with their structural hashes.
type CanonicalState struct {
	Graph     CanonicalGraph `json:"graph"`
	Code      CanonicalCode  `json:"code"`
	GraphHash string         `json:"graph_hash"`
	CodeHash  string         `json:"code_hash"`
}

// BuildCanonical computes canonical forms for a state.
func BuildCanonical(g *graph.Hypergraph, c *code.Code) (CanonicalState, error) {
	canonicalGraph, err := canonicalizeGraph(g)
	if err != nil {
		return CanonicalState{}, err
	}
	return CanonicalState{
		Graph:     canonicalGraph,
		Code:      canonicalizeCode(c),
		GraphHash: g.CanonicalHash(),
		CodeHash:  c.CanonicalHash(),
	}, nil
}

func canonicalizeGraph(g *graph.Hypergraph) (CanonicalGraph, error) {
	nodeOrder := g.Nodes()
	indexOf := make(map[graph.NodeID]int, len(nodeOrder))
	for idx, id := range nodeOrder {
		indexOf[id] = idx
	}

	edgeIDs := g.Edges()
	edges := make([]CanonicalEdge, 0, len(edgeIDs))
	for _, id := range edgeIDs {
		sources, err := g.Sources(id)
		if err != nil {
			return CanonicalGraph{}, err
		}
		destinations, err := g.Destinations(id)
		if err != nil {
			return CanonicalGraph{}, err
		}
		edges = append(edges, CanonicalEdge{
			Sources:      mapIndices(sources, indexOf),
			Destinations: mapIndices(destinations, indexOf),
		})
	}
	sortEdges(edges)
	return CanonicalGraph{NodeOrder: nodeOrder, Edges: edges}, nil
}

func mapIndices(nodes []graph.NodeID, indexOf map[graph.NodeID]int) []int {
	out := make([]int, len(nodes))
	for i, id := range nodes {
		out[i] = indexOf[id]
	}
	sort.Ints(out)
	return out
}

func sortEdges(edges []CanonicalEdge) {
	sort.Slice(edges, func(i, j int) bool {
		return compareEdges(edges[i], edges[j]) < 0
	})
}

func compareEdges(a, b CanonicalEdge) int {
	if c := compareInts(a.Sources, b.Sources); c != 0 {
		return c
	}
	return compareInts(a.Destinations, b.Destinations)
}

func compareInts(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func canonicalizeCode(c *code.Code) CanonicalCode {
	return CanonicalCode{
		NumVariables: c.NumVariables(),
		XChecks:      sortSupports(c.XSupports()),
		ZChecks:      sortSupports(c.ZSupports()),
	}
}

func sortSupports(supports [][]int) [][]int {
	for _, s := range supports {
		sort.Ints(s)
	}
	sort.Slice(supports, func(i, j int) bool {
		return compareInts(supports[i], supports[j]) < 0
	})
	return supports
}
