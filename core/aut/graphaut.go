package aut

import (
	"sort"

	"vacuum-landscape/internal/errors"
)

// Enumeration cutoffs: beyond these the group is reported as identity-only
// with the truncated flag set.
const (
	graphNodeLimit = 7
	graphEdgeLimit = 8
)

// GraphAutReport summarizes the automorphism group of a hypergraph.
type GraphAutReport struct {
	Order         uint64 `json:"order"`
	GensTruncated bool   `json:"gens_truncated"`
	OrbitHist     []int  `json:"orbit_hist"`
}

// AnalyzeGraph enumerates node permutations that leave the canonical edge
// multiset fixed, then groups nodes into orbits by union-find.
func AnalyzeGraph(canonical CanonicalState) (GraphAutReport, error) {
	nodeCount := canonical.Graph.Len()
	if nodeCount == 0 {
		return GraphAutReport{Order: 1}, nil
	}
	if nodeCount > graphNodeLimit || len(canonical.Graph.Edges) > graphEdgeLimit {
		hist := make([]int, nodeCount)
		for i := range hist {
			hist[i] = 1
		}
		return GraphAutReport{Order: 1, GensTruncated: true, OrbitHist: hist}, nil
	}

	var automorphisms [][]int
	forEachPermutation(nodeCount, func(perm []int) {
		if isAutomorphism(canonical.Graph, perm) {
			automorphisms = append(automorphisms, append([]int(nil), perm...))
		}
	})
	if len(automorphisms) == 0 {
		return GraphAutReport{}, errors.New(errors.FamilyGraph, "graph-automorphism",
			"no automorphisms found including identity").
			WithContext("nodes", nodeCount).
			WithContext("edges", len(canonical.Graph.Edges))
	}

	uf := newUnionFind(nodeCount)
	for _, perm := range automorphisms {
		for idx, mapped := range perm {
			uf.union(idx, mapped)
		}
	}
	return GraphAutReport{
		Order:     uint64(len(automorphisms)),
		OrbitHist: uf.histogram(),
	}, nil
}

func isAutomorphism(g CanonicalGraph, perm []int) bool {
	mapped := make([]CanonicalEdge, len(g.Edges))
	for i, edge := range g.Edges {
		mapped[i] = applyPermutation(edge, perm)
	}
	sortEdges(mapped)
	for i := range mapped {
		if compareEdges(mapped[i], g.Edges[i]) != 0 {
			return false
		}
	}
	return true
}

func applyPermutation(edge CanonicalEdge, perm []int) CanonicalEdge {
	sources := make([]int, len(edge.Sources))
	for i, idx := range edge.Sources {
		sources[i] = perm[idx]
	}
	destinations := make([]int, len(edge.Destinations))
	for i, idx := range edge.Destinations {
		destinations[i] = perm[idx]
	}
	sort.Ints(sources)
	sort.Ints(destinations)
	return CanonicalEdge{Sources: sources, Destinations: destinations}
}

// forEachPermutation visits every permutation of [0, n) via Heap's algorithm.
func forEachPermutation(n int, visit func([]int)) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	var generate func(k int)
	generate = func(k int) {
		if k == 1 {
			visit(perm)
			return
		}
		for i := 0; i < k; i++ {
			generate(k - 1)
			if k%2 == 0 {
				perm[i], perm[k-1] = perm[k-1], perm[i]
			} else {
				perm[0], perm[k-1] = perm[k-1], perm[0]
			}
		}
	}
	if n > 0 {
		generate(n)
	}
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(idx int) int {
	for u.parent[idx] != idx {
		u.parent[idx] = u.parent[u.parent[idx]]
		idx = u.parent[idx]
	}
	return idx
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// histogram returns the sorted orbit sizes.
func (u *unionFind) histogram() []int {
	sizes := make(map[int]int)
	for idx := range u.parent {
		sizes[u.find(idx)]++
	}
	hist := make([]int, 0, len(sizes))
	for _, size := range sizes {
		hist = append(hist, size)
	}
	sort.Ints(hist)
	return hist
}
