package graph

import (
	"sort"

	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// GeneratorOpts controls the random graph builders.
type GeneratorOpts struct {
	Nodes     int    `json:"nodes"`
	Degree    int    `json:"degree"`
	Arity     int    `json:"arity"`
	Seed      uint64 `json:"seed"`
	TargetIn  int    `json:"target_in"`
	MaxBlocks int    `json:"max_blocks"`
}

// BoundedDegree builds a causal hypergraph where every node's degree stays
// under the requested cap. Edge endpoints are drawn from a split stream so
// the same options always yield the same graph.
func BoundedDegree(opts GeneratorOpts) (*Hypergraph, error) {
	if opts.Nodes == 0 {
		return nil, errors.New(errors.FamilyGraph, "empty-graph",
			"cannot generate a graph with zero nodes")
	}
	total := opts.Arity
	if total < 2 {
		total = 2
	}
	srcSize := total / 2
	dstSize := total - srcSize
	cap := opts.Degree
	if cap < 1 {
		cap = 1
	}

	cfg := DefaultConfig()
	cfg.MaxInDegree = &cap
	cfg.MaxOutDegree = &cap
	cfg.KUniform = nil
	g := New(cfg)
	ids := make([]NodeID, opts.Nodes)
	for i := range ids {
		ids[i] = g.AddNode()
	}

	stream := determinism.NewStream(determinism.Derive(opts.Seed, 3))
	attempts := opts.Nodes * cap * 16
	target := opts.Nodes * cap / 2
	stagnation := 0
	for i := 0; i < attempts && g.EdgeCount() < target; i++ {
		sources := randomSubset(ids, srcSize, stream)
		destinations := randomSubset(ids, dstSize, stream)
		if overlaps(sources, destinations) {
			continue
		}
		if _, err := g.AddHyperedge(sources, destinations); err != nil {
			stagnation++
			if stagnation >= 4*opts.Nodes {
				break
			}
			continue
		}
		stagnation = 0
	}
	return g, nil
}

// QuasiRegular builds a bounded-degree graph and then levels the in-degree
// distribution by migrating destinations away from the most loaded node.
func QuasiRegular(opts GeneratorOpts) (*Hypergraph, error) {
	g, err := BoundedDegree(opts)
	if err != nil {
		return nil, err
	}
	target := opts.TargetIn
	if target < 1 {
		target = 1
	}

	for i := 0; i < 2*g.EdgeCount(); i++ {
		maxNode, maxIn, minNode, minIn := inDegreeExtremes(g)
		if maxIn <= minIn+1 || maxIn <= target {
			break
		}
		edge, ok := incomingEdgeOf(g, maxNode)
		if !ok {
			break
		}
		if _, err := g.Retarget(edge, []NodeID{maxNode}, []NodeID{minNode}); err != nil {
			// the move can collide with degree caps; leave the graph as is
			break
		}
	}
	return g, nil
}

func randomSubset(ids []NodeID, size int, stream *determinism.Stream) []NodeID {
	if size > len(ids) {
		size = len(ids)
	}
	pool := append([]NodeID(nil), ids...)
	stream.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	subset := pool[:size]
	sort.Slice(subset, func(i, j int) bool { return subset[i] < subset[j] })
	return subset
}

func overlaps(a, b []NodeID) bool {
	seen := make(map[NodeID]struct{}, len(a))
	for _, n := range a {
		seen[n] = struct{}{}
	}
	for _, n := range b {
		if _, ok := seen[n]; ok {
			return true
		}
	}
	return false
}

func inDegreeExtremes(g *Hypergraph) (maxNode NodeID, maxIn int, minNode NodeID, minIn int) {
	first := true
	for _, id := range g.Nodes() {
		in := len(g.nodes[id].in)
		if first {
			maxNode, maxIn, minNode, minIn = id, in, id, in
			first = false
			continue
		}
		if in > maxIn {
			maxNode, maxIn = id, in
		}
		if in < minIn {
			minNode, minIn = id, in
		}
	}
	return
}

func incomingEdgeOf(g *Hypergraph, n NodeID) (EdgeID, bool) {
	in := g.nodes[n].in
	if len(in) == 0 {
		return 0, false
	}
	return in[0], true
}
