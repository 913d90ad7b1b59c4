package graph

import (
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// RewireOutcome reports whether a move changed the graph and the canonical
// hash after the move.
type RewireOutcome struct {
	Changed bool   `json:"changed"`
	Hash    string `json:"hash"`
}

// SwapTargets exchanges the destination sets of two edges. A no-op when the
// edges coincide or already share identical destinations. If the second
// overwrite fails the first is reverted.
func (g *Hypergraph) SwapTargets(a, b EdgeID) (RewireOutcome, error) {
	recA, err := g.liveEdge(a)
	if err != nil {
		return RewireOutcome{}, err
	}
	recB, err := g.liveEdge(b)
	if err != nil {
		return RewireOutcome{}, err
	}
	if a == b || compareNodeIDs(recA.destinations, recB.destinations) == 0 {
		return RewireOutcome{Changed: false, Hash: g.CanonicalHash()}, nil
	}

	srcA := append([]NodeID(nil), recA.sources...)
	srcB := append([]NodeID(nil), recB.sources...)
	dstA := append([]NodeID(nil), recA.destinations...)
	dstB := append([]NodeID(nil), recB.destinations...)

	if err := g.OverwriteEdge(a, srcA, dstB); err != nil {
		return RewireOutcome{}, err
	}
	if err := g.OverwriteEdge(b, srcB, dstA); err != nil {
		// restore the first edge before surfacing the failure
		if revertErr := g.OverwriteEdge(a, srcA, dstA); revertErr != nil {
			return RewireOutcome{}, errors.Wrap(errors.FamilyGraph, "swap-revert-failed",
				"failed to revert first overwrite after swap failure", revertErr)
		}
		return RewireOutcome{}, err
	}
	return RewireOutcome{Changed: true, Hash: g.CanonicalHash()}, nil
}

// Retarget rewrites an edge's destination set: destinations minus removed
// plus added, canonicalized. Fails when a removed node is not currently a
// destination, an added node is not alive, or the result is empty.
func (g *Hypergraph) Retarget(id EdgeID, removed, added []NodeID) (RewireOutcome, error) {
	rec, err := g.liveEdge(id)
	if err != nil {
		return RewireOutcome{}, err
	}
	current := append([]NodeID(nil), rec.destinations...)
	sources := append([]NodeID(nil), rec.sources...)

	result := make(map[NodeID]struct{}, len(current))
	for _, d := range current {
		result[d] = struct{}{}
	}
	for _, r := range removed {
		if _, ok := result[r]; !ok {
			return RewireOutcome{}, errors.Newf(errors.FamilyGraph, "missing-destination",
				"node %d is not a destination of edge %d", r, id)
		}
		delete(result, r)
	}
	for _, a := range added {
		if !g.NodeAlive(a) {
			return RewireOutcome{}, unknownNode(a)
		}
		result[a] = struct{}{}
	}
	if len(result) == 0 {
		return RewireOutcome{}, errors.New(errors.FamilyGraph, "empty-destinations",
			"retarget would leave the edge without destinations")
	}

	next := make([]NodeID, 0, len(result))
	for d := range result {
		next = append(next, d)
	}
	next = canonicalizeNodes(next)
	if compareNodeIDs(next, current) == 0 {
		return RewireOutcome{Changed: false, Hash: g.CanonicalHash()}, nil
	}
	if err := g.OverwriteEdge(id, sources, next); err != nil {
		return RewireOutcome{}, err
	}
	return RewireOutcome{Changed: true, Hash: g.CanonicalHash()}, nil
}

// ResourceBalance steers one of a node's outgoing edges toward the least
// loaded node: pick the (lowest total degree, lowest id) target, choose a
// random outgoing edge of n, and replace the edge's highest-in-degree
// destination with the target unless it is already present.
func (g *Hypergraph) ResourceBalance(n NodeID, stream *determinism.Stream) (RewireOutcome, error) {
	if !g.NodeAlive(n) {
		return RewireOutcome{}, unknownNode(n)
	}

	target, ok := g.lowestDegreeNode()
	if !ok {
		return RewireOutcome{Changed: false, Hash: g.CanonicalHash()}, nil
	}
	outgoing := g.nodes[n].out
	if len(outgoing) == 0 {
		return RewireOutcome{Changed: false, Hash: g.CanonicalHash()}, nil
	}
	edge := outgoing[stream.Intn(len(outgoing))]
	rec := g.edges[edge]

	for _, d := range rec.destinations {
		if d == target {
			return RewireOutcome{Changed: false, Hash: g.CanonicalHash()}, nil
		}
	}
	worst := rec.destinations[0]
	for _, d := range rec.destinations[1:] {
		if len(g.nodes[d].in) > len(g.nodes[worst].in) {
			worst = d
		}
	}
	if worst == target {
		return RewireOutcome{Changed: false, Hash: g.CanonicalHash()}, nil
	}
	return g.Retarget(edge, []NodeID{worst}, []NodeID{target})
}

func (g *Hypergraph) lowestDegreeNode() (NodeID, bool) {
	var best NodeID
	bestDegree := -1
	for i := range g.nodes {
		if !g.nodes[i].alive {
			continue
		}
		degree := len(g.nodes[i].in) + len(g.nodes[i].out)
		if bestDegree < 0 || degree < bestDegree {
			best = NodeID(i)
			bestDegree = degree
		}
	}
	return best, bestDegree >= 0
}

// DrySwapTargets previews a swap on a clone. The preview hash is set only
// when the move would change the graph.
func (g *Hypergraph) DrySwapTargets(a, b EdgeID) (RewireOutcome, error) {
	clone, err := g.Clone()
	if err != nil {
		return RewireOutcome{}, err
	}
	outcome, err := clone.SwapTargets(a, b)
	if err != nil {
		return RewireOutcome{}, err
	}
	return previewOutcome(outcome), nil
}

// DryRetarget previews a retarget on a clone.
func (g *Hypergraph) DryRetarget(id EdgeID, removed, added []NodeID) (RewireOutcome, error) {
	clone, err := g.Clone()
	if err != nil {
		return RewireOutcome{}, err
	}
	outcome, err := clone.Retarget(id, removed, added)
	if err != nil {
		return RewireOutcome{}, err
	}
	return previewOutcome(outcome), nil
}

// DryResourceBalance previews a resource-balance move on a clone. The
// stream is copied so the caller's sequence is not advanced.
func (g *Hypergraph) DryResourceBalance(n NodeID, stream *determinism.Stream) (RewireOutcome, error) {
	clone, err := g.Clone()
	if err != nil {
		return RewireOutcome{}, err
	}
	fork := *stream
	outcome, err := clone.ResourceBalance(n, &fork)
	if err != nil {
		return RewireOutcome{}, err
	}
	return previewOutcome(outcome), nil
}

func previewOutcome(outcome RewireOutcome) RewireOutcome {
	if !outcome.Changed {
		return RewireOutcome{Changed: false}
	}
	return outcome
}
