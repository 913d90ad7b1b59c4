package mcmc

import (
	"fmt"

	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/internal/errors"
)

// GraphProposal is a candidate graph produced by a symmetric rewire.
type GraphProposal struct {
	Candidate     *graph.Hypergraph
	ForwardProb   float64
	ReverseProb   float64
	TouchedEdges  []graph.EdgeID
	TouchedNode   *graph.NodeID
	CandidateHash string
	Description   string
}

// ProposeSwapTargets exchanges the destination sets of two uniformly
// chosen edges.
func ProposeSwapTargets(g *graph.Hypergraph, stream *determinism.Stream) (*GraphProposal, error) {
	edges := g.Edges()
	if len(edges) < 2 {
		return nil, errors.New(errors.FamilyGraph, "insufficient-edges",
			"need at least two edges for swap")
	}
	idxA := int(stream.Uint64() % uint64(len(edges)))
	idxB := int(stream.Uint64() % uint64(len(edges)))
	if idxB == idxA {
		idxB = (idxB + 1) % len(edges)
	}
	edgeA, edgeB := edges[idxA], edges[idxB]

	candidate, err := g.Clone()
	if err != nil {
		return nil, err
	}
	outcome, err := candidate.SwapTargets(edgeA, edgeB)
	if err != nil {
		return nil, err
	}

	prob := 2.0 / float64(len(edges)*(len(edges)-1))
	return &GraphProposal{
		Candidate:     candidate,
		ForwardProb:   prob,
		ReverseProb:   prob,
		TouchedEdges:  []graph.EdgeID{edgeA, edgeB},
		CandidateHash: outcome.Hash,
		Description:   fmt.Sprintf("swap-targets:e%d-e%d", edgeA, edgeB),
	}, nil
}

// ProposeRetarget moves one destination of a uniformly chosen edge to a
// uniformly chosen node.
func ProposeRetarget(g *graph.Hypergraph, stream *determinism.Stream) (*GraphProposal, error) {
	edges := g.Edges()
	if len(edges) == 0 {
		return nil, errors.New(errors.FamilyGraph, "no-edges",
			"graph has no edges to retarget")
	}
	nodes := g.Nodes()
	if len(nodes) < 2 {
		return nil, errors.New(errors.FamilyGraph, "insufficient-nodes",
			"need at least two nodes for retarget")
	}
	edge := edges[int(stream.Uint64()%uint64(len(edges)))]
	destinations, err := g.Destinations(edge)
	if err != nil {
		return nil, err
	}
	if len(destinations) == 0 {
		return nil, errors.New(errors.FamilyGraph, "empty-destinations",
			"edge has no destinations to retarget").WithContext("edge", edge)
	}
	removeIdx := int(stream.Uint64() % uint64(len(destinations)))
	removed := destinations[removeIdx]
	added := nodes[int(stream.Uint64()%uint64(len(nodes)))]
	if added == removed {
		added = nodes[(len(nodes)+removeIdx+1)%len(nodes)]
	}

	candidate, err := g.Clone()
	if err != nil {
		return nil, err
	}
	outcome, err := candidate.Retarget(edge, []graph.NodeID{removed}, []graph.NodeID{added})
	if err != nil {
		return nil, err
	}

	prob := 1.0 / float64(len(edges)*len(nodes))
	node := added
	return &GraphProposal{
		Candidate:     candidate,
		ForwardProb:   prob,
		ReverseProb:   prob,
		TouchedEdges:  []graph.EdgeID{edge},
		TouchedNode:   &node,
		CandidateHash: outcome.Hash,
		Description:   fmt.Sprintf("retarget:e%d:%d->%d", edge, removed, added),
	}, nil
}

// ProposeResourceBalance rebalances one outgoing edge of a uniformly
// chosen node toward the least loaded node. The stream is forked for the
// intra-move draws so the caller's acceptance draw stays aligned.
func ProposeResourceBalance(g *graph.Hypergraph, stream *determinism.Stream) (*GraphProposal, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, errors.New(errors.FamilyGraph, "no-nodes",
			"graph has no nodes to rebalance")
	}
	node := nodes[int(stream.Uint64()%uint64(len(nodes)))]

	candidate, err := g.Clone()
	if err != nil {
		return nil, err
	}
	fork := *stream
	outcome, err := candidate.ResourceBalance(node, &fork)
	if err != nil {
		return nil, err
	}
	hash := outcome.Hash
	if !outcome.Changed && hash == "" {
		hash = candidate.CanonicalHash()
	}

	prob := 1.0 / float64(len(nodes))
	touched := node
	return &GraphProposal{
		Candidate:     candidate,
		ForwardProb:   prob,
		ReverseProb:   prob,
		TouchedNode:   &touched,
		CandidateHash: hash,
		Description:   fmt.Sprintf("resource-balance:n%d", node),
	}, nil
}
