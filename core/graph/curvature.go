package graph

import (
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// EdgeCurvature computes the Forman-style curvature of a live edge:
// 2 - (|S|+|D|) + sum over sources of 1/(1+out_deg) + sum over
// destinations of 1/(1+in_deg).
func (g *Hypergraph) EdgeCurvature(id EdgeID) (float64, error) {
	rec, err := g.liveEdge(id)
	if err != nil {
		return 0, err
	}
	curv := 2.0 - float64(len(rec.sources)+len(rec.destinations))
	for _, s := range rec.sources {
		curv += 1.0 / (1.0 + float64(len(g.nodes[s].out)))
	}
	for _, d := range rec.destinations {
		curv += 1.0 / (1.0 + float64(len(g.nodes[d].in)))
	}
	return curv, nil
}

// NodeCurvature computes the mean curvature over a node's incident edges.
// Isolated nodes have zero curvature.
func (g *Hypergraph) NodeCurvature(id NodeID) (float64, error) {
	if !g.NodeAlive(id) {
		return 0, unknownNode(id)
	}
	rec := &g.nodes[id]
	incident := make(map[EdgeID]struct{}, len(rec.in)+len(rec.out))
	for _, e := range rec.in {
		incident[e] = struct{}{}
	}
	for _, e := range rec.out {
		incident[e] = struct{}{}
	}
	if len(incident) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, e := range g.Edges() {
		if _, ok := incident[e]; !ok {
			continue
		}
		curv, err := g.EdgeCurvature(e)
		if err != nil {
			return 0, err
		}
		sum += curv
	}
	return sum / float64(len(incident)), nil
}

// CurvatureProfile returns the per-node and per-edge curvature values in
// id order over live elements.
func (g *Hypergraph) CurvatureProfile() (nodes, edges []float64, err error) {
	for _, n := range g.Nodes() {
		c, err := g.NodeCurvature(n)
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, c)
	}
	for _, e := range g.Edges() {
		c, err := g.EdgeCurvature(e)
		if err != nil {
			return nil, nil, err
		}
		edges = append(edges, c)
	}
	return nodes, edges, nil
}

// SmoothNodeCurvature runs an iterative diffusion average over node
// curvatures: each pass replaces a node's value with half its own value
// plus half the mean over its graph neighbours. Returns rounded values in
// live node order.
func (g *Hypergraph) SmoothNodeCurvature(iterations int) ([]float64, error) {
	if iterations == 0 {
		return nil, errors.New(errors.FamilyGraph, "zero-iterations",
			"curvature smoothing requires at least one iteration")
	}

	nodes := g.Nodes()
	index := make(map[NodeID]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}
	values := make([]float64, len(nodes))
	for i, n := range nodes {
		c, err := g.NodeCurvature(n)
		if err != nil {
			return nil, err
		}
		values[i] = c
	}

	// undirected neighbour sets via shared edges
	neighbours := make([][]int, len(nodes))
	for _, rec := range g.edges {
		if !rec.alive {
			continue
		}
		for _, s := range rec.sources {
			for _, d := range rec.destinations {
				if s == d {
					continue
				}
				si, di := index[s], index[d]
				neighbours[si] = append(neighbours[si], di)
				neighbours[di] = append(neighbours[di], si)
			}
		}
	}

	for iter := 0; iter < iterations; iter++ {
		next := make([]float64, len(values))
		for i, v := range values {
			if len(neighbours[i]) == 0 {
				next[i] = v
				continue
			}
			sum := 0.0
			for _, n := range neighbours[i] {
				sum += values[n]
			}
			next[i] = 0.5*v + 0.5*sum/float64(len(neighbours[i]))
		}
		values = next
	}
	return determinism.RoundSlice(values), nil
}
