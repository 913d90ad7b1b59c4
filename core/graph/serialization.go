package graph

import (
	"vacuum-landscape/core/codec"
	"vacuum-landscape/internal/errors"
)

// SerializableGraph is the wire form of a hypergraph. Tombstones are kept
// so that node and edge ids survive a round trip unchanged.
type SerializableGraph struct {
	Config Config             `json:"config"`
	Nodes  []bool             `json:"nodes"`
	Edges  []SerializableEdge `json:"edges"`
}

// SerializableEdge is the wire form of a single hyperedge slot.
type SerializableEdge struct {
	Alive        bool     `json:"alive"`
	Sources      []NodeID `json:"sources"`
	Destinations []NodeID `json:"destinations"`
}

// ToSerializable captures the graph, including dead slots, for encoding.
func (g *Hypergraph) ToSerializable() SerializableGraph {
	out := SerializableGraph{
		Config: g.config,
		Nodes:  make([]bool, len(g.nodes)),
		Edges:  make([]SerializableEdge, len(g.edges)),
	}
	for i := range g.nodes {
		out.Nodes[i] = g.nodes[i].alive
	}
	for i := range g.edges {
		out.Edges[i] = SerializableEdge{
			Alive:        g.edges[i].alive,
			Sources:      append([]NodeID(nil), g.edges[i].sources...),
			Destinations: append([]NodeID(nil), g.edges[i].destinations...),
		}
	}
	return out
}

// FromSerializable rebuilds a hypergraph through the mutation API so that
// every edge is re-validated against the stored configuration.
func FromSerializable(s SerializableGraph) (*Hypergraph, error) {
	g := New(s.Config)
	for range s.Nodes {
		g.AddNode()
	}
	for i, alive := range s.Nodes {
		if !alive {
			g.nodes[i].alive = false
		}
	}
	for i, e := range s.Edges {
		if !e.Alive {
			g.edges = append(g.edges, edgeRecord{alive: false})
			continue
		}
		id, err := g.AddHyperedge(e.Sources, e.Destinations)
		if err != nil {
			return nil, errors.Wrapf(errors.FamilyGraph, "graph-deserialize",
				err, "edge %d rejected during rebuild", i)
		}
		if id != EdgeID(i) {
			return nil, errors.Newf(errors.FamilyGraph, "graph-deserialize",
				"edge id drift during rebuild: got %d want %d", id, i)
		}
	}
	return g, nil
}

// Marshal encodes the graph as canonical JSON.
func (g *Hypergraph) Marshal() ([]byte, error) {
	return codec.Marshal(g.ToSerializable())
}

// Unmarshal decodes canonical JSON into a validated hypergraph.
func Unmarshal(data []byte) (*Hypergraph, error) {
	var s SerializableGraph
	if err := codec.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return FromSerializable(s)
}

// Clone deep-copies the graph by a serialize and rebuild round trip.
func (g *Hypergraph) Clone() (*Hypergraph, error) {
	clone, err := FromSerializable(g.ToSerializable())
	if err != nil {
		return nil, errors.Wrap(errors.FamilyGraph, "graph-clone",
			"failed to clone hypergraph", err)
	}
	return clone, nil
}
