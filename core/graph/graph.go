package graph

import (
	"fmt"
	"sort"
	"strings"

	"vacuum-landscape/internal/errors"
)

// NodeID identifies a node. IDs are assigned monotonically and never reused.
type NodeID uint64

// EdgeID identifies a hyperedge. IDs are assigned monotonically and never reused.
type EdgeID uint64

type nodeRecord struct {
	alive bool
	in    []EdgeID // sorted
	out   []EdgeID // sorted
}

type edgeRecord struct {
	alive        bool
	sources      []NodeID // sorted, deduplicated
	destinations []NodeID // sorted, deduplicated
	signature    string
}

// Hypergraph is the ordered mutable store. Removing a node or edge leaves a
// tombstone; identifiers are stable for the lifetime of the instance.
type Hypergraph struct {
	config Config
	nodes  []nodeRecord
	edges  []edgeRecord
	// live edge signatures for duplicate detection
	signatures map[string]EdgeID
}

// New creates an empty hypergraph with the provided configuration.
func New(config Config) *Hypergraph {
	return &Hypergraph{
		config:     config,
		signatures: make(map[string]EdgeID),
	}
}

// Config returns the graph configuration.
func (g *Hypergraph) Config() Config {
	return g.config
}

// AddNode creates a new live node and returns its identifier.
func (g *Hypergraph) AddNode() NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, nodeRecord{alive: true})
	return id
}

// NodeCount returns the number of live nodes.
func (g *Hypergraph) NodeCount() int {
	count := 0
	for _, n := range g.nodes {
		if n.alive {
			count++
		}
	}
	return count
}

// EdgeCount returns the number of live edges.
func (g *Hypergraph) EdgeCount() int {
	return len(g.signatures)
}

// Nodes returns the live node ids in ascending order.
func (g *Hypergraph) Nodes() []NodeID {
	out := make([]NodeID, 0, len(g.nodes))
	for i, n := range g.nodes {
		if n.alive {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// Edges returns the live edge ids in ascending order.
func (g *Hypergraph) Edges() []EdgeID {
	out := make([]EdgeID, 0, len(g.edges))
	for i, e := range g.edges {
		if e.alive {
			out = append(out, EdgeID(i))
		}
	}
	return out
}

// NodeAlive reports whether the node exists and is live.
func (g *Hypergraph) NodeAlive(id NodeID) bool {
	return int(id) < len(g.nodes) && g.nodes[id].alive
}

// Sources returns the sorted source set of a live edge.
func (g *Hypergraph) Sources(id EdgeID) ([]NodeID, error) {
	rec, err := g.liveEdge(id)
	if err != nil {
		return nil, err
	}
	return append([]NodeID(nil), rec.sources...), nil
}

// Destinations returns the sorted destination set of a live edge.
func (g *Hypergraph) Destinations(id EdgeID) ([]NodeID, error) {
	rec, err := g.liveEdge(id)
	if err != nil {
		return nil, err
	}
	return append([]NodeID(nil), rec.destinations...), nil
}

// IncomingEdges returns the sorted set of live edges targeting the node.
func (g *Hypergraph) IncomingEdges(id NodeID) ([]EdgeID, error) {
	if !g.NodeAlive(id) {
		return nil, unknownNode(id)
	}
	return append([]EdgeID(nil), g.nodes[id].in...), nil
}

// OutgoingEdges returns the sorted set of live edges sourced at the node.
func (g *Hypergraph) OutgoingEdges(id NodeID) ([]EdgeID, error) {
	if !g.NodeAlive(id) {
		return nil, unknownNode(id)
	}
	return append([]EdgeID(nil), g.nodes[id].out...), nil
}

// InDegree returns the inbound live edge count of a node.
func (g *Hypergraph) InDegree(id NodeID) (int, error) {
	if !g.NodeAlive(id) {
		return 0, unknownNode(id)
	}
	return len(g.nodes[id].in), nil
}

// OutDegree returns the outbound live edge count of a node.
func (g *Hypergraph) OutDegree(id NodeID) (int, error) {
	if !g.NodeAlive(id) {
		return 0, unknownNode(id)
	}
	return len(g.nodes[id].out), nil
}

// AddHyperedge validates and attaches a new edge. Sources and destinations
// are canonicalized (sorted, deduplicated) before validation.
func (g *Hypergraph) AddHyperedge(sources, destinations []NodeID) (EdgeID, error) {
	srcs, dsts, sig, err := g.validateEdge(sources, destinations, nil)
	if err != nil {
		return 0, err
	}
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, edgeRecord{
		alive:        true,
		sources:      srcs,
		destinations: dsts,
		signature:    sig,
	})
	g.attach(id, srcs, dsts)
	g.signatures[sig] = id
	return id, nil
}

// RemoveHyperedge tombstones an edge, releases its signature, and detaches
// it from incident nodes.
func (g *Hypergraph) RemoveHyperedge(id EdgeID) error {
	rec, err := g.liveEdge(id)
	if err != nil {
		return err
	}
	g.detach(id, rec.sources, rec.destinations)
	delete(g.signatures, rec.signature)
	g.edges[id].alive = false
	return nil
}

// RemoveNode tombstones a node. The node must have no incident live edges.
func (g *Hypergraph) RemoveNode(id NodeID) error {
	if !g.NodeAlive(id) {
		return unknownNode(id)
	}
	rec := &g.nodes[id]
	if len(rec.in) > 0 || len(rec.out) > 0 {
		return errors.Newf(errors.FamilyGraph, "node-not-isolated",
			"node %d still has incident edges", id).
			WithContext("in_edges", len(rec.in)).
			WithContext("out_edges", len(rec.out))
	}
	rec.alive = false
	return nil
}

// OverwriteEdge atomically replaces an edge's endpoints. On any validation
// failure the previous record and signature are restored.
func (g *Hypergraph) OverwriteEdge(id EdgeID, sources, destinations []NodeID) error {
	rec, err := g.liveEdge(id)
	if err != nil {
		return err
	}
	prev := edgeRecord{
		alive:        true,
		sources:      append([]NodeID(nil), rec.sources...),
		destinations: append([]NodeID(nil), rec.destinations...),
		signature:    rec.signature,
	}

	g.detach(id, prev.sources, prev.destinations)
	delete(g.signatures, prev.signature)
	g.edges[id].alive = false

	srcs, dsts, sig, err := g.validateEdge(sources, destinations, &id)
	if err != nil {
		g.edges[id] = prev
		g.attach(id, prev.sources, prev.destinations)
		g.signatures[prev.signature] = id
		return err
	}

	g.edges[id] = edgeRecord{alive: true, sources: srcs, destinations: dsts, signature: sig}
	g.attach(id, srcs, dsts)
	g.signatures[sig] = id
	return nil
}

// validateEdge canonicalizes endpoints and runs the full validation chain:
// non-empty, known nodes, uniformity, degree caps, cycle check, signature
// uniqueness. The edge itself is detached while validating an overwrite.
func (g *Hypergraph) validateEdge(sources, destinations []NodeID, _ *EdgeID) ([]NodeID, []NodeID, string, error) {
	if len(sources) == 0 || len(destinations) == 0 {
		return nil, nil, "", errors.New(errors.FamilyGraph, "empty-endpoints",
			"hyperedges require at least one source and one destination")
	}
	for _, n := range append(append([]NodeID(nil), sources...), destinations...) {
		if !g.NodeAlive(n) {
			return nil, nil, "", unknownNode(n)
		}
	}
	srcs := canonicalizeNodes(sources)
	dsts := canonicalizeNodes(destinations)

	if g.config.KUniform != nil {
		if err := g.config.KUniform.Validate(len(srcs), len(dsts)); err != nil {
			return nil, nil, "", err
		}
	}
	if err := g.checkDegreeCaps(srcs, dsts); err != nil {
		return nil, nil, "", err
	}
	if g.config.CausalMode {
		if err := g.checkAcyclic(srcs, dsts); err != nil {
			return nil, nil, "", err
		}
	}
	sig := signature(srcs, dsts)
	if _, exists := g.signatures[sig]; exists {
		return nil, nil, "", errors.Newf(errors.FamilyGraph, "duplicate-edge",
			"an identical live edge already exists").
			WithContext("signature", sig)
	}
	return srcs, dsts, sig, nil
}

func (g *Hypergraph) checkDegreeCaps(sources, destinations []NodeID) error {
	if cap := g.config.MaxOutDegree; cap != nil {
		for _, s := range sources {
			if len(g.nodes[s].out)+1 > *cap {
				return errors.Newf(errors.FamilyGraph, "out-degree-cap",
					"node %d would exceed out-degree cap %d", s, *cap)
			}
		}
	}
	if cap := g.config.MaxInDegree; cap != nil {
		for _, d := range destinations {
			if len(g.nodes[d].in)+1 > *cap {
				return errors.Newf(errors.FamilyGraph, "in-degree-cap",
					"node %d would exceed in-degree cap %d", d, *cap)
			}
		}
	}
	return nil
}

// checkAcyclic runs a three-color DFS over the node adjacency built from
// live edges plus the candidate, rejecting iff a back edge exists.
func (g *Hypergraph) checkAcyclic(sources, destinations []NodeID) error {
	adj := make(map[NodeID][]NodeID)
	for _, rec := range g.edges {
		if !rec.alive {
			continue
		}
		for _, s := range rec.sources {
			adj[s] = append(adj[s], rec.destinations...)
		}
	}
	for _, s := range sources {
		adj[s] = append(adj[s], destinations...)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[NodeID]int, len(g.nodes))

	var visit func(NodeID) bool
	visit = func(n NodeID) bool {
		color[n] = gray
		for _, next := range adj[n] {
			switch color[next] {
			case gray:
				return false
			case white:
				if !visit(next) {
					return false
				}
			}
		}
		color[n] = black
		return true
	}

	for i := range g.nodes {
		if !g.nodes[i].alive {
			continue
		}
		id := NodeID(i)
		if color[id] == white && !visit(id) {
			return errors.New(errors.FamilyGraph, "would-create-cycle",
				"edge would close a directed cycle in causal mode")
		}
	}
	return nil
}

func (g *Hypergraph) attach(id EdgeID, sources, destinations []NodeID) {
	for _, s := range sources {
		g.nodes[s].out = insertEdgeID(g.nodes[s].out, id)
	}
	for _, d := range destinations {
		g.nodes[d].in = insertEdgeID(g.nodes[d].in, id)
	}
}

func (g *Hypergraph) detach(id EdgeID, sources, destinations []NodeID) {
	for _, s := range sources {
		g.nodes[s].out = removeEdgeID(g.nodes[s].out, id)
	}
	for _, d := range destinations {
		g.nodes[d].in = removeEdgeID(g.nodes[d].in, id)
	}
}

func (g *Hypergraph) liveEdge(id EdgeID) (*edgeRecord, error) {
	if int(id) >= len(g.edges) || !g.edges[id].alive {
		return nil, errors.Newf(errors.FamilyGraph, "unknown-edge",
			"edge %d does not exist or is dead", id)
	}
	return &g.edges[id], nil
}

func unknownNode(id NodeID) error {
	return errors.Newf(errors.FamilyGraph, "unknown-node",
		"node %d does not exist or is dead", id)
}

func canonicalizeNodes(ids []NodeID) []NodeID {
	out := append([]NodeID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dedup := out[:0]
	for i, id := range out {
		if i == 0 || id != out[i-1] {
			dedup = append(dedup, id)
		}
	}
	return dedup
}

func signature(sources, destinations []NodeID) string {
	var sb strings.Builder
	sb.WriteString("s:")
	for i, s := range sources {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", s)
	}
	sb.WriteString("|d:")
	for i, d := range destinations {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", d)
	}
	return sb.String()
}

func insertEdgeID(set []EdgeID, id EdgeID) []EdgeID {
	idx := sort.Search(len(set), func(i int) bool { return set[i] >= id })
	if idx < len(set) && set[idx] == id {
		return set
	}
	set = append(set, 0)
	copy(set[idx+1:], set[idx:])
	set[idx] = id
	return set
}

func removeEdgeID(set []EdgeID, id EdgeID) []EdgeID {
	idx := sort.Search(len(set), func(i int) bool { return set[i] >= id })
	if idx < len(set) && set[idx] == id {
		return append(set[:idx], set[idx+1:]...)
	}
	return set
}
