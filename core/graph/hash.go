package graph

import (
	"sort"

	"vacuum-landscape/core/determinism"
)

// CanonicalHash returns the structural SHA-256 fingerprint of the graph:
// configuration bytes, live node count, live edge count, then every live
// edge sorted by (sources, destinations) encoded as length-prefixed
// little-endian id sequences. Invariant under edge insertion order.
func (g *Hypergraph) CanonicalHash() string {
	buf := g.config.hashBytes()
	buf = determinism.AppendUint64LE(buf, uint64(g.NodeCount()))

	type canonicalEdge struct {
		sources      []NodeID
		destinations []NodeID
	}
	live := make([]canonicalEdge, 0, len(g.signatures))
	for _, rec := range g.edges {
		if rec.alive {
			live = append(live, canonicalEdge{rec.sources, rec.destinations})
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if c := compareNodeIDs(live[i].sources, live[j].sources); c != 0 {
			return c < 0
		}
		return compareNodeIDs(live[i].destinations, live[j].destinations) < 0
	})

	buf = determinism.AppendUint64LE(buf, uint64(len(live)))
	for _, e := range live {
		buf = determinism.AppendUint64LE(buf, uint64(len(e.sources)))
		for _, s := range e.sources {
			buf = determinism.AppendUint64LE(buf, uint64(s))
		}
		buf = determinism.AppendUint64LE(buf, uint64(len(e.destinations)))
		for _, d := range e.destinations {
			buf = determinism.AppendUint64LE(buf, uint64(d))
		}
	}
	return determinism.HashHex(buf)
}

func compareNodeIDs(a, b []NodeID) int {
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
	}
	return 0
}
