package rg

import (
	"sort"

	"vacuum-landscape/core/graph"
	"vacuum-landscape/internal/errors"
)

// BlockPartition groups fine nodes into deterministic coarse blocks.
type BlockPartition struct {
	blocks [][]graph.NodeID
	lookup map[graph.NodeID]int
}

// Blocks returns the ordered list of blocks.
func (p *BlockPartition) Blocks() [][]graph.NodeID {
	return p.blocks
}

// BlockIndex returns the block containing the node, or -1.
func (p *BlockPartition) BlockIndex(node graph.NodeID) int {
	idx, ok := p.lookup[node]
	if !ok {
		return -1
	}
	return idx
}

func mix(value, seed uint64) uint64 {
	x := value ^ seed
	x *= 0x9E3779B97F4A7C15
	x ^= x >> 33
	x *= 0xC2B2AE3D27D4EB4F
	x ^= x >> 29
	return x
}

// PartitionNodes splits the live nodes of g into blocks of at most
// MaxBlockSize, ordered by a seeded mix of their identifiers.
func PartitionNodes(g *graph.Hypergraph, opts RGOpts) (*BlockPartition, error) {
	opts = opts.Sanitized()
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, errors.New(errors.FamilyRG, "empty-graph",
			"coarse graining requires at least one node to build a partition")
	}

	sort.Slice(nodes, func(i, j int) bool {
		return mix(uint64(nodes[i]), opts.Seed) < mix(uint64(nodes[j]), opts.Seed)
	})

	var blocks [][]graph.NodeID
	current := make([]graph.NodeID, 0, opts.MaxBlockSize)
	for _, node := range nodes {
		if len(current) >= opts.MaxBlockSize {
			blocks = append(blocks, current)
			current = make([]graph.NodeID, 0, opts.MaxBlockSize)
		}
		current = append(current, node)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}

	lookup := make(map[graph.NodeID]int, len(nodes))
	for idx, block := range blocks {
		for _, node := range block {
			lookup[node] = idx
		}
	}
	return &BlockPartition{blocks: blocks, lookup: lookup}, nil
}
