package mcmc

import "vacuum-landscape/core/determinism"

const exchangeSeedMask uint64 = 0xA5A5A5A5A5A5A5A5

// ReplicaSeed derives the seed owned by a replica in the ladder.
func ReplicaSeed(masterSeed uint64, replica int) uint64 {
	return determinism.Derive(masterSeed, uint64(replica))
}

// MoveSeed derives an independent stream for one move slot of one sweep.
// The (replica, sweep) pair addresses an intermediate stream so slot
// seeds never collide across replicas.
func MoveSeed(masterSeed uint64, replica, sweep, slot int) uint64 {
	intermediate := determinism.Derive(masterSeed, uint64(replica)<<32|uint64(sweep))
	return determinism.Derive(intermediate, uint64(slot))
}

// ExchangeSeed derives the stream used to decide one adjacent-pair
// exchange after a sweep.
func ExchangeSeed(masterSeed uint64, sweep, pair int) uint64 {
	return determinism.Derive(masterSeed^exchangeSeedMask, uint64(sweep)<<16|uint64(pair))
}
