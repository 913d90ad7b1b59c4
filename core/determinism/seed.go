// Package determinism provides the primitives the pipeline's reproducibility
// contract rests on: seed derivation, counter-based uniform streams, float
// rounding, keyed species hashing, and content hashing. All code must use
// these primitives instead of Go built-ins wherever a value ends up hashed
// or serialized.
package determinism

// SplitMix64 advances a splitmix64 state once and returns the output.
// Derivation scheme: derive(seed, index) = splitmix64(seed ^ index). Each
// (path, index) pair yields a statistically independent stream. The scheme
// is part of the persisted-artifact format and must never change.
func SplitMix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Derive produces the substream seed for (seed, index).
func Derive(seed, index uint64) uint64 {
	return SplitMix64(seed ^ index)
}

// Stream is a splitmix64-stepped uniform generator. It is a value type;
// copying a Stream forks the sequence.
type Stream struct {
	state uint64
}

// NewStream creates a stream from a substream seed.
func NewStream(seed uint64) *Stream {
	return &Stream{state: seed}
}

// Uint64 returns the next 64-bit draw.
func (s *Stream) Uint64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Uint32 returns the next 32-bit draw (high half of a 64-bit draw).
func (s *Stream) Uint32() uint32 {
	return uint32(s.Uint64() >> 32)
}

// Float64 returns a uniform draw in [0, 1) as u64 / 2^64.
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()) / 18446744073709551616.0
}

// Float64FromUint32 returns u32 / 2^32. Several jitter formulas are
// specified over this narrower draw; preserve it exactly.
func (s *Stream) Float64FromUint32() float64 {
	return float64(s.Uint32()) / 4294967296.0
}

// Intn returns a draw in [0, n). n must be positive.
func (s *Stream) Intn(n int) int {
	return int(s.Uint64() % uint64(n))
}

// Shuffle performs a Fisher-Yates shuffle over n elements.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}
