package determinism

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
)

// ContentHash is a SHA-256 hash used for content addressing.
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// Hex returns the hash as a lowercase hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Hex()[:16] + "..."
}

// HashHex returns the hex SHA-256 of the provided bytes.
func HashHex(data []byte) string {
	return ComputeHash(data).Hex()
}

// Round maps a float to the canonical 1e-9 grid. Every observable is rounded
// this way before hashing or serialization.
func Round(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

// RoundSlice rounds a slice in place and returns it.
func RoundSlice(vs []float64) []float64 {
	for i, v := range vs {
		vs[i] = Round(v)
	}
	return vs
}

// SeedFromHash folds a hex hash string into a 64-bit seed by XOR-ing
// 8-character chunks. Non-hex bytes contribute zero.
func SeedFromHash(hash string) uint64 {
	var acc uint64
	bytes := []byte(hash)
	for start := 0; start < len(bytes); start += 8 {
		end := start + 8
		if end > len(bytes) {
			end = len(bytes)
		}
		var value uint64
		for _, b := range bytes[start:end] {
			var digit uint64
			switch {
			case b >= '0' && b <= '9':
				digit = uint64(b - '0')
			case b >= 'a' && b <= 'f':
				digit = uint64(b-'a') + 10
			case b >= 'A' && b <= 'F':
				digit = uint64(b-'A') + 10
			}
			value = value<<4 | digit
		}
		acc ^= value
	}
	return acc
}

// AppendUint64LE appends v in little-endian byte order. Canonical hash
// encodings are defined over this layout.
func AppendUint64LE(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// AppendUint32LE appends v in little-endian byte order.
func AppendUint32LE(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
