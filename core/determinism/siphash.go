package determinism

// SipHash-2-4 with the fixed species keys. Species identifiers are part of
// the persisted artifact format, so the keys and the input encoding are
// frozen.

const (
	speciesKey0 uint64 = 0x7367656e65736973
	speciesKey1 uint64 = 0x636f64656b657973
)

func rotl(x uint64, b uint) uint64 {
	return (x << b) | (x >> (64 - b))
}

type sipState struct {
	v0, v1, v2, v3 uint64
}

func newSipState(k0, k1 uint64) sipState {
	return sipState{
		v0: k0 ^ 0x736f6d6570736575,
		v1: k1 ^ 0x646f72616e646f6d,
		v2: k0 ^ 0x6c7967656e657261,
		v3: k1 ^ 0x7465646279746573,
	}
}

func (s *sipState) round() {
	s.v0 += s.v1
	s.v1 = rotl(s.v1, 13)
	s.v1 ^= s.v0
	s.v0 = rotl(s.v0, 32)
	s.v2 += s.v3
	s.v3 = rotl(s.v3, 16)
	s.v3 ^= s.v2
	s.v0 += s.v3
	s.v3 = rotl(s.v3, 21)
	s.v3 ^= s.v0
	s.v2 += s.v1
	s.v1 = rotl(s.v1, 17)
	s.v1 ^= s.v2
	s.v2 = rotl(s.v2, 32)
}

// sipHash24 computes SipHash-2-4 over data with the provided keys.
func sipHash24(k0, k1 uint64, data []byte) uint64 {
	s := newSipState(k0, k1)
	n := len(data)
	end := n - (n % 8)

	for i := 0; i < end; i += 8 {
		m := uint64(data[i]) | uint64(data[i+1])<<8 | uint64(data[i+2])<<16 |
			uint64(data[i+3])<<24 | uint64(data[i+4])<<32 | uint64(data[i+5])<<40 |
			uint64(data[i+6])<<48 | uint64(data[i+7])<<56
		s.v3 ^= m
		s.round()
		s.round()
		s.v0 ^= m
	}

	var last uint64 = uint64(n) << 56
	for i := end; i < n; i++ {
		last |= uint64(data[i]) << (8 * uint(i-end))
	}
	s.v3 ^= last
	s.round()
	s.round()
	s.v0 ^= last

	s.v2 ^= 0xff
	s.round()
	s.round()
	s.round()
	s.round()
	return s.v0 ^ s.v1 ^ s.v2 ^ s.v3
}

// SpeciesHash computes the 64-bit keyed species identifier over
// (kind tag, x check ids, separator, z check ids).
func SpeciesHash(kind byte, xChecks, zChecks []uint64) uint64 {
	buf := make([]byte, 0, 1+8*(len(xChecks)+len(zChecks))+1)
	buf = append(buf, kind)
	for _, c := range xChecks {
		buf = AppendUint64LE(buf, c)
	}
	buf = append(buf, 0xFF)
	for _, c := range zChecks {
		buf = AppendUint64LE(buf, c)
	}
	return sipHash24(speciesKey0, speciesKey1, buf)
}
