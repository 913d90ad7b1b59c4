package code

import (
	"vacuum-landscape/core/determinism"
)

// CanonicalHash computes the structural hash of the code: schema version,
// dimensions, both ranks, then every constraint support with a length
// prefix, X family first, each family in canonical order.
func (c *Code) CanonicalHash() string {
	buf := make([]byte, 0, 128)
	buf = determinism.AppendUint64LE(buf, uint64(c.schema.Major))
	buf = determinism.AppendUint64LE(buf, uint64(c.schema.Minor))
	buf = determinism.AppendUint64LE(buf, uint64(c.schema.Patch))
	buf = determinism.AppendUint64LE(buf, uint64(c.numVariables))
	buf = determinism.AppendUint64LE(buf, uint64(len(c.xChecks)))
	buf = determinism.AppendUint64LE(buf, uint64(len(c.zChecks)))
	buf = determinism.AppendUint64LE(buf, uint64(c.rankX))
	buf = determinism.AppendUint64LE(buf, uint64(c.rankZ))
	for _, check := range c.xChecks {
		buf = appendConstraint(buf, check)
	}
	for _, check := range c.zChecks {
		buf = appendConstraint(buf, check)
	}
	return determinism.HashHex(buf)
}

func appendConstraint(buf []byte, c Constraint) []byte {
	buf = determinism.AppendUint64LE(buf, uint64(len(c.variables)))
	for _, v := range c.variables {
		buf = determinism.AppendUint64LE(buf, uint64(v))
	}
	return buf
}
