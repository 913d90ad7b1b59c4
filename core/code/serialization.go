package code

import (
	"vacuum-landscape/core/codec"
	"vacuum-landscape/internal/errors"
)

// SerializableCode is the wire form of a CSS code.
type SerializableCode struct {
	Schema       SchemaVersion `json:"schema_version"`
	NumVariables int           `json:"num_variables"`
	XChecks      [][]int       `json:"x_checks"`
	ZChecks      [][]int       `json:"z_checks"`
	RankX        int           `json:"rank_x"`
	RankZ        int           `json:"rank_z"`
}

// ToSerializable captures the code for encoding.
func (c *Code) ToSerializable() SerializableCode {
	return SerializableCode{
		Schema:       c.schema,
		NumVariables: c.numVariables,
		XChecks:      c.XSupports(),
		ZChecks:      c.ZSupports(),
		RankX:        c.rankX,
		RankZ:        c.rankZ,
	}
}

// FromSerializable rebuilds a code through the validating constructor so
// tampered payloads are rejected. Stored ranks are cross-checked.
func FromSerializable(s SerializableCode) (*Code, error) {
	c, err := New(s.NumVariables, s.XChecks, s.ZChecks)
	if err != nil {
		return nil, err
	}
	c.schema = s.Schema
	if c.rankX != s.RankX || c.rankZ != s.RankZ {
		return nil, errors.New(errors.FamilyCode, "rank-mismatch",
			"stored ranks disagree with recomputed ranks").
			WithContext("stored_rank_x", s.RankX).
			WithContext("stored_rank_z", s.RankZ).
			WithContext("rank_x", c.rankX).
			WithContext("rank_z", c.rankZ)
	}
	return c, nil
}

// Marshal encodes the code as canonical JSON.
func (c *Code) Marshal() ([]byte, error) {
	return codec.Marshal(c.ToSerializable())
}

// Unmarshal decodes canonical JSON into a validated code.
func Unmarshal(data []byte) (*Code, error) {
	var s SerializableCode
	if err := codec.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return FromSerializable(s)
}

// Clone deep-copies the code through a round trip.
func (c *Code) Clone() (*Code, error) {
	clone, err := FromSerializable(c.ToSerializable())
	if err != nil {
		return nil, errors.Wrap(errors.FamilyCode, "code-clone",
			"failed to clone code", err)
	}
	return clone, nil
}
