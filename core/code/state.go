package code

import (
	"vacuum-landscape/internal/errors"
)

// State is an opaque handle to a binary variable assignment. Implementations
// outside this package are rejected so syndrome extraction always sees bits
// it knows how to interpret.
type State interface {
	stateTag() uint64
	Bits() []byte
}

const bitStateTag uint64 = 0x53544154455f4249 // "STATE_BI"

// BitState stores one byte per variable, each 0 or 1.
type BitState struct {
	bits []byte
}

// NewBitState validates and wraps a raw bit assignment.
func NewBitState(bits []byte) (*BitState, error) {
	for i, b := range bits {
		if b > 1 {
			return nil, errors.New(errors.FamilyCode, "invalid-state-bit",
				"state bits must be 0 or 1").
				WithContext("index", i).
				WithContext("value", int(b))
		}
	}
	return &BitState{bits: append([]byte(nil), bits...)}, nil
}

// SingleBitState builds an all-zero assignment with one bit set.
func SingleBitState(numVariables, index int) (*BitState, error) {
	if index < 0 || index >= numVariables {
		return nil, errors.New(errors.FamilyCode, "invalid-state-bit",
			"single-bit index outside variable domain").
			WithContext("index", index).
			WithContext("num_variables", numVariables)
	}
	bits := make([]byte, numVariables)
	bits[index] = 1
	return &BitState{bits: bits}, nil
}

func (s *BitState) stateTag() uint64 {
	return bitStateTag
}

// Bits returns the stored assignment.
func (s *BitState) Bits() []byte {
	return append([]byte(nil), s.bits...)
}

// viewBits unwraps a state handle, rejecting foreign implementations.
func viewBits(state State) ([]byte, error) {
	if state == nil {
		return nil, errors.New(errors.FamilyCode, "null-state-handle",
			"constraint state was nil")
	}
	if state.stateTag() != bitStateTag {
		return nil, errors.New(errors.FamilyCode, "unknown-state-handle",
			"constraint state is not a managed bit state")
	}
	return state.Bits(), nil
}
