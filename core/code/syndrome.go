package code

import (
	"vacuum-landscape/internal/errors"
)

// ViolationSet lists the violated constraints per stabilizer family, each
// list in ascending index order.
type ViolationSet struct {
	X []int `json:"x"`
	Z []int `json:"z"`
}

// IsEmpty reports whether no constraint is violated.
func (v ViolationSet) IsEmpty() bool {
	return len(v.X) == 0 && len(v.Z) == 0
}

// Violations computes the violated constraints for a state handle.
func (c *Code) Violations(state State) (ViolationSet, error) {
	bits, err := viewBits(state)
	if err != nil {
		return ViolationSet{}, err
	}
	return c.violationsForBits(bits)
}

// ViolationsBatch evaluates several states against the same code.
func (c *Code) ViolationsBatch(states []State) ([]ViolationSet, error) {
	out := make([]ViolationSet, 0, len(states))
	for _, state := range states {
		v, err := c.Violations(state)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Code) violationsForBits(bits []byte) (ViolationSet, error) {
	if len(bits) != c.numVariables {
		return ViolationSet{}, errors.New(errors.FamilyCode, "state-length-mismatch",
			"state size does not match number of variables").
			WithContext("num_variables", c.numVariables).
			WithContext("state_len", len(bits))
	}
	var violations ViolationSet
	for idx, check := range c.xChecks {
		if parity(bits, check.variables) {
			violations.X = append(violations.X, idx)
		}
	}
	for idx, check := range c.zChecks {
		if parity(bits, check.variables) {
			violations.Z = append(violations.Z, idx)
		}
	}
	return violations, nil
}

// MergedViolations folds both families into one index list with Z checks
// offset past the X family.
func (c *Code) MergedViolations(state State) ([]int, error) {
	violations, err := c.Violations(state)
	if err != nil {
		return nil, err
	}
	merged := make([]int, 0, len(violations.X)+len(violations.Z))
	merged = append(merged, violations.X...)
	offset := len(c.xChecks)
	for _, idx := range violations.Z {
		merged = append(merged, idx+offset)
	}
	return merged, nil
}

func parity(bits []byte, vars []int) bool {
	var value byte
	for _, idx := range vars {
		value ^= bits[idx] & 1
	}
	return value == 1
}
