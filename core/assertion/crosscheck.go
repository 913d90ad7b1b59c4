package assertion

import (
	"math"

	"vacuum-landscape/internal/errors"
)

// CrosscheckResult describes one symbolic to numeric comparison.
type CrosscheckResult struct {
	Pass      bool    `json:"pass"`
	Metric    float64 `json:"metric"`
	Threshold float64 `json:"threshold"`
}

// CrosscheckNumeric compares a numeric matrix against a symbolic expression
// under the policy's absolute tolerance.
func CrosscheckNumeric(symbolic SymExpr, numeric NumMat, policy Policy) (CrosscheckResult, error) {
	if symbolic.Dim == 0 || numeric.Dim == 0 {
		return CrosscheckResult{}, errors.New(errors.FamilySerde, "empty-matrix",
			"symbolic and numeric matrices must be non-empty")
	}
	if symbolic.Dim != numeric.Dim {
		return CrosscheckResult{}, errors.Newf(errors.FamilySerde, "dimension-mismatch",
			"symbolic dim %d != numeric dim %d", symbolic.Dim, numeric.Dim)
	}
	if len(symbolic.Entries) != len(numeric.Entries) {
		return CrosscheckResult{}, errors.New(errors.FamilySerde, "entry-mismatch",
			"symbolic and numeric matrices must provide identical entry counts")
	}
	diffNorm := 0.0
	for idx := range symbolic.Entries {
		delta := symbolic.Entries[idx] - numeric.Entries[idx]
		diffNorm += delta * delta
	}
	metric := policy.Round(math.Sqrt(diffNorm))
	return CrosscheckResult{
		Pass:      metric <= policy.AbsTol,
		Metric:    metric,
		Threshold: policy.AbsTol,
	}, nil
}
