package gauge

import (
	"math"

	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/errors"
)

// WardOpts controls Ward-style commutator checks.
type WardOpts struct {
	// RelativeTol is the maximum allowed relative commutator norm.
	RelativeTol float64 `json:"relative_tol"`
}

// DefaultWardOpts uses a relative tolerance of 1e-5.
func DefaultWardOpts() WardOpts {
	return WardOpts{RelativeTol: 1e-5}
}

// WardThresholds records the tolerance applied during the check.
type WardThresholds struct {
	RelTol float64 `json:"rel_tol"`
}

// WardReport is the result of a Ward-style commutator check.
type WardReport struct {
	MaxCommNorm float64        `json:"max_comm_norm"`
	Pass        bool           `json:"pass"`
	Thresholds  WardThresholds `json:"thresholds"`
}

func operatorDiagonal(info spectrum.OperatorsInfo, dim int) []float64 {
	if dim == 0 {
		return nil
	}
	base := info.AvgDegree
	if base == 0 {
		base = 1
	}
	diag := make([]float64, 0, dim)
	for idx := 0; idx < dim; idx++ {
		scale := float64(idx+1) / float64(dim)
		diag = append(diag, determinism.Round(base*scale+float64(info.MaxDegree)*0.01))
	}
	return diag
}

func commutatorNorm(matrix, diag []float64, dim int) float64 {
	var acc float64
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			term := matrix[row*dim+col] * (diag[col] - diag[row])
			acc += term * term
		}
	}
	return math.Sqrt(acc)
}

// WardCheck evaluates commutator residuals between the representation and
// an effective diagonal operator built from the degree profile.
func WardCheck(rep *RepMatrices, info spectrum.OperatorsInfo, opts WardOpts) (*WardReport, error) {
	if rep.Dim == 0 {
		return nil, errors.New(errors.FamilySerde, "empty-representation",
			"representation dimension must be positive")
	}
	if len(rep.Gens) == 0 {
		return nil, errors.New(errors.FamilySerde, "missing-generators",
			"ward check requires at least one generator")
	}

	diag := operatorDiagonal(info, rep.Dim)
	operatorNorm := matNorm(diag)
	if operatorNorm < 1e-12 {
		operatorNorm = 1e-12
	}
	var maxComm float64
	for _, gen := range rep.Gens {
		norm := commutatorNorm(gen.Matrix, diag, rep.Dim)
		if norm > maxComm {
			maxComm = norm
		}
	}
	return &WardReport{
		MaxCommNorm: determinism.Round(maxComm),
		Pass:        maxComm/operatorNorm <= opts.RelativeTol,
		Thresholds:  WardThresholds{RelTol: opts.RelativeTol},
	}, nil
}
