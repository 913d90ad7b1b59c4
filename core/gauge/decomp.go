package gauge

import (
	"math"

	"vacuum-landscape/core/determinism"
)

// DecompOpts controls algebra factor decomposition.
type DecompOpts struct {
	// TraceTol is the absolute trace tolerance used to classify u(1)
	// against su(2)-like factors.
	TraceTol float64 `json:"trace_tol"`
}

// DefaultDecompOpts uses a trace tolerance of 1e-6.
func DefaultDecompOpts() DecompOpts {
	return DecompOpts{TraceTol: 1e-6}
}

// GeneratorInvariants are deterministic invariants of a generator matrix.
type GeneratorInvariants struct {
	Trace     float64 `json:"trace"`
	Frobenius float64 `json:"frobenius"`
	// Symmetry compares the matrix with its transpose.
	Symmetry float64 `json:"symmetry"`
}

// InvariantsOf computes the invariants of a row-major dense matrix.
func InvariantsOf(matrix []float64, dim int) GeneratorInvariants {
	var trace, frobSq, asymSq float64
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			v := matrix[row*dim+col]
			if row == col {
				trace += v
			}
			frobSq += v * v
			if row < col {
				diff := v - matrix[col*dim+row]
				asymSq += diff * diff
			}
		}
	}
	return GeneratorInvariants{
		Trace:     determinism.Round(trace),
		Frobenius: determinism.Round(math.Sqrt(frobSq)),
		Symmetry:  determinism.Round(math.Sqrt(asymSq)),
	}
}

// FactorInfo describes a single algebra factor.
type FactorInfo struct {
	// Type is "u1", "su2", or "other".
	Type       string             `json:"type"`
	Dim        int                `json:"dim"`
	Rank       int                `json:"rank"`
	Invariants map[string]float64 `json:"invariants"`
}

// DecompReport describes the decomposition of the gauge algebra.
type DecompReport struct {
	Factors      []FactorInfo `json:"factors"`
	ResidualNorm float64      `json:"residual_norm"`
}

func classifyFactor(trace, tol, symmetry float64) string {
	if math.Abs(trace) <= tol {
		if symmetry <= tol {
			return "su2"
		}
		return "other"
	}
	return "u1"
}

// Decompose labels every generator with a deterministic factor type and
// accumulates the trace excess into a residual norm.
func Decompose(rep *RepMatrices, opts DecompOpts) (*DecompReport, error) {
	if len(rep.Gens) == 0 {
		return &DecompReport{Factors: []FactorInfo{}}, nil
	}
	factors := make([]FactorInfo, 0, len(rep.Gens))
	var residual float64
	for _, gen := range rep.Gens {
		inv := InvariantsOf(gen.Matrix, rep.Dim)
		excess := math.Abs(inv.Trace) - opts.TraceTol
		if excess > 0 {
			residual += excess
		}
		factors = append(factors, FactorInfo{
			Type: classifyFactor(inv.Trace, opts.TraceTol, inv.Symmetry),
			Dim:  rep.Dim,
			Rank: rep.Dim,
			Invariants: map[string]float64{
				"trace":     inv.Trace,
				"frobenius": inv.Frobenius,
				"symmetry":  inv.Symmetry,
			},
		})
	}
	return &DecompReport{
		Factors:      factors,
		ResidualNorm: determinism.Round(residual),
	}, nil
}
