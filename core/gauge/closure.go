package gauge

import (
	"math"

	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// ClosureOpts controls closure checks and structure tensor extraction.
type ClosureOpts struct {
	// Tolerance is the maximum allowed commutator residual for the
	// algebra to be considered closed.
	Tolerance float64 `json:"tolerance"`
}

// DefaultClosureOpts uses an absolute residual tolerance of 1e-6.
func DefaultClosureOpts() ClosureOpts {
	return ClosureOpts{Tolerance: 1e-6}
}

// StructureTensorEntry records one coefficient of a commutator expanded
// over the generator basis.
type StructureTensorEntry struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	K     int     `json:"k"`
	Value float64 `json:"value"`
}

// ClosureReport summarizes the closure check.
type ClosureReport struct {
	Closed           bool                   `json:"closed"`
	MaxDev           float64                `json:"max_dev"`
	StructureTensors []StructureTensorEntry `json:"structure_tensors"`
}

func matDot(a, b []float64) float64 {
	var acc float64
	for i, v := range a {
		acc += v * b[i]
	}
	return acc
}

func matMul(a, b []float64, dim int) []float64 {
	out := make([]float64, dim*dim)
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			var acc float64
			for k := 0; k < dim; k++ {
				acc += a[row*dim+k] * b[k*dim+col]
			}
			out[row*dim+col] = acc
		}
	}
	return out
}

func matSub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = v - b[i]
	}
	return out
}

func matNorm(m []float64) float64 {
	var acc float64
	for _, v := range m {
		acc += v * v
	}
	return math.Sqrt(acc)
}

// CheckClosure computes commutators of the representation and estimates
// structure constants by projecting each commutator back onto the basis.
func CheckClosure(rep *RepMatrices, opts ClosureOpts) (*ClosureReport, error) {
	if rep.Dim == 0 {
		return nil, errors.New(errors.FamilySerde, "empty-representation",
			"representation dimension must be positive")
	}
	if len(rep.Gens) == 0 {
		return nil, errors.New(errors.FamilySerde, "missing-generators",
			"closure check requires at least one generator")
	}

	dim := rep.Dim
	var maxDev float64
	tensors := make([]StructureTensorEntry, 0)
	for i := range rep.Gens {
		for j := i + 1; j < len(rep.Gens); j++ {
			giGj := matMul(rep.Gens[i].Matrix, rep.Gens[j].Matrix, dim)
			gjGi := matMul(rep.Gens[j].Matrix, rep.Gens[i].Matrix, dim)
			comm := matSub(giGj, gjGi)
			if matNorm(comm) == 0 {
				continue
			}
			reconstruction := make([]float64, dim*dim)
			for k, gk := range rep.Gens {
				denom := matDot(gk.Matrix, gk.Matrix)
				if denom < 1e-12 {
					denom = 1e-12
				}
				coeff := determinism.Round(matDot(comm, gk.Matrix) / denom)
				tensors = append(tensors, StructureTensorEntry{I: i, J: j, K: k, Value: coeff})
				for idx, v := range gk.Matrix {
					reconstruction[idx] += coeff * v
				}
			}
			residual := matNorm(matSub(comm, reconstruction))
			if residual > maxDev {
				maxDev = residual
			}
		}
	}

	return &ClosureReport{
		Closed:           maxDev <= opts.Tolerance,
		MaxDev:           determinism.Round(maxDev),
		StructureTensors: tensors,
	}, nil
}
