package assertion

import "math"

// SymExpr is a symbolic matrix expression stored row-major.
type SymExpr struct {
	Dim     int       `json:"dim"`
	Entries []float64 `json:"entries"`
}

// FromDiagonal builds a diagonal symbolic matrix.
func FromDiagonal(diagonal []float64) SymExpr {
	dim := len(diagonal)
	entries := make([]float64, dim*dim)
	for idx, value := range diagonal {
		entries[idx*dim+idx] = value
	}
	return SymExpr{Dim: dim, Entries: entries}
}

// Trace returns the matrix trace.
func (e SymExpr) Trace() float64 {
	sum := 0.0
	for idx := 0; idx < e.Dim; idx++ {
		sum += e.Entries[idx*e.Dim+idx]
	}
	return sum
}

// NumMat is a numeric matrix stored row-major.
type NumMat struct {
	Dim     int       `json:"dim"`
	Entries []float64 `json:"entries"`
}

// NewNumMat wraps row-major entries.
func NewNumMat(dim int, entries []float64) NumMat {
	return NumMat{Dim: dim, Entries: entries}
}

// FrobeniusNorm returns the entrywise L2 norm.
func (m NumMat) FrobeniusNorm() float64 {
	sum := 0.0
	for _, value := range m.Entries {
		sum += value * value
	}
	return math.Sqrt(sum)
}

// Commutator computes [A, B] = AB - BA on the shared leading block.
func Commutator(a, b SymExpr) SymExpr {
	dim := a.Dim
	if b.Dim < dim {
		dim = b.Dim
	}
	if dim == 0 {
		return SymExpr{Dim: 0, Entries: []float64{}}
	}
	strideA := a.Dim
	if strideA < 1 {
		strideA = 1
	}
	strideB := b.Dim
	if strideB < 1 {
		strideB = 1
	}
	entries := make([]float64, dim*dim)
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			var sumAB, sumBA float64
			for k := 0; k < dim; k++ {
				sumAB += a.Entries[row*strideA+k] * b.Entries[k*strideB+col]
				sumBA += b.Entries[row*strideB+k] * a.Entries[k*strideA+col]
			}
			entries[row*dim+col] = sumAB - sumBA
		}
	}
	return SymExpr{Dim: dim, Entries: entries}
}

// Adjoint returns the transpose, which is the Hermitian adjoint over the
// reals used here.
func Adjoint(e SymExpr) SymExpr {
	entries := make([]float64, len(e.Entries))
	for row := 0; row < e.Dim; row++ {
		for col := 0; col < e.Dim; col++ {
			entries[col*e.Dim+row] = e.Entries[row*e.Dim+col]
		}
	}
	return SymExpr{Dim: e.Dim, Entries: entries}
}
