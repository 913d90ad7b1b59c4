package aut

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// SpectralOptions selects how many eigenvalues each spectrum retains.
type SpectralOptions struct {
	LaplacianTopK  int `json:"laplacian_topk"`
	StabilizerTopK int `json:"stabilizer_topk"`
}

// SpectralReport holds rounded top-k eigenvalues in descending order.
type SpectralReport struct {
	LaplacianTopK  []float64 `json:"laplacian_topk"`
	StabilizerTopK []float64 `json:"stabilizer_topk"`
}

// AnalyzeSpectra computes the graph Laplacian spectrum and the stabilizer
// Gram spectrum for a canonical state.
func AnalyzeSpectra(canonical CanonicalState, opts SpectralOptions) (SpectralReport, error) {
	laplacian, err := laplacianSpectrum(canonical.Graph, opts.LaplacianTopK)
	if err != nil {
		return SpectralReport{}, err
	}
	stabilizer, err := stabilizerSpectrum(canonical.Code, opts.StabilizerTopK)
	if err != nil {
		return SpectralReport{}, err
	}
	return SpectralReport{LaplacianTopK: laplacian, StabilizerTopK: stabilizer}, nil
}

// laplacianSpectrum treats every hyperedge as a clique over its endpoint
// set and diagonalizes the resulting symmetric Laplacian.
func laplacianSpectrum(g CanonicalGraph, topk int) ([]float64, error) {
	n := g.Len()
	if n == 0 || topk == 0 {
		return []float64{}, nil
	}
	adjacency := make([]float64, n*n)
	for _, edge := range g.Edges {
		members := cliqueMembers(edge)
		for _, i := range members {
			for _, j := range members {
				if i != j {
					adjacency[i*n+j]++
				}
			}
		}
	}
	laplacian := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		degree := 0.0
		for j := 0; j < n; j++ {
			degree += adjacency[i*n+j]
		}
		laplacian.SetSym(i, i, degree)
		for j := i + 1; j < n; j++ {
			laplacian.SetSym(i, j, -adjacency[i*n+j])
		}
	}
	return topEigenvalues(laplacian, topk)
}

func cliqueMembers(edge CanonicalEdge) []int {
	members := append(append([]int(nil), edge.Sources...), edge.Destinations...)
	sort.Ints(members)
	deduped := members[:0]
	for _, m := range members {
		if len(deduped) == 0 || deduped[len(deduped)-1] != m {
			deduped = append(deduped, m)
		}
	}
	return deduped
}

// stabilizerSpectrum diagonalizes the symmetrized Gram matrix of the 0/1
// support incidence matrix, X and Z families stacked.
func stabilizerSpectrum(c CanonicalCode, topk int) ([]float64, error) {
	if topk == 0 {
		return []float64{}, nil
	}
	supports := make([][]int, 0, len(c.XChecks)+len(c.ZChecks))
	supports = append(supports, c.XChecks...)
	supports = append(supports, c.ZChecks...)
	supports = sortSupports(supports)
	if len(supports) == 0 {
		return []float64{}, nil
	}

	rows := len(supports)
	gram := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < rows; j++ {
			gram.SetSym(i, j, overlapCount(supports[i], supports[j]))
		}
	}
	return topEigenvalues(gram, topk)
}

func overlapCount(a, b []int) float64 {
	count := 0.0
	ia, ib := 0, 0
	for ia < len(a) && ib < len(b) {
		switch {
		case a[ia] < b[ib]:
			ia++
		case a[ia] > b[ib]:
			ib++
		default:
			count++
			ia++
			ib++
		}
	}
	return count
}

func topEigenvalues(m *mat.SymDense, topk int) ([]float64, error) {
	var eigen mat.EigenSym
	if ok := eigen.Factorize(m, false); !ok {
		return nil, errors.New(errors.FamilyGraph, "spectral-factorization",
			"symmetric eigendecomposition failed to converge")
	}
	values := eigen.Values(nil)
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	if topk < len(values) {
		values = values[:topk]
	}
	return determinism.RoundSlice(values), nil
}
