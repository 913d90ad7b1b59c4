package gauge

import (
	"fmt"
	"math"

	"vacuum-landscape/core/aut"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/errors"
)

// RepOpts controls representation construction.
type RepOpts struct {
	// Basis descriptor recorded in the output payload.
	Basis string `json:"basis"`
	// Maximum number of generators synthesised from the automorphism report.
	MaxGenerators int `json:"max_generators"`
	// Seed overrides the provenance derived from hashes when nonzero.
	Seed uint64 `json:"seed,omitempty"`
}

// DefaultRepOpts uses the dispersion mode basis with at most three generators.
func DefaultRepOpts() RepOpts {
	return RepOpts{Basis: "modes", MaxGenerators: 3}
}

// RepGenerator is a dense generator on the mode basis.
type RepGenerator struct {
	ID string `json:"id"`
	// Matrix is row-major.
	Matrix []float64 `json:"matrix"`
	Norm   float64   `json:"norm"`
}

// RepMatrices carries the generator matrices attached to a gauge analysis.
type RepMatrices struct {
	Basis string         `json:"basis"`
	Dim   int            `json:"dim"`
	Gens  []RepGenerator `json:"gens"`
}

func generatorCount(opts RepOpts, spec *spectrum.Report, analysis *aut.AnalysisReport) int {
	modes := len(spec.Dispersion.Modes)
	if modes < 1 {
		modes = 1
	}
	if opts.MaxGenerators == 0 {
		return 0
	}
	base := int(analysis.GraphAut.Order%uint64(modes+1)) +
		int(analysis.CodeAut.Order%uint64(modes+2)) + 1
	limit := opts.MaxGenerators
	if limit < 1 {
		limit = 1
	}
	if base < limit {
		return base
	}
	return limit
}

func diagonalPattern(dim int, stream *determinism.Stream, scale float64) []float64 {
	diag := make([]float64, 0, dim)
	for idx := 0; idx < dim; idx++ {
		centred := float64(stream.Uint32())/float64(^uint32(0)) - 0.5
		shift := 0.0
		if idx == 0 {
			shift = 1.0
		}
		diag = append(diag, determinism.Round(centred*scale+shift))
	}
	return diag
}

func normaliseTrace(diag []float64, forceZero bool) {
	if len(diag) == 0 || !forceZero {
		return
	}
	var sum float64
	for _, v := range diag {
		sum += v
	}
	mean := sum / float64(len(diag))
	for i, v := range diag {
		diag[i] = determinism.Round(v - mean)
	}
}

// BuildRep builds deterministic representation matrices on the dispersion
// mode basis. The seed falls back to the automorphism analysis hash, then
// the spectrum analysis hash.
func BuildRep(spec *spectrum.Report, analysis *aut.AnalysisReport, opts RepOpts) (*RepMatrices, error) {
	dim := len(spec.Dispersion.Modes)
	if dim == 0 {
		return nil, errors.New(errors.FamilySerde, "empty-mode-basis",
			"spectrum report does not provide dispersion modes")
	}
	seed := opts.Seed
	if seed == 0 {
		seed = determinism.SeedFromHash(analysis.Hashes.AnalysisHash)
	}
	if seed == 0 {
		seed = determinism.SeedFromHash(spec.AnalysisHash)
		if seed == 0 {
			seed = 1
		}
	}
	stream := determinism.NewStream(seed)
	count := generatorCount(opts, spec, analysis)
	if count == 0 {
		return nil, errors.New(errors.FamilySerde, "no-generators",
			"representation requested zero generators")
	}

	graphOrder := analysis.GraphAut.Order
	if graphOrder < 1 {
		graphOrder = 1
	}
	codeOrder := analysis.CodeAut.Order
	if codeOrder < 1 {
		codeOrder = 1
	}

	gens := make([]RepGenerator, 0, count)
	for genIdx := 0; genIdx < count; genIdx++ {
		scale := (float64(graphOrder) + float64(codeOrder)) / (float64(genIdx+1) * float64(dim))
		if scale < 0.05 {
			scale = 0.05
		}
		diag := diagonalPattern(dim, stream, scale)
		// Alternate between zero-trace (su2-like) and shifted (u1-like) generators.
		normaliseTrace(diag, genIdx%2 == 0)
		matrix := make([]float64, dim*dim)
		var frobSq float64
		for idx := 0; idx < dim; idx++ {
			matrix[idx*dim+idx] = diag[idx]
			frobSq += diag[idx] * diag[idx]
		}
		gens = append(gens, RepGenerator{
			ID:     fmt.Sprintf("G%d", genIdx),
			Matrix: matrix,
			Norm:   determinism.Round(math.Sqrt(frobSq)),
		})
	}

	return &RepMatrices{Basis: opts.Basis, Dim: dim, Gens: gens}, nil
}
