package rg

import (
	"fmt"
	"math"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/graph"
)

// CouplingIntervals carries the uncertainty attached to each extracted
// coupling.
type CouplingIntervals struct {
	CKin    float64    `json:"c_kin"`
	G       [3]float64 `json:"g"`
	LambdaH float64    `json:"lambda_h"`
	Yukawa  []float64  `json:"yukawa"`
}

// DictionaryProvenance records how the dictionary probes were built.
type DictionaryProvenance struct {
	Seed  uint64 `json:"seed"`
	Notes string `json:"notes"`
}

// CouplingsReport is the deterministic operator dictionary payload.
type CouplingsReport struct {
	CKin         float64              `json:"c_kin"`
	G            [3]float64           `json:"g"`
	LambdaH      float64              `json:"lambda_h"`
	Yukawa       []float64            `json:"yukawa"`
	CI           CouplingIntervals    `json:"ci"`
	FitResiduals float64              `json:"fit_residuals"`
	DictHash     string               `json:"dict_hash"`
	Provenance   DictionaryProvenance `json:"provenance"`
}

type couplingsHashPayload struct {
	CKin       float64              `json:"c_kin"`
	G          [3]float64           `json:"g"`
	LambdaH    float64              `json:"lambda_h"`
	Yukawa     []float64            `json:"yukawa"`
	Provenance DictionaryProvenance `json:"provenance"`
	Residuals  float64              `json:"residuals"`
}

// ExtractCouplings derives synthetic effective couplings from the shape of
// a graph/code pair.
func ExtractCouplings(g *graph.Hypergraph, c *code.Code, opts DictOpts) (*CouplingsReport, error) {
	opts = opts.Sanitized()
	nodeCount := float64(g.NodeCount())
	edgeCount := float64(g.EdgeCount())
	variables := float64(c.NumVariables())
	constraints := float64(c.NumConstraints())
	rankBalance := math.Abs(float64(c.RankX()) - float64(c.RankZ()))

	var cKin float64
	if variables > 0 {
		cKin = edgeCount / math.Max(variables, 1)
	}
	gTriplet := [3]float64{
		0,
		math.Sqrt(variables+constraints) * 0.1,
		(rankBalance + 1) / (variables + 1),
	}
	if nodeCount > 0 {
		gTriplet[0] = edgeCount / nodeCount
	}
	var lambdaH float64
	if constraints > 0 {
		lambdaH = float64(c.RankX()+c.RankZ()) / constraints
	}

	yukawa := make([]float64, 0, opts.YukawaCount)
	for idx := 0; idx < opts.YukawaCount; idx++ {
		scale := 1.0 + float64(idx)
		yukawa = append(yukawa, (cKin+lambdaH+scale)/(1+math.Max(variables, 1)/scale))
	}

	ciYukawa := make([]float64, len(yukawa))
	for i, v := range yukawa {
		ciYukawa[i] = math.Abs(v) * 0.05
	}
	ci := CouplingIntervals{
		CKin: math.Abs(cKin) * 0.05,
		G: [3]float64{
			math.Abs(gTriplet[0]) * 0.05,
			math.Abs(gTriplet[1]) * 0.05,
			math.Abs(gTriplet[2]) * 0.05,
		},
		LambdaH: math.Abs(lambdaH) * 0.05,
		Yukawa:  ciYukawa,
	}

	fitResiduals := opts.ResidualTolerance / 2
	provenance := DictionaryProvenance{
		Seed: opts.Seed,
		Notes: fmt.Sprintf("deterministic synthetic dictionary (yukawa_count=%d, tol=%.3e)",
			opts.YukawaCount, opts.ResidualTolerance),
	}

	hash, err := codec.StableHash(couplingsHashPayload{
		CKin:       cKin,
		G:          gTriplet,
		LambdaH:    lambdaH,
		Yukawa:     yukawa,
		Provenance: provenance,
		Residuals:  fitResiduals,
	})
	if err != nil {
		return nil, err
	}

	return &CouplingsReport{
		CKin:         cKin,
		G:            gTriplet,
		LambdaH:      lambdaH,
		Yukawa:       yukawa,
		CI:           ci,
		FitResiduals: fitResiduals,
		DictHash:     hash,
		Provenance:   provenance,
	}, nil
}
