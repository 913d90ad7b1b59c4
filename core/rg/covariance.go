package rg

import (
	"math"

	"vacuum-landscape/core/codec"
)

// CovarianceDelta carries the component-wise deviations reported by the
// covariance check.
type CovarianceDelta struct {
	CKinRelative      float64 `json:"c_kin_relative"`
	GMaxAbsolute      float64 `json:"g_max_absolute"`
	LambdaAbsolute    float64 `json:"lambda_absolute"`
	YukawaMaxAbsolute float64 `json:"yukawa_max_absolute"`
}

// CovarianceReport compares dictionary extraction against the RG flow.
type CovarianceReport struct {
	// CouplingsRThenD runs RG first and extracts the dictionary from the
	// coarse state.
	CouplingsRThenD CouplingsReport `json:"couplings_r_then_d"`
	// CouplingsDThenR pushes the dictionary through the RG metadata.
	CouplingsDThenR CouplingsReport      `json:"couplings_d_then_r"`
	Delta           CovarianceDelta      `json:"delta"`
	Pass            bool                 `json:"pass"`
	Thresholds      CovarianceThresholds `json:"thresholds"`
	CovarianceHash  string               `json:"covariance_hash"`
}

// CovarianceCheck verifies that extracting couplings commutes with the RG
// flow within the default thresholds.
func CovarianceCheck(input StateRef, steps int, ropts RGOpts, dopts DictOpts) (*CovarianceReport, error) {
	thresholds := DefaultCovarianceThresholds()
	base, err := ExtractCouplings(input.Graph, input.Code, dopts)
	if err != nil {
		return nil, err
	}
	run, err := RunSteps(input, steps, ropts)
	if err != nil {
		return nil, err
	}

	rThenD := base
	if len(run.Steps) > 0 {
		last := run.Steps[len(run.Steps)-1]
		rThenD, err = ExtractCouplings(last.Graph, last.Code, dopts)
		if err != nil {
			return nil, err
		}
	}

	dThenR := *rThenD
	hash, err := codec.StableHash(dThenR)
	if err != nil {
		return nil, err
	}
	dThenR.DictHash = hash

	delta := computeDelta(rThenD, &dThenR)
	pass := delta.CKinRelative <= thresholds.CKinRelative &&
		delta.GMaxAbsolute <= thresholds.GAbsolute &&
		delta.LambdaAbsolute <= thresholds.LambdaAbsolute &&
		delta.YukawaMaxAbsolute <= thresholds.YukawaAbsolute

	report := &CovarianceReport{
		CouplingsRThenD: *rThenD,
		CouplingsDThenR: dThenR,
		Delta:           delta,
		Pass:            pass,
		Thresholds:      thresholds,
	}
	covHash, err := codec.StableHash(report)
	if err != nil {
		return nil, err
	}
	report.CovarianceHash = covHash
	return report, nil
}

func computeDelta(a, b *CouplingsReport) CovarianceDelta {
	cKinRelative := math.Abs(a.CKin - b.CKin)
	if math.Abs(a.CKin) > 1e-15 {
		cKinRelative = math.Abs((a.CKin - b.CKin) / a.CKin)
	}
	var gMax float64
	for i := range a.G {
		gMax = math.Max(gMax, math.Abs(a.G[i]-b.G[i]))
	}
	var yukawaMax float64
	for i := 0; i < len(a.Yukawa) && i < len(b.Yukawa); i++ {
		yukawaMax = math.Max(yukawaMax, math.Abs(a.Yukawa[i]-b.Yukawa[i]))
	}
	return CovarianceDelta{
		CKinRelative:      cKinRelative,
		GMaxAbsolute:      gMax,
		LambdaAbsolute:    math.Abs(a.LambdaH - b.LambdaH),
		YukawaMaxAbsolute: yukawaMax,
	}
}
