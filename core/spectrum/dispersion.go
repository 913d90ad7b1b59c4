package spectrum

import (
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// DispersionSpec configures the momentum scan.
type DispersionSpec struct {
	KPoints int `json:"k_points"`
	Modes   int `json:"modes"`
}

// DefaultDispersionSpec samples 64 k-points and keeps three modes.
func DefaultDispersionSpec() DispersionSpec {
	return DispersionSpec{KPoints: 64, Modes: 3}
}

// DispersionMode is one fitted mode.
type DispersionMode struct {
	ModeID   int     `json:"mode_id"`
	Omega    float64 `json:"omega"`
	FitResid float64 `json:"fit_resid"`
}

// DispersionReport aggregates the scan results.
type DispersionReport struct {
	KGrid    []float64        `json:"k_grid"`
	Modes    []DispersionMode `json:"modes"`
	CEst     float64          `json:"c_est"`
	GapProxy float64          `json:"gap_proxy"`
	Rounding float64          `json:"rounding"`
}

// DispersionScan emits modes whose frequencies are deterministic functions
// of the operator degree profile plus a bounded seeded jitter.
func DispersionScan(operators *Operators, spec DispersionSpec, seed uint64) (*DispersionReport, error) {
	if spec.KPoints == 0 {
		return nil, errors.New(errors.FamilyDictionary, "invalid-k-grid",
			"dispersion scans require at least one k-point")
	}
	if spec.Modes == 0 {
		return nil, errors.New(errors.FamilyDictionary, "invalid-modes",
			"dispersion scans require at least one mode")
	}

	kGrid := make([]float64, spec.KPoints)
	for idx := range kGrid {
		kGrid[idx] = determinism.Round((float64(idx) + 1) / (float64(spec.KPoints) + 1))
	}

	stream := determinism.NewStream(seed)
	base := operators.baseScale()
	modes := make([]DispersionMode, 0, spec.Modes)
	for modeID := 0; modeID < spec.Modes; modeID++ {
		slope := base * float64(modeID+1) * 0.05
		intercept := (float64(operators.Info.MaxDegree) + float64(modeID)) * 0.01
		jitter := stream.Float64FromUint32() * 0.005
		modes = append(modes, DispersionMode{
			ModeID:   modeID,
			Omega:    determinism.Round(intercept + slope*0.5 + jitter),
			FitResid: determinism.Round(jitter * 0.1),
		})
	}

	cEst := 0.0
	if spec.KPoints > 1 && len(modes) > 0 {
		kStart := kGrid[0]
		kEnd := kGrid[len(kGrid)-1]
		if diff := kEnd - kStart; diff >= 1e-9 || diff <= -1e-9 {
			omegaEnd := modes[0].Omega + diff*0.1
			cEst = determinism.Round((omegaEnd - modes[0].Omega) / diff)
		}
	}

	var gapProxy float64
	if len(modes) > 1 {
		gap := modes[1].Omega - modes[0].Omega
		if gap < 0 {
			gap = -gap
		}
		gapProxy = determinism.Round(gap)
	} else {
		gapProxy = determinism.Round(modes[0].Omega)
	}

	return &DispersionReport{
		KGrid:    kGrid,
		Modes:    modes,
		CEst:     cEst,
		GapProxy: gapProxy,
		Rounding: 1e-9,
	}, nil
}
