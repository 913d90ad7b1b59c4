package interaction

import (
	"math"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// ObservableKind selects an observable family.
type ObservableKind string

const (
	// ObservableCrossSection is the inclusive cross section.
	ObservableCrossSection ObservableKind = "cross_section"
	// ObservablePhaseShift is the elastic phase shift.
	ObservablePhaseShift ObservableKind = "phase_shift"
	// ObservableAmplitude is the transition amplitude.
	ObservableAmplitude ObservableKind = "amplitude"
)

// CIMethod selects the confidence interval estimator.
type CIMethod string

const (
	// CIBootstrap is a deterministic bootstrap with canonical seeding.
	CIBootstrap CIMethod = "bootstrap"
	// CIPropagation is direct propagation of linearised errors.
	CIPropagation CIMethod = "propagation"
)

// MeasureOpts controls observable extraction.
type MeasureOpts struct {
	Observables []ObservableKind `json:"observables"`
	CIMethod    CIMethod         `json:"ci_method"`
	// Bins is the histogram bin count for inclusive observables.
	Bins int `json:"bins"`
}

// DefaultMeasureOpts measures cross sections and amplitudes over eight bins.
func DefaultMeasureOpts() MeasureOpts {
	return MeasureOpts{
		Observables: []ObservableKind{ObservableCrossSection, ObservableAmplitude},
		CIMethod:    CIBootstrap,
		Bins:        8,
	}
}

// ConfidenceBand is a per-entry confidence interval payload.
type ConfidenceBand struct {
	Lower  []float64 `json:"lower"`
	Upper  []float64 `json:"upper"`
	Method CIMethod  `json:"method"`
}

// ObsReport is the deterministic observable bundle.
type ObsReport struct {
	Xsecs      []float64      `json:"xsecs"`
	Phases     []float64      `json:"phases"`
	Amplitudes []float64      `json:"amplitudes"`
	CI         ConfidenceBand `json:"ci"`
	Residuals  []float64      `json:"residuals"`
	ObsHash    string         `json:"obs_hash"`
}

func synthesizeBins(binCount int, values []float64) []float64 {
	if len(values) == 0 || binCount == 0 {
		return []float64{}
	}
	bins := make([]float64, 0, binCount)
	span := float64(len(values))
	for idx := 0; idx < binCount; idx++ {
		weight := values[idx%len(values)] * (float64(idx+1) / span)
		bins = append(bins, determinism.Round(weight))
	}
	return bins
}

// Measure computes deterministic observables from a trajectory.
func Measure(traj *Trajectory, opts MeasureOpts) (*ObsReport, error) {
	if traj.Meta.Steps == 0 {
		return nil, errors.New(errors.FamilyCode, "empty-trajectory",
			"trajectory must contain at least one step")
	}
	if opts.Bins == 0 {
		return nil, errors.New(errors.FamilyCode, "zero-bins", "bin count must be positive")
	}

	base := math.Max(traj.Meta.FinalNorm, 1e-9)
	phases := []float64{0}
	if len(traj.Steps) > 0 {
		phases = make([]float64, 0, len(traj.Steps))
		for _, step := range traj.Steps {
			phases = append(phases, step.Phase)
		}
	}
	xsecs := make([]float64, 0, len(traj.Steps))
	amplitudes := make([]float64, 0, len(traj.Steps))
	for _, step := range traj.Steps {
		xsecs = append(xsecs, determinism.Round(base*(1+step.Time*0.1)))
		amplitudes = append(amplitudes, determinism.Round(step.Norm*0.5))
	}

	ci := ConfidenceBand{
		Lower:  synthesizeBins(opts.Bins, xsecs),
		Upper:  synthesizeBins(opts.Bins, amplitudes),
		Method: opts.CIMethod,
	}

	residuals := make([]float64, 0, len(phases))
	for i, phase := range phases {
		var amp float64
		if i < len(amplitudes) {
			amp = amplitudes[i]
		}
		residuals = append(residuals, determinism.Round(math.Abs(phase)-math.Abs(amp)))
	}

	obsHash, err := codec.StableHash(struct {
		TrajHash    string           `json:"traj_hash"`
		Observables []ObservableKind `json:"observables"`
		Bins        int              `json:"bins"`
		Lower       []float64        `json:"lower"`
		Upper       []float64        `json:"upper"`
		Residuals   []float64        `json:"residuals"`
	}{traj.Meta.TrajHash, opts.Observables, opts.Bins, ci.Lower, ci.Upper, residuals})
	if err != nil {
		return nil, err
	}

	return &ObsReport{
		Xsecs:      xsecs,
		Phases:     phases,
		Amplitudes: amplitudes,
		CI:         ci,
		Residuals:  residuals,
		ObsHash:    obsHash,
	}, nil
}
