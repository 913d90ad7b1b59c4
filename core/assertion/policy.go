// Package assertion runs the final consistency checks over the pipeline's
// sealed reports and cross-checks numeric artefacts against their symbolic
// counterparts.
package assertion

import "math"

// PolicyRange is an inclusive acceptance interval.
type PolicyRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether value lies inside the inclusive range.
func (r PolicyRange) Contains(value float64) bool {
	return value >= r.Min && value <= r.Max
}

// Policy controls tolerance discipline for every assertion.
type Policy struct {
	// Rounding granularity applied to reported metrics.
	Rounding float64 `json:"rounding" yaml:"rounding"`
	// AbsTol is the absolute tolerance for cross-checks.
	AbsTol float64 `json:"abs_tol" yaml:"abs_tol"`
	// RelTol is the relative tolerance for trend checks.
	RelTol float64 `json:"rel_tol" yaml:"rel_tol"`
	// ClosureTol bounds the gauge closure residual.
	ClosureTol float64 `json:"closure_tol" yaml:"closure_tol"`
	// WardTol bounds the Ward commutator norm.
	WardTol float64 `json:"ward_tol" yaml:"ward_tol"`
	// RelTolLin is the relative tolerance for dispersion linearity.
	RelTolLin float64 `json:"rel_tol_lin" yaml:"rel_tol_lin"`
	// FitResidMax caps the coupling fit residual.
	FitResidMax float64 `json:"fit_resid_max" yaml:"fit_resid_max"`
	// LandscapeRate is the accepted anthropic pass-rate interval.
	LandscapeRate PolicyRange `json:"landscape_rate" yaml:"landscape_rate"`
	// Strict makes missing optional inputs an error.
	Strict bool `json:"strict" yaml:"strict"`
	// RequireClosure demands that gauge artefacts be present.
	RequireClosure bool `json:"require_closure" yaml:"require_closure"`
	// RequireWard demands that Ward artefacts be present.
	RequireWard bool `json:"require_ward" yaml:"require_ward"`
}

// DefaultPolicy returns the tolerance defaults used across the pipeline.
func DefaultPolicy() Policy {
	return Policy{
		Rounding:       1e-9,
		AbsTol:         1e-9,
		RelTol:         1e-5,
		ClosureTol:     1e-6,
		WardTol:        1e-5,
		RelTolLin:      5e-2,
		FitResidMax:    1.5,
		LandscapeRate:  PolicyRange{Min: 0.4, Max: 0.9},
		Strict:         false,
		RequireClosure: true,
		RequireWard:    true,
	}
}

// Round snaps value to the policy granularity.
func (p Policy) Round(value float64) float64 {
	if p.Rounding <= 0 {
		return value
	}
	return math.Round(value/p.Rounding) * p.Rounding
}
