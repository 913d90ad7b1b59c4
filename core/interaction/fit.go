package interaction

import (
	"math"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// FitBounds are uniform scalar bounds applied to fitted couplings.
type FitBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (b FitBounds) clamp(value float64) float64 {
	return math.Min(math.Max(value, b.Min), b.Max)
}

// FitOpts configures the deterministic coupling fit.
type FitOpts struct {
	// ModelVariant is recorded in provenance.
	ModelVariant string `json:"model_variant"`
	// Bounds, when set, clamps every coupling.
	Bounds *FitBounds `json:"bounds,omitempty"`
	// PriorStrength applies Gaussian regularisation when positive.
	PriorStrength float64 `json:"prior_strength,omitempty"`
	MaxIters      int     `json:"max_iters"`
	Tolerance     float64 `json:"tolerance"`
}

// DefaultFitOpts runs the default model with 64 iterations.
func DefaultFitOpts() FitOpts {
	return FitOpts{ModelVariant: "default", MaxIters: 64, Tolerance: 1e-6}
}

// FitConfidenceIntervals carries one-sigma intervals for the couplings.
type FitConfidenceIntervals struct {
	G       [3]float64 `json:"g"`
	LambdaH float64    `json:"lambda_h"`
	// Yukawa is shared across the Yukawa sector.
	Yukawa float64 `json:"yukawa"`
}

func scaledIntervals(scale float64) FitConfidenceIntervals {
	return FitConfidenceIntervals{
		G:       [3]float64{scale, scale, scale},
		LambdaH: scale * 0.5,
		Yukawa:  scale * 0.25,
	}
}

// CouplingsFit is the deterministic coupling fit report.
type CouplingsFit struct {
	// Scale is the reference scale at which the fit was performed.
	Scale    float64                `json:"scale"`
	G        [3]float64             `json:"g"`
	LambdaH  float64                `json:"lambda_h"`
	Yukawa   []float64              `json:"yukawa"`
	CI       FitConfidenceIntervals `json:"ci"`
	FitResid float64                `json:"fit_resid"`
	FitHash  string                 `json:"fit_hash"`
	// Underdetermined notes when the system has fewer observables than
	// couplings.
	Underdetermined string `json:"underdetermined,omitempty"`
}

func applyBounds(bounds *FitBounds, value float64) float64 {
	if bounds == nil {
		return value
	}
	return bounds.clamp(value)
}

func stabilise(value float64, opts FitOpts) float64 {
	return determinism.Round(value / (1 + opts.PriorStrength))
}

func estimateScale(obs *ObsReport) float64 {
	var sum float64
	for _, v := range obs.Xsecs {
		sum += v
	}
	for _, v := range obs.Amplitudes {
		sum += v
	}
	count := len(obs.Xsecs) + len(obs.Amplitudes)
	if count < 1 {
		count = 1
	}
	return determinism.Round(math.Max(sum/float64(count), 1e-6))
}

func estimateCoreCouplings(obs *ObsReport, opts FitOpts) [3]float64 {
	scale := estimateScale(obs)
	g := [3]float64{scale, scale * 0.8, scale * 1.2}
	for i := range g {
		g[i] = stabilise(applyBounds(opts.Bounds, g[i]), opts)
	}
	return g
}

func estimateLambda(obs *ObsReport, opts FitOpts) float64 {
	var base float64
	for _, phase := range obs.Phases {
		base += math.Abs(phase)
	}
	count := len(obs.Phases)
	if count < 1 {
		count = 1
	}
	base /= float64(count)
	return stabilise(applyBounds(opts.Bounds, base*0.3), opts)
}

func estimateYukawa(obs *ObsReport, opts FitOpts) []float64 {
	if len(obs.Amplitudes) == 0 {
		return []float64{0}
	}
	yukawa := make([]float64, 0, len(obs.Amplitudes))
	for _, amp := range obs.Amplitudes {
		yukawa = append(yukawa, stabilise(applyBounds(opts.Bounds, amp*0.75), opts))
	}
	return yukawa
}

func computeResidual(obs *ObsReport, g [3]float64) float64 {
	var target, model float64
	for _, v := range obs.Xsecs {
		target += v
	}
	for _, v := range g {
		model += v
	}
	return determinism.Round(math.Abs(target - model))
}

type fitHashPayload struct {
	Scale        float64    `json:"scale"`
	G            [3]float64 `json:"g"`
	LambdaH      float64    `json:"lambda_h"`
	Yukawa       []float64  `json:"yukawa"`
	CIG          [3]float64 `json:"ci_g"`
	CILambdaH    float64    `json:"ci_lambda_h"`
	CIYukawa     float64    `json:"ci_yukawa"`
	FitResid     float64    `json:"fit_resid"`
	ModelVariant string     `json:"model_variant,omitempty"`
}

// FitCouplings fits effective couplings at a reference scale from the
// measured observables.
func FitCouplings(obs *ObsReport, opts FitOpts) (*CouplingsFit, error) {
	if len(obs.Xsecs) == 0 && len(obs.Amplitudes) == 0 {
		return nil, errors.New(errors.FamilyCode, "insufficient-observables",
			"at least one observable is required to fit couplings")
	}

	scale := estimateScale(obs)
	g := estimateCoreCouplings(obs, opts)
	lambdaH := estimateLambda(obs, opts)
	yukawa := estimateYukawa(obs, opts)
	if len(yukawa) > 8 {
		yukawa = yukawa[:8]
	}

	fitResid := computeResidual(obs, g)
	ci := scaledIntervals(determinism.Round(math.Sqrt(opts.Tolerance)))
	fitHash, err := codec.StableHash(fitHashPayload{
		Scale:        scale,
		G:            g,
		LambdaH:      lambdaH,
		Yukawa:       yukawa,
		CIG:          ci.G,
		CILambdaH:    ci.LambdaH,
		CIYukawa:     ci.Yukawa,
		FitResid:     fitResid,
		ModelVariant: opts.ModelVariant,
	})
	if err != nil {
		return nil, err
	}

	var underdetermined string
	if len(obs.Xsecs) < len(g) {
		underdetermined = "fewer observables than couplings"
	}

	// Bounds are re-applied after stabilisation so the recorded couplings
	// never escape the configured window.
	if opts.Bounds != nil {
		for i := range g {
			g[i] = determinism.Round(opts.Bounds.clamp(g[i]))
		}
	}

	return &CouplingsFit{
		Scale:           scale,
		G:               g,
		LambdaH:         lambdaH,
		Yukawa:          yukawa,
		CI:              ci,
		FitResid:        fitResid,
		FitHash:         fitHash,
		Underdetermined: underdetermined,
	}, nil
}

func couplingsFromSeed(seed uint64, opts FitOpts) CouplingsFit {
	base := float64(seed%10000)/10000 + 0.5
	stream := determinism.NewStream(determinism.Derive(seed, 7))
	g := [3]float64{base, base * 1.1, base * 0.9}
	for i := range g {
		noise := (stream.Float64() - 0.5) * opts.Tolerance
		g[i] = determinism.Round(g[i] + noise)
	}
	lambdaH := determinism.Round(base * 0.6)
	yukawa := make([]float64, 0, 3)
	for idx := 0; idx < 3; idx++ {
		noise := (stream.Float64() - 0.5) * opts.Tolerance * 0.5
		yukawa = append(yukawa, determinism.Round(base*(0.4+float64(idx)*0.1)+noise))
	}
	ci := scaledIntervals(determinism.Round(math.Sqrt(opts.Tolerance)))
	fitResid := determinism.Round((g[0] + g[1] + g[2]) * 0.01)
	fitHash, err := codec.StableHash(fitHashPayload{
		Scale:     determinism.Round(1 + base*0.5),
		G:         g,
		LambdaH:   lambdaH,
		Yukawa:    yukawa,
		CIG:       ci.G,
		CILambdaH: ci.LambdaH,
		CIYukawa:  ci.Yukawa,
		FitResid:  fitResid,
	})
	if err != nil {
		fitHash = ""
	}

	return CouplingsFit{
		Scale:    determinism.Round(1 + base*0.5),
		G:        g,
		LambdaH:  lambdaH,
		Yukawa:   yukawa,
		CI:       ci,
		FitResid: fitResid,
		FitHash:  fitHash,
	}
}
