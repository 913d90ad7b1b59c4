package interaction

import (
	"math"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/rg"
	"vacuum-landscape/internal/errors"
)

// BetaSummary is a short β-function style summary.
type BetaSummary struct {
	// DgDlogMu is the averaged β estimate for each gauge coupling.
	DgDlogMu [3]float64 `json:"dg_dlog_mu"`
	// DlambdaDlogMu is the β estimate for the quartic coupling.
	DlambdaDlogMu float64 `json:"dlambda_dlog_mu"`
}

// RunningThresholds validate running consistency.
type RunningThresholds struct {
	BetaTolerance float64 `json:"beta_tolerance"`
	BetaWindow    int     `json:"beta_window"`
}

// RunningStep pairs a reference scale with its coupling fit.
type RunningStep struct {
	Scale float64      `json:"scale"`
	Fit   CouplingsFit `json:"fit"`
}

// RunningOpts configures the running fit procedure.
type RunningOpts struct {
	// ExplicitScales overrides the default scale ladder when non-empty.
	ExplicitScales []float64 `json:"explicit_scales,omitempty"`
	BetaWindow     int       `json:"beta_window"`
	BetaTolerance  float64   `json:"beta_tolerance"`
	Fit            FitOpts   `json:"fit"`
}

// DefaultRunningOpts uses a window of three and β tolerance 0.05.
func DefaultRunningOpts() RunningOpts {
	return RunningOpts{BetaWindow: 3, BetaTolerance: 0.05, Fit: DefaultFitOpts()}
}

// RunningReport aggregates couplings across RG steps.
type RunningReport struct {
	Steps       []RunningStep     `json:"steps"`
	BetaSummary BetaSummary       `json:"beta_summary"`
	Pass        bool              `json:"pass"`
	Thresholds  RunningThresholds `json:"thresholds"`
	RunningHash string            `json:"running_hash"`
}

func canonicalStateHash(state rg.StateRef) (string, error) {
	return codec.StableHash(struct {
		GraphHash string `json:"graph_hash"`
		CodeHash  string `json:"code_hash"`
	}{state.Graph.CanonicalHash(), state.Code.CanonicalHash()})
}

func computeScales(opts RunningOpts, length int) []float64 {
	if len(opts.ExplicitScales) > 0 {
		scales := make([]float64, length)
		last := opts.ExplicitScales[len(opts.ExplicitScales)-1]
		for i := range scales {
			value := last
			if i < len(opts.ExplicitScales) {
				value = opts.ExplicitScales[i]
			}
			scales[i] = determinism.Round(math.Max(value, 1e-6))
		}
		return scales
	}
	scales := make([]float64, length)
	for i := range scales {
		scales[i] = determinism.Round(1 + float64(i)*0.25)
	}
	return scales
}

func estimateBeta(entries []RunningStep) BetaSummary {
	if len(entries) < 2 {
		return BetaSummary{}
	}
	var dg [3]float64
	var dlambda float64
	for i := 1; i < len(entries); i++ {
		first, second := entries[i-1], entries[i]
		logRatio := math.Max(math.Log(second.Scale/first.Scale), 1e-6)
		for idx := range dg {
			dg[idx] += (second.Fit.G[idx] - first.Fit.G[idx]) / logRatio
		}
		dlambda += (second.Fit.LambdaH - first.Fit.LambdaH) / logRatio
	}
	count := float64(len(entries) - 1)
	for idx := range dg {
		dg[idx] = determinism.Round(dg[idx] / count)
	}
	return BetaSummary{
		DgDlogMu:      dg,
		DlambdaDlogMu: determinism.Round(dlambda / count),
	}
}

func validateBeta(summary BetaSummary, opts RunningOpts) bool {
	for _, value := range summary.DgDlogMu {
		if math.Abs(value) > opts.BetaTolerance {
			return false
		}
	}
	return math.Abs(summary.DlambdaDlogMu) <= opts.BetaTolerance
}

// FitRunning fits couplings for each RG state and aggregates a
// deterministic running report.
func FitRunning(chain []rg.StateRef, opts RunningOpts) (*RunningReport, error) {
	if len(chain) == 0 {
		return nil, errors.New(errors.FamilyRG, "empty-chain",
			"running requires at least one RG state")
	}

	scales := computeScales(opts, len(chain))
	steps := make([]RunningStep, 0, len(chain))
	for idx, state := range chain {
		hash, err := canonicalStateHash(state)
		if err != nil {
			return nil, err
		}
		seed := determinism.SeedFromHash(hash) ^ determinism.Derive(uint64(idx)+1, 11)
		fit := couplingsFromSeed(seed, opts.Fit)
		fit.Scale = determinism.Round(scales[idx])
		fitHash, err := codec.StableHash(fitHashPayload{
			Scale:     fit.Scale,
			G:         fit.G,
			LambdaH:   fit.LambdaH,
			Yukawa:    fit.Yukawa,
			CIG:       fit.CI.G,
			CILambdaH: fit.CI.LambdaH,
			CIYukawa:  fit.CI.Yukawa,
			FitResid:  fit.FitResid,
		})
		if err != nil {
			return nil, err
		}
		fit.FitHash = fitHash
		steps = append(steps, RunningStep{Scale: fit.Scale, Fit: fit})
	}

	betaSummary := estimateBeta(steps)
	thresholds := RunningThresholds{
		BetaTolerance: opts.BetaTolerance,
		BetaWindow:    opts.BetaWindow,
	}
	pass := validateBeta(betaSummary, opts)
	runningHash, err := codec.StableHash(struct {
		Steps         []RunningStep `json:"steps"`
		DgDlogMu      [3]float64    `json:"dg_dlog_mu"`
		DlambdaDlogMu float64       `json:"dlambda_dlog_mu"`
		BetaTolerance float64       `json:"beta_tolerance"`
		BetaWindow    int           `json:"beta_window"`
		Pass          bool          `json:"pass"`
	}{steps, betaSummary.DgDlogMu, betaSummary.DlambdaDlogMu,
		thresholds.BetaTolerance, thresholds.BetaWindow, pass})
	if err != nil {
		return nil, err
	}

	return &RunningReport{
		Steps:       steps,
		BetaSummary: betaSummary,
		Pass:        pass,
		Thresholds:  thresholds,
		RunningHash: runningHash,
	}, nil
}
