package assertion

import (
	"math"

	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/gauge"
	"vacuum-landscape/core/interaction"
	"vacuum-landscape/core/landscape"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/errors"
)

// Inputs bundles the sealed reports fed to RunAssertions. Any entry may be
// nil; the policy decides which ones are required.
type Inputs struct {
	Spectrum    *spectrum.Report
	Gauge       *gauge.GaugeReport
	Interaction *interaction.InteractionReport
	Running     *interaction.RunningReport
	Summary     *landscape.SummaryReport
	KPIs        []landscape.JobKpi
}

// AddKPI records a KPI snapshot for the aggregate hashes.
func (in *Inputs) AddKPI(kpi landscape.JobKpi) {
	in.KPIs = append(in.KPIs, kpi)
}

func missingInput(name string) error {
	return errors.Newf(errors.FamilySerde, "missing-input",
		"required assertion input %q was not provided", name)
}

func scalarCheck(name string, metric, threshold float64, failNote string) Check {
	pass := metric <= threshold
	check := Check{
		Name:      name,
		Pass:      pass,
		Metric:    metric,
		Threshold: &threshold,
	}
	if !pass {
		check.Note = failNote
	}
	return check
}

func wardCommutatorBound(g *gauge.GaugeReport, policy Policy) Check {
	metric := policy.Round(math.Abs(g.Ward.MaxCommNorm))
	return scalarCheck("ward_commutator_bound", metric, policy.WardTol,
		"ward commutator exceeds tolerance")
}

func closureResidual(g *gauge.GaugeReport, policy Policy) Check {
	metric := policy.Round(math.Abs(g.Closure.MaxDev))
	return scalarCheck("closure_residual", metric, policy.ClosureTol,
		"closure residual above configured tolerance")
}

func dispersionLinearLimit(spec *spectrum.Report, policy Policy) Check {
	metric := 0.0
	disp := spec.Dispersion
	if len(disp.KGrid) >= 2 && len(disp.Modes) > 0 {
		k0 := disp.KGrid[0]
		k1 := disp.KGrid[1]
		omega0 := disp.Modes[0].Omega
		omega1 := omega0 + disp.CEst*(k1-k0)
		slope := 0.0
		if math.Abs(k1-k0) > 1e-9 {
			slope = (omega1 - omega0) / (k1 - k0)
		}
		denom := math.Abs(disp.CEst)
		if denom < 1e-12 {
			denom = 1e-12
		}
		metric = policy.Round(math.Abs((slope - disp.CEst) / denom))
	}
	return scalarCheck("dispersion_linear_limit", metric, policy.RelTolLin,
		"low-k dispersion deviates from linear limit")
}

func correlationGapRelation(spec *spectrum.Report, policy Policy) Check {
	expected := spec.Correlation.Xi
	if math.Abs(spec.Dispersion.GapProxy) > 1e-9 {
		expected = 1.0 / math.Abs(spec.Dispersion.GapProxy)
	}
	metric := policy.Round(math.Abs(spec.Correlation.Xi - expected))
	return scalarCheck("correlation_gap_relation", metric, policy.AbsTol,
		"correlation length and gap proxy out of alignment")
}

func couplingsFitResid(in *interaction.InteractionReport, policy Policy) Check {
	metric := policy.Round(math.Abs(in.Fit.FitResid))
	return scalarCheck("couplings_fit_resid", metric, policy.FitResidMax,
		"coupling fit residual exceeds configured maximum")
}

func runningBetaSanity(running *interaction.RunningReport, policy Policy) Check {
	maxBeta := 0.0
	for _, beta := range running.BetaSummary.DgDlogMu {
		if math.Abs(beta) > maxBeta {
			maxBeta = math.Abs(beta)
		}
	}
	if math.Abs(running.BetaSummary.DlambdaDlogMu) > maxBeta {
		maxBeta = math.Abs(running.BetaSummary.DlambdaDlogMu)
	}
	drift := 0.0
	for idx := 1; idx < len(running.Steps); idx++ {
		first := running.Steps[idx-1].Fit
		second := running.Steps[idx].Fit
		for coupling := 0; coupling < 3; coupling++ {
			diff := math.Abs(second.G[coupling] - first.G[coupling])
			if diff > drift {
				drift = diff
			}
		}
		if diff := math.Abs(second.LambdaH - first.LambdaH); diff > drift {
			drift = diff
		}
	}
	metric := policy.Round(math.Max(maxBeta, drift))
	return scalarCheck("running_beta_sanity", metric,
		running.Thresholds.BetaTolerance,
		"running beta summary exceeds configured tolerance")
}

func landscapeFilterRate(summary *landscape.SummaryReport, policy Policy) Check {
	metric := policy.Round(summary.PassRates.Anthropic)
	pass := policy.LandscapeRate.Contains(metric)
	interval := [2]float64{policy.LandscapeRate.Min, policy.LandscapeRate.Max}
	check := Check{
		Name:   "landscape_filter_rate",
		Pass:   pass,
		Metric: metric,
		Range:  &interval,
	}
	if !pass {
		check.Note = "anthropic pass rate outside configured interval"
	}
	return check
}

func collectHashes(in *Inputs) (map[string]string, error) {
	hashes := make(map[string]string)
	if in.Spectrum != nil {
		hashes["spectrum"] = in.Spectrum.AnalysisHash
	}
	if in.Gauge != nil {
		hashes["gauge"] = in.Gauge.AnalysisHash
	}
	if in.Interaction != nil {
		hashes["interaction"] = in.Interaction.AnalysisHash
	}
	if in.Running != nil {
		hashes["running"] = in.Running.RunningHash
	}
	if len(in.KPIs) > 0 {
		hash, err := codec.StableHash(in.KPIs)
		if err != nil {
			return nil, err
		}
		hashes["kpis"] = hash
	}
	if in.Summary != nil {
		hash, err := codec.StableHash(in.Summary)
		if err != nil {
			return nil, err
		}
		hashes["summary"] = hash
	}
	return hashes, nil
}

// RunAssertions executes the configured checks in deterministic order and
// seals them into a report.
func RunAssertions(in *Inputs, policy Policy) (*Report, error) {
	var checks []Check

	if policy.RequireWard {
		if in.Gauge == nil {
			return nil, missingInput("gauge")
		}
		checks = append(checks, wardCommutatorBound(in.Gauge, policy))
	} else if in.Gauge != nil {
		checks = append(checks, wardCommutatorBound(in.Gauge, policy))
	}

	if policy.RequireClosure {
		if in.Gauge == nil {
			return nil, missingInput("gauge")
		}
		checks = append(checks, closureResidual(in.Gauge, policy))
	} else if in.Gauge != nil {
		checks = append(checks, closureResidual(in.Gauge, policy))
	}

	switch {
	case in.Spectrum != nil:
		checks = append(checks, dispersionLinearLimit(in.Spectrum, policy))
		checks = append(checks, correlationGapRelation(in.Spectrum, policy))
	case policy.Strict:
		return nil, missingInput("spectrum")
	}

	switch {
	case in.Interaction != nil:
		checks = append(checks, couplingsFitResid(in.Interaction, policy))
	case policy.Strict:
		return nil, missingInput("interaction")
	}

	switch {
	case in.Running != nil:
		checks = append(checks, runningBetaSanity(in.Running, policy))
	case policy.Strict:
		return nil, missingInput("running")
	}

	switch {
	case in.Summary != nil:
		checks = append(checks, landscapeFilterRate(in.Summary, policy))
	case policy.Strict:
		return nil, missingInput("summary")
	}

	if err := validateChecks(checks); err != nil {
		return nil, err
	}
	hashes, err := collectHashes(in)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(checks))
	for _, check := range checks {
		order = append(order, check.Name)
	}
	return NewReport(checks, Provenance{
		Policy:      policy,
		InputHashes: hashes,
		CheckOrder:  order,
	})
}
