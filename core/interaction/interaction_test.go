package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacuum-landscape/core/aut"
	"vacuum-landscape/core/code"
	"vacuum-landscape/core/gauge"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/core/rg"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/errors"
)

func testInputs(t *testing.T) (*spectrum.Report, *gauge.GaugeReport, rg.StateRef) {
	t.Helper()
	cfg := graph.DefaultConfig()
	cfg.MaxInDegree = nil
	cfg.MaxOutDegree = nil
	cfg.KUniform = nil
	g := graph.New(cfg)
	ids := make([]graph.NodeID, 4)
	for i := range ids {
		ids[i] = g.AddNode()
	}
	for i := 0; i+1 < len(ids); i++ {
		_, err := g.AddHyperedge([]graph.NodeID{ids[i]}, []graph.NodeID{ids[i+1]})
		require.NoError(t, err)
	}

	c, err := code.New(4, [][]int{{0, 1, 2, 3}}, [][]int{{0, 1}, {2, 3}})
	require.NoError(t, err)

	spec, err := spectrum.Analyze(g, c, spectrum.DefaultSpecOpts(0xFACE))
	require.NoError(t, err)
	analysis, err := aut.Analyze(g, c, aut.DefaultScanOpts())
	require.NoError(t, err)
	gaugeReport, err := gauge.Analyze(spec, analysis, gauge.DefaultGaugeOpts())
	require.NoError(t, err)
	return spec, gaugeReport, rg.StateRef{Graph: g, Code: c}
}

func TestPrepareStateTwoBody(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	first, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 11)
	require.NoError(t, err)
	second, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 11)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first.Participants, 2)
	assert.Equal(t, "modes", first.Basis)
	assert.InDelta(t, 1.0, first.Participants[0].Charge, 1e-12)
	assert.InDelta(t, -1.0, first.Participants[1].Charge, 1e-12)
	assert.Greater(t, first.Norm, 0.0)
	assert.NotEmpty(t, first.PrepHash)

	other, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 12)
	require.NoError(t, err)
	assert.NotEqual(t, first.PrepHash, other.PrepHash)
}

func TestPrepareStateThreeBody(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	conf := DefaultPrepSpec()
	conf.Template = TemplateThreeBody
	state, err := PrepareState(spec, gaugeReport, conf, 11)
	require.NoError(t, err)
	require.Len(t, state.Participants, 3)
	assert.InDelta(t, 0.0, state.Participants[2].Charge, 1e-12)
}

func TestPrepareStateValidation(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)

	conf := PrepSpec{Basis: "modes"}
	_, err := PrepareState(spec, gaugeReport, conf, 1)
	assert.Equal(t, "missing-participants", errors.CodeOf(err))

	conf = PrepSpec{Basis: "modes", Participants: []ParticipantSpec{
		{ModeID: 99, K: 1, Charge: 0},
	}}
	_, err = PrepareState(spec, gaugeReport, conf, 1)
	assert.Equal(t, "unknown-mode", errors.CodeOf(err))

	conf = PrepSpec{Basis: "modes", Participants: []ParticipantSpec{
		{ModeID: 0, K: 1, Charge: 1},
		{ModeID: 0, K: 2, Charge: -1},
	}}
	_, err = PrepareState(spec, gaugeReport, conf, 1)
	assert.Equal(t, "duplicate-mode", errors.CodeOf(err))

	conf = PrepSpec{Basis: "modes", Participants: []ParticipantSpec{
		{ModeID: 0, K: 1, Charge: 1},
		{ModeID: 1, K: 2, Charge: 1},
	}}
	_, err = PrepareState(spec, gaugeReport, conf, 1)
	assert.Equal(t, "charge-imbalance", errors.CodeOf(err))

	conf = DefaultPrepSpec()
	conf.NormOverride = -1
	_, err = PrepareState(spec, gaugeReport, conf, 1)
	assert.Equal(t, "invalid-norm", errors.CodeOf(err))
}

func TestPrepareStateNormOverride(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	conf := DefaultPrepSpec()
	conf.NormOverride = 2.5
	state, err := PrepareState(spec, gaugeReport, conf, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, state.Norm, 1e-12)
}

func TestEvolveLightModeCapsSteps(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	state, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 11)
	require.NoError(t, err)

	traj, err := Evolve(state, DefaultKernelOpts())
	require.NoError(t, err)
	assert.Equal(t, 128, traj.Meta.Steps)
	assert.Len(t, traj.Steps, 128)
	assert.Less(t, traj.Meta.FinalNorm, state.Norm)
	assert.NotEmpty(t, traj.Meta.TrajHash)

	opts := DefaultKernelOpts()
	opts.Mode = ModeFast
	fast, err := Evolve(state, opts)
	require.NoError(t, err)
	assert.Equal(t, 64, fast.Meta.Steps)

	opts.Mode = ModeFull
	full, err := Evolve(state, opts)
	require.NoError(t, err)
	assert.Equal(t, 256, full.Meta.Steps)
}

func TestEvolveDeterministic(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	state, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 11)
	require.NoError(t, err)
	first, err := Evolve(state, DefaultKernelOpts())
	require.NoError(t, err)
	second, err := Evolve(state, DefaultKernelOpts())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvolveValidation(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	state, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 11)
	require.NoError(t, err)

	opts := DefaultKernelOpts()
	opts.Steps = 0
	_, err = Evolve(state, opts)
	assert.Equal(t, "zero-steps", errors.CodeOf(err))

	opts = DefaultKernelOpts()
	opts.Dt = -0.5
	_, err = Evolve(state, opts)
	assert.Equal(t, "invalid-dt", errors.CodeOf(err))
}

func TestEvolveWithoutTrajectory(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	state, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 11)
	require.NoError(t, err)
	opts := DefaultKernelOpts()
	opts.SaveTrajectory = false
	traj, err := Evolve(state, opts)
	require.NoError(t, err)
	assert.Empty(t, traj.Steps)
	assert.Equal(t, 128, traj.Meta.Steps)

	obs, err := Measure(traj, DefaultMeasureOpts())
	require.NoError(t, err)
	assert.Empty(t, obs.Xsecs)
	assert.Equal(t, []float64{0}, obs.Phases)

	_, err = FitCouplings(obs, DefaultFitOpts())
	assert.Equal(t, "insufficient-observables", errors.CodeOf(err))
}

func TestMeasureShapes(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	state, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 11)
	require.NoError(t, err)
	traj, err := Evolve(state, DefaultKernelOpts())
	require.NoError(t, err)

	obs, err := Measure(traj, DefaultMeasureOpts())
	require.NoError(t, err)
	assert.Len(t, obs.Xsecs, 128)
	assert.Len(t, obs.Phases, 128)
	assert.Len(t, obs.Amplitudes, 128)
	assert.Len(t, obs.CI.Lower, 8)
	assert.Len(t, obs.CI.Upper, 8)
	assert.Len(t, obs.Residuals, 128)
	assert.Equal(t, CIBootstrap, obs.CI.Method)
	assert.NotEmpty(t, obs.ObsHash)

	opts := DefaultMeasureOpts()
	opts.Bins = 0
	_, err = Measure(traj, opts)
	assert.Equal(t, "zero-bins", errors.CodeOf(err))

	_, err = Measure(&Trajectory{}, DefaultMeasureOpts())
	assert.Equal(t, "empty-trajectory", errors.CodeOf(err))
}

func TestFitCouplings(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	state, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 11)
	require.NoError(t, err)
	traj, err := Evolve(state, DefaultKernelOpts())
	require.NoError(t, err)
	obs, err := Measure(traj, DefaultMeasureOpts())
	require.NoError(t, err)

	fit, err := FitCouplings(obs, DefaultFitOpts())
	require.NoError(t, err)
	assert.Greater(t, fit.Scale, 0.0)
	assert.InDelta(t, fit.Scale*0.8, fit.G[1], 1e-6)
	assert.InDelta(t, fit.Scale*1.2, fit.G[2], 1e-6)
	assert.Len(t, fit.Yukawa, 8)
	assert.Empty(t, fit.Underdetermined)
	assert.NotEmpty(t, fit.FitHash)

	again, err := FitCouplings(obs, DefaultFitOpts())
	require.NoError(t, err)
	assert.Equal(t, fit, again)
}

func TestFitCouplingsBounds(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	state, err := PrepareState(spec, gaugeReport, DefaultPrepSpec(), 11)
	require.NoError(t, err)
	traj, err := Evolve(state, DefaultKernelOpts())
	require.NoError(t, err)
	obs, err := Measure(traj, DefaultMeasureOpts())
	require.NoError(t, err)

	opts := DefaultFitOpts()
	opts.Bounds = &FitBounds{Min: 0.01, Max: 0.02}
	fit, err := FitCouplings(obs, opts)
	require.NoError(t, err)
	for _, value := range fit.G {
		assert.GreaterOrEqual(t, value, 0.01)
		assert.LessOrEqual(t, value, 0.02)
	}
}

func TestFitRunning(t *testing.T) {
	_, _, state := testInputs(t)
	chain := []rg.StateRef{state, state, state}
	first, err := FitRunning(chain, DefaultRunningOpts())
	require.NoError(t, err)
	second, err := FitRunning(chain, DefaultRunningOpts())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first.Steps, 3)
	assert.InDelta(t, 1.0, first.Steps[0].Scale, 1e-12)
	assert.InDelta(t, 1.25, first.Steps[1].Scale, 1e-12)
	assert.InDelta(t, 1.5, first.Steps[2].Scale, 1e-12)
	assert.NotEmpty(t, first.RunningHash)
	assert.Equal(t, 3, first.Thresholds.BetaWindow)

	_, err = FitRunning(nil, DefaultRunningOpts())
	assert.Equal(t, "empty-chain", errors.CodeOf(err))
}

func TestFitRunningExplicitScales(t *testing.T) {
	_, _, state := testInputs(t)
	opts := DefaultRunningOpts()
	opts.ExplicitScales = []float64{2.0}
	report, err := FitRunning([]rg.StateRef{state, state}, opts)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, report.Steps[0].Scale, 1e-12)
	assert.InDelta(t, 2.0, report.Steps[1].Scale, 1e-12)
}

func TestInteractSealedReport(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	first, err := Interact(spec, gaugeReport, DefaultPrepSpec(),
		DefaultKernelOpts(), DefaultMeasureOpts(), DefaultFitOpts(), 11)
	require.NoError(t, err)
	second, err := Interact(spec, gaugeReport, DefaultPrepSpec(),
		DefaultKernelOpts(), DefaultMeasureOpts(), DefaultFitOpts(), 11)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, spec.GraphHash, first.GraphHash)
	assert.Equal(t, spec.CodeHash, first.CodeHash)
	assert.NotEmpty(t, first.AnalysisHash)
	assert.Equal(t, uint64(11), first.Provenance.Seed)

	reseeded, err := Interact(spec, gaugeReport, DefaultPrepSpec(),
		DefaultKernelOpts(), DefaultMeasureOpts(), DefaultFitOpts(), 12)
	require.NoError(t, err)
	assert.NotEqual(t, first.AnalysisHash, reseeded.AnalysisHash)
}

func TestInteractHashMismatch(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	broken := *gaugeReport
	broken.GraphHash = "deadbeef"
	_, err := Interact(spec, &broken, DefaultPrepSpec(),
		DefaultKernelOpts(), DefaultMeasureOpts(), DefaultFitOpts(), 11)
	assert.Equal(t, "hash-mismatch", errors.CodeOf(err))
}

func TestInteractReportRoundTrip(t *testing.T) {
	spec, gaugeReport, _ := testInputs(t)
	report, err := Interact(spec, gaugeReport, DefaultPrepSpec(),
		DefaultKernelOpts(), DefaultMeasureOpts(), DefaultFitOpts(), 11)
	require.NoError(t, err)
	data, err := MarshalReport(report)
	require.NoError(t, err)
	decoded, err := UnmarshalReport(data)
	require.NoError(t, err)
	assert.Equal(t, report, decoded)
}
