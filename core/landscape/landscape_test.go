package landscape

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacuum-landscape/core/codec"
)

const testPlanYAML = `seeds: [3, 1]
graph:
  degree_cap: 4
  k_uniform: 2
  size: 16
  generator: uniform
code:
  density: 0.25
  css_variant: balanced
  rowop_rate: 0.5
sampler:
  sweeps: 8
  worm_weight: 0.3
  ladder: 3
  checkpoints: 2
spectrum:
  k_points: 12
  modes: 4
gauge:
  closure_tol: 1.0e-6
  ward_tol: 1.0e-5
interact:
  measure: cross-section
  fit: least-squares
filters: filters.yaml
rules:
  - id: 1
    label: perturbed
  - id: 0
    label: default
`

const testPlanHCL = `seeds   = [3, 1]
filters = "filters.yaml"

graph {
  degree_cap = 4
  k_uniform  = 2
  size       = 16
  generator  = "uniform"
}

code {
  density     = 0.25
  css_variant = "balanced"
  rowop_rate  = 0.5
}

sampler {
  sweeps      = 8
  worm_weight = 0.3
  ladder      = 3
  checkpoints = 2
}

spectrum {
  k_points = 12
  modes    = 4
}

gauge {
  closure_tol = 1.0e-6
  ward_tol    = 1.0e-5
}

interact {
  measure = "cross-section"
  fit     = "least-squares"
}

rule {
  id    = 1
  label = "perturbed"
}

rule {
  id    = 0
  label = "default"
}
`

func writeTestPlan(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte(testPlanYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "filters.yaml"),
		[]byte("gap_min: 0.05\n"), 0o644))
	return dir, planPath
}

func TestLoadPlanYAML(t *testing.T) {
	dir, planPath := writeTestPlan(t)
	plan, err := LoadPlan(planPath)
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 3}, plan.Seeds)
	require.Len(t, plan.Rules, 2)
	assert.Equal(t, uint64(0), plan.Rules[0].ID)
	assert.Equal(t, uint64(1), plan.Rules[1].ID)
	assert.Equal(t, uint32(64), plan.Interact.Steps)
	assert.InDelta(t, 0.02, plan.Interact.Dt, 1e-12)
	assert.Equal(t, LayoutFlat, plan.Outputs.Layout)
	assert.True(t, plan.Outputs.KeepIntermediate)
	assert.Equal(t, filepath.Join(dir, "filters.yaml"), plan.FiltersPath())

	hash, err := plan.Hash()
	require.NoError(t, err)
	again, err := plan.Hash()
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.Equal(t, hash, again)
}

func TestLoadPlanHCLMatchesYAML(t *testing.T) {
	_, planPath := writeTestPlan(t)
	yamlPlan, err := LoadPlan(planPath)
	require.NoError(t, err)

	hclPath := filepath.Join(filepath.Dir(planPath), "plan.hcl")
	require.NoError(t, os.WriteFile(hclPath, []byte(testPlanHCL), 0o644))
	fromHCL, err := LoadPlan(hclPath)
	require.NoError(t, err)

	yamlHash, err := yamlPlan.Hash()
	require.NoError(t, err)
	hclHash, err := fromHCL.Hash()
	require.NoError(t, err)
	assert.Equal(t, yamlHash, hclHash)
}

func TestLoadPlanMissingFile(t *testing.T) {
	_, err := LoadPlan(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestDefaultRuleSet(t *testing.T) {
	plan := &Plan{}
	rules := plan.RuleSet()
	require.Len(t, rules, 1)
	assert.Equal(t, uint64(0), rules[0].ID)
	assert.Equal(t, "default", rules[0].Label)
}

func TestSynthesizeKPIDeterministic(t *testing.T) {
	kpi := SynthesizeKPI(1, 1)
	assert.InDelta(t, 1.13936, kpi.CEst, 1e-9)
	assert.InDelta(t, 0.21968, kpi.GapProxy, 1e-9)
	assert.InDelta(t, 1.4242, kpi.Xi, 1e-9)
	assert.InDelta(t, -1.08484, kpi.EnergyFinal, 1e-9)
	assert.True(t, kpi.ClosurePass)
	assert.True(t, kpi.WardPass)
	assert.Equal(t, []string{"u1"}, kpi.Factors)
	assert.InDelta(t, 0.026968, kpi.LambdaH, 1e-9)

	other := SynthesizeKPI(1, 0)
	assert.False(t, other.ClosurePass)
	assert.Equal(t, []string{"u1", "su2"}, other.Factors)
	assert.Equal(t, kpi, SynthesizeKPI(1, 1))
}

func TestFilterEvaluate(t *testing.T) {
	spec := DefaultFilterSpec()

	pass := spec.Evaluate(SynthesizeKPI(1, 1))
	assert.True(t, pass.Passes())

	wardFail := spec.Evaluate(SynthesizeKPI(3, 1))
	assert.False(t, wardFail.Ward)
	assert.False(t, wardFail.Passes())

	spec.FactorPresence = []string{"su2"}
	factorFail := spec.Evaluate(SynthesizeKPI(1, 1))
	assert.False(t, factorFail.Factors)

	spec.RequireWard = false
	spec.FactorPresence = nil
	relaxed := spec.Evaluate(SynthesizeKPI(3, 1))
	assert.True(t, relaxed.Passes())
}

func TestSynthesizeStageOutputs(t *testing.T) {
	outputs, err := SynthesizeStageOutputs(1, 0, 8, 4, 12)
	require.NoError(t, err)
	assert.InDelta(t, -1.001, outputs.Mcmc.EnergyFinal, 1e-12)
	assert.Equal(t, uint32(8), outputs.Mcmc.Sweeps)
	assert.Equal(t, uint32(4), outputs.Spectrum.Modes)
	assert.InDelta(t, outputs.Kpi.GapProxy, outputs.Spectrum.SpectralGap, 1e-15)
	assert.NotEmpty(t, outputs.Hashes.Mcmc)
	assert.NotEmpty(t, outputs.Hashes.Interaction)

	again, err := SynthesizeStageOutputs(1, 0, 8, 4, 12)
	require.NoError(t, err)
	assert.Equal(t, outputs.Hashes, again.Hashes)
}

func TestRetrySeed(t *testing.T) {
	assert.Equal(t, uint64(7), retrySeed(7, 1))
	assert.Equal(t, uint64(7)^0x9E3779B97F4A7C15, retrySeed(7, 2))
	assert.Equal(t, uint64(0x3C6EF372FE94F82D), retrySeed(7, 3))
}

func planKPIs() []JobKpi {
	return []JobKpi{
		SynthesizeKPI(1, 0),
		SynthesizeKPI(3, 0),
		SynthesizeKPI(1, 1),
		SynthesizeKPI(3, 1),
	}
}

func TestStatsFromKPIs(t *testing.T) {
	stats := StatsFromKPIs(planKPIs())

	cHist := stats.Histograms["c_est"]
	require.Len(t, cHist.Edges, 7)
	assert.Equal(t, []uint64{0, 0, 2, 2, 0, 0}, cHist.Counts)
	gapHist := stats.Histograms["gap_proxy"]
	assert.Equal(t, []uint64{2, 0, 2, 0, 0}, gapHist.Counts)

	cQuant := stats.Quantiles["c_est"]
	assert.InDelta(t, 0.800052, cQuant.Q05, 1e-9)
	assert.InDelta(t, 0.96974, cQuant.Q50, 1e-9)
	assert.InDelta(t, 1.139428, cQuant.Q95, 1e-9)

	corr := stats.Correlations["c_est_vs_gap"]
	assert.InDelta(t, 1.0, corr.Pearson, 1e-9)
	assert.InDelta(t, 1.0, corr.Spearman, 1e-12)
}

func TestStatsFromKPIsEmpty(t *testing.T) {
	stats := StatsFromKPIs(nil)
	assert.Equal(t, Quantiles{}, stats.Quantiles["c_est"])
	assert.Equal(t, Correlations{}, stats.Correlations["c_est_vs_gap"])
	assert.Equal(t, []uint64{0, 0, 0, 0, 0, 0}, stats.Histograms["c_est"].Counts)
}

func TestRankTies(t *testing.T) {
	ranks := rank([]float64{2.0, 1.0, 2.0, 3.0})
	assert.Equal(t, []float64{2.5, 1.0, 2.5, 4.0}, ranks)
}

func TestRunPlanDeterministicAcrossConcurrency(t *testing.T) {
	dir, planPath := writeTestPlan(t)
	plan, err := LoadPlan(planPath)
	require.NoError(t, err)

	serialOut := filepath.Join(dir, "serial")
	serial, err := RunPlan(plan, serialOut, RunOpts{Concurrency: 1, MaxRetries: 2})
	require.NoError(t, err)

	parallelOut := filepath.Join(dir, "parallel")
	parallel, err := RunPlan(plan, parallelOut, RunOpts{Concurrency: 4, MaxRetries: 2})
	require.NoError(t, err)

	assert.Equal(t, serial.PlanHash, parallel.PlanHash)
	assert.Equal(t, serial.Jobs, parallel.Jobs)
	assert.Equal(t, serial.Stats, parallel.Stats)
	assert.Equal(t, serial.Filters, parallel.Filters)

	require.Len(t, serial.Jobs, 4)
	assert.Equal(t, uint64(1), serial.Jobs[0].Seed)
	assert.Equal(t, uint64(0), serial.Jobs[0].RuleID)
	assert.Equal(t, 1, serial.Filters.PassCount)
	assert.Equal(t, 4, serial.Filters.Total)

	for _, name := range []string{"status.json", "kpi.json", "hashes.json", "filters.json"} {
		_, err := os.Stat(filepath.Join(serialOut, "1_0", name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(serialOut, "1_0", "mcmc", "manifest.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(serialOut, "landscape_report.json"))
	assert.NoError(t, err)
}

func TestRunPlanResumeUsesStoredArtifacts(t *testing.T) {
	dir, planPath := writeTestPlan(t)
	plan, err := LoadPlan(planPath)
	require.NoError(t, err)

	out := filepath.Join(dir, "run")
	_, err = RunPlan(plan, out, DefaultRunOpts())
	require.NoError(t, err)

	tampered := SynthesizeKPI(1, 1)
	tampered.CEst = 999.0
	data, err := codec.Marshal(tampered)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(out, "1_1", "kpi.json"), data, 0o644))

	resumed, err := RunPlan(plan, out, RunOpts{Resume: true, Concurrency: 1, MaxRetries: 2})
	require.NoError(t, err)

	var job *JobReport
	for idx := range resumed.Jobs {
		if resumed.Jobs[idx].Seed == 1 && resumed.Jobs[idx].RuleID == 1 {
			job = &resumed.Jobs[idx]
		}
	}
	require.NotNil(t, job)
	assert.InDelta(t, 999.0, job.KPIs.CEst, 1e-12)
	assert.False(t, job.Filters.CRange)
	assert.Equal(t, 0, resumed.Filters.PassCount)
}

func TestBuildAtlasAndSummarize(t *testing.T) {
	dir, planPath := writeTestPlan(t)
	plan, err := LoadPlan(planPath)
	require.NoError(t, err)

	out := filepath.Join(dir, "run")
	_, err = RunPlan(plan, out, DefaultRunOpts())
	require.NoError(t, err)

	atlas, err := BuildAtlas(out, AtlasOpts{})
	require.NoError(t, err)
	require.Len(t, atlas.Entries, 4)
	assert.Equal(t, []string{"1_0", "1_1", "3_0", "3_1"}, atlas.Manifest)
	assert.NotEmpty(t, atlas.IndexHash)

	summary, err := Summarize(out, DefaultFilterSpec())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Totals.Jobs)
	assert.Equal(t, 1, summary.Totals.Passing)
	assert.InDelta(t, 0.25, summary.PassRates.Anthropic, 1e-12)
	assert.Empty(t, summary.Notes)
}

func TestJobDirLayouts(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "5_2"), jobDir("out", LayoutFlat, 5, 2))
	assert.Equal(t, filepath.Join("out", "5", "2"), jobDir("out", LayoutPerSeed, 5, 2))
}
