package gauge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacuum-landscape/core/aut"
	"vacuum-landscape/core/code"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/errors"
)

func testReports(t *testing.T) (*spectrum.Report, *aut.AnalysisReport) {
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
	_, err := g.AddHyperedge([]graph.NodeID{ids[0]}, []graph.NodeID{ids[1], ids[2]})
	require.NoError(t, err)
	_, err = g.AddHyperedge([]graph.NodeID{ids[1]}, []graph.NodeID{ids[3]})
	require.NoError(t, err)

	c, err := code.New(4, [][]int{{0, 1, 2, 3}}, [][]int{{0, 1}, {2, 3}})
	require.NoError(t, err)

	spec, err := spectrum.Analyze(g, c, spectrum.DefaultSpecOpts(0x5EED))
	require.NoError(t, err)
	analysis, err := aut.Analyze(g, c, aut.DefaultScanOpts())
	require.NoError(t, err)
	return spec, analysis
}

func TestBuildRepDeterministic(t *testing.T) {
	spec, analysis := testReports(t)
	first, err := BuildRep(spec, analysis, DefaultRepOpts())
	require.NoError(t, err)
	second, err := BuildRep(spec, analysis, DefaultRepOpts())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, "modes", first.Basis)
	assert.Equal(t, 3, first.Dim)
	require.NotEmpty(t, first.Gens)
	assert.LessOrEqual(t, len(first.Gens), 3)
	for i, gen := range first.Gens {
		assert.Len(t, gen.Matrix, first.Dim*first.Dim)
		assert.Greater(t, gen.Norm, 0.0)
		assert.Equal(t, []string{"G0", "G1", "G2"}[i], gen.ID)
		// off-diagonal entries stay zero
		for row := 0; row < first.Dim; row++ {
			for col := 0; col < first.Dim; col++ {
				if row != col {
					assert.Zero(t, gen.Matrix[row*first.Dim+col])
				}
			}
		}
	}
}

func TestBuildRepSeedOverride(t *testing.T) {
	spec, analysis := testReports(t)
	opts := DefaultRepOpts()
	opts.Seed = 42
	seeded, err := BuildRep(spec, analysis, opts)
	require.NoError(t, err)
	derived, err := BuildRep(spec, analysis, DefaultRepOpts())
	require.NoError(t, err)
	assert.NotEqual(t, derived.Gens[0].Matrix, seeded.Gens[0].Matrix)
}

func TestBuildRepZeroTraceAlternation(t *testing.T) {
	spec, analysis := testReports(t)
	rep, err := BuildRep(spec, analysis, DefaultRepOpts())
	require.NoError(t, err)
	for i, gen := range rep.Gens {
		inv := InvariantsOf(gen.Matrix, rep.Dim)
		if i%2 == 0 {
			assert.InDelta(t, 0.0, inv.Trace, 1e-8, "generator %d should be traceless", i)
		}
	}
}

func TestBuildRepRejectsZeroGenerators(t *testing.T) {
	spec, analysis := testReports(t)
	opts := DefaultRepOpts()
	opts.MaxGenerators = 0
	_, err := BuildRep(spec, analysis, opts)
	require.Error(t, err)
	assert.Equal(t, "no-generators", errors.CodeOf(err))
}

func TestCheckClosureDiagonalCommutes(t *testing.T) {
	spec, analysis := testReports(t)
	rep, err := BuildRep(spec, analysis, DefaultRepOpts())
	require.NoError(t, err)
	report, err := CheckClosure(rep, DefaultClosureOpts())
	require.NoError(t, err)
	// diagonal generators commute so every commutator vanishes
	assert.True(t, report.Closed)
	assert.Zero(t, report.MaxDev)
	assert.Empty(t, report.StructureTensors)
}

func TestCheckClosureNonAbelian(t *testing.T) {
	rep := &RepMatrices{
		Basis: "modes",
		Dim:   2,
		Gens: []RepGenerator{
			{ID: "G0", Matrix: []float64{0, 1, 0, 0}, Norm: 1},
			{ID: "G1", Matrix: []float64{0, 0, 1, 0}, Norm: 1},
		},
	}
	report, err := CheckClosure(rep, DefaultClosureOpts())
	require.NoError(t, err)
	// [G0,G1] = diag(1,-1) has no component along G0 or G1
	assert.False(t, report.Closed)
	assert.InDelta(t, math.Sqrt(2), report.MaxDev, 1e-9)
	require.Len(t, report.StructureTensors, 2)
	for _, entry := range report.StructureTensors {
		assert.Zero(t, entry.Value)
	}
}

func TestCheckClosureValidation(t *testing.T) {
	_, err := CheckClosure(&RepMatrices{Dim: 0}, DefaultClosureOpts())
	require.Error(t, err)
	assert.Equal(t, "empty-representation", errors.CodeOf(err))

	_, err = CheckClosure(&RepMatrices{Dim: 2}, DefaultClosureOpts())
	require.Error(t, err)
	assert.Equal(t, "missing-generators", errors.CodeOf(err))
}

func TestDecomposeClassifiesFactors(t *testing.T) {
	rep := &RepMatrices{
		Basis: "modes",
		Dim:   2,
		Gens: []RepGenerator{
			{ID: "G0", Matrix: []float64{1, 0, 0, -1}, Norm: math.Sqrt2},
			{ID: "G1", Matrix: []float64{1, 0, 0, 1}, Norm: math.Sqrt2},
			{ID: "G2", Matrix: []float64{0, 1, 0, 0}, Norm: 1},
		},
	}
	report, err := Decompose(rep, DefaultDecompOpts())
	require.NoError(t, err)
	require.Len(t, report.Factors, 3)
	assert.Equal(t, "su2", report.Factors[0].Type)
	assert.Equal(t, "u1", report.Factors[1].Type)
	assert.Equal(t, "other", report.Factors[2].Type)
	// only the u1 generator contributes trace excess
	assert.InDelta(t, 2.0-1e-6, report.ResidualNorm, 1e-9)
	for _, factor := range report.Factors {
		assert.Contains(t, factor.Invariants, "trace")
		assert.Contains(t, factor.Invariants, "frobenius")
		assert.Contains(t, factor.Invariants, "symmetry")
	}
}

func TestDecomposeEmptyRep(t *testing.T) {
	report, err := Decompose(&RepMatrices{Basis: "modes"}, DefaultDecompOpts())
	require.NoError(t, err)
	assert.Empty(t, report.Factors)
	assert.Zero(t, report.ResidualNorm)
}

func TestWardCheck(t *testing.T) {
	spec, analysis := testReports(t)
	rep, err := BuildRep(spec, analysis, DefaultRepOpts())
	require.NoError(t, err)
	report, err := WardCheck(rep, spec.Operators.Info, DefaultWardOpts())
	require.NoError(t, err)
	// diagonal generators commute with the diagonal operator
	assert.True(t, report.Pass)
	assert.Zero(t, report.MaxCommNorm)
	assert.InDelta(t, 1e-5, report.Thresholds.RelTol, 0)
}

func TestWardCheckOffDiagonalFails(t *testing.T) {
	spec, _ := testReports(t)
	rep := &RepMatrices{
		Basis: "modes",
		Dim:   2,
		Gens: []RepGenerator{
			{ID: "G0", Matrix: []float64{0, 5, 5, 0}, Norm: math.Sqrt(50)},
		},
	}
	report, err := WardCheck(rep, spec.Operators.Info, DefaultWardOpts())
	require.NoError(t, err)
	assert.False(t, report.Pass)
	assert.Greater(t, report.MaxCommNorm, 0.0)
}

func TestAnalyzeSealedAndDeterministic(t *testing.T) {
	spec, analysis := testReports(t)
	first, err := Analyze(spec, analysis, DefaultGaugeOpts())
	require.NoError(t, err)
	second, err := Analyze(spec, analysis, DefaultGaugeOpts())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.NotEmpty(t, first.AnalysisHash)
	assert.NotEmpty(t, first.RepHash)
	assert.Equal(t, spec.GraphHash, first.GraphHash)
	assert.Equal(t, spec.CodeHash, first.CodeHash)
	assert.Equal(t, Version, first.Provenance.Commit)
}

func TestAnalyzeSeedChangesHash(t *testing.T) {
	spec, analysis := testReports(t)
	base, err := Analyze(spec, analysis, DefaultGaugeOpts())
	require.NoError(t, err)
	opts := DefaultGaugeOpts()
	opts.Seed = 99
	seeded, err := Analyze(spec, analysis, opts)
	require.NoError(t, err)
	assert.NotEqual(t, base.AnalysisHash, seeded.AnalysisHash)
	assert.Equal(t, uint64(99), seeded.Provenance.Seed)
}

func TestAnalyzeHashMismatch(t *testing.T) {
	spec, analysis := testReports(t)
	broken := *spec
	broken.GraphHash = "deadbeef"
	_, err := Analyze(&broken, analysis, DefaultGaugeOpts())
	require.Error(t, err)
	assert.Equal(t, "hash-mismatch", errors.CodeOf(err))
}

func TestReportRoundTrip(t *testing.T) {
	spec, analysis := testReports(t)
	report, err := Analyze(spec, analysis, DefaultGaugeOpts())
	require.NoError(t, err)
	data, err := MarshalReport(report)
	require.NoError(t, err)
	decoded, err := UnmarshalReport(data)
	require.NoError(t, err)
	assert.Equal(t, report, decoded)
}
