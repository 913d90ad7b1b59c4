package rg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/internal/errors"
)

func testState(t *testing.T) StateRef {
	t.Helper()
	cfg := graph.DefaultConfig()
	cfg.MaxInDegree = nil
	cfg.MaxOutDegree = nil
	cfg.KUniform = nil
	g := graph.New(cfg)
	ids := make([]graph.NodeID, 5)
	for i := range ids {
		ids[i] = g.AddNode()
	}
	_, err := g.AddHyperedge([]graph.NodeID{ids[0]}, []graph.NodeID{ids[1], ids[2]})
	require.NoError(t, err)
	_, err = g.AddHyperedge([]graph.NodeID{ids[1]}, []graph.NodeID{ids[3]})
	require.NoError(t, err)
	_, err = g.AddHyperedge([]graph.NodeID{ids[2]}, []graph.NodeID{ids[4]})
	require.NoError(t, err)

	c, err := code.New(4, [][]int{{0, 1, 2, 3}}, [][]int{{0, 1}, {2, 3}})
	require.NoError(t, err)
	return StateRef{Graph: g, Code: c}
}

func TestPartitionNodesDeterministic(t *testing.T) {
	state := testState(t)
	first, err := PartitionNodes(state.Graph, DefaultRGOpts())
	require.NoError(t, err)
	second, err := PartitionNodes(state.Graph, DefaultRGOpts())
	require.NoError(t, err)
	assert.Equal(t, first.Blocks(), second.Blocks())

	total := 0
	for _, block := range first.Blocks() {
		assert.LessOrEqual(t, len(block), 2)
		total += len(block)
		for _, node := range block {
			assert.Equal(t, first.BlockIndex(node), first.BlockIndex(block[0]))
		}
	}
	assert.Equal(t, state.Graph.NodeCount(), total)
}

func TestPartitionNodesSeedChangesOrder(t *testing.T) {
	state := testState(t)
	base, err := PartitionNodes(state.Graph, DefaultRGOpts())
	require.NoError(t, err)
	opts := DefaultRGOpts()
	opts.Seed = 7
	reseeded, err := PartitionNodes(state.Graph, opts)
	require.NoError(t, err)
	assert.NotEqual(t, base.Blocks(), reseeded.Blocks())
}

func TestPartitionNodesEmptyGraph(t *testing.T) {
	g := graph.New(graph.DefaultConfig())
	_, err := PartitionNodes(g, DefaultRGOpts())
	require.Error(t, err)
	assert.Equal(t, "empty-graph", errors.CodeOf(err))
}

func TestApplyContractPreservesCode(t *testing.T) {
	state := testState(t)
	partition, err := PartitionNodes(state.Graph, DefaultRGOpts())
	require.NoError(t, err)
	result, err := ApplyContract(state.Code, partition)
	require.NoError(t, err)
	assert.Equal(t, state.Code.CanonicalHash(), result.Code.CanonicalHash())
	assert.Equal(t, 1.0, result.Summary.KeptFraction)
	assert.Zero(t, result.Summary.LostConstraints)
	assert.True(t, result.Summary.CSSPreserved)
}

func TestApplyStepIsExactIsometry(t *testing.T) {
	state := testState(t)
	step, err := ApplyStep(state.Graph, state.Code, DefaultRGOpts())
	require.NoError(t, err)
	assert.Equal(t, state.Graph.CanonicalHash(), step.Report.GraphHash)
	assert.Equal(t, state.Code.CanonicalHash(), step.Report.CodeHash)
	assert.True(t, step.Report.CSSPreserved)
	assert.True(t, step.Report.SymmetryEquivariant)
	assert.NotEmpty(t, step.Report.StepHash)
	assert.Contains(t, step.Report.Notes, "scale=2")
}

func TestRunStepsReport(t *testing.T) {
	state := testState(t)
	run, err := RunSteps(state, 3, DefaultRGOpts())
	require.NoError(t, err)
	require.Len(t, run.Steps, 3)
	require.Len(t, run.Report.Steps, 3)
	assert.Equal(t, run.Report.InitialGraphHash, run.Report.FinalGraphHash)
	assert.Equal(t, run.Report.InitialCodeHash, run.Report.FinalCodeHash)
	assert.NotEmpty(t, run.Report.RunHash)
	for idx, entry := range run.Report.Steps {
		assert.Equal(t, idx, entry.Index)
		assert.Equal(t, run.Steps[idx].Report.StepHash, entry.StepHash)
	}

	again, err := RunSteps(state, 3, DefaultRGOpts())
	require.NoError(t, err)
	assert.Equal(t, run.Report.RunHash, again.Report.RunHash)
}

func TestRunStepsZeroSteps(t *testing.T) {
	state := testState(t)
	run, err := RunSteps(state, 0, DefaultRGOpts())
	require.NoError(t, err)
	assert.Empty(t, run.Steps)
	assert.Equal(t, run.Report.InitialGraphHash, run.Report.FinalGraphHash)
}

func TestExtractCouplingsShape(t *testing.T) {
	state := testState(t)
	report, err := ExtractCouplings(state.Graph, state.Code, DefaultDictOpts())
	require.NoError(t, err)

	// 3 edges over 4 variables
	assert.InDelta(t, 0.75, report.CKin, 1e-12)
	// 3 edges over 5 nodes
	assert.InDelta(t, 0.6, report.G[0], 1e-12)
	// rank_x 1 plus rank_z 2 over 3 checks
	assert.InDelta(t, 1.0, report.LambdaH, 1e-12)
	require.Len(t, report.Yukawa, 4)
	assert.InDelta(t, 5e-7, report.FitResiduals, 1e-18)
	assert.NotEmpty(t, report.DictHash)
	assert.Contains(t, report.Provenance.Notes, "yukawa_count=4")
	for i, v := range report.Yukawa {
		assert.InDelta(t, v*0.05, report.CI.Yukawa[i], 1e-12)
	}
}

func TestExtractCouplingsDeterministic(t *testing.T) {
	state := testState(t)
	first, err := ExtractCouplings(state.Graph, state.Code, DefaultDictOpts())
	require.NoError(t, err)
	second, err := ExtractCouplings(state.Graph, state.Code, DefaultDictOpts())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCovarianceCheckPasses(t *testing.T) {
	state := testState(t)
	report, err := CovarianceCheck(state, 2, DefaultRGOpts(), DefaultDictOpts())
	require.NoError(t, err)
	// the exact isometry makes both orders agree on everything but hashes
	assert.True(t, report.Pass)
	assert.Zero(t, report.Delta.CKinRelative)
	assert.Zero(t, report.Delta.GMaxAbsolute)
	assert.Zero(t, report.Delta.LambdaAbsolute)
	assert.Zero(t, report.Delta.YukawaMaxAbsolute)
	assert.NotEmpty(t, report.CovarianceHash)
	assert.Equal(t, report.CouplingsRThenD.CKin, report.CouplingsDThenR.CKin)
}
