package mcmc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/internal/errors"
)

func testGraph(t *testing.T) *graph.Hypergraph {
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
	return g
}

func testCode(t *testing.T) *code.Code {
	t.Helper()
	c, err := code.New(4, [][]int{{0, 1, 2, 3}}, [][]int{{0, 1}, {2, 3}})
	require.NoError(t, err)
	return c
}

func TestBuildLadderGeometric(t *testing.T) {
	ladder := BuildLadder(DefaultLadderConfig())
	require.Len(t, ladder, 3)
	assert.InDelta(t, 1.0, ladder[0], 1e-12)
	assert.InDelta(t, 1.5, ladder[1], 1e-12)
	assert.InDelta(t, 2.25, ladder[2], 1e-12)

	clamped := BuildLadder(LadderConfig{
		Replicas:        2,
		BaseTemperature: 1.0,
		Policy:          PolicyGeometric,
		Ratio:           0.5,
	})
	require.Len(t, clamped, 2)
	assert.InDelta(t, 1.0, clamped[0], 1e-12)
	assert.InDelta(t, 1.01, clamped[1], 1e-12)
}

func TestBuildLadderManual(t *testing.T) {
	explicit := BuildLadder(LadderConfig{
		BaseTemperature: 1.0,
		Policy:          PolicyManual,
		Temperatures:    []float64{0.5, 2.0},
	})
	assert.Equal(t, []float64{0.5, 2.0}, explicit)

	fallback := BuildLadder(LadderConfig{
		BaseTemperature: 0.75,
		Policy:          PolicyManual,
	})
	assert.Equal(t, []float64{0.75}, fallback)
}

func TestExchangeAcceptance(t *testing.T) {
	assert.InDelta(t, 1.0, ExchangeAcceptance(2.0, 1.0, 2.0, 1.5), 1e-12)
	assert.InDelta(t, 0.6065306597126334, ExchangeAcceptance(1.0, 1.0, 2.0, 2.0), 1e-9)
	// Hot replica carrying the lower energy always swaps down.
	assert.InDelta(t, 1.0, ExchangeAcceptance(2.0, 1.0, 1.0, 2.0), 1e-12)
}

func TestScoreProxies(t *testing.T) {
	c := testCode(t)
	g := testGraph(t)

	energy, err := Score(c, g, DefaultScoringWeights())
	require.NoError(t, err)
	assert.InDelta(t, 8.112312304569205, energy.Cmdl, 1e-9)
	assert.InDelta(t, 1.8202328585519836, energy.Spec, 1e-9)
	assert.InDelta(t, energy.Cmdl+energy.Spec+energy.Curv, energy.Total, 1e-9)

	cmdlOnly, err := Score(c, g, ScoringWeights{Cmdl: 1})
	require.NoError(t, err)
	assert.InDelta(t, cmdlOnly.Cmdl, cmdlOnly.Total, 1e-12)
}

func TestScoreEmptyCode(t *testing.T) {
	empty, err := code.New(4, nil, nil)
	require.NoError(t, err)
	energy, err := Score(empty, testGraph(t), DefaultScoringWeights())
	require.NoError(t, err)
	assert.Zero(t, energy.Cmdl)
	assert.Zero(t, energy.Spec)
}

func TestSeedDerivation(t *testing.T) {
	const master = uint64(0x05EED5EEDD155EED)
	assert.Equal(t, determinism.Derive(master, 2), ReplicaSeed(master, 2))
	assert.Equal(t,
		determinism.Derive(master^exchangeSeedMask, 3<<16|1),
		ExchangeSeed(master, 3, 1))

	seen := make(map[uint64]bool)
	for replica := 0; replica < 2; replica++ {
		for sweep := 0; sweep < 2; sweep++ {
			for slot := 0; slot < 4; slot++ {
				seed := MoveSeed(master, replica, sweep, slot)
				assert.False(t, seen[seed])
				seen[seed] = true
			}
		}
	}
}

func TestProposeGeneratorFlip(t *testing.T) {
	c, err := code.New(4, [][]int{{0, 1}, {2, 3}}, nil)
	require.NoError(t, err)

	proposal, err := ProposeGeneratorFlip(c, determinism.NewStream(7))
	require.NoError(t, err)
	assert.Equal(t, "generator-flip:x1:var0", proposal.Description)
	assert.InDelta(t, 0.5, proposal.ForwardProb, 1e-12)
	assert.Equal(t, proposal.ForwardProb, proposal.ReverseProb)
	assert.Equal(t, [][]int{{0, 1}, {0, 2, 3}}, proposal.Candidate.XSupports())
	assert.NotEqual(t, c.CanonicalHash(), proposal.Candidate.CanonicalHash())
}

func TestProposeGeneratorFlipEmptyCode(t *testing.T) {
	empty, err := code.New(3, nil, nil)
	require.NoError(t, err)
	_, err = ProposeGeneratorFlip(empty, determinism.NewStream(1))
	assert.True(t, errors.IsCode(err, "no-generators"))
}

func TestProposeRowOperation(t *testing.T) {
	c, err := code.New(4, [][]int{{0, 1}, {1, 2}}, nil)
	require.NoError(t, err)

	proposal, err := ProposeRowOperation(c, determinism.NewStream(11))
	require.NoError(t, err)
	assert.Equal(t, "row-op:x1^x0", proposal.Description)
	assert.InDelta(t, 0.5, proposal.ForwardProb, 1e-12)
	assert.Equal(t, [][]int{{0, 1}, {0, 2}}, proposal.Candidate.XSupports())
	assert.Equal(t, c.NumVariables(), proposal.Candidate.NumVariables())
}

func TestProposeRowOperationInsufficient(t *testing.T) {
	c, err := code.New(4, [][]int{{0, 1}}, nil)
	require.NoError(t, err)
	_, err = ProposeRowOperation(c, determinism.NewStream(1))
	assert.True(t, errors.IsCode(err, "insufficient-generators"))
}

func TestProposeWorm(t *testing.T) {
	c := testCode(t)
	g := testGraph(t)

	first, err := ProposeWorm(c, g, determinism.NewStream(13))
	require.NoError(t, err)
	second, err := ProposeWorm(c, g, determinism.NewStream(13))
	require.NoError(t, err)
	assert.Equal(t, first.SampleHash, second.SampleHash)
	assert.True(t, strings.HasPrefix(first.Description, "worm:var3:"))
	assert.True(t, strings.HasPrefix(first.SampleHash, "worm-"))
	assert.Equal(t, 2, first.SupportSize)
}

func TestProposeWormEmptyCode(t *testing.T) {
	empty, err := code.New(0, nil, nil)
	require.NoError(t, err)
	_, err = ProposeWorm(empty, testGraph(t), determinism.NewStream(1))
	assert.True(t, errors.IsCode(err, "empty-code"))
}

func TestProposeSwapTargets(t *testing.T) {
	g := testGraph(t)
	before := g.CanonicalHash()

	proposal, err := ProposeSwapTargets(g, determinism.NewStream(1))
	require.NoError(t, err)
	assert.Equal(t, "swap-targets:e2-e1", proposal.Description)
	assert.InDelta(t, 2.0/6.0, proposal.ForwardProb, 1e-12)
	assert.NotEqual(t, before, proposal.CandidateHash)
	// The proposal works on a clone; the input graph stays untouched.
	assert.Equal(t, before, g.CanonicalHash())
}

func TestProposeSwapTargetsInsufficientEdges(t *testing.T) {
	cfg := graph.DefaultConfig()
	cfg.KUniform = nil
	g := graph.New(cfg)
	a := g.AddNode()
	b := g.AddNode()
	_, err := g.AddHyperedge([]graph.NodeID{a}, []graph.NodeID{b})
	require.NoError(t, err)
	_, err = ProposeSwapTargets(g, determinism.NewStream(1))
	assert.True(t, errors.IsCode(err, "insufficient-edges"))
}

func TestProposeRetarget(t *testing.T) {
	g := testGraph(t)
	before := g.CanonicalHash()

	proposal, err := ProposeRetarget(g, determinism.NewStream(0))
	require.NoError(t, err)
	assert.Equal(t, "retarget:e1:3->4", proposal.Description)
	assert.InDelta(t, 1.0/15.0, proposal.ForwardProb, 1e-12)
	assert.NotEqual(t, before, proposal.CandidateHash)
	assert.Equal(t, before, g.CanonicalHash())
}

func TestProposeResourceBalance(t *testing.T) {
	g := testGraph(t)
	before := g.CanonicalHash()

	// Node 3 has no outgoing edges, so the move is a structural no-op.
	proposal, err := ProposeResourceBalance(g, determinism.NewStream(3))
	require.NoError(t, err)
	assert.Equal(t, "resource-balance:n3", proposal.Description)
	assert.InDelta(t, 0.2, proposal.ForwardProb, 1e-12)
	assert.Equal(t, before, proposal.CandidateHash)
}

func TestProposeResourceBalanceNoNodes(t *testing.T) {
	g := graph.New(graph.DefaultConfig())
	_, err := ProposeResourceBalance(g, determinism.NewStream(1))
	assert.True(t, errors.IsCode(err, "no-nodes"))
}

func TestGeneratorSignature(t *testing.T) {
	assert.Equal(t, []int{3, 4}, GeneratorSignature(testCode(t)))
}

func TestMetricsRecorderCoverage(t *testing.T) {
	recorder := NewMetricsRecorder()
	assert.Equal(t, EmptyCoverage(), recorder.Coverage())

	recorder.PushSample(MetricSample{
		Sweep:    0,
		Energy:   EnergyBreakdown{Total: 2.0},
		CodeHash: "a", GraphHash: "b",
	}, []int{1, 2})
	recorder.PushSample(MetricSample{
		Sweep:    1,
		Energy:   EnergyBreakdown{Total: 4.0},
		CodeHash: "a", GraphHash: "b",
	}, []int{2, 3})
	recorder.NoteWormSample("worm-1")
	recorder.NoteWormSample("worm-1")
	recorder.NoteWormSample("worm-2")

	coverage := recorder.Coverage()
	assert.Equal(t, 1, coverage.UniqueStateHashes)
	assert.Equal(t, 2, coverage.WormSamples)
	assert.InDelta(t, 3.0, coverage.MeanEnergy, 1e-12)
	assert.InDelta(t, 1.0, coverage.EnergyVariance, 1e-12)
	assert.InDelta(t, 1.0/3.0, coverage.AverageJaccard, 1e-12)
}

func TestMetricsWriteCSV(t *testing.T) {
	recorder := NewMetricsRecorder()
	recorder.PushSample(MetricSample{
		Sweep:         2,
		Replica:       1,
		Temperature:   1.5,
		Energy:        EnergyBreakdown{Cmdl: 1.25, Spec: 0.5, Curv: 0.25, Total: 2.0},
		AcceptedMoves: 3,
		ProposedMoves: 4,
		CodeHash:      "ch",
		GraphHash:     "gh",
	}, nil)

	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, recorder.WriteCSV(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"sweep,replica,temperature,energy,cmdl,spec,curv,accepted,proposed,code_hash,graph_hash",
		lines[0])
	assert.Equal(t, "2,1,1.500000,2.000000,1.250000,0.500000,0.250000,3,4,ch,gh", lines[1])
}

func TestRunDeterministic(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Sweeps = 4

	first, err := Run(cfg, 0xBEEF, testCode(t), testGraph(t))
	require.NoError(t, err)
	second, err := Run(cfg, 0xBEEF, testCode(t), testGraph(t))
	require.NoError(t, err)

	assert.Equal(t, first.FinalCodeHash, second.FinalCodeHash)
	assert.Equal(t, first.FinalGraphHash, second.FinalGraphHash)
	assert.Equal(t, first.Samples, second.Samples)

	require.Len(t, first.Samples, 12)
	assert.Equal(t, []float64{1.0, 1.5, 2.25}, first.ReplicaTemperatures)
	require.Len(t, first.ExchangeAcceptance, 2)
	for _, acceptance := range first.ExchangeAcceptance {
		assert.GreaterOrEqual(t, acceptance, 0.0)
		assert.LessOrEqual(t, acceptance, 1.0)
	}

	// Worm samples never mutate state and always count as accepted.
	assert.InDelta(t, 1.0, first.AcceptanceRates[string(MoveWormSample)], 1e-12)
	assert.Contains(t, first.AcceptanceRates, string(MoveGeneratorFlip))
	assert.Contains(t, first.AcceptanceRates, string(MoveRowOperation))
	assert.Contains(t, first.AcceptanceRates, string(MoveGraphSwapTargets))

	expectedESS := float64(len(first.Samples)) / (1.0 + first.Coverage.AverageJaccard)
	assert.InDelta(t, expectedESS, first.EffectiveSampleSize, 1e-12)
	assert.Positive(t, first.Coverage.WormSamples)
	assert.Positive(t, first.Coverage.UniqueStateHashes)
}

func TestRunBurnInAndThinning(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Sweeps = 4
	cfg.BurnIn = 2
	cfg.Thinning = 2

	summary, err := Run(cfg, 0xBEEF, testCode(t), testGraph(t))
	require.NoError(t, err)
	require.Len(t, summary.Samples, 3)
	for _, sample := range summary.Samples {
		assert.Equal(t, 2, sample.Sweep)
	}
}

func TestRunArtifacts(t *testing.T) {
	runDir := t.TempDir()
	cfg := DefaultRunConfig()
	cfg.Sweeps = 4
	cfg.Checkpoint.Interval = 2
	cfg.Output.RunDirectory = runDir
	cfg.SeedPolicy.Label = "fixture"

	summary, err := Run(cfg, 0xBEEF, testCode(t), testGraph(t))
	require.NoError(t, err)

	metricsData, err := os.ReadFile(filepath.Join(runDir, "metrics.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(metricsData),
		"sweep,replica,temperature,energy,cmdl,spec,curv,accepted,proposed,code_hash,graph_hash\n"))

	for _, name := range []string{"state.json", "config.yaml", "coverage_summary.json"} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, name)
	}

	require.Len(t, summary.Checkpoints, 2)
	assert.FileExists(t, filepath.Join(runDir, "checkpoints", "ckpt_00002.json"))
	assert.FileExists(t, filepath.Join(runDir, "checkpoints", "ckpt_00004.json"))

	manifest, err := LoadManifest(filepath.Join(runDir, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, summary.FinalCodeHash, manifest.CodeHash)
	assert.Equal(t, summary.FinalGraphHash, manifest.GraphHash)
	assert.Equal(t, "fixture", manifest.SeedLabel)
	assert.Equal(t, "metrics.csv", manifest.MetricsFile)
	assert.Equal(t,
		[]string{filepath.Join("checkpoints", "ckpt_00002.json"), filepath.Join("checkpoints", "ckpt_00004.json")},
		manifest.Checkpoints)

	endCode, endGraph, err := LoadEndState(runDir)
	require.NoError(t, err)
	assert.Equal(t, summary.FinalCodeHash, endCode.CanonicalHash())
	assert.Equal(t, summary.FinalGraphHash, endGraph.CanonicalHash())
}

func TestCheckpointRetention(t *testing.T) {
	runDir := t.TempDir()
	cfg := DefaultRunConfig()
	cfg.Sweeps = 4
	cfg.Checkpoint.Interval = 2
	cfg.Checkpoint.MaxToKeep = 1
	cfg.Output.RunDirectory = runDir

	summary, err := Run(cfg, 0xBEEF, testCode(t), testGraph(t))
	require.NoError(t, err)
	require.Len(t, summary.Checkpoints, 1)
	assert.NoFileExists(t, filepath.Join(runDir, "checkpoints", "ckpt_00002.json"))
	assert.FileExists(t, filepath.Join(runDir, "checkpoints", "ckpt_00004.json"))
}

func TestCheckpointRoundTrip(t *testing.T) {
	cfg := DefaultRunConfig()
	c := testCode(t)
	g := testGraph(t)
	energy, err := Score(c, g, cfg.Scoring)
	require.NoError(t, err)

	payload, err := BuildCheckpoint(2, cfg, 0xBEEF, []RestoredReplica{
		{Temperature: 1.5, Code: c, Graph: g, Energy: energy},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ckpt_00002.json")
	require.NoError(t, payload.StoreCheckpoint(path))

	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Sweep)
	assert.Equal(t, uint64(0xBEEF), loaded.MasterSeed)

	states, err := RestoreCheckpoint(loaded)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, c.CanonicalHash(), states[0].Code.CanonicalHash())
	assert.Equal(t, g.CanonicalHash(), states[0].Graph.CanonicalHash())
	assert.InDelta(t, energy.Total, states[0].Energy.Total, 1e-12)
}

func TestResumeMatchesUninterruptedRun(t *testing.T) {
	runDir := t.TempDir()
	cfg := DefaultRunConfig()
	cfg.Sweeps = 4
	cfg.Ladder.Replicas = 1
	cfg.Checkpoint.Interval = 2
	cfg.Output.RunDirectory = runDir

	full, err := Run(cfg, 0xBEEF, testCode(t), testGraph(t))
	require.NoError(t, err)

	resumed, err := Resume(filepath.Join(runDir, "checkpoints", "ckpt_00002.json"))
	require.NoError(t, err)
	assert.Equal(t, full.FinalCodeHash, resumed.FinalCodeHash)
	assert.Equal(t, full.FinalGraphHash, resumed.FinalGraphHash)
	// Two remaining sweeps of a single replica.
	assert.Len(t, resumed.Samples, 2)
}

func TestResumeMultiReplicaFromIntermediateCheckpoint(t *testing.T) {
	// Exchanges between ladder neighbours must swap configurations only.
	// If a swap dragged the temperatures along, a restored checkpoint
	// would see a different temperature-to-position mapping than the
	// uninterrupted run and the Metropolis decisions would diverge.
	for _, seed := range []uint64{888, 892, 895} {
		runDir := t.TempDir()
		cfg := DefaultRunConfig()
		cfg.Sweeps = 3
		cfg.Checkpoint.Interval = 1
		cfg.Output.RunDirectory = runDir

		full, err := Run(cfg, seed, testCode(t), testGraph(t))
		require.NoError(t, err)
		require.Len(t, full.ReplicaTemperatures, 3)

		resumed, err := Resume(filepath.Join(runDir, "checkpoints", "ckpt_00002.json"))
		require.NoError(t, err)
		assert.Equal(t, full.FinalCodeHash, resumed.FinalCodeHash, "seed %d", seed)
		assert.Equal(t, full.FinalGraphHash, resumed.FinalGraphHash, "seed %d", seed)
		assert.Equal(t, full.ReplicaTemperatures, resumed.ReplicaTemperatures)
		// One remaining sweep across three replicas.
		assert.Len(t, resumed.Samples, 3)
	}
}

func TestExchangeKeepsLadderTemperatures(t *testing.T) {
	a := &replicaState{temperature: 1.0, energy: EnergyBreakdown{Total: 5.0}}
	b := &replicaState{temperature: 2.0, energy: EnergyBreakdown{Total: 1.0}}
	swapReplicaStates(a, b)
	assert.Equal(t, 1.0, a.temperature)
	assert.Equal(t, 2.0, b.temperature)
	assert.Equal(t, 1.0, a.energy.Total)
	assert.Equal(t, 5.0, b.energy.Total)
}

func TestResumeEmptyCheckpoint(t *testing.T) {
	payload, err := BuildCheckpoint(2, DefaultRunConfig(), 1, nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ckpt_00002.json")
	require.NoError(t, payload.StoreCheckpoint(path))

	_, err = Resume(path)
	assert.True(t, errors.IsCode(err, "empty-checkpoint"))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sweeps: 8\nladder:\n  replicas: 2\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Sweeps)
	assert.Equal(t, 2, cfg.Ladder.Replicas)
	assert.Equal(t, 1, cfg.Thinning)
	assert.Equal(t, "metrics.csv", cfg.Output.MetricsFile)
	assert.Equal(t, uint64(0x05EED5EEDD155EED), cfg.SeedPolicy.MasterSeed)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsCode(err, "config-read"))
}
