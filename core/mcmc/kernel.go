// Package mcmc implements a deterministic replica-exchange sampler over
// graph/code pairs. Every random decision is drawn from a seed derived
// from the master seed and the (replica, sweep, slot) coordinates, so a
// run is a pure function of its configuration, seed, and initial state.
package mcmc

import (
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/internal/errors"
)

// MoveKind labels the proposal types issued by the sampler.
type MoveKind string

const (
	// MoveGeneratorFlip toggles the support of a generator.
	MoveGeneratorFlip MoveKind = "generator-flip"
	// MoveRowOperation XORs two generators of the same family.
	MoveRowOperation MoveKind = "row-op"
	// MoveGraphSwapTargets swaps destination sets between two edges.
	MoveGraphSwapTargets MoveKind = "graph-swap-targets"
	// MoveGraphRetarget moves one destination of an edge.
	MoveGraphRetarget MoveKind = "graph-retarget"
	// MoveGraphResourceBalance rebalances an edge toward a cold node.
	MoveGraphResourceBalance MoveKind = "graph-resource-balance"
	// MoveWormSample is the logical worm/loop coverage diagnostic.
	MoveWormSample MoveKind = "worm-sample"
)

// RunSummary is returned to callers after a run completes.
type RunSummary struct {
	AcceptanceRates     map[string]float64 `json:"acceptance_rates"`
	ReplicaTemperatures []float64          `json:"replica_temperatures"`
	ExchangeAcceptance  []float64          `json:"exchange_acceptance"`
	Coverage            CoverageMetrics    `json:"coverage"`
	EffectiveSampleSize float64            `json:"effective_sample_size"`
	FinalCodeHash       string             `json:"final_code_hash"`
	FinalGraphHash      string             `json:"final_graph_hash"`
	MetricsPath         string             `json:"metrics_path,omitempty"`
	ManifestPath        string             `json:"manifest_path,omitempty"`
	Checkpoints         []string           `json:"checkpoints"`
	Samples             []MetricSample     `json:"samples"`
}

type replicaState struct {
	temperature float64
	code        *code.Code
	graph       *graph.Hypergraph
	energy      EnergyBreakdown
	accepted    map[MoveKind]int
	proposed    map[MoveKind]int
}

func newReplicaState(temperature float64, c *code.Code, g *graph.Hypergraph, weights ScoringWeights) (*replicaState, error) {
	energy, err := Score(c, g, weights)
	if err != nil {
		return nil, err
	}
	return &replicaState{
		temperature: temperature,
		code:        c,
		graph:       g,
		energy:      energy,
		accepted:    make(map[MoveKind]int),
		proposed:    make(map[MoveKind]int),
	}, nil
}

func (r *replicaState) record(kind MoveKind, accepted bool) {
	r.proposed[kind]++
	if accepted {
		r.accepted[kind]++
	}
}

func (r *replicaState) counterTotals() (accepted, proposed int) {
	for _, v := range r.accepted {
		accepted += v
	}
	for _, v := range r.proposed {
		proposed += v
	}
	return accepted, proposed
}

// Run executes the sampler from scratch.
func Run(cfg RunConfig, seed uint64, c *code.Code, g *graph.Hypergraph) (*RunSummary, error) {
	cfg = cfg.Sanitized()
	ladder := BuildLadder(cfg.Ladder)
	replicas := make([]*replicaState, 0, len(ladder))
	for _, temperature := range ladder {
		replicaCode, err := c.Clone()
		if err != nil {
			return nil, err
		}
		replicaGraph, err := g.Clone()
		if err != nil {
			return nil, err
		}
		replica, err := newReplicaState(temperature, replicaCode, replicaGraph, cfg.Scoring)
		if err != nil {
			return nil, err
		}
		replicas = append(replicas, replica)
	}
	return runWithReplicas(cfg, seed, ladder, replicas, 0, cfg.Sweeps)
}

// Resume reconstructs replicas from a checkpoint and continues the run
// from min(checkpoint sweep, configured total).
func Resume(path string) (*RunSummary, error) {
	payload, err := LoadCheckpoint(path)
	if err != nil {
		return nil, err
	}
	states, err := RestoreCheckpoint(payload)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, errors.New(errors.FamilySerde, "empty-checkpoint",
			"checkpoint contained no replicas").WithContext("path", path)
	}
	cfg := payload.Config.Sanitized()
	ladder := BuildLadder(cfg.Ladder)
	replicas := make([]*replicaState, 0, len(states))
	for idx, state := range states {
		temperature := state.Temperature
		if idx < len(ladder) {
			temperature = ladder[idx]
		}
		replicas = append(replicas, &replicaState{
			temperature: temperature,
			code:        state.Code,
			graph:       state.Graph,
			energy:      state.Energy,
			accepted:    make(map[MoveKind]int),
			proposed:    make(map[MoveKind]int),
		})
	}
	start := payload.Sweep
	if start > cfg.Sweeps {
		start = cfg.Sweeps
	}
	return runWithReplicas(cfg, payload.MasterSeed, ladder, replicas, start, cfg.Sweeps)
}

func runWithReplicas(cfg RunConfig, seed uint64, ladder []float64, replicas []*replicaState, startSweep, totalSweeps int) (*RunSummary, error) {
	recorder := NewMetricsRecorder()
	var checkpoints []string
	pairs := 0
	if len(ladder) > 1 {
		pairs = len(ladder) - 1
	}
	exchangeTotals := make([]float64, pairs)
	exchangeCounts := make([]int, pairs)

	for sweep := startSweep; sweep < totalSweeps; sweep++ {
		for replicaIndex, replica := range replicas {
			if err := performCodeMoves(cfg, seed, sweep, replicaIndex, replica); err != nil {
				return nil, err
			}
			if err := performGraphMoves(cfg, seed, sweep, replicaIndex, replica); err != nil {
				return nil, err
			}
			performWormMoves(cfg, seed, sweep, replicaIndex, replica, recorder)
		}

		performTempering(seed, sweep, replicas, exchangeTotals, exchangeCounts)

		recordMetrics(cfg, sweep, recorder, replicas)

		if cfg.Checkpoint.Interval > 0 &&
			(sweep+1)%cfg.Checkpoint.Interval == 0 &&
			cfg.Output.RunDirectory != "" {
			path, err := writeCheckpoint(cfg, seed, sweep, replicas)
			if err != nil {
				return nil, err
			}
			checkpoints = append(checkpoints, path)
			checkpoints, err = enforceCheckpointRetention(checkpoints, cfg.Checkpoint.MaxToKeep)
			if err != nil {
				return nil, err
			}
		}
	}

	cold := replicas[0]
	finalCodeHash := cold.code.CanonicalHash()
	finalGraphHash := cold.graph.CanonicalHash()

	coverage := recorder.Coverage()
	ess := 0.0
	if len(recorder.Samples()) > 0 {
		ess = float64(len(recorder.Samples())) / (1.0 + coverage.AverageJaccard)
	}
	exchangeAcceptance := make([]float64, pairs)
	for i := range exchangeTotals {
		if exchangeCounts[i] > 0 {
			exchangeAcceptance[i] = exchangeTotals[i] / float64(exchangeCounts[i])
		}
	}

	summary := &RunSummary{
		AcceptanceRates:     aggregateAcceptance(replicas),
		ReplicaTemperatures: ladder,
		ExchangeAcceptance:  exchangeAcceptance,
		Coverage:            coverage,
		EffectiveSampleSize: ess,
		FinalCodeHash:       finalCodeHash,
		FinalGraphHash:      finalGraphHash,
		Checkpoints:         checkpoints,
		Samples:             recorder.Samples(),
	}

	if cfg.Output.RunDirectory != "" {
		if err := writeRunArtifacts(cfg, seed, recorder, cold, summary); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func performCodeMoves(cfg RunConfig, seed uint64, sweep, replicaIndex int, replica *replicaState) error {
	counts := cfg.MoveCounts
	for trial := 0; trial < counts.GeneratorFlips; trial++ {
		stream := determinism.NewStream(MoveSeed(seed, replicaIndex, sweep, trial))
		proposal, err := ProposeGeneratorFlip(replica.code, stream)
		if err != nil {
			replica.record(MoveGeneratorFlip, false)
			continue
		}
		if err := applyCodeProposal(replica, proposal, MoveGeneratorFlip, cfg.Scoring, stream); err != nil {
			return err
		}
	}
	for trial := 0; trial < counts.RowOps; trial++ {
		stream := determinism.NewStream(MoveSeed(seed, replicaIndex, sweep, counts.GeneratorFlips+trial))
		proposal, err := ProposeRowOperation(replica.code, stream)
		if err != nil {
			replica.record(MoveRowOperation, false)
			continue
		}
		if err := applyCodeProposal(replica, proposal, MoveRowOperation, cfg.Scoring, stream); err != nil {
			return err
		}
	}
	return nil
}

func applyCodeProposal(replica *replicaState, proposal *CodeProposal, kind MoveKind, weights ScoringWeights, stream *determinism.Stream) error {
	candidateEnergy, err := Score(proposal.Candidate, replica.graph, weights)
	if err != nil {
		return err
	}
	accepted := metropolisAccept(candidateEnergy.Total-replica.energy.Total, replica.temperature, stream)
	replica.record(kind, accepted)
	if accepted {
		replica.code = proposal.Candidate
		replica.energy = candidateEnergy
	}
	return nil
}

func performGraphMoves(cfg RunConfig, seed uint64, sweep, replicaIndex int, replica *replicaState) error {
	counts := cfg.MoveCounts
	for trial := 0; trial < counts.GraphRewires; trial++ {
		slot := counts.GeneratorFlips + counts.RowOps + trial
		stream := determinism.NewStream(MoveSeed(seed, replicaIndex, sweep, slot))

		var kind MoveKind
		var proposal *GraphProposal
		var err error
		switch trial % 3 {
		case 0:
			kind = MoveGraphSwapTargets
			proposal, err = ProposeSwapTargets(replica.graph, stream)
		case 1:
			kind = MoveGraphRetarget
			proposal, err = ProposeRetarget(replica.graph, stream)
		default:
			kind = MoveGraphResourceBalance
			proposal, err = ProposeResourceBalance(replica.graph, stream)
		}
		if err != nil {
			replica.record(kind, false)
			continue
		}
		if err := applyGraphProposal(replica, proposal, kind, cfg.Scoring, stream); err != nil {
			return err
		}
	}
	return nil
}

func applyGraphProposal(replica *replicaState, proposal *GraphProposal, kind MoveKind, weights ScoringWeights, stream *determinism.Stream) error {
	candidateEnergy, err := Score(replica.code, proposal.Candidate, weights)
	if err != nil {
		return err
	}
	accepted := metropolisAccept(candidateEnergy.Total-replica.energy.Total, replica.temperature, stream)
	replica.record(kind, accepted)
	if accepted {
		replica.graph = proposal.Candidate
		replica.energy = candidateEnergy
	}
	return nil
}

func performWormMoves(cfg RunConfig, seed uint64, sweep, replicaIndex int, replica *replicaState, recorder *MetricsRecorder) {
	counts := cfg.MoveCounts
	for trial := 0; trial < counts.WormMoves; trial++ {
		slot := counts.GeneratorFlips + counts.RowOps + counts.GraphRewires + trial
		stream := determinism.NewStream(MoveSeed(seed, replicaIndex, sweep, slot))
		worm, err := ProposeWorm(replica.code, replica.graph, stream)
		if err != nil {
			replica.record(MoveWormSample, false)
			continue
		}
		recorder.NoteWormSample(worm.SampleHash)
		replica.record(MoveWormSample, true)
	}
}

func metropolisAccept(delta, temperature float64, stream *determinism.Stream) bool {
	acceptance := math.Min(math.Exp(-delta/math.Max(temperature, 1e-9)), 1.0)
	draw := float64(stream.Uint64()) / float64(math.MaxUint64)
	return draw < acceptance
}

func performTempering(seed uint64, sweep int, replicas []*replicaState, totals []float64, counts []int) {
	if len(replicas) < 2 {
		return
	}
	for pair := 0; pair < len(replicas)-1; pair++ {
		stream := determinism.NewStream(ExchangeSeed(seed, sweep, pair))
		accept, prob := AttemptExchange(
			replicas[pair].energy.Total, replicas[pair].temperature,
			replicas[pair+1].energy.Total, replicas[pair+1].temperature,
			stream)
		totals[pair] += prob
		counts[pair]++
		if accept {
			swapReplicaStates(replicas[pair], replicas[pair+1])
		}
	}
}

// swapReplicaStates exchanges the configurations of two replicas while
// leaving each position's temperature pinned to the ladder, so index 0
// always holds the cold chain and a restored checkpoint sees the same
// temperature-to-position mapping as an uninterrupted run.
func swapReplicaStates(a, b *replicaState) {
	a.code, b.code = b.code, a.code
	a.graph, b.graph = b.graph, a.graph
	a.energy, b.energy = b.energy, a.energy
}

func recordMetrics(cfg RunConfig, sweep int, recorder *MetricsRecorder, replicas []*replicaState) {
	if sweep < cfg.BurnIn {
		return
	}
	if (sweep-cfg.BurnIn)%cfg.Thinning != 0 {
		return
	}
	for replicaIndex, replica := range replicas {
		accepted, proposed := replica.counterTotals()
		recorder.PushSample(MetricSample{
			Sweep:         sweep,
			Replica:       replicaIndex,
			Temperature:   replica.temperature,
			Energy:        replica.energy,
			AcceptedMoves: accepted,
			ProposedMoves: proposed,
			CodeHash:      replica.code.CanonicalHash(),
			GraphHash:     replica.graph.CanonicalHash(),
		}, GeneratorSignature(replica.code))
	}
}

func writeCheckpoint(cfg RunConfig, seed uint64, sweep int, replicas []*replicaState) (string, error) {
	dir := filepath.Join(cfg.Output.RunDirectory, cfg.Output.CheckpointDir)
	path := CheckpointPath(dir, sweep+1)
	states := make([]RestoredReplica, 0, len(replicas))
	for _, replica := range replicas {
		states = append(states, RestoredReplica{
			Temperature: replica.temperature,
			Code:        replica.code,
			Graph:       replica.graph,
			Energy:      replica.energy,
		})
	}
	payload, err := BuildCheckpoint(sweep+1, cfg, seed, states)
	if err != nil {
		return "", err
	}
	if err := payload.StoreCheckpoint(path); err != nil {
		return "", err
	}
	return path, nil
}

func enforceCheckpointRetention(paths []string, maxToKeep int) ([]string, error) {
	for len(paths) > maxToKeep {
		oldest := paths[0]
		paths = paths[1:]
		if err := os.Remove(oldest); err != nil {
			return nil, errors.Wrap(errors.FamilySerde, "checkpoint-remove",
				"failed to evict old checkpoint", err).WithContext("path", oldest)
		}
	}
	return paths, nil
}

func aggregateAcceptance(replicas []*replicaState) map[string]float64 {
	proposedTotals := make(map[MoveKind]int)
	acceptedTotals := make(map[MoveKind]int)
	for _, replica := range replicas {
		for kind, n := range replica.proposed {
			proposedTotals[kind] += n
		}
		for kind, n := range replica.accepted {
			acceptedTotals[kind] += n
		}
	}
	kinds := make([]MoveKind, 0, len(proposedTotals))
	for kind := range proposedTotals {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	rates := make(map[string]float64, len(kinds))
	for _, kind := range kinds {
		rate := 0.0
		if proposedTotals[kind] > 0 {
			rate = float64(acceptedTotals[kind]) / float64(proposedTotals[kind])
		}
		rates[string(kind)] = rate
	}
	return rates
}

// writeRunArtifacts emits the run-directory layout: metrics.csv, the end
// state pair, state.json, a config.yaml copy, coverage_summary.json, and
// the manifest.
func writeRunArtifacts(cfg RunConfig, seed uint64, recorder *MetricsRecorder, cold *replicaState, summary *RunSummary) error {
	runDir := cfg.Output.RunDirectory

	metricsPath := filepath.Join(runDir, cfg.Output.MetricsFile)
	if err := recorder.WriteCSV(metricsPath); err != nil {
		return err
	}
	summary.MetricsPath = metricsPath

	endStateDir := filepath.Join(runDir, cfg.Output.EndStateDir)
	codeData, err := cold.code.Marshal()
	if err != nil {
		return err
	}
	graphData, err := cold.graph.Marshal()
	if err != nil {
		return err
	}
	if err := atomicWrite(filepath.Join(endStateDir, "code.json"), codeData, "end-state"); err != nil {
		return err
	}
	if err := atomicWrite(filepath.Join(endStateDir, "graph.json"), graphData, "end-state"); err != nil {
		return err
	}

	statePayload := struct {
		Code  string `json:"code"`
		Graph string `json:"graph"`
	}{
		Code:  filepath.Join(cfg.Output.EndStateDir, "code.json"),
		Graph: filepath.Join(cfg.Output.EndStateDir, "graph.json"),
	}
	stateData, err := codec.Marshal(statePayload)
	if err != nil {
		return err
	}
	if err := atomicWrite(filepath.Join(runDir, "state.json"), stateData, "state"); err != nil {
		return err
	}

	configData, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.FamilySerde, "config-serialize",
			"failed to serialize run config copy", err)
	}
	if err := atomicWrite(filepath.Join(runDir, "config.yaml"), configData, "config"); err != nil {
		return err
	}

	coverageSummary := CoverageSummary{
		UniqueStateHashes:      summary.Coverage.UniqueStateHashes,
		WormSamples:            summary.Coverage.WormSamples,
		AverageJaccard:         summary.Coverage.AverageJaccard,
		JaccardLagDecay:        summary.Coverage.JaccardLagDecay,
		ExchangeAcceptance:     summary.ExchangeAcceptance,
		ExchangeAcceptanceMean: meanOf(summary.ExchangeAcceptance),
		EffectiveSampleSize:    summary.EffectiveSampleSize,
	}
	coverageData, err := codec.Marshal(coverageSummary)
	if err != nil {
		return errors.Wrap(errors.FamilySerde, "coverage-serialize",
			"failed to serialize coverage summary", err)
	}
	if err := atomicWrite(filepath.Join(runDir, "coverage_summary.json"), coverageData, "coverage"); err != nil {
		return err
	}

	relCheckpoints := make([]string, 0, len(summary.Checkpoints))
	for _, path := range summary.Checkpoints {
		if rel, relErr := filepath.Rel(runDir, path); relErr == nil {
			relCheckpoints = append(relCheckpoints, rel)
		}
	}
	manifest := RunManifest{
		Config:      cfg,
		MasterSeed:  seed,
		SeedLabel:   cfg.SeedPolicy.Label,
		CodeHash:    summary.FinalCodeHash,
		GraphHash:   summary.FinalGraphHash,
		MetricsFile: cfg.Output.MetricsFile,
		Checkpoints: relCheckpoints,
	}
	manifestPath := filepath.Join(runDir, cfg.Output.ManifestFile)
	if err := manifest.WriteManifest(manifestPath); err != nil {
		return err
	}
	summary.ManifestPath = manifestPath
	return nil
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
