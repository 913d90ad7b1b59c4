package mcmc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vacuum-landscape/core/code"
	"vacuum-landscape/internal/errors"
)

// MetricSample is one per-replica metrics row recorded after a sweep.
type MetricSample struct {
	Sweep         int             `json:"sweep"`
	Replica       int             `json:"replica"`
	Temperature   float64         `json:"temperature"`
	Energy        EnergyBreakdown `json:"energy"`
	AcceptedMoves int             `json:"accepted_moves"`
	ProposedMoves int             `json:"proposed_moves"`
	CodeHash      string          `json:"code_hash"`
	GraphHash     string          `json:"graph_hash"`
}

// CoverageMetrics aggregates exploration quality proxies over a run.
type CoverageMetrics struct {
	UniqueStateHashes int     `json:"unique_structural_hashes"`
	WormSamples       int     `json:"worm_samples"`
	MeanEnergy        float64 `json:"mean_energy"`
	EnergyVariance    float64 `json:"energy_variance"`
	AverageJaccard    float64 `json:"average_jaccard"`
	JaccardLagDecay   float64 `json:"jaccard_lag_decay"`
}

// EmptyCoverage is the coverage of a run with no recorded samples.
func EmptyCoverage() CoverageMetrics {
	return CoverageMetrics{AverageJaccard: 1.0, JaccardLagDecay: 1.0}
}

// CoverageSummary is the coverage_summary.json payload of a run.
type CoverageSummary struct {
	UniqueStateHashes      int       `json:"unique_structural_hashes"`
	WormSamples            int       `json:"worm_samples"`
	AverageJaccard         float64   `json:"average_jaccard"`
	JaccardLagDecay        float64   `json:"jaccard_lag_decay"`
	ExchangeAcceptance     []float64 `json:"exchange_acceptance"`
	ExchangeAcceptanceMean float64   `json:"exchange_acceptance_mean"`
	EffectiveSampleSize    float64   `json:"effective_sample_size"`
}

// MetricsRecorder collects per-sweep samples and worm hashes and derives
// aggregate coverage from them.
type MetricsRecorder struct {
	samples          []MetricSample
	uniqueHashes     map[string]struct{}
	wormHashes       map[string]struct{}
	generatorHistory [][]int
}

// NewMetricsRecorder returns an empty recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{
		uniqueHashes: make(map[string]struct{}),
		wormHashes:   make(map[string]struct{}),
	}
}

// PushSample records a metrics row and the generator-support signature
// used for Jaccard coverage.
func (r *MetricsRecorder) PushSample(sample MetricSample, generatorSupport []int) {
	r.uniqueHashes[sample.CodeHash+"::"+sample.GraphHash] = struct{}{}
	r.samples = append(r.samples, sample)
	r.generatorHistory = append(r.generatorHistory, generatorSupport)
}

// NoteWormSample tracks a worm sample by its deterministic hash.
func (r *MetricsRecorder) NoteWormSample(hash string) {
	r.wormHashes[hash] = struct{}{}
}

// Samples returns the recorded rows in insertion order.
func (r *MetricsRecorder) Samples() []MetricSample {
	return r.samples
}

// Coverage computes the aggregate coverage metrics.
func (r *MetricsRecorder) Coverage() CoverageMetrics {
	if len(r.samples) == 0 {
		return EmptyCoverage()
	}
	energies := make([]float64, 0, len(r.samples))
	for _, sample := range r.samples {
		energies = append(energies, sample.Energy.Total)
	}
	mean := 0.0
	for _, e := range energies {
		mean += e
	}
	mean /= float64(len(energies))
	varEnergy := 0.0
	if len(energies) > 1 {
		varEnergy = variance(energies)
	}

	lag1 := r.jaccardAtLag(1)
	lag2 := r.jaccardAtLag(2)
	decay := 1.0
	if lag1 > 0 {
		decay = lag2 / lag1
	}

	return CoverageMetrics{
		UniqueStateHashes: len(r.uniqueHashes),
		WormSamples:       len(r.wormHashes),
		MeanEnergy:        mean,
		EnergyVariance:    varEnergy,
		AverageJaccard:    lag1,
		JaccardLagDecay:   decay,
	}
}

// jaccardAtLag averages the Jaccard similarity between generator-support
// signatures spaced lag samples apart. Empty unions are skipped; with no
// usable pairs the similarity defaults to 1.
func (r *MetricsRecorder) jaccardAtLag(lag int) float64 {
	sum := 0.0
	count := 0
	for i := 0; i+lag < len(r.generatorHistory); i++ {
		a, b := r.generatorHistory[i], r.generatorHistory[i+lag]
		intersection := intersectionSize(a, b)
		union := len(a) + len(b) - intersection
		if union == 0 {
			continue
		}
		sum += float64(intersection) / float64(union)
		count++
	}
	if count == 0 {
		return 1.0
	}
	return sum / float64(count)
}

func intersectionSize(a, b []int) int {
	set := make(map[int]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	count := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			count++
		}
	}
	return count
}

// WriteCSV writes the recorded metrics with the fixed run-layout header.
func (r *MetricsRecorder) WriteCSV(path string) error {
	var sb strings.Builder
	sb.WriteString("sweep,replica,temperature,energy,cmdl,spec,curv,accepted,proposed,code_hash,graph_hash\n")
	for _, s := range r.samples {
		fmt.Fprintf(&sb, "%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%d,%d,%s,%s\n",
			s.Sweep, s.Replica, s.Temperature,
			s.Energy.Total, s.Energy.Cmdl, s.Energy.Spec, s.Energy.Curv,
			s.AcceptedMoves, s.ProposedMoves, s.CodeHash, s.GraphHash)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.FamilySerde, "metrics-mkdir",
			"failed to create metrics directory", err).WithContext("path", path)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return errors.Wrap(errors.FamilySerde, "metrics-write",
			"failed to write metrics csv", err).WithContext("path", path)
	}
	return nil
}

// GeneratorSignature derives the sorted support signature of a code used
// for Jaccard coverage: each constraint contributes its index offset by
// its support weight, duplicates collapsed.
func GeneratorSignature(c *code.Code) []int {
	seen := make(map[int]struct{})
	for idx, support := range c.XSupports() {
		seen[idx+len(support)] = struct{}{}
	}
	offset := c.NumConstraintsX()
	for idx, support := range c.ZSupports() {
		seen[offset+idx+len(support)] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
