package interaction

import (
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/gauge"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/errors"
)

// InteractionProvenance records the deterministic seeds and knobs behind
// an interaction report.
type InteractionProvenance struct {
	Seed    uint64      `json:"seed"`
	Kernel  KernelOpts  `json:"kernel"`
	Measure MeasureOpts `json:"measure"`
	Fit     FitOpts     `json:"fit"`
}

// InteractionReport aggregates preparation, measurement and fit artefacts.
type InteractionReport struct {
	AnalysisHash string                `json:"analysis_hash"`
	GraphHash    string                `json:"graph_hash"`
	CodeHash     string                `json:"code_hash"`
	PrepHash     string                `json:"prep_hash"`
	ObsHash      string                `json:"obs_hash"`
	Fit          CouplingsFit          `json:"fit"`
	Trajectory   Trajectory            `json:"trajectory"`
	Provenance   InteractionProvenance `json:"provenance"`
}

// Artifacts bundles every intermediate produced by a single experiment.
type Artifacts struct {
	Prepared   *PreparedState
	Trajectory *Trajectory
	Obs        *ObsReport
	Fit        *CouplingsFit
	Report     *InteractionReport
}

func validateReports(spec *spectrum.Report, gaugeReport *gauge.GaugeReport) error {
	if spec.GraphHash != gaugeReport.GraphHash || spec.CodeHash != gaugeReport.CodeHash {
		return errors.New(errors.FamilySerde, "hash-mismatch",
			"spectrum and gauge reports describe different states")
	}
	return nil
}

// Interact runs a full single-shot interaction experiment.
func Interact(spec *spectrum.Report, gaugeReport *gauge.GaugeReport, prep PrepSpec,
	kernel KernelOpts, measure MeasureOpts, fit FitOpts, seed uint64) (*InteractionReport, error) {
	artifacts, err := InteractFull(spec, gaugeReport, prep, kernel, measure, fit, seed)
	if err != nil {
		return nil, err
	}
	return artifacts.Report, nil
}

// InteractFull runs the experiment and returns every intermediate artefact
// alongside the sealed report.
func InteractFull(spec *spectrum.Report, gaugeReport *gauge.GaugeReport, prep PrepSpec,
	kernel KernelOpts, measure MeasureOpts, fit FitOpts, seed uint64) (*Artifacts, error) {
	if err := validateReports(spec, gaugeReport); err != nil {
		return nil, err
	}
	prepared, err := PrepareState(spec, gaugeReport, prep, seed)
	if err != nil {
		return nil, err
	}
	trajectory, err := Evolve(prepared, kernel)
	if err != nil {
		return nil, err
	}
	obs, err := Measure(trajectory, measure)
	if err != nil {
		return nil, err
	}
	couplings, err := FitCouplings(obs, fit)
	if err != nil {
		return nil, err
	}

	provenance := InteractionProvenance{
		Seed:    seed,
		Kernel:  kernel,
		Measure: measure,
		Fit:     fit,
	}
	analysisHash, err := codec.StableHash(struct {
		GraphHash string `json:"graph_hash"`
		CodeHash  string `json:"code_hash"`
		PrepHash  string `json:"prep_hash"`
		ObsHash   string `json:"obs_hash"`
		FitHash   string `json:"fit_hash"`
		Seed      uint64 `json:"seed"`
	}{spec.GraphHash, spec.CodeHash, prepared.PrepHash, obs.ObsHash, couplings.FitHash, seed})
	if err != nil {
		return nil, err
	}

	report := &InteractionReport{
		AnalysisHash: analysisHash,
		GraphHash:    spec.GraphHash,
		CodeHash:     spec.CodeHash,
		PrepHash:     prepared.PrepHash,
		ObsHash:      obs.ObsHash,
		Fit:          *couplings,
		Trajectory:   *trajectory,
		Provenance:   provenance,
	}
	return &Artifacts{
		Prepared:   prepared,
		Trajectory: trajectory,
		Obs:        obs,
		Fit:        couplings,
		Report:     report,
	}, nil
}

// MarshalReport serializes a report to canonical JSON.
func MarshalReport(report *InteractionReport) ([]byte, error) {
	return codec.Marshal(report)
}

// UnmarshalReport parses a report from canonical JSON.
func UnmarshalReport(data []byte) (*InteractionReport, error) {
	var report InteractionReport
	if err := codec.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
