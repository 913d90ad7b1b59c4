package spectrum

import (
	"vacuum-landscape/core/code"
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/internal/errors"
)

// Version is recorded in report provenance.
const Version = "2.0.0"

// SpecOpts aggregates the configuration of a spectrum run.
type SpecOpts struct {
	Ops          OpOpts         `json:"ops"`
	Excitation   ExcitationSpec `json:"excitation"`
	Propagation  PropOpts       `json:"propagation"`
	Dispersion   DispersionSpec `json:"dispersion"`
	Correlation  CorrelSpec     `json:"correlation"`
	MasterSeed   uint64         `json:"master_seed"`
	FitTolerance float64        `json:"fit_tolerance"`
}

// DefaultSpecOpts wires all component defaults for a master seed.
func DefaultSpecOpts(masterSeed uint64) SpecOpts {
	return SpecOpts{
		Ops:          DefaultOpOpts(),
		Excitation:   DefaultExcitationSpec(),
		Propagation:  DefaultPropOpts(masterSeed),
		Dispersion:   DefaultDispersionSpec(),
		Correlation:  DefaultCorrelSpec(),
		MasterSeed:   masterSeed,
		FitTolerance: 1e-6,
	}
}

func (o SpecOpts) dispersionSeed() uint64 {
	return determinism.Derive(o.MasterSeed, 1)
}

func (o SpecOpts) correlationSeed() uint64 {
	return determinism.Derive(o.MasterSeed, 2)
}

// Provenance records the seeds and knobs behind a report.
type Provenance struct {
	Commit          string     `json:"commit"`
	MasterSeed      uint64     `json:"master_seed"`
	PropagationSeed uint64     `json:"propagation_seed"`
	DispersionSeed  uint64     `json:"dispersion_seed"`
	CorrelationSeed uint64     `json:"correlation_seed"`
	FitTolerance    float64    `json:"fit_tolerance"`
	OpsVariant      OpsVariant `json:"ops_variant"`
	ResponseHash    string     `json:"response_hash"`
}

// Report is the full deterministic spectrum bundle.
type Report struct {
	AnalysisHash string            `json:"analysis_hash"`
	GraphHash    string            `json:"graph_hash"`
	CodeHash     string            `json:"code_hash"`
	Operators    Operators         `json:"operators"`
	Dispersion   DispersionReport  `json:"dispersion"`
	Correlation  CorrelationReport `json:"correlation"`
	Provenance   Provenance        `json:"provenance"`
}

// Analyze runs operator assembly, propagation, and both scans, then seals
// the bundle with a content-addressed hash.
func Analyze(g *graph.Hypergraph, c *code.Code, opts SpecOpts) (*Report, error) {
	if opts.Propagation.Seed == 0 {
		return nil, errors.New(errors.FamilySerde, "missing-propagation-seed",
			"propagation seed must be provided")
	}
	operators, err := BuildOperators(g, c, opts.Ops)
	if err != nil {
		return nil, err
	}
	response, err := ExciteAndPropagate(operators, opts.Excitation, opts.Propagation)
	if err != nil {
		return nil, err
	}
	dispersion, err := DispersionScan(operators, opts.Dispersion, opts.dispersionSeed())
	if err != nil {
		return nil, err
	}
	correlation, err := CorrelationScan(operators, opts.Correlation, opts.correlationSeed())
	if err != nil {
		return nil, err
	}

	report := &Report{
		GraphHash:   g.CanonicalHash(),
		CodeHash:    c.CanonicalHash(),
		Operators:   *operators,
		Dispersion:  *dispersion,
		Correlation: *correlation,
		Provenance: Provenance{
			Commit:          Version,
			MasterSeed:      opts.MasterSeed,
			PropagationSeed: opts.Propagation.Seed,
			DispersionSeed:  opts.dispersionSeed(),
			CorrelationSeed: opts.correlationSeed(),
			FitTolerance:    opts.FitTolerance,
			OpsVariant:      opts.Ops.Variant,
			ResponseHash:    response.ResponseHash,
		},
	}

	hash, err := codec.StableHash(struct {
		GraphHash   string            `json:"graph_hash"`
		CodeHash    string            `json:"code_hash"`
		Operators   string            `json:"operators_hash"`
		Dispersion  DispersionReport  `json:"dispersion"`
		Correlation CorrelationReport `json:"correlation"`
		Provenance  Provenance        `json:"provenance"`
	}{
		report.GraphHash,
		report.CodeHash,
		report.Operators.Info.Hash,
		report.Dispersion,
		report.Correlation,
		report.Provenance,
	})
	if err != nil {
		return nil, err
	}
	report.AnalysisHash = hash
	return report, nil
}

// MarshalReport encodes the report as canonical JSON.
func MarshalReport(report *Report) ([]byte, error) {
	return codec.Marshal(report)
}

// UnmarshalReport decodes a canonical JSON report.
func UnmarshalReport(data []byte) (*Report, error) {
	var report Report
	if err := codec.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
