package gauge

import (
	"vacuum-landscape/core/aut"
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/spectrum"
	"vacuum-landscape/internal/errors"
)

// Version is recorded in report provenance.
const Version = "2.0.0"

// GaugeOpts aggregates the configuration of a gauge analysis.
type GaugeOpts struct {
	Rep     RepOpts     `json:"rep"`
	Closure ClosureOpts `json:"closure"`
	Decomp  DecompOpts  `json:"decomp"`
	Ward    WardOpts    `json:"ward"`
	// Seed overrides the representation seed when nonzero.
	Seed uint64 `json:"seed"`
}

// DefaultGaugeOpts wires all component defaults.
func DefaultGaugeOpts() GaugeOpts {
	return GaugeOpts{
		Rep:     DefaultRepOpts(),
		Closure: DefaultClosureOpts(),
		Decomp:  DefaultDecompOpts(),
		Ward:    DefaultWardOpts(),
	}
}

// GaugeProvenance records the deterministic knobs behind a report.
type GaugeProvenance struct {
	Commit     string  `json:"commit"`
	Seed       uint64  `json:"seed"`
	ClosureTol float64 `json:"closure_tol"`
	WardTol    float64 `json:"ward_tol"`
}

// GaugeReport is the aggregate gauge analysis output for a single state.
type GaugeReport struct {
	AnalysisHash string          `json:"analysis_hash"`
	GraphHash    string          `json:"graph_hash"`
	CodeHash     string          `json:"code_hash"`
	RepHash      string          `json:"rep_hash"`
	Closure      ClosureReport   `json:"closure"`
	Decomp       DecompReport    `json:"decomp"`
	Ward         WardReport      `json:"ward"`
	Provenance   GaugeProvenance `json:"provenance"`
}

// Analyze performs a full gauge analysis over the spectrum and
// automorphism artefacts for one state.
func Analyze(spec *spectrum.Report, analysis *aut.AnalysisReport, opts GaugeOpts) (*GaugeReport, error) {
	if spec.GraphHash != analysis.Hashes.GraphHash {
		return nil, errors.New(errors.FamilySerde, "hash-mismatch",
			"spectrum and automorphism reports refer to different graphs")
	}
	if spec.CodeHash != analysis.Hashes.CodeHash {
		return nil, errors.New(errors.FamilySerde, "hash-mismatch",
			"spectrum and automorphism reports refer to different codes")
	}

	repOpts := opts.Rep
	if opts.Seed != 0 {
		repOpts.Seed = opts.Seed
	}
	rep, err := BuildRep(spec, analysis, repOpts)
	if err != nil {
		return nil, err
	}
	repHash, err := codec.StableHash(rep)
	if err != nil {
		return nil, err
	}
	closure, err := CheckClosure(rep, opts.Closure)
	if err != nil {
		return nil, err
	}
	decomp, err := Decompose(rep, opts.Decomp)
	if err != nil {
		return nil, err
	}
	ward, err := WardCheck(rep, spec.Operators.Info, opts.Ward)
	if err != nil {
		return nil, err
	}

	report := &GaugeReport{
		GraphHash: spec.GraphHash,
		CodeHash:  spec.CodeHash,
		RepHash:   repHash,
		Closure:   *closure,
		Decomp:    *decomp,
		Ward:      *ward,
		Provenance: GaugeProvenance{
			Commit:     Version,
			Seed:       opts.Seed,
			ClosureTol: opts.Closure.Tolerance,
			WardTol:    opts.Ward.RelativeTol,
		},
	}

	hash, err := codec.StableHash(struct {
		GraphHash  string          `json:"graph_hash"`
		CodeHash   string          `json:"code_hash"`
		RepHash    string          `json:"rep_hash"`
		Closure    ClosureReport   `json:"closure"`
		Decomp     DecompReport    `json:"decomp"`
		Ward       WardReport      `json:"ward"`
		Provenance GaugeProvenance `json:"provenance"`
	}{
		report.GraphHash,
		report.CodeHash,
		report.RepHash,
		report.Closure,
		report.Decomp,
		report.Ward,
		report.Provenance,
	})
	if err != nil {
		return nil, err
	}
	report.AnalysisHash = hash
	return report, nil
}

// MarshalReport serializes a report to canonical JSON.
func MarshalReport(report *GaugeReport) ([]byte, error) {
	return codec.Marshal(report)
}

// UnmarshalReport parses a report from canonical JSON.
func UnmarshalReport(data []byte) (*GaugeReport, error) {
	var report GaugeReport
	if err := codec.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
