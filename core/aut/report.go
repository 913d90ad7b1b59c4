package aut

import (
	"crypto/sha256"
	"encoding/hex"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/codec"
	"vacuum-landscape/core/graph"
)

// ScanOpts controls a full symmetry scan.
type ScanOpts struct {
	LaplacianTopK  int             `json:"laplacian_topk"`
	StabilizerTopK int             `json:"stabilizer_topk"`
	Provenance     *ProvenanceInfo `json:"provenance,omitempty"`
}

// DefaultScanOpts retains sixteen eigenvalues per spectrum.
func DefaultScanOpts() ScanOpts {
	return ScanOpts{LaplacianTopK: 16, StabilizerTopK: 16}
}

// ProvenanceInfo describes where an analysed state came from.
type ProvenanceInfo struct {
	Seed         *uint64 `json:"seed,omitempty"`
	RunID        string  `json:"run_id,omitempty"`
	CheckpointID string  `json:"checkpoint_id,omitempty"`
	Commit       string  `json:"commit,omitempty"`
}

// HashReport carries the content-addressed hashes of an analysis.
type HashReport struct {
	AnalysisHash string `json:"analysis_hash"`
	GraphHash    string `json:"graph_hash"`
	CodeHash     string `json:"code_hash"`
}

// AnalysisReport aggregates all invariants for a single state.
type AnalysisReport struct {
	GraphAut   GraphAutReport `json:"graph_aut"`
	CodeAut    CodeAutReport  `json:"code_aut"`
	Logical    LogicalReport  `json:"logical"`
	Spectral   SpectralReport `json:"spectral"`
	Hashes     HashReport     `json:"hashes"`
	Provenance ProvenanceInfo `json:"provenance"`
}

// Analyze runs the full invariant pipeline on a state.
func Analyze(g *graph.Hypergraph, c *code.Code, opts ScanOpts) (*AnalysisReport, error) {
	canonical, err := BuildCanonical(g, c)
	if err != nil {
		return nil, err
	}
	graphAut, err := AnalyzeGraph(canonical)
	if err != nil {
		return nil, err
	}
	codeAut, err := AnalyzeCode(canonical)
	if err != nil {
		return nil, err
	}
	logical, err := AnalyzeLogical(c)
	if err != nil {
		return nil, err
	}
	spectral, err := AnalyzeSpectra(canonical, SpectralOptions{
		LaplacianTopK:  opts.LaplacianTopK,
		StabilizerTopK: opts.StabilizerTopK,
	})
	if err != nil {
		return nil, err
	}
	provenance := ProvenanceInfo{}
	if opts.Provenance != nil {
		provenance = *opts.Provenance
	}
	hashes, err := computeHashes(canonical, graphAut, codeAut, logical, spectral, provenance)
	if err != nil {
		return nil, err
	}
	return &AnalysisReport{
		GraphAut:   graphAut,
		CodeAut:    codeAut,
		Logical:    logical,
		Spectral:   spectral,
		Hashes:     hashes,
		Provenance: provenance,
	}, nil
}

func computeHashes(
	canonical CanonicalState,
	graphAut GraphAutReport,
	codeAut CodeAutReport,
	logical LogicalReport,
	spectral SpectralReport,
	provenance ProvenanceInfo,
) (HashReport, error) {
	payload := struct {
		GraphAut   GraphAutReport `json:"graph_aut"`
		CodeAut    CodeAutReport  `json:"code_aut"`
		Logical    LogicalReport  `json:"logical"`
		Spectral   SpectralReport `json:"spectral"`
		Provenance ProvenanceInfo `json:"provenance"`
	}{graphAut, codeAut, logical, spectral, provenance}

	payloadBytes, err := codec.Marshal(payload)
	if err != nil {
		return HashReport{}, err
	}
	h := sha256.New()
	h.Write([]byte(canonical.GraphHash))
	h.Write([]byte(canonical.CodeHash))
	h.Write(payloadBytes)
	return HashReport{
		AnalysisHash: hex.EncodeToString(h.Sum(nil)),
		GraphHash:    canonical.GraphHash,
		CodeHash:     canonical.CodeHash,
	}, nil
}

// MarshalReport encodes a report as canonical JSON.
func MarshalReport(report *AnalysisReport) ([]byte, error) {
	return codec.Marshal(report)
}

// UnmarshalReport decodes a report from canonical JSON.
func UnmarshalReport(data []byte) (*AnalysisReport, error) {
	var report AnalysisReport
	if err := codec.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
