package assertion

import (
	"vacuum-landscape/core/codec"
	"vacuum-landscape/internal/errors"
)

// Check is a single assertion evaluation result.
type Check struct {
	Name      string      `json:"name"`
	Pass      bool        `json:"pass"`
	Metric    float64     `json:"metric"`
	Threshold *float64    `json:"threshold,omitempty"`
	Range     *[2]float64 `json:"range,omitempty"`
	Note      string      `json:"note,omitempty"`
}

// Provenance ties a report to its policy and input hashes.
type Provenance struct {
	Policy      Policy            `json:"policy"`
	InputHashes map[string]string `json:"input_hashes"`
	CheckOrder  []string          `json:"check_order"`
}

// Report bundles every executed check under a content-addressed hash.
type Report struct {
	AnalysisHash string     `json:"analysis_hash"`
	Checks       []Check    `json:"checks"`
	Provenance   Provenance `json:"provenance"`
}

// NewReport seals checks and provenance into a hashed report.
func NewReport(checks []Check, provenance Provenance) (*Report, error) {
	hash, err := codec.StableHash(struct {
		Checks     []Check    `json:"checks"`
		Provenance Provenance `json:"provenance"`
	}{checks, provenance})
	if err != nil {
		return nil, err
	}
	return &Report{
		AnalysisHash: hash,
		Checks:       checks,
		Provenance:   provenance,
	}, nil
}

// Marshal renders the report as canonical JSON.
func (r *Report) Marshal() ([]byte, error) {
	return codec.Marshal(r)
}

func validateChecks(checks []Check) error {
	if len(checks) == 0 {
		return errors.New(errors.FamilySerde, "empty-assertions",
			"at least one assertion must be executed")
	}
	return nil
}
