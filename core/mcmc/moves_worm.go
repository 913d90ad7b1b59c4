package mcmc

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/core/graph"
	"vacuum-landscape/internal/errors"
)

// WormProposal is a logical loop sample used purely as a coverage
// diagnostic. It never mutates the state and is always recorded as
// accepted.
type WormProposal struct {
	SampleHash  string
	Description string
	SupportSize int
}

// ProposeWorm seeds a single-bit state at a uniformly chosen variable,
// computes its defects, and hashes the resulting species list.
func ProposeWorm(c *code.Code, _ *graph.Hypergraph, stream *determinism.Stream) (*WormProposal, error) {
	n := c.NumVariables()
	if n == 0 {
		return nil, errors.New(errors.FamilyCode, "empty-code",
			"cannot generate worm sample for empty code")
	}
	head := int(stream.Uint64() % uint64(n))
	state, err := code.SingleBitState(n, head)
	if err != nil {
		return nil, err
	}
	violations, err := c.Violations(state)
	if err != nil {
		return nil, err
	}
	defects := code.BuildDefects(violations)

	hasher := sha256.New()
	supportSize := 0
	speciesNames := make([]string, 0, len(defects))
	var buf []byte
	for _, defect := range defects {
		supportSize += defect.SupportSize
		buf = determinism.AppendUint64LE(buf[:0], uint64(defect.Species))
		hasher.Write(buf)
		speciesNames = append(speciesNames, defect.Species.String())
	}
	if len(speciesNames) == 0 {
		speciesNames = append(speciesNames, "trivial")
	}

	return &WormProposal{
		SampleHash:  fmt.Sprintf("worm-%x", hasher.Sum(nil)),
		Description: fmt.Sprintf("worm:var%d:%s", head, strings.Join(speciesNames, "+")),
		SupportSize: supportSize,
	}, nil
}
