package mcmc

import (
	"fmt"

	"vacuum-landscape/core/code"
	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// CodeProposal is a candidate code produced by a symmetric move.
type CodeProposal struct {
	Candidate         *code.Code
	ForwardProb       float64
	ReverseProb       float64
	TouchedGenerators []int
	Description       string
}

// ProposeGeneratorFlip toggles one variable's membership in a uniformly
// chosen constraint. Rebuilding the code re-validates orthogonality, so
// a flip that breaks the CSS condition surfaces as an error and the
// caller counts it as a rejected proposal.
func ProposeGeneratorFlip(c *code.Code, stream *determinism.Stream) (*CodeProposal, error) {
	xChecks := c.XSupports()
	zChecks := c.ZSupports()
	total := len(xChecks) + len(zChecks)
	if total == 0 {
		return nil, errors.New(errors.FamilyCode, "no-generators",
			"cannot flip generator in empty code")
	}

	choice := int(stream.Uint64() % uint64(total))
	varChoice := 0
	if n := c.NumVariables(); n > 0 {
		varChoice = int(stream.Uint64() % uint64(n))
	}

	var target *[]int
	familyLabel := "x"
	if choice < len(xChecks) {
		target = &xChecks[choice]
	} else {
		target = &zChecks[choice-len(xChecks)]
		familyLabel = "z"
	}
	*target = toggleVariable(*target, varChoice)

	candidate, err := code.New(c.NumVariables(), xChecks, zChecks)
	if err != nil {
		return nil, err
	}

	prob := 1.0 / float64(total)
	return &CodeProposal{
		Candidate:         candidate,
		ForwardProb:       prob,
		ReverseProb:       prob,
		TouchedGenerators: []int{choice},
		Description:       fmt.Sprintf("generator-flip:%s%d:var%d", familyLabel, choice, varChoice),
	}, nil
}

// ProposeRowOperation XORs the supports of two constraints in the same
// family, the symmetric difference landing in the first.
func ProposeRowOperation(c *code.Code, stream *determinism.Stream) (*CodeProposal, error) {
	xChecks := c.XSupports()
	zChecks := c.ZSupports()

	chooseX := false
	switch {
	case len(xChecks) < 2:
		chooseX = false
	case len(zChecks) < 2:
		chooseX = true
	default:
		chooseX = stream.Uint64()&1 == 0
	}

	family := zChecks
	familyLabel := "z"
	if chooseX {
		family = xChecks
		familyLabel = "x"
	}
	if len(family) < 2 {
		return nil, errors.New(errors.FamilyCode, "insufficient-generators",
			"not enough generators for row op")
	}

	idxA := int(stream.Uint64() % uint64(len(family)))
	idxB := int(stream.Uint64() % uint64(len(family)))
	if idxB == idxA {
		idxB = (idxB + 1) % len(family)
	}
	family[idxA] = symmetricDifference(family[idxA], family[idxB])

	candidate, err := code.New(c.NumVariables(), xChecks, zChecks)
	if err != nil {
		return nil, err
	}

	prob := 1.0 / float64(len(family))
	return &CodeProposal{
		Candidate:         candidate,
		ForwardProb:       prob,
		ReverseProb:       prob,
		TouchedGenerators: []int{idxA},
		Description:       fmt.Sprintf("row-op:%s%d^%s%d", familyLabel, idxA, familyLabel, idxB),
	}, nil
}

func toggleVariable(support []int, v int) []int {
	for i, existing := range support {
		if existing == v {
			return append(support[:i], support[i+1:]...)
		}
	}
	return append(support, v)
}

func symmetricDifference(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if seen[v] {
			delete(seen, v)
		} else {
			seen[v] = true
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	return out
}
