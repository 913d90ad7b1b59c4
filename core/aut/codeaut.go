package aut

// Cutoffs for exhaustive variable-permutation scans.
const (
	codeVariableLimit   = 6
	codeConstraintLimit = 10
)

// CodeAutReport summarizes CSS-preserving variable permutations.
type CodeAutReport struct {
	Order         uint64 `json:"order"`
	GensTruncated bool   `json:"gens_truncated"`
	CSSPreserving bool   `json:"css_preserving"`
}

// AnalyzeCode enumerates variable permutations that fix each stabilizer
// family setwise, and separately detects whether some nontrivial
// permutation exchanges the X and Z families.
func AnalyzeCode(canonical CanonicalState) (CodeAutReport, error) {
	numVariables := canonical.Code.NumVariables
	xChecks := canonical.Code.XChecks
	zChecks := canonical.Code.ZChecks

	if numVariables == 0 {
		return CodeAutReport{Order: 1, CSSPreserving: true}, nil
	}
	if numVariables > codeVariableLimit || len(xChecks)+len(zChecks) > codeConstraintLimit {
		return CodeAutReport{Order: 1, GensTruncated: true, CSSPreserving: true}, nil
	}

	var order uint64
	forEachPermutation(numVariables, func(perm []int) {
		if preservesFamilies(xChecks, zChecks, perm) {
			order++
		}
	})
	if order == 0 {
		// identity is always a member
		order = 1
	}

	return CodeAutReport{
		Order:         order,
		CSSPreserving: !hasFamilyExchange(xChecks, zChecks),
	}, nil
}

func preservesFamilies(xChecks, zChecks [][]int, perm []int) bool {
	return supportsEqual(permuteSupports(xChecks, perm), xChecks) &&
		supportsEqual(permuteSupports(zChecks, perm), zChecks)
}

func permuteSupports(checks [][]int, perm []int) [][]int {
	mapped := make([][]int, len(checks))
	for i, support := range checks {
		m := make([]int, len(support))
		for j, idx := range support {
			m[j] = perm[idx]
		}
		mapped[i] = m
	}
	return sortSupports(mapped)
}

func supportsEqual(a, b [][]int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if compareInts(a[i], b[i]) != 0 {
			return false
		}
	}
	return true
}

// hasFamilyExchange looks for a nontrivial permutation mapping X to Z and
// Z to X simultaneously.
func hasFamilyExchange(xChecks, zChecks [][]int) bool {
	if len(xChecks) != len(zChecks) {
		return false
	}
	numVariables := 0
	for _, support := range xChecks {
		for _, idx := range support {
			if idx+1 > numVariables {
				numVariables = idx + 1
			}
		}
	}
	for _, support := range zChecks {
		for _, idx := range support {
			if idx+1 > numVariables {
				numVariables = idx + 1
			}
		}
	}
	if numVariables == 0 || numVariables > codeVariableLimit {
		return false
	}

	found := false
	forEachPermutation(numVariables, func(perm []int) {
		if found {
			return
		}
		xMapped := permuteSupports(xChecks, perm)
		zMapped := permuteSupports(zChecks, perm)
		if supportsEqual(xMapped, zChecks) && supportsEqual(zMapped, xChecks) &&
			(!supportsEqual(xMapped, xChecks) || !supportsEqual(zMapped, zChecks)) {
			found = true
		}
	})
	return found
}
