// Package code implements deterministic CSS stabilizer codes over GF(2):
// sparse X/Z constraints, mod-2 rank, syndrome extraction, defect species,
// and a canonical structural hash.
package code

import (
	"sort"

	"vacuum-landscape/internal/errors"
)

// ConstraintKind distinguishes the two stabilizer families.
type ConstraintKind string

const (
	// KindX marks X-type stabilizers.
	KindX ConstraintKind = "X"
	// KindZ marks Z-type stabilizers.
	KindZ ConstraintKind = "Z"
)

// Constraint is a sparse mod-2 check over a sorted set of variables.
type Constraint struct {
	variables []int
}

// NewConstraint normalizes a raw support: sort, then cancel variables that
// appear an even number of times.
func NewConstraint(vars []int) Constraint {
	sorted := append([]int(nil), vars...)
	sort.Ints(sorted)
	normalized := make([]int, 0, len(sorted))
	for _, v := range sorted {
		if len(normalized) > 0 && normalized[len(normalized)-1] == v {
			normalized = normalized[:len(normalized)-1]
		} else {
			normalized = append(normalized, v)
		}
	}
	return Constraint{variables: normalized}
}

// Variables returns the sorted support of the constraint.
func (c Constraint) Variables() []int {
	return append([]int(nil), c.variables...)
}

// Weight returns the support size.
func (c Constraint) Weight() int {
	return len(c.variables)
}

func compareConstraints(a, b Constraint) int {
	la, lb := len(a.variables), len(b.variables)
	n := la
	if lb < n {
		n = lb
	}
	for i := 0; i < n; i++ {
		if a.variables[i] != b.variables[i] {
			if a.variables[i] < b.variables[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}

// SchemaVersion identifies the structural layout a code was built against.
type SchemaVersion struct {
	Major uint32 `json:"major"`
	Minor uint32 `json:"minor"`
	Patch uint32 `json:"patch"`
}

// DefaultSchema is the current structural schema.
func DefaultSchema() SchemaVersion {
	return SchemaVersion{Major: 2, Minor: 0, Patch: 0}
}

// Code is a validated CSS code. All constraint lists are kept sorted so the
// canonical hash is independent of input order.
type Code struct {
	numVariables int
	xChecks      []Constraint
	zChecks      []Constraint
	schema       SchemaVersion
	rankX        int
	rankZ        int
	xAdjacency   [][]int
	zAdjacency   [][]int
	speciesSize  map[SpeciesID]int
}

// New builds a code from raw X/Z supports. Supports are normalized, checked
// against the variable domain, deduplicated, and verified pairwise CSS
// orthogonal before ranks and adjacency are computed.
func New(numVariables int, xChecks, zChecks [][]int) (*Code, error) {
	normalizedX, err := normalizeChecks(numVariables, KindX, xChecks)
	if err != nil {
		return nil, err
	}
	normalizedZ, err := normalizeChecks(numVariables, KindZ, zChecks)
	if err != nil {
		return nil, err
	}
	if err := validateOrthogonality(normalizedX, normalizedZ); err != nil {
		return nil, err
	}
	sort.Slice(normalizedX, func(i, j int) bool {
		return compareConstraints(normalizedX[i], normalizedX[j]) < 0
	})
	sort.Slice(normalizedZ, func(i, j int) bool {
		return compareConstraints(normalizedZ[i], normalizedZ[j]) < 0
	})

	c := &Code{
		numVariables: numVariables,
		xChecks:      normalizedX,
		zChecks:      normalizedZ,
		schema:       DefaultSchema(),
		rankX:        mod2Rank(numVariables, normalizedX),
		rankZ:        mod2Rank(numVariables, normalizedZ),
		xAdjacency:   buildAdjacency(numVariables, normalizedX),
		zAdjacency:   buildAdjacency(numVariables, normalizedZ),
	}
	c.speciesSize = buildSpeciesIndex(c)
	return c, nil
}

func normalizeChecks(numVariables int, kind ConstraintKind, raw [][]int) ([]Constraint, error) {
	constraints := make([]Constraint, 0, len(raw))
	for idx, vars := range raw {
		c := NewConstraint(vars)
		for _, v := range c.variables {
			if v < 0 || v >= numVariables {
				return nil, errors.New(errors.FamilyCode, "variable-out-of-range",
					"constraint references variable outside allowed domain").
					WithContext("constraint_kind", string(kind)).
					WithContext("constraint_index", idx).
					WithContext("num_variables", numVariables)
			}
		}
		for _, prev := range constraints {
			if compareConstraints(prev, c) == 0 {
				return nil, errors.New(errors.FamilyCode, "duplicate-constraint",
					"duplicate CSS constraint detected").
					WithContext("constraint_kind", string(kind)).
					WithContext("constraint_index", idx)
			}
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}

func validateOrthogonality(xChecks, zChecks []Constraint) error {
	for xi := range xChecks {
		for zi := range zChecks {
			if oddOverlap(xChecks[xi].variables, zChecks[zi].variables) {
				return errors.New(errors.FamilyCode, "css-orthogonality-failed",
					"X/Z constraint pair anticommutes").
					WithContext("x_index", xi).
					WithContext("z_index", zi)
			}
		}
	}
	return nil
}

// oddOverlap walks two sorted supports and reports whether their
// intersection has odd size.
func oddOverlap(x, z []int) bool {
	parity := false
	ix, iz := 0, 0
	for ix < len(x) && iz < len(z) {
		switch {
		case x[ix] < z[iz]:
			ix++
		case x[ix] > z[iz]:
			iz++
		default:
			parity = !parity
			ix++
			iz++
		}
	}
	return parity
}

func buildAdjacency(numVariables int, checks []Constraint) [][]int {
	adjacency := make([][]int, numVariables)
	for idx, c := range checks {
		for _, v := range c.variables {
			adjacency[v] = append(adjacency[v], idx)
		}
	}
	return adjacency
}

func buildSpeciesIndex(c *Code) map[SpeciesID]int {
	index := make(map[SpeciesID]int, len(c.xChecks)+len(c.zChecks))
	for idx, constraint := range c.xChecks {
		index[SpeciesFromPattern(KindX, []int{idx})] = constraint.Weight()
	}
	for idx, constraint := range c.zChecks {
		index[SpeciesFromPattern(KindZ, []int{idx})] = constraint.Weight()
	}
	return index
}

// NumVariables returns the variable count.
func (c *Code) NumVariables() int {
	return c.numVariables
}

// NumConstraintsX returns the number of X stabilizers.
func (c *Code) NumConstraintsX() int {
	return len(c.xChecks)
}

// NumConstraintsZ returns the number of Z stabilizers.
func (c *Code) NumConstraintsZ() int {
	return len(c.zChecks)
}

// NumConstraints returns the total stabilizer count.
func (c *Code) NumConstraints() int {
	return len(c.xChecks) + len(c.zChecks)
}

// RankX returns the mod-2 rank of the X family.
func (c *Code) RankX() int {
	return c.rankX
}

// RankZ returns the mod-2 rank of the Z family.
func (c *Code) RankZ() int {
	return c.rankZ
}

// Rank returns the combined stabilizer rank.
func (c *Code) Rank() int {
	return c.rankX + c.rankZ
}

// Schema returns the structural schema version.
func (c *Code) Schema() SchemaVersion {
	return c.schema
}

// IsOrthogonal re-verifies pairwise CSS orthogonality of the stored checks.
func (c *Code) IsOrthogonal() bool {
	return validateOrthogonality(c.xChecks, c.zChecks) == nil
}

// XSupports returns deep copies of the X supports in canonical order.
func (c *Code) XSupports() [][]int {
	return copySupports(c.xChecks)
}

// ZSupports returns deep copies of the Z supports in canonical order.
func (c *Code) ZSupports() [][]int {
	return copySupports(c.zChecks)
}

func copySupports(checks []Constraint) [][]int {
	out := make([][]int, len(checks))
	for i, check := range checks {
		out[i] = check.Variables()
	}
	return out
}

// XAdjacency returns the indices of X checks touching a variable.
func (c *Code) XAdjacency(v int) []int {
	return append([]int(nil), c.xAdjacency[v]...)
}

// ZAdjacency returns the indices of Z checks touching a variable.
func (c *Code) ZAdjacency(v int) []int {
	return append([]int(nil), c.zAdjacency[v]...)
}

// SpeciesCatalog returns the catalogued species in ascending id order.
func (c *Code) SpeciesCatalog() []SpeciesID {
	catalog := make([]SpeciesID, 0, len(c.speciesSize))
	for id := range c.speciesSize {
		catalog = append(catalog, id)
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i] < catalog[j] })
	return catalog
}

// SpeciesSupport returns the catalogued support size of a species.
func (c *Code) SpeciesSupport(id SpeciesID) (int, bool) {
	size, ok := c.speciesSize[id]
	return size, ok
}
