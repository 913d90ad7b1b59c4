package code

import (
	"fmt"
	"sort"

	"vacuum-landscape/core/determinism"
	"vacuum-landscape/internal/errors"
)

// SpeciesID is the deterministic identifier of a defect species.
type SpeciesID uint64

func (s SpeciesID) String() string {
	return fmt.Sprintf("species-%#x", uint64(s))
}

// DefectKind classifies a defect by the stabilizer families it touches.
type DefectKind string

const (
	// DefectX covers X violations only.
	DefectX DefectKind = "X"
	// DefectZ covers Z violations only.
	DefectZ DefectKind = "Z"
	// DefectMixed touches both families.
	DefectMixed DefectKind = "Mixed"
)

func (k DefectKind) tag() byte {
	switch k {
	case DefectX:
		return 0
	case DefectZ:
		return 1
	default:
		return 2
	}
}

// Defect is a normalized violation pattern with its species identity.
type Defect struct {
	Species     SpeciesID  `json:"species"`
	XChecks     []int      `json:"x_checks"`
	ZChecks     []int      `json:"z_checks"`
	SupportSize int        `json:"support_size"`
	Kind        DefectKind `json:"kind"`
}

func newDefect(kind DefectKind, xChecks, zChecks []int) Defect {
	return Defect{
		Species:     speciesFromComponents(kind, xChecks, zChecks),
		XChecks:     xChecks,
		ZChecks:     zChecks,
		SupportSize: len(xChecks) + len(zChecks),
		Kind:        kind,
	}
}

// BuildDefects assigns one defect per violated constraint, sorted by
// species id.
func BuildDefects(violations ViolationSet) []Defect {
	defects := make([]Defect, 0, len(violations.X)+len(violations.Z))
	for _, idx := range violations.X {
		defects = append(defects, newDefect(DefectX, []int{idx}, nil))
	}
	for _, idx := range violations.Z {
		defects = append(defects, newDefect(DefectZ, nil, []int{idx}))
	}
	sort.Slice(defects, func(i, j int) bool { return defects[i].Species < defects[j].Species })
	return defects
}

// IsIrreducible reports whether a defect cannot be split further.
func IsIrreducible(d Defect) bool {
	return d.SupportSize <= 1
}

// Fuse merges two defects into the union of their supports.
func Fuse(a, b Defect) Defect {
	xUnion := unionSorted(a.XChecks, b.XChecks)
	zUnion := unionSorted(a.ZChecks, b.ZChecks)
	var kind DefectKind
	switch {
	case len(xUnion) > 0 && len(zUnion) == 0:
		kind = DefectX
	case len(xUnion) == 0 && len(zUnion) > 0:
		kind = DefectZ
	default:
		kind = DefectMixed
	}
	return newDefect(kind, xUnion, zUnion)
}

func unionSorted(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		seen[v] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// SpeciesFromPattern derives the species id of a single-family pattern.
func SpeciesFromPattern(kind ConstraintKind, checks []int) SpeciesID {
	if kind == KindX {
		return speciesFromComponents(DefectX, checks, nil)
	}
	return speciesFromComponents(DefectZ, nil, checks)
}

func speciesFromComponents(kind DefectKind, xChecks, zChecks []int) SpeciesID {
	x := make([]uint64, len(xChecks))
	for i, v := range xChecks {
		x[i] = uint64(v)
	}
	z := make([]uint64, len(zChecks))
	for i, v := range zChecks {
		z[i] = uint64(v)
	}
	return SpeciesID(determinism.SpeciesHash(kind.tag(), x, z))
}

// ValidateViolationBounds rejects violation indices outside the code.
func (c *Code) ValidateViolationBounds(violations ViolationSet) error {
	for _, idx := range violations.X {
		if idx < 0 || idx >= len(c.xChecks) {
			return errors.New(errors.FamilyCode, "x-violation-out-of-range",
				"violation references non-existent X stabilizer").
				WithContext("index", idx).
				WithContext("max", len(c.xChecks))
		}
	}
	for _, idx := range violations.Z {
		if idx < 0 || idx >= len(c.zChecks) {
			return errors.New(errors.FamilyCode, "z-violation-out-of-range",
				"violation references non-existent Z stabilizer").
				WithContext("index", idx).
				WithContext("max", len(c.zChecks))
		}
	}
	return nil
}
