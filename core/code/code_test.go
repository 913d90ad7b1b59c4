package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacuum-landscape/internal/errors"
)

// repetitionCode builds the 4-variable code with Z parity checks on
// adjacent pairs and a single full-weight X check.
func repetitionCode(t *testing.T) *Code {
	t.Helper()
	c, err := New(4,
		[][]int{{0, 1, 2, 3}},
		[][]int{{0, 1}, {1, 2}, {2, 3}},
	)
	require.NoError(t, err)
	return c
}

func TestConstraintNormalization(t *testing.T) {
	c := NewConstraint([]int{3, 1, 1, 2})
	assert.Equal(t, []int{2, 3}, c.Variables())

	// even occurrences cancel out entirely
	c = NewConstraint([]int{5, 5, 5, 5})
	assert.Empty(t, c.Variables())
}

func TestNewRejectsOutOfRangeVariable(t *testing.T) {
	_, err := New(3, [][]int{{0, 3}}, nil)
	require.Error(t, err)
	assert.Equal(t, "variable-out-of-range", errors.CodeOf(err))
	assert.True(t, errors.IsFamily(err, errors.FamilyCode))
}

func TestNewRejectsDuplicateConstraint(t *testing.T) {
	_, err := New(3, nil, [][]int{{0, 1}, {1, 0}})
	require.Error(t, err)
	assert.Equal(t, "duplicate-constraint", errors.CodeOf(err))
}

func TestNewRejectsAnticommutingPair(t *testing.T) {
	_, err := New(3, [][]int{{0, 1}}, [][]int{{1, 2}})
	require.Error(t, err)
	assert.Equal(t, "css-orthogonality-failed", errors.CodeOf(err))
}

func TestRanks(t *testing.T) {
	c := repetitionCode(t)
	assert.Equal(t, 1, c.RankX())
	assert.Equal(t, 3, c.RankZ())
	assert.Equal(t, 4, c.Rank())

	// linearly dependent Z family loses one rank
	dep, err := New(3, nil, [][]int{{0, 1}, {1, 2}, {0, 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, dep.RankZ())
}

func TestViolations(t *testing.T) {
	c := repetitionCode(t)

	state, err := SingleBitState(4, 1)
	require.NoError(t, err)
	violations, err := c.Violations(state)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, violations.X)
	assert.Equal(t, []int{0, 1}, violations.Z)

	zero, err := NewBitState([]byte{0, 0, 0, 0})
	require.NoError(t, err)
	violations, err = c.Violations(zero)
	require.NoError(t, err)
	assert.True(t, violations.IsEmpty())
}

func TestSyndromeMinimality(t *testing.T) {
	c, err := New(4, [][]int{{0, 1}, {2, 3}}, [][]int{{0, 1}, {2, 3}})
	require.NoError(t, err)

	state, err := NewBitState([]byte{1, 0, 1, 1})
	require.NoError(t, err)
	violations, err := c.Violations(state)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, violations.X)
	assert.Equal(t, []int{0}, violations.Z)

	merged, err := c.MergedViolations(state)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, merged)
}

func TestViolationsBatch(t *testing.T) {
	c, err := New(4, [][]int{{0, 1}, {2, 3}}, [][]int{{0, 1}, {2, 3}})
	require.NoError(t, err)

	zero, err := NewBitState([]byte{0, 0, 0, 0})
	require.NoError(t, err)
	odd, err := NewBitState([]byte{1, 0, 1, 0})
	require.NoError(t, err)

	sets, err := c.ViolationsBatch([]State{zero, odd})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.True(t, sets[0].IsEmpty())
	assert.Equal(t, []int{0, 1}, sets[1].X)
	assert.Equal(t, []int{0, 1}, sets[1].Z)
}

func TestViolationsRejectsLengthMismatch(t *testing.T) {
	c := repetitionCode(t)
	short, err := NewBitState([]byte{1, 0})
	require.NoError(t, err)
	_, err = c.Violations(short)
	require.Error(t, err)
	assert.Equal(t, "state-length-mismatch", errors.CodeOf(err))
}

func TestNewBitStateRejectsNonBinary(t *testing.T) {
	_, err := NewBitState([]byte{0, 2})
	require.Error(t, err)
	assert.Equal(t, "invalid-state-bit", errors.CodeOf(err))
}

func TestMergedViolationsOffsetsZFamily(t *testing.T) {
	c := repetitionCode(t)
	state, err := SingleBitState(4, 1)
	require.NoError(t, err)
	merged, err := c.MergedViolations(state)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, merged)
}

func TestBuildDefectsOrderedBySpecies(t *testing.T) {
	defects := BuildDefects(ViolationSet{X: []int{0}, Z: []int{0, 2}})
	require.Len(t, defects, 3)
	for i := 1; i < len(defects); i++ {
		assert.Less(t, defects[i-1].Species, defects[i].Species)
	}
	for _, d := range defects {
		assert.True(t, IsIrreducible(d))
		assert.Equal(t, 1, d.SupportSize)
	}
}

func TestFuse(t *testing.T) {
	defects := BuildDefects(ViolationSet{X: []int{1}, Z: []int{2}})
	require.Len(t, defects, 2)

	fused := Fuse(defects[0], defects[1])
	assert.Equal(t, DefectMixed, fused.Kind)
	assert.Equal(t, 2, fused.SupportSize)
	assert.False(t, IsIrreducible(fused))

	// fusing within one family keeps the family
	sameFamily := BuildDefects(ViolationSet{X: []int{0, 3}})
	fused = Fuse(sameFamily[0], sameFamily[1])
	assert.Equal(t, DefectX, fused.Kind)
	assert.Equal(t, []int{0, 3}, fused.XChecks)
}

func TestDefectFusionAcrossFamilies(t *testing.T) {
	c, err := New(4, [][]int{{0, 2}, {1, 3}}, [][]int{{0, 2}, {1, 3}})
	require.NoError(t, err)
	state, err := NewBitState([]byte{1, 1, 0, 0})
	require.NoError(t, err)
	violations, err := c.Violations(state)
	require.NoError(t, err)
	defects := BuildDefects(violations)

	var xDefect, zDefect *Defect
	for i := range defects {
		assert.True(t, IsIrreducible(defects[i]))
		assert.Equal(t, 1, defects[i].SupportSize)
		if defects[i].Kind == DefectX && len(defects[i].XChecks) == 1 && defects[i].XChecks[0] == 0 {
			xDefect = &defects[i]
		}
		if defects[i].Kind == DefectZ && len(defects[i].ZChecks) == 1 && defects[i].ZChecks[0] == 0 {
			zDefect = &defects[i]
		}
	}
	require.NotNil(t, xDefect)
	require.NotNil(t, zDefect)

	fused := Fuse(*xDefect, *zDefect)
	assert.Equal(t, DefectMixed, fused.Kind)
	assert.Equal(t, 2, fused.SupportSize)
	assert.False(t, IsIrreducible(fused))
	for _, d := range defects {
		assert.NotEqual(t, d.Species, fused.Species)
	}
}

func TestSpeciesAreStable(t *testing.T) {
	a := SpeciesFromPattern(KindX, []int{2})
	b := SpeciesFromPattern(KindX, []int{2})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, SpeciesFromPattern(KindZ, []int{2}))
	assert.NotEqual(t, a, SpeciesFromPattern(KindX, []int{3}))
}

func TestSpeciesCatalog(t *testing.T) {
	c := repetitionCode(t)
	catalog := c.SpeciesCatalog()
	assert.Len(t, catalog, 4)
	for i := 1; i < len(catalog); i++ {
		assert.Less(t, catalog[i-1], catalog[i])
	}
	size, ok := c.SpeciesSupport(SpeciesFromPattern(KindX, []int{0}))
	require.True(t, ok)
	assert.Equal(t, 4, size)
}

func TestValidateViolationBounds(t *testing.T) {
	c := repetitionCode(t)
	require.NoError(t, c.ValidateViolationBounds(ViolationSet{X: []int{0}, Z: []int{2}}))

	err := c.ValidateViolationBounds(ViolationSet{X: []int{5}})
	require.Error(t, err)
	assert.Equal(t, "x-violation-out-of-range", errors.CodeOf(err))

	err = c.ValidateViolationBounds(ViolationSet{Z: []int{3}})
	require.Error(t, err)
	assert.Equal(t, "z-violation-out-of-range", errors.CodeOf(err))
}

func TestCanonicalHashIgnoresInputOrder(t *testing.T) {
	c1, err := New(4, nil, [][]int{{0, 1}, {2, 3}})
	require.NoError(t, err)
	c2, err := New(4, nil, [][]int{{2, 3}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, c1.CanonicalHash(), c2.CanonicalHash())

	c3, err := New(5, nil, [][]int{{0, 1}, {2, 3}})
	require.NoError(t, err)
	assert.NotEqual(t, c1.CanonicalHash(), c3.CanonicalHash())
}

func TestSerializationRoundTrip(t *testing.T) {
	c := repetitionCode(t)
	data, err := c.Marshal()
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, c.CanonicalHash(), restored.CanonicalHash())
	assert.Equal(t, c.RankX(), restored.RankX())
	assert.Equal(t, c.RankZ(), restored.RankZ())
}

func TestFromSerializableRejectsRankDrift(t *testing.T) {
	c := repetitionCode(t)
	s := c.ToSerializable()
	s.RankZ++
	_, err := FromSerializable(s)
	require.Error(t, err)
	assert.Equal(t, "rank-mismatch", errors.CodeOf(err))
}

func TestCloneIsIndependent(t *testing.T) {
	c := repetitionCode(t)
	clone, err := c.Clone()
	require.NoError(t, err)
	assert.Equal(t, c.CanonicalHash(), clone.CanonicalHash())
}

func TestLogicalSummary(t *testing.T) {
	c := repetitionCode(t)
	summary, err := c.LogicalSummaryOf()
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NumLogical)
	assert.Empty(t, summary.Labels)
	assert.Equal(t, "1", summary.Metadata["rank_x"])
	assert.Equal(t, "3", summary.Metadata["rank_z"])

	free, err := New(5, nil, [][]int{{0, 1}, {1, 2}})
	require.NoError(t, err)
	summary, err = free.LogicalSummaryOf()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.NumLogical)
	assert.Equal(t, []string{"logical-0", "logical-1", "logical-2"}, summary.Labels)
}
