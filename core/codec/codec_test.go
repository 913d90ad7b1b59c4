package codec

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacuum-landscape/internal/errors"
)

type nestedPayload struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
	Flag   bool      `json:"flag"`
}

type samplePayload struct {
	Beta   int                `json:"beta"`
	Alpha  string             `json:"alpha"`
	Nested nestedPayload      `json:"nested"`
	Table  map[string]float64 `json:"table"`
}

func samplePayloadFixture() samplePayload {
	return samplePayload{
		Beta:  2,
		Alpha: "x",
		Nested: nestedPayload{
			Label:  "probe",
			Values: []float64{0.25, -1.5},
			Flag:   true,
		},
		Table: map[string]float64{"zeta": 0.5, "eta": 1.25},
	}
}

func TestMarshalCanonicalFormatting(t *testing.T) {
	data, err := Marshal(struct {
		B int    `json:"b"`
		A string `json:"a"`
	}{B: 2, A: "x"})
	require.NoError(t, err)

	expected := "{\n  \"a\": \"x\",\n  \"b\": 2\n}\n"
	assert.Equal(t, expected, string(data))
}

func TestMarshalSortsMapKeys(t *testing.T) {
	first, err := Marshal(map[string]int{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)
	second, err := Marshal(map[string]int{"b": 2, "c": 3, "a": 1})
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2,\n  \"c\": 3\n}\n", string(first))
}

func TestMarshalEmptyContainers(t *testing.T) {
	data, err := Marshal(struct {
		Items []int          `json:"items"`
		Meta  map[string]int `json:"meta"`
	}{Items: []int{}, Meta: map[string]int{}})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"items\": [],\n  \"meta\": {}\n}\n", string(data))
}

func TestMarshalPlainFloatNotation(t *testing.T) {
	data, err := Marshal(map[string]float64{"tiny": 1e-7, "big": 1e21})
	require.NoError(t, err)

	assert.Contains(t, string(data), "\"tiny\": 0.0000001")
	assert.Contains(t, string(data), "\"big\": 1000000000000000000000")
	assert.NotContains(t, string(data), "e+")
	assert.NotContains(t, string(data), "e-")
}

func TestMarshalRejectsNaN(t *testing.T) {
	_, err := Marshal(map[string]float64{"v": math.NaN()})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, "json-serialize"))

	_, err = Marshal(map[string]float64{"v": math.Inf(1)})
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	payload := samplePayloadFixture()
	data, err := Marshal(payload)
	require.NoError(t, err)

	var restored samplePayload
	require.NoError(t, Unmarshal(data, &restored))
	assert.Empty(t, cmp.Diff(payload, restored))

	// A second encode of the restored value reproduces the bytes.
	again, err := Marshal(restored)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestUnmarshalError(t *testing.T) {
	var out samplePayload
	err := Unmarshal([]byte("{not json"), &out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, "json-deserialize"))
}

func TestStableHash(t *testing.T) {
	payload := samplePayloadFixture()
	first, err := StableHash(payload)
	require.NoError(t, err)
	second, err := StableHash(payload)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	changed := payload
	changed.Beta = 3
	other, err := StableHash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	assert.Equal(t, first, MustStableHash(payload))
}

func TestMustStableHashPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustStableHash(map[string]float64{"v": math.NaN()})
	})
}
