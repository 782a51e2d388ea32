package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/flowmesh/kernel/value"
)

func mustSchema(t *testing.T, jsonDef string) *Schema {
	t.Helper()
	v, err := value.FromJSON([]byte(jsonDef))
	require.Nil(t, err)
	s, serr := CreateFromValue(v)
	require.Nil(t, serr)
	return s
}

// S1 — validate object.
func TestValidateObject(t *testing.T) {
	s := mustSchema(t, `{"type":"object","properties":{"name":{"type":"string"},"age":{"type":"int64"}}}`)
	v, _ := value.FromJSON([]byte(`{"name":"demo","age":18}`))
	require.Nil(t, AdjustValueType(s, v))
	assert.Nil(t, Validate(s, v))
}

// S2 — adjust widens int.
func TestAdjustWidensInt(t *testing.T) {
	s := mustSchema(t, `{"type":"int64"}`)
	v := value.NewInt8(1)
	require.Nil(t, AdjustValueType(s, v))
	assert.Equal(t, value.Int64, v.Kind)
	i, err := v.GetInt64()
	require.Nil(t, err)
	assert.EqualValues(t, 1, i)
}

// S3 — adjust rejects overflow.
func TestAdjustRejectsOverflow(t *testing.T) {
	s := mustSchema(t, `{"type":"uint8"}`)
	v := value.NewInt32(300)
	err := AdjustValueType(s, v)
	require.NotNil(t, err)
	assert.Equal(t, "OUT_OF_RANGE", err.Code.String())
}

// S4 — array items recursed.
func TestAdjustArrayItemsRecursed(t *testing.T) {
	s := mustSchema(t, `{"type":"array","items":{"type":"int32"}}`)
	arr := value.NewArray(value.NewUint64(1), value.NewUint64(2), value.NewUint64(3))
	require.Nil(t, AdjustValueType(s, arr))
	elems, _ := arr.PeekArray()
	for _, e := range elems {
		assert.Equal(t, value.Int32, e.Kind)
	}
}

// S5 — compatibility on properties.
func TestCompatibilityOnProperties(t *testing.T) {
	src := mustSchema(t, `{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"uint8"}}}`)
	dst := mustSchema(t, `{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"uint16"}}}`)
	assert.Nil(t, IsCompatible(src, dst))
}

// S6 — required narrower.
func TestRequiredNarrower(t *testing.T) {
	src := mustSchema(t, `{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"string"}},"required":["a"]}`)
	dst := mustSchema(t, `{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"string"}},"required":["a","b"]}`)
	assert.NotNil(t, IsCompatible(src, dst))
}

func TestIncompatibleNarrowingDirection(t *testing.T) {
	src := mustSchema(t, `{"type":"int64"}`)
	dst := mustSchema(t, `{"type":"int32"}`)
	assert.NotNil(t, IsCompatible(src, dst), "i64 -> i32 must be incompatible")
}

// Items compatibility must recurse and fail on an incompatible element
// type — DESIGN.md records this as a deliberate resolution of the
// ambiguity DESIGN NOTES raised (the original is suspected buggy in
// exactly this case).
func TestItemsIncompatibleElementFails(t *testing.T) {
	src := mustSchema(t, `{"type":"array","items":{"type":"string"}}`)
	dst := mustSchema(t, `{"type":"array","items":{"type":"int32"}}`)
	assert.NotNil(t, IsCompatible(src, dst))
}

// Invariant 2 — schema idempotence.
func TestAdjustIsIdempotent(t *testing.T) {
	s := mustSchema(t, `{"type":"object","properties":{"n":{"type":"int64"}}}`)
	v, _ := value.FromJSON([]byte(`{"n":1}`))

	require.Nil(t, AdjustValueType(s, v))
	first, _ := v.Clone()

	require.Nil(t, AdjustValueType(s, v))
	require.Nil(t, Validate(s, v))

	firstN, _ := first.ObjectPeek("n")
	secondN, _ := v.ObjectPeek("n")
	fi, _ := firstN.GetInt64()
	si, _ := secondN.GetInt64()
	assert.Equal(t, fi, si)
}

// Invariant 4 — compatibility transitivity-lite over a widening chain.
func TestCompatibilityTransitivity(t *testing.T) {
	a := mustSchema(t, `{"type":"int8"}`)
	b := mustSchema(t, `{"type":"int16"}`)
	c := mustSchema(t, `{"type":"int32"}`)
	require.Nil(t, IsCompatible(a, b))
	require.Nil(t, IsCompatible(b, c))
	assert.Nil(t, IsCompatible(a, c))
}

func TestMissingTypeKeywordRejected(t *testing.T) {
	v, _ := value.FromJSON([]byte(`{"properties":{}}`))
	_, err := CreateFromValue(v)
	require.NotNil(t, err)
}
