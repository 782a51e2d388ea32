package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPeekAndMove(t *testing.T) {
	obj := NewObject()
	require.NoError(t, obj.ObjectMove("name", NewString("demo")))
	require.NoError(t, obj.ObjectMove("age", NewUint64(18)))

	got, ok := obj.ObjectPeek("name")
	require.True(t, ok)
	s, _ := got.PeekRawStr()
	assert.Equal(t, "demo", s)

	// Replacing an existing key keeps insertion order and overwrites in place.
	require.NoError(t, obj.ObjectMove("name", NewString("demo2")))
	assert.Equal(t, []string{"name", "age"}, obj.ObjectKeys())
}

func TestCloneIsDeep(t *testing.T) {
	arr := NewArray(NewInt32(1), NewInt32(2))
	cloned, err := arr.Clone()
	require.NoError(t, err)

	elems, _ := cloned.PeekArray()
	elems[0] = NewInt32(99)

	orig, _ := arr.PeekArray()
	i, gerr := orig[0].GetInt32()
	require.Nil(t, gerr)
	assert.EqualValues(t, 1, i, "mutating the clone must not affect the original")
}

func TestCloneBufOwnershipRespected(t *testing.T) {
	backing := []byte{1, 2, 3}
	unowned := NewBufUnowned(backing)
	cloned, err := unowned.Clone()
	require.NoError(t, err)
	b, _ := cloned.PeekBuf()
	b[0] = 9
	assert.Equal(t, byte(9), backing[0], "unowned buf clone must still share the backing array")

	owned := NewBufOwned(append([]byte(nil), backing...))
	clonedOwned, err := owned.Clone()
	require.NoError(t, err)
	ob, _ := clonedOwned.PeekBuf()
	ob[0] = 42
	origB, _ := owned.PeekBuf()
	assert.NotEqual(t, origB[0], ob[0], "owned buf clone must be deep-copied")
}

func TestPathSetAndPeek(t *testing.T) {
	root := NewObject()
	require.Nil(t, SetFromPathStrWithMove(root, "a.b", NewInt32(7)))

	v, err := PeekFromPath(root, "a.b")
	require.Nil(t, err)
	i, gerr := v.GetInt32()
	require.Nil(t, gerr)
	assert.EqualValues(t, 7, i)
}

func TestPathArrayNotAutoGrown(t *testing.T) {
	root := NewObject()
	require.NoError(t, root.ObjectMove("items", NewArray(NewInt32(1))))
	err := SetFromPathStrWithMove(root, "items[5]", NewInt32(2))
	require.NotNil(t, err)
}

func TestJSONRoundTripPreservesKeyOrder(t *testing.T) {
	raw := []byte(`{"z":1,"a":{"nested":true},"m":[1,2,3]}`)
	v, err := FromJSON(raw)
	require.Nil(t, err)

	out, jerr := v.ToJSON()
	require.NoError(t, jerr)

	back, err2 := FromJSON(out)
	require.Nil(t, err2)
	assert.Equal(t, v.ObjectKeys(), back.ObjectKeys())
	assert.Equal(t, []string{"z", "a", "m"}, v.ObjectKeys())
}

func TestJSONNonNegativeIntBecomesUint64(t *testing.T) {
	v, err := FromJSON([]byte(`5`))
	require.Nil(t, err)
	assert.Equal(t, Uint64, v.Kind)

	v2, err2 := FromJSON([]byte(`-5`))
	require.Nil(t, err2)
	assert.Equal(t, Int64, v2.Kind)
}

func TestGetIntWideningAndNarrowing(t *testing.T) {
	small := NewInt8(1)
	wide, err := small.GetInt64()
	require.Nil(t, err)
	assert.EqualValues(t, 1, wide)

	big := NewInt32(300)
	_, err2 := big.GetUint8()
	require.NotNil(t, err2)
	assert.Equal(t, "OUT_OF_RANGE", err2.Code.String())
}

func TestFloatToIntRejectsFractional(t *testing.T) {
	// GetInt64 only accepts integer-tagged Values (a float Value is
	// rejected outright, not converted), so here the rule is exercised
	// through FromTypeAndString's integer-literal parsing instead of a
	// direct float->int accessor.
	v, err := FromTypeAndString(Int32, "3")
	require.Nil(t, err)
	i, gerr := v.GetInt32()
	require.Nil(t, gerr)
	assert.EqualValues(t, 3, i)

	_, perr := FromTypeAndString(Int32, "3.5")
	require.NotNil(t, perr)
}
