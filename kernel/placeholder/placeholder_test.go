package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/flowmesh/kernel/value"
)

func TestExpandEnvHit(t *testing.T) {
	t.Setenv("FLOWMESH_TEST_VAR", "hello")
	r := NewResolver()
	out, err := r.Expand("${env:FLOWMESH_TEST_VAR}")
	require.Nil(t, err)
	assert.Equal(t, "hello", out)
}

func TestExpandEnvMissUsesDefault(t *testing.T) {
	r := NewResolver()
	out, err := r.Expand(`${env:FLOWMESH_DOES_NOT_EXIST|"fallback"}`)
	require.Nil(t, err)
	assert.Equal(t, "fallback", out)
}

func TestExpandEnvMissNoDefaultIsNull(t *testing.T) {
	r := NewResolver()
	out, err := r.Expand("${env:FLOWMESH_DOES_NOT_EXIST}")
	require.Nil(t, err)
	assert.Equal(t, "null", out)
}

func TestExpandEnvMissEmptyDefaultIsEmptyString(t *testing.T) {
	r := NewResolver()
	out, err := r.Expand("${env:FLOWMESH_DOES_NOT_EXIST|}")
	require.Nil(t, err)
	assert.Equal(t, "", out)
}

// Invariant 5 — placeholder escape.
func TestEscapedPlaceholderIsLiteral(t *testing.T) {
	r := NewResolver()
	out, err := r.Expand(`\${env:X}`)
	require.Nil(t, err)
	assert.Equal(t, "${env:X}", out)
}

func TestEscapedBarInDefault(t *testing.T) {
	r := NewResolver()
	out, err := r.Expand(`${env:FLOWMESH_DOES_NOT_EXIST|\|}`)
	require.Nil(t, err)
	assert.Equal(t, "|", out)
}

func TestResolveTreeWalksObjectAndArray(t *testing.T) {
	t.Setenv("FLOWMESH_TEST_VAR", "resolved")
	root, _ := value.FromJSON([]byte(`{"a":"${env:FLOWMESH_TEST_VAR}","b":["${env:FLOWMESH_TEST_VAR}","plain"]}`))
	r := NewResolver()
	require.Nil(t, r.ResolveTree(root))

	a, _ := root.ObjectPeek("a")
	as, _ := a.PeekRawStr()
	assert.Equal(t, "resolved", as)

	b, _ := root.ObjectPeek("b")
	elems, _ := b.PeekArray()
	s0, _ := elems[0].PeekRawStr()
	s1, _ := elems[1].PeekRawStr()
	assert.Equal(t, "resolved", s0)
	assert.Equal(t, "plain", s1)
}

func TestUnknownScopeErrors(t *testing.T) {
	r := NewResolver()
	_, err := r.Expand("${nope:X}")
	require.NotNil(t, err)
}
