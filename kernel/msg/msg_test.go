package msg

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/flowmesh/kernel/value"
)

func TestCreateRejectsReservedPrefix(t *testing.T) {
	_, err := Create(TypeCmd, "flow:internal")
	require.NotNil(t, err)
}

func TestCreateAllowsOrdinaryName(t *testing.T) {
	m, err := Create(TypeCmd, "do_thing")
	require.Nil(t, err)
	assert.Equal(t, "do_thing", m.Name())
}

func TestSetDestReplacesAtomically(t *testing.T) {
	m := CreateEmpty(TypeData)
	m.SetDest(Loc{Extension: "a"})
	m.SetDest(Loc{Extension: "b"}, Loc{Extension: "c"})
	assert.Len(t, m.Dest(), 2)
	assert.Equal(t, "b", m.Dest()[0].Extension)
}

func TestSetPropertyMovesOnSuccess(t *testing.T) {
	m := CreateEmpty(TypeData)
	require.Nil(t, m.SetProperty("count", value.NewInt32(3)))
	got, err := m.GetProperty("count")
	require.Nil(t, err)
	i, gerr := got.GetInt32()
	require.Nil(t, gerr)
	assert.EqualValues(t, 3, i)
}

func TestSetPropertyDestroysOnFailure(t *testing.T) {
	m := CreateEmpty(TypeData)
	// "[0]" at the root (an object) is a type mismatch -> failure path.
	v := value.NewInt32(1)
	err := m.SetProperty("[0]", v)
	require.NotNil(t, err)
	assert.True(t, v.IsInvalid(), "the rejected value must have been destroyed")
}

func TestSetPropertyFromJSONSingleFailurePath(t *testing.T) {
	m := CreateEmpty(TypeData)
	err := m.SetPropertyFromJSON("x", []byte(`not json`))
	require.NotNil(t, err)
	_, perr := m.GetProperty("x")
	require.NotNil(t, perr, "a failed parse must not leave partial state")
}

// S7 — send_cmd without cmd_id.
func TestEnsureCmdIDAssignsUUID(t *testing.T) {
	m := CreateEmpty(TypeCmd)
	assert.Empty(t, m.CmdID())
	m.EnsureCmdID()
	assert.Len(t, m.CmdID(), 36)
}

func TestEnsureCmdIDLeavesExistingAlone(t *testing.T) {
	m := CreateEmpty(TypeCmd)
	m.SetCmdID("already-set")
	m.EnsureCmdID()
	assert.Equal(t, "already-set", m.CmdID())
}

func TestCompletedImpliesFinal(t *testing.T) {
	m := CreateEmpty(TypeCmdResult)
	m.SetIsCompleted(true)
	assert.True(t, m.IsFinal())
}

func TestCloneDeepCopiesPropertiesAndRespectsExclusions(t *testing.T) {
	m := CreateEmpty(TypeCmd)
	m.SetCmdID("abc")
	require.Nil(t, m.SetProperty("x", value.NewInt32(1)))

	cp, err := Clone(m, FieldCmdID)
	require.Nil(t, err)
	assert.Empty(t, cp.CmdID())

	got, _ := cp.GetProperty("x")
	i, _ := got.GetInt32()
	assert.EqualValues(t, 1, i)
}

// Invariant 6 — send_cmd arity: exactly once, on the first completed result.
func TestTrackerSendCmdArity(t *testing.T) {
	tr := NewTracker()
	var calls int32
	tr.Track("cmd-1", func(r *Msg) { atomic.AddInt32(&calls, 1) }, false)

	partial := CreateEmpty(TypeCmdResult)
	partial.SetCmdID("cmd-1")
	partial.SetIsFinal(false)
	tr.Deliver(partial)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))

	final := CreateEmpty(TypeCmdResult)
	final.SetCmdID("cmd-1")
	final.SetIsCompleted(true)
	tr.Deliver(final)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// A second delivery for the same cmd_id is a no-op: the tracker
	// already forgot it.
	tr.Deliver(final)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestTrackerSendCmdExDeliversEveryResult(t *testing.T) {
	tr := NewTracker()
	var calls int32
	tr.Track("cmd-2", func(r *Msg) { atomic.AddInt32(&calls, 1) }, true)

	for i := 0; i < 3; i++ {
		r := CreateEmpty(TypeCmdResult)
		r.SetCmdID("cmd-2")
		r.SetIsFinal(i == 2)
		tr.Deliver(r)
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestAllocBufOwnsBuffer(t *testing.T) {
	m := CreateEmpty(TypeAudioFrame)
	m.AllocBuf(16)
	b, ok := m.Buf().PeekBuf()
	require.True(t, ok)
	assert.Len(t, b, 16)
}
