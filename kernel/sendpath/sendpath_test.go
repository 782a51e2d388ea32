package sendpath

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/msg"
)

type stubDispatcher struct {
	err  *flowerr.Error
	sent []*msg.Msg
}

func (s *stubDispatcher) Dispatch(ctx context.Context, m *msg.Msg) *flowerr.Error {
	s.sent = append(s.sent, m)
	return s.err
}

func TestSendRejectsLockedRes(t *testing.T) {
	sp := New(&stubDispatcher{}, slog.Default())
	m := msg.CreateEmpty(msg.TypeData)
	m.SetHasLockedRes(true)
	err := sp.Send(context.Background(), m, nil, false)
	require.NotNil(t, err)
}

func TestSendAssignsCmdIDAndTracksHandler(t *testing.T) {
	d := &stubDispatcher{}
	sp := New(d, slog.Default())

	m := msg.CreateEmpty(msg.TypeCmd)
	var got *msg.Msg
	require.Nil(t, sp.Send(context.Background(), m, func(r *msg.Msg) { got = r }, false))
	assert.NotEmpty(t, m.CmdID())

	result := msg.CreateEmpty(msg.TypeCmdResult)
	result.SetCmdID(m.CmdID())
	result.SetIsCompleted(true)
	sp.DeliverResult(result)
	assert.Same(t, result, got)
}

func TestSendNonCommandAcksHandlerOnce(t *testing.T) {
	d := &stubDispatcher{}
	sp := New(d, slog.Default())

	var calls int
	m := msg.CreateEmpty(msg.TypeData)
	require.Nil(t, sp.Send(context.Background(), m, func(r *msg.Msg) { calls++ }, false))
	assert.Equal(t, 1, calls)
}

// S8 — not-connected throttling: 2500 sends, exactly 2 warnings (at 1000, 2000).
func TestNotConnectedThrottling(t *testing.T) {
	d := &stubDispatcher{err: flowerr.New(flowerr.CodeMsgNotConnected, "no downstream")}
	sp := New(d, slog.Default())

	warnAt := []uint64{}
	for i := 0; i < 2500; i++ {
		m, _ := msg.Create(msg.TypeData, "telemetry")
		m.SetDest(msg.Loc{Extension: "nobody"})
		_ = sp.Send(context.Background(), m, nil, false)
		if c := sp.notConn.Count("telemetry"); c%1000 == 0 {
			warnAt = append(warnAt, c)
		}
	}
	assert.Equal(t, []uint64{1000, 2000}, warnAt)
}

func TestSendExpiresTrackedCmdOnDispatchFailure(t *testing.T) {
	d := &stubDispatcher{err: flowerr.New(flowerr.CodeGeneric, "boom")}
	sp := New(d, slog.Default())

	m := msg.CreateEmpty(msg.TypeCmd)
	require.NotNil(t, sp.Send(context.Background(), m, func(*msg.Msg) {}, false))
	assert.False(t, sp.tracker.Pending(m.CmdID()))
}
