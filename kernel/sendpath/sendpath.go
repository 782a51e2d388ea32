// Package sendpath implements the Send Path (C7): Env.send_msg's entry
// point into the containing scheduler, cmd/result correlation, and
// not-connected throttled reporting.
package sendpath

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/msg"
	"github.com/nmxmxh/flowmesh/kernel/wire"
)

// Dispatcher is the scheduler-side entry point a SendPath drives
// (kernel/scheduler.Owner implements it).
type Dispatcher interface {
	Dispatch(ctx context.Context, m *msg.Msg) *flowerr.Error
}

// SendPath wraps a Dispatcher with the cmd/result correlation and
// not-connected throttling spec §4.7 requires around the raw dispatch
// call.
type SendPath struct {
	dispatcher Dispatcher
	tracker    *msg.Tracker
	notConn    *NotConnectedTracker
	logger     *slog.Logger

	crossApp    *CrossAppDialer
	localAppURI string
}

func New(dispatcher Dispatcher, logger *slog.Logger) *SendPath {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendPath{
		dispatcher: dispatcher,
		tracker:    msg.NewTracker(),
		notConn:    NewNotConnectedTracker(logger),
		logger:     logger,
	}
}

// SetCrossApp enables the §4.7 cross-app send path: a message whose
// sole destination names an app-uri other than localAppURI is framed
// as a kernel/wire Envelope and dialed directly through d, instead of
// being handed to the local Dispatcher.
func (sp *SendPath) SetCrossApp(d *CrossAppDialer, localAppURI string) {
	sp.crossApp = d
	sp.localAppURI = localAppURI
}

// Send is Env.send_msg's implementation. ex selects send_cmd_ex
// semantics for commands with a handler; it is ignored for non-command
// variants.
func (sp *SendPath) Send(ctx context.Context, m *msg.Msg, handler msg.ResultHandler, ex bool) *flowerr.Error {
	if m.HasLockedRes() {
		return flowerr.New(flowerr.CodeInvalidArgument, "message has a locked resource and cannot be sent via send_msg")
	}
	if m.Type() == msg.TypeCmdResult {
		return flowerr.New(flowerr.CodeInvalidArgument, "cmd-result cannot be sent via send_msg; use the result-handler pathway")
	}

	m.EnsureCmdID()
	if m.Type().IsCommand() && handler != nil {
		sp.tracker.Track(m.CmdID(), handler, ex)
	}

	if handled, err := sp.sendCrossApp(ctx, m); handled {
		if err != nil {
			sp.logger.Error("cross-app send failed", "name", m.Name(), "error", err.Error())
			if m.Type().IsCommand() {
				sp.tracker.Expire(m.CmdID())
			}
			return err
		}
		if !m.Type().IsCommand() && handler != nil {
			ack := msg.CreateEmpty(msg.TypeCmdResult)
			ack.SetStatusCode(msg.StatusOK)
			ack.SetIsCompleted(true)
			handler(ack)
		}
		return nil
	}

	err := sp.dispatcher.Dispatch(ctx, m)
	if err != nil {
		if err.Code == flowerr.CodeMsgNotConnected {
			sp.notConn.Report(m.Name())
		} else {
			sp.logger.Error("send_msg dispatch failed", "name", m.Name(), "error", err.Error())
		}
		if m.Type().IsCommand() {
			sp.tracker.Expire(m.CmdID())
		}
		return err
	}

	// Non-command sends have no result correlation: the handler (if
	// any) is invoked once, synchronously, on enqueue acceptance
	// (spec §4.4).
	if !m.Type().IsCommand() && handler != nil {
		ack := msg.CreateEmpty(msg.TypeCmdResult)
		ack.SetStatusCode(msg.StatusOK)
		ack.SetIsCompleted(true)
		handler(ack)
	}
	return nil
}

// DeliverResult routes an inbound cmd-result to its tracked handler.
func (sp *SendPath) DeliverResult(result *msg.Msg) {
	sp.tracker.Deliver(result)
}

// sendCrossApp implements §4.7's cross-app dispatch: a message whose
// one destination names an app-uri other than localAppURI is framed as
// a kernel/wire Envelope and dialed through crossApp, bypassing the
// local Owner tree entirely. handled is false (and err nil) whenever no
// cross-app dialer is configured or m doesn't name exactly one foreign
// app-uri, so callers fall back to the local Dispatcher unchanged.
func (sp *SendPath) sendCrossApp(ctx context.Context, m *msg.Msg) (handled bool, ferr *flowerr.Error) {
	if sp.crossApp == nil {
		return false, nil
	}
	dests := m.Dest()
	if len(dests) != 1 || dests[0].AppURI == "" || dests[0].AppURI == sp.localAppURI {
		return false, nil
	}
	appURI := dests[0].AppURI

	props, jerr := m.Properties().ToJSON()
	if jerr != nil {
		return true, flowerr.New(flowerr.CodeGeneric, "encode properties for cross-app send: %v", jerr)
	}
	envelope := wire.Envelope{
		MsgType: m.Type().String(),
		MsgName: m.Name(),
		Header: wire.ScalarHeader{
			StatusCode:  uint32(m.StatusCode()),
			IsCompleted: m.IsCompleted(),
		},
		Properties: props,
	}
	payload, merr := envelope.MarshalMsg(nil)
	if merr != nil {
		return true, flowerr.New(flowerr.CodeGeneric, "marshal cross-app envelope for %q: %v", appURI, merr)
	}

	conn, derr := sp.crossApp.Dial(ctx, appURI)
	if derr != nil {
		sp.notConn.Report(m.Name())
		return true, derr
	}
	wireConn, ok := conn.(Conn)
	if !ok {
		return true, flowerr.New(flowerr.CodeGeneric, "cross-app dial to %q returned an unusable connection", appURI)
	}
	defer wireConn.Close()
	if _, werr := wireConn.Write(payload); werr != nil {
		return true, flowerr.New(flowerr.CodeGeneric, "write cross-app envelope to %q: %v", appURI, werr)
	}
	return true, nil
}

// NotConnectedTracker counts MSG_NOT_CONNECTED occurrences per message
// name and logs a warning only every 1000th occurrence (spec §4.7,
// scenario S8), mirroring the plain map[string]*T + mutex discipline
// kernel/core/mesh/routing/gossip.go applies to its own per-peer state.
type NotConnectedTracker struct {
	mu      sync.Mutex
	counts  map[string]uint64
	logger  *slog.Logger
	warnMod uint64
}

func NewNotConnectedTracker(logger *slog.Logger) *NotConnectedTracker {
	return &NotConnectedTracker{counts: make(map[string]uint64), logger: logger, warnMod: 1000}
}

// Report records one not-connected occurrence for name, warning when
// the running count is a positive multiple of warnMod.
func (t *NotConnectedTracker) Report(name string) {
	t.mu.Lock()
	t.counts[name]++
	count := t.counts[name]
	t.mu.Unlock()

	if count%t.warnMod == 0 {
		t.logger.Warn("message has no downstream", "name", name, "count", count)
	}
}

// Count returns the current occurrence count for name (test hook).
func (t *NotConnectedTracker) Count(name string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[name]
}
