package msg

import (
	"sync"
)

// CorrelationState tracks where a sent command sits in the state
// machine spec §4.4 draws: CREATED -> SENT_IN_FLIGHT -> DONE/EXPIRED.
type CorrelationState int

const (
	StateCreated CorrelationState = iota
	StateSentInFlight
	StateDone
	StateExpired
)

// pending is the per-cmd_id bookkeeping the Tracker keeps, grounded on
// foundation.Job's ResultChan field: one cmd_id maps to one result
// handler, and the entry is removed when the command resolves.
type pending struct {
	state   CorrelationState
	ex      bool // true for send_cmd_ex (every result delivered)
	handler ResultHandler
}

// Tracker correlates sent commands to their results by cmd_id. It
// replaces the original's per-extension handler-wrapper context with a
// plain map guarded by a mutex (spec §9's prescribed rewrite).
type Tracker struct {
	mu      sync.Mutex
	pending map[string]*pending
}

func NewTracker() *Tracker {
	return &Tracker{pending: make(map[string]*pending)}
}

// Track registers a sent command's handler. ex selects send_cmd_ex
// semantics (every result forwarded) over send_cmd semantics (only the
// first is_completed result forwarded, then the entry is dropped).
func (t *Tracker) Track(cmdID string, handler ResultHandler, ex bool) {
	if cmdID == "" || handler == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[cmdID] = &pending{state: StateSentInFlight, ex: ex, handler: handler}
}

// Deliver routes a cmd-result to its tracked handler, applying the
// send_cmd/send_cmd_ex arity rule (testable property 6, scenario S7's
// sibling invariant): send_cmd invokes its handler exactly once, on the
// first is_completed result; send_cmd_ex invokes it for every result.
func (t *Tracker) Deliver(result *Msg) {
	if result.kind != TypeCmdResult || result.cmdID == "" {
		return
	}
	t.mu.Lock()
	p, ok := t.pending[result.cmdID]
	if !ok {
		t.mu.Unlock()
		return
	}
	if p.ex {
		if result.isCompleted {
			p.state = StateDone
			delete(t.pending, result.cmdID)
		}
		t.mu.Unlock()
		p.handler(result)
		return
	}
	if !result.isCompleted {
		t.mu.Unlock()
		return // intermediate partials are silently absorbed for send_cmd
	}
	p.state = StateDone
	delete(t.pending, result.cmdID)
	t.mu.Unlock()
	p.handler(result)
}

// Expire marks a still-pending command as timed out and removes it,
// returning false if the cmd_id was already resolved or unknown.
func (t *Tracker) Expire(cmdID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[cmdID]
	if !ok {
		return false
	}
	p.state = StateExpired
	delete(t.pending, cmdID)
	return true
}

// Pending reports whether cmdID still has an in-flight tracked command.
func (t *Tracker) Pending(cmdID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[cmdID]
	return ok
}
