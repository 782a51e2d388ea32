// Package scheduler provides the app/engine/extension-group/extension
// runloop owners that back an Env's dispatch table (C7/C8): each
// Owner is a node in the containment hierarchy spec §3 describes, with
// the Start/Stop lifecycle the teacher's BaseSupervisor interface
// defines (kernel/threads/supervisor/base.go), minus the
// learning/prediction/collaboration surface that belongs to the
// teacher's ML domain, not this substrate.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/nmxmxh/flowmesh/kernel/env"
	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/msg"
	"github.com/nmxmxh/flowmesh/kernel/schemastore"
)

// Owner is a scheduling node: an app, an engine, an extension-group or
// an extension. It owns exactly one Env and knows how to route a
// message according to its own dispatch rule (spec §4.7's dispatch
// table).
type Owner struct {
	kind env.OwnerKind
	name string
	env  *env.Env

	mu       sync.RWMutex
	running  bool
	children map[string]*Owner
	parent   *Owner

	router Router
	store  *schemastore.Store
}

// Router hands a message onward once an Owner decides it cannot
// resolve the destination itself (e.g. an extension-group bypassing
// per-extension schemas straight to the engine's router, spec §4.7).
type Router interface {
	Route(ctx context.Context, from *Owner, m *msg.Msg) *flowerr.Error
}

func NewOwner(kind env.OwnerKind, name string, router Router) *Owner {
	o := &Owner{kind: kind, name: name, children: make(map[string]*Owner), router: router}
	o.env = env.New(kind, name, o)
	return o
}

func (o *Owner) Kind() env.OwnerKind { return o.kind }
func (o *Owner) Name() string        { return o.name }
func (o *Owner) Env() *env.Env       { return o.env }

// SetSchemaStore attaches the extension's schema index; once set,
// Dispatch adjusts and validates every inbound message against it
// before acting on it (spec §4.7's dispatch-table contract that
// schema-store ingress/egress is applied as part of extension
// dispatch). A nil store (the default) disables the check entirely.
func (o *Owner) SetSchemaStore(s *schemastore.Store) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store = s
}

// Start marks the owner as accepting dispatches. It mirrors
// BaseSupervisor.Start's signature without the ML-intelligence
// surface the teacher interface mixes in.
func (o *Owner) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = true
	return nil
}

// Stop closes the owner's Env and marks it no longer accepting work.
func (o *Owner) Stop() error {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
	o.env.Close()
	return nil
}

func (o *Owner) AddChild(child *Owner) {
	o.mu.Lock()
	defer o.mu.Unlock()
	child.parent = o
	o.children[child.name] = child
}

func (o *Owner) Child(name string) (*Owner, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	c, ok := o.children[name]
	return c, ok
}

// Dispatch implements env.Sender: it applies the dispatch-table rule
// for this owner's kind (spec §4.7), then falls back to the router for
// anything it cannot resolve locally.
func (o *Owner) Dispatch(ctx context.Context, m *msg.Msg) *flowerr.Error {
	if m.HasLockedRes() {
		return flowerr.New(flowerr.CodeInvalidArgument, "message has a locked resource and cannot be sent via send_msg")
	}
	if m.Type() == msg.TypeCmdResult {
		return flowerr.New(flowerr.CodeInvalidArgument, "cmd-result cannot be sent via send_msg; use the result-handler pathway")
	}
	m.EnsureCmdID()

	o.mu.RLock()
	running := o.running
	store := o.store
	o.mu.RUnlock()
	if !running {
		return flowerr.New(flowerr.CodeClosed, "owner %q is not running", o.name)
	}

	if store != nil {
		if dir, ok := schemastore.DirectionForType(m.Type(), false); ok {
			if err := store.ApplyIngress(dir, m.Name(), m); err != nil {
				return err
			}
		}
	}

	switch o.kind {
	case env.OwnerExtension:
		for _, dest := range m.Dest() {
			if dest.Extension == o.name {
				continue // the message has reached its destination
			}
			if child, ok := o.Child(dest.Extension); ok {
				if err := child.Dispatch(ctx, m); err != nil {
					return err
				}
				continue
			}
			if o.router == nil {
				return flowerr.New(flowerr.CodeMsgNotConnected, "no downstream for %s", describeDest(dest))
			}
			if err := o.router.Route(ctx, o, m); err != nil {
				return err
			}
		}
		return nil
	case env.OwnerExtensionGroup, env.OwnerEngine, env.OwnerApp:
		if o.router == nil {
			return flowerr.New(flowerr.CodeMsgNotConnected, "owner %q has no router configured", o.name)
		}
		return o.router.Route(ctx, o, m)
	default:
		return flowerr.New(flowerr.CodeInvalidArgument, "unknown owner kind")
	}
}

func describeDest(d msg.Loc) string {
	return fmt.Sprintf("%s/%s/%s/%s", d.AppURI, d.GraphID, d.ExtensionGroup, d.Extension)
}
