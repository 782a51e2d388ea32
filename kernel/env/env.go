package env

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/msg"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// OwnerKind names the one attachment point an Env is bound to (spec §3:
// "Bound to exactly one of {app, engine, extension-group, extension}").
type OwnerKind int

const (
	OwnerApp OwnerKind = iota
	OwnerEngine
	OwnerExtensionGroup
	OwnerExtension
)

// Sender is the narrow interface the containing scheduler exposes to
// an Env for dispatching a message onward (kernel/sendpath implements
// it); Env itself only knows how to hand a message to it.
type Sender interface {
	Dispatch(ctx context.Context, m *msg.Msg) *flowerr.Error
}

// Env is the capability handle an extension/group/engine/app owns.
type Env struct {
	kind   OwnerKind
	name   string
	loop   *Runloop
	sender Sender

	properties *value.Value

	closed atomic.Bool
	mu     sync.Mutex
}

func New(kind OwnerKind, name string, sender Sender) *Env {
	return &Env{
		kind:       kind,
		name:       name,
		loop:       NewRunloop(64),
		sender:     sender,
		properties: value.NewObject(),
	}
}

func (e *Env) Kind() OwnerKind { return e.kind }
func (e *Env) Name() string    { return e.name }

// Close permanently invalidates the handle; every subsequent operation
// returns TEN_IS_CLOSED (spec §4.8) rather than being logged as an
// error, since closing is a normal lifecycle event, not a caller bug.
func (e *Env) Close() {
	if e.closed.CompareAndSwap(false, true) {
		e.loop.Stop()
	}
}

func (e *Env) checkOpen() *flowerr.Error {
	if e.closed.Load() {
		return flowerr.New(flowerr.CodeClosed, "env %q is closed", e.name)
	}
	return nil
}

// GetProperty synchronously reads a property by path. The read itself
// always runs on the owner's runloop (inline if the caller is already
// on it).
func (e *Env) GetProperty(ctx context.Context, path string) (*value.Value, *flowerr.Error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	var out *value.Value
	var outErr *flowerr.Error
	done := make(chan struct{})
	ok := e.loop.Submit(ctx, func(loopCtx context.Context) {
		e.mu.Lock()
		out, outErr = value.PeekFromPath(e.properties, path)
		e.mu.Unlock()
		close(done)
	})
	if !ok {
		return nil, flowerr.New(flowerr.CodeClosed, "env %q is closed", e.name)
	}
	<-done
	if outErr != nil {
		return nil, outErr
	}
	cp, cerr := out.Clone()
	if cerr != nil {
		return nil, flowerr.New(flowerr.CodeGeneric, "%v", cerr)
	}
	return cp, nil
}

// GetPropertyAsync is the non-blocking flavour: cb is invoked on the
// owner's runloop with (value, err) once the read completes.
func (e *Env) GetPropertyAsync(ctx context.Context, path string, cb func(*value.Value, *flowerr.Error)) {
	if err := e.checkOpen(); err != nil {
		cb(nil, err)
		return
	}
	ok := e.loop.Submit(ctx, func(loopCtx context.Context) {
		e.mu.Lock()
		v, err := value.PeekFromPath(e.properties, path)
		e.mu.Unlock()
		if err != nil {
			cb(nil, err)
			return
		}
		cp, cerr := v.Clone()
		if cerr != nil {
			cb(nil, flowerr.New(flowerr.CodeGeneric, "%v", cerr))
			return
		}
		cb(cp, nil)
	})
	if !ok {
		cb(nil, flowerr.New(flowerr.CodeClosed, "env %q is closed", e.name))
	}
}

// SetProperty synchronously moves v into the property tree at path.
func (e *Env) SetProperty(ctx context.Context, path string, v *value.Value) *flowerr.Error {
	if err := e.checkOpen(); err != nil {
		v.Destroy()
		return err
	}
	var outErr *flowerr.Error
	done := make(chan struct{})
	ok := e.loop.Submit(ctx, func(loopCtx context.Context) {
		e.mu.Lock()
		outErr = value.SetFromPathStrWithMove(e.properties, path, v)
		if outErr != nil {
			v.Destroy()
		}
		e.mu.Unlock()
		close(done)
	})
	if !ok {
		v.Destroy()
		return flowerr.New(flowerr.CodeClosed, "env %q is closed", e.name)
	}
	<-done
	return outErr
}

// SetPropertyAsync is the non-blocking flavour; cb receives the error,
// if any, once the write completes.
func (e *Env) SetPropertyAsync(ctx context.Context, path string, v *value.Value, cb func(*flowerr.Error)) {
	if err := e.checkOpen(); err != nil {
		v.Destroy()
		if cb != nil {
			cb(err)
		}
		return
	}
	ok := e.loop.Submit(ctx, func(loopCtx context.Context) {
		e.mu.Lock()
		err := value.SetFromPathStrWithMove(e.properties, path, v)
		if err != nil {
			v.Destroy()
		}
		e.mu.Unlock()
		if cb != nil {
			cb(err)
		}
	})
	if !ok {
		v.Destroy()
		if cb != nil {
			cb(flowerr.New(flowerr.CodeClosed, "env %q is closed", e.name))
		}
	}
}

// SendMsg hands m to the containing scheduler via Sender, synchronously.
func (e *Env) SendMsg(ctx context.Context, m *msg.Msg) *flowerr.Error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	var outErr *flowerr.Error
	done := make(chan struct{})
	ok := e.loop.Submit(ctx, func(loopCtx context.Context) {
		outErr = e.sender.Dispatch(loopCtx, m)
		close(done)
	})
	if !ok {
		return flowerr.New(flowerr.CodeClosed, "env %q is closed", e.name)
	}
	<-done
	return outErr
}

// SendMsgAsync is the non-blocking flavour; cb receives the dispatch
// error, if any.
func (e *Env) SendMsgAsync(ctx context.Context, m *msg.Msg, cb func(*flowerr.Error)) {
	if err := e.checkOpen(); err != nil {
		if cb != nil {
			cb(err)
		}
		return
	}
	ok := e.loop.Submit(ctx, func(loopCtx context.Context) {
		err := e.sender.Dispatch(loopCtx, m)
		if cb != nil {
			cb(err)
		}
	})
	if !ok && cb != nil {
		cb(flowerr.New(flowerr.CodeClosed, "env %q is closed", e.name))
	}
}
