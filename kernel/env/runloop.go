// Package env implements the Env Handle (C8): the capability object an
// extension, extension-group, engine or app owns, routing property
// get/set and send-msg through an async-notify proxy so the handle is
// call-safe from any goroutine while running its own state inline on
// its owner's runloop.
package env

import (
	"context"
	"sync"
)

type onLoopKey struct{}

// withOnLoop marks ctx as originating from inside the runloop's own
// task execution, so a nested Submit runs inline instead of posting
// back onto the (already-busy) task channel.
func withOnLoop(ctx context.Context) context.Context {
	return context.WithValue(ctx, onLoopKey{}, true)
}

func isOnLoop(ctx context.Context) bool {
	v, _ := ctx.Value(onLoopKey{}).(bool)
	return v
}

// Runloop is a single-goroutine task executor, the same "post a task,
// await completion" shape as the teacher's BaseSupervisor.Submit
// (kernel/threads/supervisor/base.go) backed by a buffered channel the
// way NewChannelSet sizes its Jobs channel
// (kernel/threads/supervisor/channels.go).
type Runloop struct {
	tasks chan func(context.Context)
	stop  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

func NewRunloop(bufferSize int) *Runloop {
	r := &Runloop{
		tasks: make(chan func(context.Context), bufferSize),
		stop:  make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *Runloop) run() {
	defer r.wg.Done()
	loopCtx := withOnLoop(context.Background())
	for {
		select {
		case fn := <-r.tasks:
			fn(loopCtx)
		case <-r.stop:
			for {
				select {
				case fn := <-r.tasks:
					fn(loopCtx)
				default:
					return
				}
			}
		}
	}
}

// Submit posts fn to the owner's runloop. If ctx already carries the
// on-loop marker (this call originates from a task the loop itself is
// currently running), fn executes inline instead of round-tripping
// through the channel, which would deadlock a single-goroutine loop.
func (r *Runloop) Submit(ctx context.Context, fn func(context.Context)) bool {
	if isOnLoop(ctx) {
		fn(ctx)
		return true
	}
	select {
	case <-r.stop:
		return false
	default:
	}
	select {
	case r.tasks <- fn:
		return true
	case <-r.stop:
		return false
	}
}

// Stop halts the runloop. Pending tasks already accepted into the
// channel still run; no new Submit succeeds afterward.
func (r *Runloop) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}
