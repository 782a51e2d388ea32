// Package wasmhandle is the worked example of a `ptr` Value's clone/drop
// trait (SPEC_FULL.md §3): a loaded WASM module instance flows through
// the system as an opaque, reference-counted handle rather than a
// foreign-language pointer, the generic replacement DESIGN NOTES §9
// prescribes for the original's binding-specific pin/unpin mechanism.
package wasmhandle

import (
	"sync"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// Handle owns a wasmer.Instance plus a shared reference count: Clone
// bumps the count instead of recompiling the module, and Destroy only
// actually tears the instance down once the count reaches zero,
// exactly the "destructor decrements a shared-count" behaviour spec §3
// describes for cross-runtime ptr handles.
type Handle struct {
	mu       *sync.Mutex
	refCount *int
	instance *wasmer.Instance
	mainFunc wasmer.NativeFunction
}

// Load compiles wasmBytes and instantiates it with no imports, the same
// engine/store/module/instance pipeline wasm/executor.go's Execute
// function uses, but keeping the instance alive instead of discarding
// it after a single call.
func Load(wasmBytes []byte) (*Handle, error) {
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	module, err := wasmer.NewModule(store, wasmBytes)
	if err != nil {
		return nil, err
	}
	instance, err := wasmer.NewInstance(module, wasmer.NewImportObject())
	if err != nil {
		return nil, err
	}
	mainFunc, err := instance.Exports.GetFunction("main")
	if err != nil {
		return nil, err
	}
	count := 1
	return &Handle{mu: &sync.Mutex{}, refCount: &count, instance: instance, mainFunc: mainFunc}, nil
}

// Call invokes the module's exported "main" function.
func (h *Handle) Call(input []byte) ([]byte, error) {
	result, err := h.mainFunc(input)
	if err != nil {
		return nil, err
	}
	if b, ok := result.([]byte); ok {
		return b, nil
	}
	return nil, nil
}

// Copy implements value.PtrOps: it does not recompile or reinstantiate
// the module, it shares the same *wasmer.Instance and bumps refCount.
func (h *Handle) Copy(p any) (any, error) {
	handle, ok := p.(*Handle)
	if !ok {
		return nil, flowerr.New(flowerr.CodeInvalidArgument, "wasmhandle: Copy called on non-Handle value")
	}
	handle.mu.Lock()
	*handle.refCount++
	handle.mu.Unlock()
	return handle, nil
}

// Destroy implements value.PtrOps: it decrements refCount and only
// closes the underlying instance once no clone remains.
func (h *Handle) Destroy(p any) {
	handle, ok := p.(*Handle)
	if !ok {
		return
	}
	handle.mu.Lock()
	*handle.refCount--
	shouldClose := *handle.refCount <= 0
	handle.mu.Unlock()
	if shouldClose {
		handle.instance.Close()
	}
}

// NewValue wraps h as a ptr Value with h itself as the PtrOps, so
// clone/destroy on the Value thread straight through to Copy/Destroy
// above.
func NewValue(h *Handle) *value.Value {
	return value.NewPtr(h, h)
}
