// Package value implements the tagged dynamic Value described in
// spec.md §3/§4.1 (component C1): a self-describing value over
// {invalid, null, bool, the signed/unsigned/float numeric family,
// string, buf, ptr, array, object}. A Value owns everything it holds
// except an "unowned" buf or a ptr whose hooks say otherwise; Destroy
// walks the tree and releases owned children, the same contract the
// teacher's own `ToCapnp`/`FromCapnp` round trip on PeerCapability
// documents informally for its own struct graph.
package value

import (
	"fmt"
)

// Type is the Value's tag. The zero value is Invalid, matching spec
// §3's invariant that invalid only appears during deserialization
// failure and must never flow past a schema.
type Type uint8

const (
	Invalid Type = iota
	Null
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	String
	Buf
	Ptr
	Array
	Object
)

func (t Type) String() string {
	switch t {
	case Invalid:
		return "invalid"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Buf:
		return "buf"
	case Ptr:
		return "ptr"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// IsNumeric reports whether t is one of the ten numeric tags.
func (t Type) IsNumeric() bool {
	switch t {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Float32, Float64:
		return true
	default:
		return false
	}
}

// PtrOps lets a ptr Value carry a foreign handle safely across clone and
// destroy. Per SPEC_FULL.md §3's rearchitecture of the original ptr
// escape hatch, this is the "trait" that provides clone/drop; see
// kernel/wasmhandle for the worked wasmer-go example.
type PtrOps interface {
	// Copy is invoked by Clone. The default (when Ops is nil) duplicates
	// the raw pointer without invoking any foreign constructor.
	Copy(p any) (any, error)
	// Destroy is invoked by Destroy. The default is a no-op.
	Destroy(p any)
}

// objEntry is one (key, Value) pair of an object. Order is preserved:
// object iteration and to_json both walk entries in insertion order,
// per spec §3's invariant that "insertion order is preserved and
// observable in JSON output".
type objEntry struct {
	Key string
	Val *Value
}

// Value is the tagged union. Only the field(s) matching Kind are
// meaningful; this mirrors a C union's "ask the tag before you touch
// the payload" discipline, expressed in Go as a struct with unused
// zero-valued fields for the non-active variants.
type Value struct {
	Kind Type

	b   bool
	i   int64
	u   uint64
	f64 float64

	str string

	buf       []byte
	bufOwned  bool

	ptr    any
	ptrOps PtrOps

	arr []*Value
	obj []objEntry
}

// --- constructors -----------------------------------------------------

func NewNull() *Value { return &Value{Kind: Null} }
func NewBool(b bool) *Value { return &Value{Kind: Bool, b: b} }

func NewInt8(v int8) *Value   { return &Value{Kind: Int8, i: int64(v)} }
func NewInt16(v int16) *Value { return &Value{Kind: Int16, i: int64(v)} }
func NewInt32(v int32) *Value { return &Value{Kind: Int32, i: int64(v)} }
func NewInt64(v int64) *Value { return &Value{Kind: Int64, i: v} }

func NewUint8(v uint8) *Value   { return &Value{Kind: Uint8, u: uint64(v)} }
func NewUint16(v uint16) *Value { return &Value{Kind: Uint16, u: uint64(v)} }
func NewUint32(v uint32) *Value { return &Value{Kind: Uint32, u: uint64(v)} }
func NewUint64(v uint64) *Value { return &Value{Kind: Uint64, u: v} }

func NewFloat32(v float32) *Value { return &Value{Kind: Float32, f64: float64(v)} }
func NewFloat64(v float64) *Value { return &Value{Kind: Float64, f64: v} }

func NewString(s string) *Value { return &Value{Kind: String, str: s} }

// NewBufOwned takes ownership of b; Destroy will not attempt to free it
// beyond letting the GC reclaim it (Go has no manual free, but the
// owned/unowned distinction still matters for Clone: an owned buf is
// deep-copied, an unowned one is shared, matching spec §3's "ownership
// is explicit" invariant and the caller's expectation that an unowned
// buffer's backing array outlives the Value).
func NewBufOwned(b []byte) *Value { return &Value{Kind: Buf, buf: b, bufOwned: true} }

// NewBufUnowned wraps b without taking ownership; the caller must keep
// b alive and must not mutate it concurrently with readers of this
// Value.
func NewBufUnowned(b []byte) *Value { return &Value{Kind: Buf, buf: b, bufOwned: false} }

// NewPtr wraps an opaque foreign handle. ops may be nil, in which case
// Clone duplicates the raw interface value and Destroy is a no-op.
func NewPtr(p any, ops PtrOps) *Value { return &Value{Kind: Ptr, ptr: p, ptrOps: ops} }

func NewArray(items ...*Value) *Value {
	return &Value{Kind: Array, arr: append([]*Value{}, items...)}
}

func NewObject() *Value { return &Value{Kind: Object, obj: nil} }

// --- classification -----------------------------------------------------

func (v *Value) IsInvalid() bool { return v == nil || v.Kind == Invalid }
func (v *Value) IsNull() bool    { return v != nil && v.Kind == Null }
func (v *Value) IsBool() bool    { return v != nil && v.Kind == Bool }
func (v *Value) IsNumber() bool  { return v != nil && v.Kind.IsNumeric() }
func (v *Value) IsString() bool  { return v != nil && v.Kind == String }
func (v *Value) IsBuf() bool     { return v != nil && v.Kind == Buf }
func (v *Value) IsPtr() bool     { return v != nil && v.Kind == Ptr }
func (v *Value) IsArray() bool   { return v != nil && v.Kind == Array }
func (v *Value) IsObject() bool  { return v != nil && v.Kind == Object }

// --- peek (borrow, no copy) ---------------------------------------------

// PeekRawStr borrows the underlying string; the borrow's lifetime is
// tied to v, per spec §4.1.
func (v *Value) PeekRawStr() (string, bool) {
	if v == nil || v.Kind != String {
		return "", false
	}
	return v.str, true
}

func (v *Value) PeekBuf() ([]byte, bool) {
	if v == nil || v.Kind != Buf {
		return nil, false
	}
	return v.buf, true
}

func (v *Value) PeekArray() ([]*Value, bool) {
	if v == nil || v.Kind != Array {
		return nil, false
	}
	return v.arr, true
}

// PeekObject borrows the ordered (key, Value) pairs.
func (v *Value) PeekObject() ([]ObjectEntry, bool) {
	if v == nil || v.Kind != Object {
		return nil, false
	}
	out := make([]ObjectEntry, len(v.obj))
	for i, e := range v.obj {
		out[i] = ObjectEntry{Key: e.Key, Val: e.Val}
	}
	return out, true
}

// ObjectEntry is the public, read-only view of an object slot.
type ObjectEntry struct {
	Key string
	Val *Value
}

// PeekPtr borrows the opaque foreign handle.
func (v *Value) PeekPtr() (any, bool) {
	if v == nil || v.Kind != Ptr {
		return nil, false
	}
	return v.ptr, true
}

// --- object operations ---------------------------------------------------

// ObjectPeek does a linear scan of the object's entries, matching spec
// §4.1's "linear scan of object list" contract (objects are small
// property trees, not large indexes — O(n) is the right trade-off,
// same call the teacher's own GossipMessage/PeerCapability structs make
// implicitly by being flat structs rather than maps).
func (v *Value) ObjectPeek(key string) (*Value, bool) {
	if v == nil || v.Kind != Object {
		return nil, false
	}
	for _, e := range v.obj {
		if e.Key == key {
			return e.Val, true
		}
	}
	return nil, false
}

// ObjectMove moves ownership of child into v under key, replacing any
// existing entry with that key (spec §4.1: "replaces any existing
// entry").
func (v *Value) ObjectMove(key string, child *Value) error {
	if v == nil || v.Kind != Object {
		return fmt.Errorf("value: ObjectMove on non-object Value")
	}
	for i, e := range v.obj {
		if e.Key == key {
			v.obj[i].Val = child
			return nil
		}
	}
	v.obj = append(v.obj, objEntry{Key: key, Val: child})
	return nil
}

// ObjectKeys returns the keys in insertion order.
func (v *Value) ObjectKeys() []string {
	if v == nil || v.Kind != Object {
		return nil
	}
	out := make([]string, len(v.obj))
	for i, e := range v.obj {
		out[i] = e.Key
	}
	return out
}

// ArrayAppend appends child to an array Value, taking ownership.
func (v *Value) ArrayAppend(child *Value) error {
	if v == nil || v.Kind != Array {
		return fmt.Errorf("value: ArrayAppend on non-array Value")
	}
	v.arr = append(v.arr, child)
	return nil
}

// ArrayLen returns the number of elements, or -1 if v is not an array.
func (v *Value) ArrayLen() int {
	if v == nil || v.Kind != Array {
		return -1
	}
	return len(v.arr)
}

// --- lifecycle -----------------------------------------------------------

// Clone deep-copies v: strings, buffers, arrays and objects are copied
// recursively; buf follows its ownership flag (an owned buf is
// duplicated, an unowned buf keeps sharing the same backing array,
// since the Value never owned it to begin with); ptr defers to its Ops,
// defaulting to sharing the raw handle.
func (v *Value) Clone() (*Value, error) {
	if v == nil {
		return nil, nil
	}
	cp := &Value{Kind: v.Kind, b: v.b, i: v.i, u: v.u, f64: v.f64, str: v.str}
	switch v.Kind {
	case Buf:
		cp.bufOwned = v.bufOwned
		if v.bufOwned {
			cp.buf = append([]byte(nil), v.buf...)
		} else {
			cp.buf = v.buf
		}
	case Ptr:
		cp.ptrOps = v.ptrOps
		if v.ptrOps != nil {
			copied, err := v.ptrOps.Copy(v.ptr)
			if err != nil {
				return nil, fmt.Errorf("value: clone ptr: %w", err)
			}
			cp.ptr = copied
		} else {
			cp.ptr = v.ptr
		}
	case Array:
		cp.arr = make([]*Value, len(v.arr))
		for i, e := range v.arr {
			c, err := e.Clone()
			if err != nil {
				return nil, err
			}
			cp.arr[i] = c
		}
	case Object:
		cp.obj = make([]objEntry, len(v.obj))
		for i, e := range v.obj {
			c, err := e.Val.Clone()
			if err != nil {
				return nil, err
			}
			cp.obj[i] = objEntry{Key: e.Key, Val: c}
		}
	}
	return cp, nil
}

// Destroy recursively releases owned children. For a ptr Value it
// invokes the registered destructor exactly once; calling Destroy twice
// on the same *Value is a caller bug (same discipline the original C
// ten_value_destroy documents) but is made idempotent here by nilling
// ptrOps after the first call, since a stray double-Destroy in Go (e.g.
// via two holders of the same pointer) must not double-free a foreign
// resource.
func (v *Value) Destroy() {
	if v == nil {
		return
	}
	switch v.Kind {
	case Ptr:
		if v.ptrOps != nil {
			v.ptrOps.Destroy(v.ptr)
			v.ptrOps = nil
		}
		v.ptr = nil
	case Array:
		for _, e := range v.arr {
			e.Destroy()
		}
		v.arr = nil
	case Object:
		for _, e := range v.obj {
			e.Val.Destroy()
		}
		v.obj = nil
	}
	v.Kind = Invalid
}

// Assign overwrites v's contents with other's, in place. This lets
// callers (notably kernel/schema's Adjust) replace a Value's tag and
// payload without needing a new pointer — useful when the Value is
// reachable from multiple places (an object entry, an array slot) that
// all need to observe the adjusted tag.
func (v *Value) Assign(other *Value) {
	if v == nil || other == nil {
		return
	}
	*v = *other
}

// MergeObjectWithClone overwrites dst's entries with deep clones of
// src's entries, key by key (spec §4.1: "no deep recursive merge
// required").
func MergeObjectWithClone(dst, src *Value) error {
	if dst == nil || dst.Kind != Object || src == nil || src.Kind != Object {
		return fmt.Errorf("value: MergeObjectWithClone requires two object Values")
	}
	for _, e := range src.obj {
		c, err := e.Val.Clone()
		if err != nil {
			return err
		}
		if err := dst.ObjectMove(e.Key, c); err != nil {
			return err
		}
	}
	return nil
}

// MergeObjectWithMove moves src's entries into dst, key by key, leaving
// src empty. Unlike the with-clone variant this does not allocate new
// copies of src's children.
func MergeObjectWithMove(dst, src *Value) error {
	if dst == nil || dst.Kind != Object || src == nil || src.Kind != Object {
		return fmt.Errorf("value: MergeObjectWithMove requires two object Values")
	}
	for _, e := range src.obj {
		if err := dst.ObjectMove(e.Key, e.Val); err != nil {
			return err
		}
	}
	src.obj = nil
	return nil
}
