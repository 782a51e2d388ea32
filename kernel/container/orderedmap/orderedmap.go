// Package orderedmap is the generic insertion-ordered map DESIGN NOTES
// §9 prescribes in place of the original's intrusive open-addressed
// hash table (C6): O(1) add/find/del by a comparable key, plus
// in-order iteration over insertion order. The uthash-style bucket
// expansion heuristics are not needed — Go's map already amortizes
// that — so this type is just a map paired with an order slice, the
// same locking discipline kernel/core/mesh/routing/gossip.go applies
// to its own map[string]*T state.
package orderedmap

import "sync"

// Map is a concurrency-safe generic ordered map: K must be comparable,
// V is stored by pointer so callers can mutate in place after Find.
type Map[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*V
	order []K
}

func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{items: make(map[K]*V)}
}

// Add inserts or overwrites the value at key. Overwriting an existing
// key does not change its position in iteration order.
func (m *Map[K, V]) Add(key K, value *V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[key]; !exists {
		m.order = append(m.order, key)
	}
	m.items[key] = value
}

// Find returns the value at key and whether it was present.
func (m *Map[K, V]) Find(key K) (*V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

// Del removes key, if present.
func (m *Map[K, V]) Del(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; !ok {
		return
	}
	delete(m.items, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Keys returns the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]K, len(m.order))
	copy(out, m.order)
	return out
}

// Each iterates in insertion order, stopping early if fn returns false.
func (m *Map[K, V]) Each(fn func(key K, value *V) bool) {
	m.mu.RLock()
	keys := make([]K, len(m.order))
	copy(keys, m.order)
	m.mu.RUnlock()

	for _, k := range keys {
		m.mu.RLock()
		v, ok := m.items[k]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}

// Concatenate moves every entry of src into dst, preserving src's
// relative order appended after dst's existing entries (spec §4.6:
// "Concatenate moves all entries of one table into another").
func Concatenate[K comparable, V any](dst, src *Map[K, V]) {
	src.mu.Lock()
	keys := make([]K, len(src.order))
	copy(keys, src.order)
	items := src.items
	src.items = make(map[K]*V)
	src.order = nil
	src.mu.Unlock()

	dst.mu.Lock()
	defer dst.mu.Unlock()
	for _, k := range keys {
		if _, exists := dst.items[k]; !exists {
			dst.order = append(dst.order, k)
		}
		dst.items[k] = items[k]
	}
}
