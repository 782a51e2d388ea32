// Package rwphase implements a phase-fair reader/writer lock: once a
// writer is waiting, no new reader is admitted until that writer has
// run, so a steady stream of readers cannot starve a writer. Schema
// Store's read-heavy msg-schema maps (read on every message ingress,
// written rarely on set_schema_definition) use it in place of a plain
// sync.RWMutex.
package rwphase

import "sync"

// Mutex is a phase-fair reader/writer lock built on the
// waiter-registration/notify pattern the teacher's wait-free epoch
// primitive uses (kernel/threads/foundation/epoch.go's addWaiter /
// notifyWaiters): waiters register a channel and block on it instead
// of spinning on a condition variable.
type Mutex struct {
	mu sync.Mutex

	readers       int
	writerActive  bool
	writerWaiting int

	readerWaiters []chan struct{}
	writerWaiters []chan struct{}
}

// RLock blocks while a writer is active or waiting, then admits the
// reader.
func (m *Mutex) RLock() {
	m.mu.Lock()
	for m.writerActive || m.writerWaiting > 0 {
		ch := make(chan struct{})
		m.readerWaiters = append(m.readerWaiters, ch)
		m.mu.Unlock()
		<-ch
		m.mu.Lock()
	}
	m.readers++
	m.mu.Unlock()
}

// RUnlock releases the read lock, waking a waiting writer if this was
// the last active reader.
func (m *Mutex) RUnlock() {
	m.mu.Lock()
	m.readers--
	if m.readers == 0 {
		m.wakeNextWriter()
	}
	m.mu.Unlock()
}

// Lock blocks until no reader or writer holds the lock, then takes it
// for exclusive access. It registers as a waiting writer immediately,
// which is what blocks new readers from being admitted (the
// phase-fairness property).
func (m *Mutex) Lock() {
	m.mu.Lock()
	m.writerWaiting++
	for m.writerActive || m.readers > 0 {
		ch := make(chan struct{})
		m.writerWaiters = append(m.writerWaiters, ch)
		m.mu.Unlock()
		<-ch
		m.mu.Lock()
	}
	m.writerWaiting--
	m.writerActive = true
	m.mu.Unlock()
}

// Unlock releases the write lock, preferring to wake the next queued
// writer over the waiting readers so a burst of writers still drains
// in order; once no writer remains, all waiting readers are released
// together.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	m.writerActive = false
	if len(m.writerWaiters) > 0 {
		m.wakeNextWriter()
	} else {
		m.wakeAllReaders()
	}
	m.mu.Unlock()
}

// wakeNextWriter and wakeAllReaders must be called with m.mu held.
func (m *Mutex) wakeNextWriter() {
	if len(m.writerWaiters) == 0 {
		return
	}
	ch := m.writerWaiters[0]
	m.writerWaiters = m.writerWaiters[1:]
	close(ch)
}

func (m *Mutex) wakeAllReaders() {
	for _, ch := range m.readerWaiters {
		close(ch)
	}
	m.readerWaiters = nil
}
