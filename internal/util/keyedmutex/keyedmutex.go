// Package keyedmutex serialises work per string key. Entries are reference
// counted and dropped once no goroutine holds or waits on them.
package keyedmutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Mutex is a set of locks addressed by key. The zero value is ready to use.
type Mutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Lock acquires the lock for key and returns its release function.
func (m *Mutex) Lock(key string) (unlock func()) {
	m.mu.Lock()
	if m.entries == nil {
		m.entries = make(map[string]*entry)
	}
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		m.mu.Lock()
		e.refs--
		if e.refs == 0 && m.entries[key] == e {
			delete(m.entries, key)
		}
		m.mu.Unlock()
	}
}

// Do runs fn while holding the lock for key.
func (m *Mutex) Do(key string, fn func() error) error {
	unlock := m.Lock(key)
	defer unlock()
	return fn()
}

// Len returns the number of live keys.
func (m *Mutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
