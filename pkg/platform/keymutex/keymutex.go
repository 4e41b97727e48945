// Package keymutex serializes operations per key without a single global lock,
// so work on unrelated lots never contends.
package keymutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyMutex hands out one mutex per key. Entries are reference counted and
// removed once the last holder unlocks, keeping the map bounded by the number
// of in-flight operations rather than the number of keys ever seen.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[uint64]*entry
}

func New() *KeyMutex {
	return &KeyMutex{entries: make(map[uint64]*entry)}
}

// Lock acquires the mutex for key, blocking while another goroutine holds it.
func (k *KeyMutex) Lock(key uint64) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. Calling Unlock without a matching Lock
// panics, same as sync.Mutex.
func (k *KeyMutex) Unlock(key uint64) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("keymutex: unlock of unlocked key")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
