package usage

import (
	"context"
	"sync"
)

// MemStore is an in-memory CounterStore. It is the standard backend for local
// development and tests, playing the role the browser's local storage played
// in the original product.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]int
}

// NewMemStore creates an empty in-memory counter store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]int)}
}

var _ CounterStore = (*MemStore)(nil)

// Read returns the count for the key, or 0 if absent.
func (m *MemStore) Read(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

// Increment adds one to the key's count and returns the new value.
func (m *MemStore) Increment(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key]++
	return m.entries[key], nil
}

// Delete removes the given keys.
func (m *MemStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

// PruneBefore removes entries whose embedded day sorts before the cutoff.
// The dayLayout format makes lexicographic comparison equivalent to date
// comparison.
func (m *MemStore) PruneBefore(_ context.Context, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key := range m.entries {
		if d, ok := DayFromKey(key); ok && d < day {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored entries. Used by tests and the compactor's
// log output in local mode.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
