package state

import (
	"errors"
	"sort"
	"sync"
)

// MockStore is an in-memory Store. It backs the memory backend and tests.
type MockStore struct {
	mu     sync.RWMutex
	values map[string][]byte

	// Failure injection
	failGet error
	failSet error
	writes  int
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		values: make(map[string][]byte),
	}
}

// Get returns a copy of the stored value.
func (m *MockStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failGet != nil {
		return nil, unavailable("read", key, m.failGet)
	}

	if value, ok := m.values[key]; ok {
		return append([]byte(nil), value...), nil
	}

	return nil, ErrNotFound
}

// Set stores a copy of value.
func (m *MockStore) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSet != nil {
		return unavailable("write", key, m.failSet)
	}

	m.values[key] = append([]byte{}, value...)
	m.writes++
	return nil
}

// Remove deletes key.
func (m *MockStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSet != nil {
		return unavailable("remove", key, m.failSet)
	}

	delete(m.values, key)
	return nil
}

// Keys returns all stored keys.
func (m *MockStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Migrate copies every key into target.
func (m *MockStore) Migrate(target Store) error {
	keys, _ := m.Keys()
	for _, key := range keys {
		value, err := m.Get(key)
		if err != nil {
			continue
		}
		if err := target.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Helper methods for testing

// FailWrites makes Set and Remove fail with err until cleared with nil.
func (m *MockStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = err
}

// FailReads makes Get fail with err until cleared with nil.
func (m *MockStore) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGet = err
}

// Writes reports the number of successful Set calls.
func (m *MockStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Put stores raw bytes directly (for test setup).
func (m *MockStore) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Clear removes all values.
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string][]byte)
}

// ErrInjected is a convenience failure for FailWrites and FailReads.
var ErrInjected = errors.New("injected failure")
