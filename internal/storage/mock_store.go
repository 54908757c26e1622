package storage

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory FileStore for tests and dry runs.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
	times map[string]time.Time
	seq   int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[string][]byte),
		times: make(map[string]time.Time),
	}
}

// Write saves a copy of data, always overwriting.
func (m *MemoryStore) Write(name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[name] = append([]byte(nil), data...)
	// Monotonic fake times keep List ordering stable.
	m.seq++
	m.times[name] = time.Unix(int64(m.seq), 0)
	return name, nil
}

// WriteStream saves data from a reader.
func (m *MemoryStore) WriteStream(name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return m.Write(name, data)
}

// Read retrieves file contents.
func (m *MemoryStore) Read(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return append([]byte(nil), data...), nil
}

// Delete removes a file.
func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.files, name)
	delete(m.times, name)
	return nil
}

// List returns the stored files, newest first.
func (m *MemoryStore) List() ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, 0, len(m.files))
	for name, data := range m.files {
		files = append(files, FileInfo{Name: name, Size: int64(len(data)), ModTime: m.times[name]})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Path returns a pseudo location.
func (m *MemoryStore) Path(name string) string {
	return "memory://" + name
}
