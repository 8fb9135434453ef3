package storage

import (
	"context"
	"sync"
)

// MemoryLocal is an in-memory implementation of LocalInterface.
// It backs guest sessions, which never outlive the process, and tests.
type MemoryLocal struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryLocal creates a new, empty in-memory local store.
func NewMemoryLocal() *MemoryLocal {
	return &MemoryLocal{values: make(map[string][]byte)}
}

// Disconnect is a no-op for the in-memory store.
func (m *MemoryLocal) Disconnect() error {
	return nil
}

// Set stores a copy of value under the given key.
func (m *MemoryLocal) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(value))
	copy(buf, value)
	m.values[key] = buf
	return nil
}

// Get retrieves the value of a given key, or ErrNotFound.
func (m *MemoryLocal) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	return buf, nil
}

// Delete removes the value stored under the given key, if any.
func (m *MemoryLocal) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
