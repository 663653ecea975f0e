// Package kv abstracts the persistent key-value storage the schedule and
// assessment caches are written to. Backends range from an in-process map
// to Redis and Postgres so the same cache logic serves embedded, kiosk,
// and shared-host deployments.
package kv

import (
	"errors"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get when a key has never been set or was
// deleted. Backend failures are returned as distinct errors.
var ErrNotFound = errors.New("kv: key not found")

// Store is the port the cache layer talks to.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	// Keys returns every stored key with the given prefix, in no
	// particular order.
	Keys(prefix string) ([]string, error)
}

// Memory is a map-backed store for tests and single-run usage.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
