package repository

import (
	"context"
	"errors"
	"sync"
)

// ErrStorageUnavailable is returned by MemoryKV while failing is set.
var ErrStorageUnavailable = errors.New("storage unavailable")

// MemoryKV is an in-process KVStore. SetFailing makes every call fail,
// which is how storage faults are simulated.
type MemoryKV struct {
	mu      sync.Mutex
	data    map[string]string
	failing bool
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

var _ KVStore = (*MemoryKV)(nil)

// SetFailing toggles simulated storage faults.
func (m *MemoryKV) SetFailing(failing bool) {
	m.mu.Lock()
	m.failing = failing
	m.mu.Unlock()
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return "", false, ErrStorageUnavailable
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return ErrStorageUnavailable
	}
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return ErrStorageUnavailable
	}
	delete(m.data, key)
	return nil
}
