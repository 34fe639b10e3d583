package kvstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/starford/speeddial/internal/apperr"
)

// Memory is an in-process Store for tests and ephemeral runs.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int64
	closed bool
}

// NewMemory creates an empty Memory store. A quota of zero disables the size check.
func NewMemory(quota int64) *Memory {
	return &Memory{values: map[string]string{}, quota: quota}
}

func (m *Memory) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, fmt.Errorf("kvstore: load %s: %w", key, apperr.ErrStoreUnavailable)
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Save(_ context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("kvstore: save %s: %w", key, apperr.ErrStoreUnavailable)
	}
	var others int64
	for k, v := range m.values {
		if k != key {
			others += int64(len(v))
		}
	}
	if err := checkQuota(m.quota, others, key, value); err != nil {
		return err
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

// Close marks the store unavailable; later calls fail with apperr.ErrStoreUnavailable.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("kvstore: keys: %w", apperr.ErrStoreUnavailable)
	}
	return slices.Sorted(maps.Keys(m.values)), nil
}
