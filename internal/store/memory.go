package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Memory is an in-process Store used by tests and single-node dev runs.
// Expiry is evaluated lazily on read against the Now hook, so tests can
// simulate TTL lapses without sleeping.
type Memory struct {
	mu      sync.Mutex
	items   map[string]memoryItem
	indexes map[string]map[string]float64

	// Now is the clock used for TTL checks; override in tests.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items:   make(map[string]memoryItem),
		indexes: make(map[string]map[string]float64),
		Now:     time.Now,
	}
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = m.Now().Add(ttl)
	}
	m.items[key] = item
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !item.expiresAt.IsZero() && m.Now().After(item.expiresAt) {
		delete(m.items, key)
		return nil, ErrNotFound
	}
	return append([]byte(nil), item.value...), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory) AddToIndex(_ context.Context, indexKey, member string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.indexes[indexKey]
	if !ok {
		idx = make(map[string]float64)
		m.indexes[indexKey] = idx
	}
	idx[member] = score
	return nil
}

func (m *Memory) RemoveFromIndex(_ context.Context, indexKey, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.indexes[indexKey]; ok {
		delete(idx, member)
	}
	return nil
}

func (m *Memory) RangeIndex(_ context.Context, indexKey string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexes[indexKey]
	members := make([]string, 0, len(idx))
	for member := range idx {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		if idx[members[i]] != idx[members[j]] {
			return idx[members[i]] < idx[members[j]]
		}
		return members[i] < members[j]
	})
	return members, nil
}

func (m *Memory) SetIndexTTL(_ context.Context, _ string, _ time.Duration) error {
	// Index expiry is a production housekeeping concern; the in-memory
	// store keeps indexes until removed.
	return nil
}
