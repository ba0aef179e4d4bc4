package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu        sync.RWMutex
	responses map[string][]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{responses: make(map[string][]string)}
}

// Append implements Store.
func (m *Memory) Append(_ context.Context, requestID string, contents ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[requestID] = append(m.responses[requestID], contents...)
	return nil
}

// Count implements Store.
func (m *Memory) Count(_ context.Context, requestID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.responses[requestID]), nil
}

// Range implements Store.
func (m *Memory) Range(_ context.Context, requestID string, start, stop int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.responses[requestID]
	start, stop = clampRange(start, stop, len(list))

	out := make([]string, stop-start)
	copy(out, list[start:stop])
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
