package cache

import (
	"context"
	"sync"
)

const DefaultMemoryEntries = 256

// Memory is an in-process cache holding at most Size entries. The oldest
// entry is evicted first.
type Memory struct {
	mu    sync.Mutex
	size  int
	data  map[string][]byte
	order []string
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	return &Memory{
		size: size,
		data: make(map[string][]byte),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[key]; !ok {
		m.order = append(m.order, key)
		for len(m.order) > m.size {
			delete(m.data, m.order[0])
			m.order = m.order[1:]
		}
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
