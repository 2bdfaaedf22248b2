package storage

import (
	"context"
	"sync"

	"kanban/domain"
)

// Memory keeps boards in process memory. Values are stored serialized so
// callers never share slices with the store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) (domain.Board, bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return domain.Board{}, false, nil
	}
	b, err := domain.DecodeBoard(raw)
	if err != nil {
		return domain.Board{}, false, err
	}
	return b, true, nil
}

func (m *Memory) Save(_ context.Context, key string, b domain.Board) error {
	raw, err := domain.EncodeBoard(b)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}
