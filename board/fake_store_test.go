package board

import (
	"context"
	"errors"
	"sync"

	"kanban/domain"
)

type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
	loads   int
	saves   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Load(_ context.Context, key string) (domain.Board, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return domain.Board{}, false, f.loadErr
	}
	raw, ok := f.data[key]
	if !ok {
		return domain.Board{}, false, nil
	}
	b, err := domain.DecodeBoard(raw)
	return b, err == nil, err
}

func (f *fakeStore) Save(_ context.Context, key string, b domain.Board) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := domain.EncodeBoard(b)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeStore) raw(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.data[key])
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.BoardEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.BoardEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Events() []domain.BoardEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.BoardEvent(nil), p.events...)
}

var errBoom = errors.New("boom")
