// Package stream fans board changes out to live subscribers, locally and
// across instances through Redis pub/sub.
package stream

import (
	"context"
	"sync"

	"kanban/domain"
)

// Broker keeps the open subscriptions of every user and pushes the latest
// board to each of them. Slow subscribers only ever see the newest board.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan []byte]struct{})}
}

// Subscribe registers a subscriber for userID. The returned func must be
// called to release it.
func (b *Broker) Subscribe(userID string) (<-chan []byte, func()) {
	ch := make(chan []byte, 1)
	b.mu.Lock()
	set, ok := b.subs[userID]
	if !ok {
		set = make(map[chan []byte]struct{})
		b.subs[userID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			cur := b.subs[userID]
			delete(cur, ch)
			if len(cur) == 0 {
				delete(b.subs, userID)
			}
			b.mu.Unlock()
		})
	}
}

// Subscribers reports how many subscriptions userID has open.
func (b *Broker) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

// Broadcast delivers data to every subscriber of userID, replacing any
// undelivered value.
func (b *Broker) Broadcast(userID string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- data:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- data:
		default:
		}
	}
}

// Publish broadcasts the board carried by ev. Events without a board are
// ignored.
func (b *Broker) Publish(_ context.Context, ev domain.BoardEvent) error {
	if ev.Board == nil {
		return nil
	}
	data, err := domain.EncodeBoard(*ev.Board)
	if err != nil {
		return err
	}
	b.Broadcast(ev.UserID, data)
	return nil
}
