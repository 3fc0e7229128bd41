package broadcast

import (
	"context"
	"log/slog"
	"sync"
)

// Hub is the in-process observer registry.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// Subscription receives events on C until it is closed, either by the
// observer or by the hub when the observer falls behind.
type Subscription struct {
	id   uint64
	ch   chan Event
	hub  *Hub
	once sync.Once
	// C is closed when the subscription ends.
	C <-chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers an observer with room for buffer pending events.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &Subscription{id: h.nextID, ch: ch, hub: h, C: ch}
	h.subs[sub.id] = sub
	return sub
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	s.once.Do(func() {
		delete(s.hub.subs, s.id)
		close(s.ch)
	})
}

// Publish hands ev to every subscriber without blocking. An observer whose
// buffer is full is disconnected rather than skipped, so a stream is never
// silently missing an event; the observer reconnects and refetches.
func (h *Hub) Publish(_ context.Context, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			slog.Warn("observer too slow, disconnecting", "subscription", sub.id, "event", ev.Kind)
			sub.closeLocked()
		}
	}
}

// Len is the number of connected observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
