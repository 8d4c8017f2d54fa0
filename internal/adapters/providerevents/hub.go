package providerevents

// Package providerevents fans session transitions out to subscribers on behalf of identity providers.

import (
	"sync"

	"github.com/google/uuid"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

// Hub is a synchronous publisher of ports.SessionEvent values.
// Handlers run on the publishing goroutine, in subscription order.
// It is safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	order    []string
	handlers map[string]func(ports.SessionEvent)
}

var _ ports.Subscription = (*subscription)(nil)

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{handlers: make(map[string]func(ports.SessionEvent))}
}

// Subscribe registers fn and returns its subscription.
func (h *Hub) Subscribe(fn func(ports.SessionEvent)) ports.Subscription {
	id := uuid.NewString()

	h.mu.Lock()
	h.handlers[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	return &subscription{hub: h, id: id}
}

// Publish delivers ev to every current subscriber.
func (h *Hub) Publish(ev ports.SessionEvent) {
	h.mu.Lock()
	fns := make([]func(ports.SessionEvent), 0, len(h.order))
	for _, id := range h.order {
		if fn, ok := h.handlers[id]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

type subscription struct {
	hub  *Hub
	id   string
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.hub.remove(s.id) })
}
