// Package notifysvc fans change events out to connected sessions.
package notifysvc

import (
	"context"
	"sync"

	"github.com/specedu/caseboard/core"
)

// Subscription receives the events published after it was opened.
type Subscription <-chan core.Event

// Hub is an in-process, at-most-once event fan-out.
// A subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan core.Event]struct{}
	closed bool
}

var _ core.Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[chan core.Event]struct{})}
}

// Subscribe opens a subscription buffering up to size events.
func (h *Hub) Subscribe(size int) Subscription {
	if size < 1 {
		size = 1
	}
	ch := make(chan core.Event, size)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe closes the subscription.
func (h *Hub) Unsubscribe(sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		if Subscription(ch) == sub {
			delete(h.subs, ch)
			close(ch)
			return
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers evt to every subscriber without blocking.
func (h *Hub) Publish(evt core.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (h *Hub) Notify(_ context.Context, event string, payload interface{}) {
	h.Publish(core.Event{Name: event, Data: payload})
}

// Close closes every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	h.closed = true
}
