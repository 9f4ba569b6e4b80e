// Package broadcast delivers value changes to registered listeners.
package broadcast

import "sync"

type listener[T any] struct {
	id uint64
	fn func(T)
}

// Hub publishes values of type T to its subscribers. Publishing a value equal
// to the last published one is a no-op. Listeners run on the publishing
// goroutine, in subscription order, outside the hub's lock.
type Hub[T comparable] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []listener[T]
	last      T
	published bool
}

// Subscription removes a listener from its hub.
type Subscription struct {
	remove func()
}

// Remove unregisters the listener. It is safe to call more than once and on
// the zero Subscription.
func (s Subscription) Remove() {
	if s.remove != nil {
		s.remove()
	}
}

// Subscribe registers fn for every future change.
func (h *Hub[T]) Subscribe(fn func(T)) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, listener[T]{id: id, fn: fn})
	return Subscription{remove: func() { h.unsubscribe(id) }}
}

func (h *Hub[T]) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, l := range h.listeners {
		if l.id == id {
			h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
			return
		}
	}
}

// Publish records v and delivers it when it differs from the last published
// value. It reports whether listeners were notified.
func (h *Hub[T]) Publish(v T) bool {
	h.mu.Lock()
	if h.published && h.last == v {
		h.mu.Unlock()
		return false
	}
	h.last, h.published = v, true
	listeners := h.listeners
	h.mu.Unlock()

	for _, l := range listeners {
		l.fn(v)
	}
	return true
}

// Last returns the last published value.
func (h *Hub[T]) Last() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.published
}

// Len returns the number of listeners.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Close drops every listener.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = nil
}
