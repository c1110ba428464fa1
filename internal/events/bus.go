package events

import (
	"sync"
	"time"
)

// Handler processes a single event
type Handler func(Event)

// Bus distributes events to subscribed handlers.
// Dispatch is synchronous and in subscription order, matching the
// strictly sequential pipeline: there is never more than one unit in
// flight, so handlers need no internal ordering guarantees beyond this.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	closed   bool
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events
func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Emit stamps the event time and dispatches it to all handlers
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	e.Time = time.Now()
	for _, h := range handlers {
		h(e)
	}
}

// Close stops dispatch; further Emit calls are dropped
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
