// Package event provides the in-process bus that carries shell intents and
// data-change notifications.
package event

import (
	"sync"
)

// Kinds of events on the bus.
const (
	KindIntent = "intent"
	KindChange = "change"
)

// Event is what listeners receive. For intents Name is the menu intent; for
// changes it is the collection that changed.
type Event struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Register string `json:"register,omitempty"`
}

// Topic is the key listeners subscribe to: the event type and name joined
// by a colon, e.g. "intent:products" or "change:products".
func Topic(kind, name string) string { return kind + ":" + name }

// Topic returns the key this event is dispatched under.
func (e Event) Topic() string { return Topic(e.Type, e.Name) }

// Handler receives an event.
type Handler func(Event)

// Bus dispatches events to the listeners of their topic. A listener
// registered under "*" receives every event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for a topic (see Topic), or "*" for everything.
func (b *Bus) Listen(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Has reports whether anything listens to topic specifically.
func (b *Bus) Has(topic string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic]) > 0
}

func (b *Bus) listeners(topic string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, 0, len(b.handlers[topic])+len(b.handlers["*"]))
	hs = append(hs, b.handlers[topic]...)
	hs = append(hs, b.handlers["*"]...)
	return hs
}

// Fire dispatches ev synchronously to all listeners.
func (b *Bus) Fire(ev Event) {
	for _, h := range b.listeners(ev.Topic()) {
		h(ev)
	}
}

// FireAsync dispatches ev to all listeners concurrently and returns at once.
func (b *Bus) FireAsync(ev Event) {
	for _, h := range b.listeners(ev.Topic()) {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			h(ev)
		}(h)
	}
}

// Wait blocks until every FireAsync handler has returned.
func (b *Bus) Wait() { b.wg.Wait() }

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}
