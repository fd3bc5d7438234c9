// Package sse streams bus events to clients that cannot hold a websocket,
// as Server-Sent Events.
//
//	broker := sse.NewBroker()
//	bus.Listen("*", func(ev event.Event) { broker.Publish(ev.Type, ev) })
//	router.Get("/api/events", "events", broker.ServeHTTP)
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mercadobetel/pdv/pkg/logger"
)

const keepAlive = 25 * time.Second

// Message is one event queued for a subscriber.
type Message struct {
	Event string
	Data  []byte
}

// Stream writes SSE frames to one client.
type Stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// New sets the SSE headers. It fails when the writer cannot flush.
func New(w http.ResponseWriter) (*Stream, error) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("sse: flush unsupported: %w", err)
	}
	return &Stream{w: w, rc: rc}, nil
}

// Send writes a named event with a pre-encoded JSON payload.
func (s *Stream) Send(m Message) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", m.Event, m.Data); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Comment writes an SSE comment, used as a keepalive heartbeat.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Broker fans published events out to every open stream. Slow subscribers
// lose messages instead of blocking the publisher.
type Broker struct {
	mu     sync.Mutex
	subs   map[chan Message]struct{}
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: map[chan Message]struct{}{}}
}

// Subscribe returns a message channel and the func that closes it.
func (b *Broker) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, 32)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
}

// Close ends every open stream. Later subscribers get a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Subscribers counts the open streams.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish encodes data as JSON and queues it under event for every stream.
func (b *Broker) Publish(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Error("sse: encode event", "event", event, "error", err)
		return
	}
	m := Message{Event: event, Data: payload}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- m:
		default:
		}
	}
}

// ServeHTTP holds the connection open and relays events until the client
// goes away.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stream, err := New(w)
	if err != nil {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}
	ch, cancel := b.Subscribe()
	defer cancel()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			if err := stream.Send(m); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.Comment("ping"); err != nil {
				return
			}
		}
	}
}
