// Package sse streams subscription events to Server-Sent Events clients.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/waypoint/pkg/constants"
)

// Broadcaster manages Server-Sent Events connections.
type Broadcaster struct {
	clients map[chan Event]struct{}
	events  chan Event
	done    chan struct{}
	stopped bool
	mu      sync.RWMutex
	logger  *zerolog.Logger
}

// Event is a single SSE frame.
type Event struct {
	Event string `json:"event,omitempty"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data"`
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan Event]struct{}),
		events:  make(chan Event, constants.EventBufferSize),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Run starts the broadcaster loop and blocks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			b.stopped = true
			for client := range b.clients {
				close(client)
			}
			b.clients = make(map[chan Event]struct{})
			close(b.done)
			b.mu.Unlock()
			b.logger.Info().Msg("SSE broadcaster shut down")
			return

		case event := <-b.events:
			b.mu.RLock()
			for client := range b.clients {
				select {
				case client <- event:
				default:
					b.logger.Warn().Str("event", event.Event).Msg("SSE client buffer full, event skipped")
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Broadcast queues an event for every connected client. Events sent after
// shutdown are dropped.
func (b *Broadcaster) Broadcast(event Event) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.events <- event:
	default:
		b.logger.Warn().Str("event", event.Event).Msg("SSE broadcast channel full, event dropped")
	}
}

// ClientCount returns the number of connected SSE clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams events to the client until it disconnects or the
// broadcaster shuts down.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := make(chan Event, constants.ClientBufferSize)
	if !b.register(client) {
		http.Error(w, "Event stream shutting down", http.StatusServiceUnavailable)
		return
	}
	defer b.unregister(client)

	b.writeEvent(w, flusher, Event{
		Event: "connected",
		Data: map[string]any{
			"message":   "Connected to waypoint event stream",
			"timestamp": time.Now().UTC(),
		},
	})

	for {
		select {
		case event, open := <-client:
			if !open {
				return
			}
			b.writeEvent(w, flusher, event)

		case <-r.Context().Done():
			return
		}
	}
}

// register adds client unless the broadcaster has shut down.
func (b *Broadcaster) register(client chan Event) bool {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return false
	}
	b.clients[client] = struct{}{}
	total := len(b.clients)
	b.mu.Unlock()

	b.logger.Info().Int("total_clients", total).Msg("SSE client connected")
	return true
}

// unregister removes client and closes it if it is still held.
func (b *Broadcaster) unregister(client chan Event) {
	b.mu.Lock()
	_, ok := b.clients[client]
	if ok {
		delete(b.clients, client)
		close(client)
	}
	total := len(b.clients)
	b.mu.Unlock()

	if ok {
		b.logger.Info().Int("total_clients", total).Msg("SSE client disconnected")
	}
}

// writeEvent writes one SSE frame and flushes it.
func (b *Broadcaster) writeEvent(w http.ResponseWriter, flusher http.Flusher, event Event) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		b.logger.Error().Err(err).Str("event", event.Event).Msg("Failed to marshal SSE event data")
		return
	}

	if event.Event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event.Event)
	}
	if event.ID != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", event.ID)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
