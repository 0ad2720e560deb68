// Package sse provides Server-Sent Events streaming for essaycoach events.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
)

// frame is one encoded event ready for the wire.
type frame struct {
	id        string
	eventType string
	data      []byte
}

// SSEHandler streams dispatched events via Server-Sent Events.
type SSEHandler struct {
	mu      sync.RWMutex
	clients map[chan frame]struct{}
}

// NewSSEHandler creates a handler. Register its Registration with a
// dispatcher to feed it.
func NewSSEHandler() *SSEHandler {
	return &SSEHandler{clients: make(map[chan frame]struct{})}
}

// Handle broadcasts event to every connected client.
func (h *SSEHandler) Handle(_ context.Context, event events.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.EventType(), err)
	}
	f := frame{eventType: event.EventType(), data: data}
	if env, ok := event.(events.Envelope); ok {
		f.id = env.Base().ID
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- f:
		default:
			// Drop if client is slow
		}
	}
	return nil
}

// Registration subscribes the handler to every event type.
func (h *SSEHandler) Registration() events.HandlerRegistration {
	return events.HandlerRegistration{
		Name:       "SSEHandler",
		Handler:    h.Handle,
		EventTypes: []string{"*"},
	}
}

// Clients returns the number of connected streams.
func (h *SSEHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles SSE connections. The optional types query parameter
// is a comma-separated event type filter.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	typeFilter := make(map[string]bool)
	if types := r.URL.Query().Get("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			typeFilter[strings.TrimSpace(t)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := make(chan frame, 64)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-ch:
			if len(typeFilter) > 0 && !typeFilter[f.eventType] {
				continue
			}
			if f.id != "" {
				_, _ = fmt.Fprintf(w, "id: %s\n", f.id)
			}
			_, _ = fmt.Fprintf(w, "event: %s\n", f.eventType)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", f.data)
			flusher.Flush()
		}
	}
}
