package sse_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/sse"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
)

func waitForClients(t *testing.T, h *sse.SSEHandler, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSSEHandler_StreamsDispatchedEvents(t *testing.T) {
	handler := sse.NewSSEHandler()
	dispatcher := events.NewEventDispatcher()
	dispatcher.Register(handler.Registration())

	server := httptest.NewServer(handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET", server.URL+"?types="+events.EventTypeFeedbackReady, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", resp.Header.Get("Content-Type"))
	}
	waitForClients(t, handler, 1)

	// Filtered out.
	_ = dispatcher.Dispatch(ctx, &events.DraftReady{BaseEvent: events.NewBaseEvent(events.EventTypeDraftReady, "doc-1")})
	ready := &events.FeedbackReady{BaseEvent: events.NewBaseEvent(events.EventTypeFeedbackReady, "doc-1"), Score: 7}
	if err := dispatcher.Dispatch(ctx, ready); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	if lines[0] != "id: "+ready.ID {
		t.Errorf("unexpected id line %q", lines[0])
	}
	if lines[1] != "event: feedback.ready" {
		t.Errorf("expected the draft event to be filtered, got %q", lines[1])
	}
	if !strings.Contains(lines[2], `"score":7`) || !strings.Contains(lines[2], `"document_id":"doc-1"`) {
		t.Errorf("unexpected data line %q", lines[2])
	}
}

func TestSSEHandler_DropsClientOnDisconnect(t *testing.T) {
	handler := sse.NewSSEHandler()
	server := httptest.NewServer(handler)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, "GET", server.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForClients(t, handler, 1)

	cancel()
	_ = resp.Body.Close()
	waitForClients(t, handler, 0)
}
