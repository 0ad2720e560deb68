package events

import (
	"context"
	"fmt"
	"sync"
)

// EventHandlerFunc is a function that handles a domain event.
type EventHandlerFunc func(ctx context.Context, event DomainEvent) error

// HandlerRegistration binds a handler to the event types it consumes.
// The wildcard type "*" receives every event.
type HandlerRegistration struct {
	EventTypes []string
	Handler    EventHandlerFunc
	Name       string
}

type namedHandler struct {
	name    string
	handler EventHandlerFunc
}

// EventDispatcher dispatches domain events to registered handlers.
type EventDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	// ContinueOnError runs every handler and collects failures instead of
	// stopping at the first one.
	ContinueOnError bool
}

// NewEventDispatcher creates a new EventDispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{handlers: make(map[string][]namedHandler)}
}

// Register registers a handler for specific event types.
func (d *EventDispatcher) Register(reg HandlerRegistration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, eventType := range reg.EventTypes {
		d.handlers[eventType] = append(d.handlers[eventType], namedHandler{name: reg.Name, handler: reg.Handler})
	}
}

// RegisterHandler is a convenience method to register a single handler for event types.
func (d *EventDispatcher) RegisterHandler(name string, handler EventHandlerFunc, eventTypes ...string) {
	d.Register(HandlerRegistration{Name: name, Handler: handler, EventTypes: eventTypes})
}

// Dispatch delivers an event to the handlers for its type, then to wildcard handlers.
func (d *EventDispatcher) Dispatch(ctx context.Context, event DomainEvent) error {
	d.mu.RLock()
	eventType := event.EventType()
	handlers := make([]namedHandler, 0, len(d.handlers[eventType])+len(d.handlers["*"]))
	handlers = append(handlers, d.handlers[eventType]...)
	handlers = append(handlers, d.handlers["*"]...)
	continueOnError := d.ContinueOnError
	d.mu.RUnlock()

	var errs []error
	for _, nh := range handlers {
		if err := nh.handler(ctx, event); err != nil {
			handlerErr := fmt.Errorf("handler %s failed for event %s: %w", nh.name, eventType, err)
			if !continueOnError {
				return handlerErr
			}
			errs = append(errs, handlerErr)
		}
	}
	if len(errs) > 0 {
		return &DispatchError{Errors: errs}
	}
	return nil
}

// HasHandlers reports whether any handler would receive an event of the given type.
func (d *EventDispatcher) HasHandlers(eventType string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[eventType]) > 0 || len(d.handlers["*"]) > 0
}

// DispatchError contains multiple errors from event dispatch.
type DispatchError struct {
	Errors []error
}

func (e *DispatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple dispatch errors (%d)", len(e.Errors))
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *DispatchError) Unwrap() []error {
	return e.Errors
}
