package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/messaging"
)

type registeredAdapter struct {
	adapter messaging.MessageAdapter
	config  messaging.AdapterConfig
}

// Registry creates messaging adapters from configuration and forwards events to them.
type Registry struct {
	adapters    []registeredAdapter
	logger      *slog.Logger
	deadLetters *DeadLetterStore
}

// NewRegistry creates adapters from a MessagingConfig.
func NewRegistry(config *messaging.MessagingConfig, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config == nil {
		return &Registry{logger: logger}, nil
	}

	var adapters []registeredAdapter
	for _, cfg := range config.Adapters {
		if !cfg.Enabled {
			continue
		}

		adapter, err := createAdapter(cfg)
		if err != nil {
			return nil, fmt.Errorf("create adapter %q: %w", cfg.Name, err)
		}
		adapters = append(adapters, registeredAdapter{adapter: adapter, config: cfg})
	}

	return &Registry{adapters: adapters, logger: logger}, nil
}

// WithDeadLetters records failed deliveries in store.
func (r *Registry) WithDeadLetters(store *DeadLetterStore) *Registry {
	r.deadLetters = store
	return r
}

// Adapters returns all active adapters.
func (r *Registry) Adapters() []messaging.MessageAdapter {
	out := make([]messaging.MessageAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a.adapter)
	}
	return out
}

// Handle forwards an event to every adapter whose filters accept it.
// Delivery failures are logged; one failing channel does not block the others.
func (r *Registry) Handle(ctx context.Context, event events.DomainEvent) error {
	env, ok := event.(events.Envelope)
	if !ok {
		return nil
	}
	for _, a := range r.adapters {
		if !a.config.Accepts(event.EventType()) {
			continue
		}
		if err := a.adapter.Send(ctx, env); err != nil {
			r.logger.Warn("messaging delivery failed",
				"adapter", a.adapter.Name(),
				"event_type", event.EventType(),
				"error", err)
			r.recordFailure(a.adapter.Name(), env, err)
		}
	}
	return nil
}

func (r *Registry) recordFailure(adapter string, event events.Envelope, cause error) {
	if r.deadLetters == nil {
		return
	}
	payload, _ := json.Marshal(event)
	dl := DeadLetter{
		Adapter:    adapter,
		EventType:  event.EventType(),
		DocumentID: event.AggregateID(),
		Error:      cause.Error(),
		Event:      payload,
		FailedAt:   time.Now().UTC(),
	}
	if err := r.deadLetters.Append(dl); err != nil {
		r.logger.Warn("dead letter write failed", "adapter", adapter, "error", err)
	}
}

// Registration subscribes the registry to every event.
func (r *Registry) Registration() events.HandlerRegistration {
	return events.HandlerRegistration{
		Name:       "MessagingRegistry",
		EventTypes: []string{"*"},
		Handler:    r.Handle,
	}
}

func createAdapter(cfg messaging.AdapterConfig) (messaging.MessageAdapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	switch cfg.Type {
	case "webhook":
		return NewWebhookAdapter(cfg), nil
	case "slack":
		return NewSlackAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown adapter type: %s", cfg.Type)
	}
}
