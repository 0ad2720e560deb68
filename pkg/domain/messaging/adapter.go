// Package messaging defines the pluggable messaging adapter interface.
package messaging

import (
	"context"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
)

// MessageAdapter forwards coaching events to an external channel.
type MessageAdapter interface {
	Send(ctx context.Context, event events.Envelope) error
	Name() string
	Type() string
}

// AdapterConfig defines configuration for a messaging adapter.
type AdapterConfig struct {
	Name         string            `yaml:"name" json:"name"`
	Type         string            `yaml:"type" json:"type"` // "webhook", "slack"
	URL          string            `yaml:"url" json:"url"`
	Secret       string            `yaml:"secret,omitempty" json:"secret,omitempty"`
	EventFilters []string          `yaml:"event_filters,omitempty" json:"event_filters,omitempty"`
	Enabled      bool              `yaml:"enabled" json:"enabled"`
	Options      map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

// Accepts reports whether the adapter wants events of the given type.
// An empty filter list accepts everything.
func (c AdapterConfig) Accepts(eventType string) bool {
	if len(c.EventFilters) == 0 {
		return true
	}
	for _, f := range c.EventFilters {
		if f == eventType || f == "*" {
			return true
		}
	}
	return false
}

// MessagingConfig holds all configured messaging adapters.
type MessagingConfig struct {
	Adapters []AdapterConfig `yaml:"adapters" json:"adapters"`
}
