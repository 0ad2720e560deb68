package messaging

import "testing"

func TestAdapterConfig_Accepts(t *testing.T) {
	tests := []struct {
		name    string
		filters []string
		event   string
		want    bool
	}{
		{"no filters", nil, "draft.ready", true},
		{"listed", []string{"feedback.ready", "draft.ready"}, "draft.ready", true},
		{"not listed", []string{"feedback.ready"}, "draft.ready", false},
		{"wildcard", []string{"*"}, "document.saved", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AdapterConfig{EventFilters: tt.filters}
			if got := cfg.Accepts(tt.event); got != tt.want {
				t.Errorf("Accepts(%q) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}
