package messaging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DeadLetter records an event that an adapter failed to deliver.
type DeadLetter struct {
	Adapter    string          `json:"adapter"`
	EventType  string          `json:"event_type"`
	DocumentID string          `json:"document_id,omitempty"`
	Error      string          `json:"error"`
	Event      json.RawMessage `json:"event,omitempty"`
	FailedAt   time.Time       `json:"failed_at"`
}

// DeadLetterStore appends failed deliveries to a JSONL file.
type DeadLetterStore struct {
	path string
	mu   sync.Mutex
}

// NewDeadLetterStore creates a dead letter store at the given path.
func NewDeadLetterStore(path string) *DeadLetterStore {
	return &DeadLetterStore{path: path}
}

// Append writes a dead letter entry to the JSONL file.
func (s *DeadLetterStore) Append(dl DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create dead letter directory: %w", err)
	}
	// #nosec G304 -- path comes from the workspace layout
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open dead letter file: %w", err)
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// ReadAll returns all dead letter entries from the file. Corrupt lines are skipped.
func (s *DeadLetterStore) ReadAll() ([]DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// #nosec G304 -- path comes from the workspace layout
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []DeadLetter
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var dl DeadLetter
		if err := dec.Decode(&dl); err != nil {
			break
		}
		entries = append(entries, dl)
	}
	return entries, nil
}
