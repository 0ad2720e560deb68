package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
)

// EventRecord is one line of the event log: the shared event fields plus the
// full event payload.
type EventRecord struct {
	events.BaseEvent
	Data json.RawMessage `json:"data,omitempty"`
}

// FileEventStore appends domain events to .essaycoach/events.jsonl.
type FileEventStore struct {
	mu   sync.RWMutex
	repo *FilesystemRepository
}

// NewFileEventStore creates a new file-based event store. The workspace
// directory is created on first write.
func NewFileEventStore(repo *FilesystemRepository) *FileEventStore {
	return &FileEventStore{repo: repo}
}

// Append adds an event to the log.
func (s *FileEventStore) Append(event events.DomainEvent) (err error) {
	record := EventRecord{BaseEvent: events.BaseEvent{
		Type:       event.EventType(),
		DocumentID: event.AggregateID(),
		Timestamp:  event.OccurredAt(),
	}}
	if env, ok := event.(events.Envelope); ok {
		record.BaseEvent = *env.Base()
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record.Data = data

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal event record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Initialize(); err != nil {
		return err
	}
	path, err := s.repo.ResolvePath(EventsFile)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open events file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close events file: %w", cerr)
		}
	}()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Handle lets the store be registered on an event dispatcher.
func (s *FileEventStore) Handle(_ context.Context, event events.DomainEvent) error {
	return s.Append(event)
}

// Registration subscribes the store to every event.
func (s *FileEventStore) Registration() events.HandlerRegistration {
	return events.HandlerRegistration{
		Name:       "event-log",
		EventTypes: []string{"*"},
		Handler:    s.Handle,
	}
}

// LoadAll returns all events in chronological order.
func (s *FileEventStore) LoadAll() ([]EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadEvents()
}

// LoadByType returns events of a specific type.
func (s *FileEventStore) LoadByType(eventType string) ([]EventRecord, error) {
	return s.filter(func(r EventRecord) bool { return r.Type == eventType })
}

// LoadByDocument returns events for a specific document.
func (s *FileEventStore) LoadByDocument(documentID string) ([]EventRecord, error) {
	return s.filter(func(r EventRecord) bool { return r.DocumentID == documentID })
}

// LoadSince returns events that occurred after the given timestamp.
func (s *FileEventStore) LoadSince(since time.Time) ([]EventRecord, error) {
	return s.filter(func(r EventRecord) bool { return r.Timestamp.After(since) })
}

func (s *FileEventStore) filter(keep func(EventRecord) bool) ([]EventRecord, error) {
	all, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	var result []EventRecord
	for _, r := range all {
		if keep(r) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *FileEventStore) loadEvents() ([]EventRecord, error) {
	path, err := s.repo.ResolvePath(EventsFile)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- Path is resolved and validated via ResolvePath
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var result []EventRecord
	scanner := bufio.NewScanner(f)

	// Feedback payloads can be large.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		result = append(result, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return result, nil
}
