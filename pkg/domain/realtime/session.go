package realtime

import (
	"time"
)

// WritingSession tracks process-local writing activity for elapsed-time display.
// It is never persisted.
type WritingSession struct {
	DocumentID string
	StartTime  time.Time
	Keystrokes int
}

// NewWritingSession starts a session for a document.
func NewWritingSession(documentID string, now time.Time) WritingSession {
	return WritingSession{DocumentID: documentID, StartTime: now}
}

// Record counts one content change.
func (w *WritingSession) Record() {
	w.Keystrokes++
}

// Reset restarts the session when the editor opens a different document.
// Reopening the same document keeps the running session.
func (w *WritingSession) Reset(documentID string, now time.Time) bool {
	if w.DocumentID == documentID && documentID != "" && !w.StartTime.IsZero() {
		return false
	}
	*w = NewWritingSession(documentID, now)
	return true
}

// Elapsed returns the time spent since the session started.
func (w WritingSession) Elapsed(now time.Time) time.Duration {
	if w.StartTime.IsZero() || now.Before(w.StartTime) {
		return 0
	}
	return now.Sub(w.StartTime)
}
