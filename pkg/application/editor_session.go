package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/matching"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/realtime"
)

// SessionConfig describes the document an editor session works on.
type SessionConfig struct {
	DocumentType string
	ProgramID    string
	DocumentID   string
	UserID       string
	Tone         string
	Scheduler    SchedulerConfig
}

// SessionDeps are the collaborators an editor session uses. Store and
// Publisher are optional.
type SessionDeps struct {
	Runner    AxisRunner
	Feedback  *FeedbackService
	Drafts    *DraftService
	Matcher   *matching.Matcher
	Store     document.Store
	Publisher Publisher
	Logger    *slog.Logger
}

// EditorSession owns everything attached to one open document: the buffer,
// the writing session, the realtime scheduler and the latest feedback.
// It must be closed with Close.
type EditorSession struct {
	id     string
	cfg    SessionConfig
	deps   SessionDeps
	logger *slog.Logger
	now    func() time.Time
	sched  *RealtimeScheduler

	// mu is held while forwarding a change to the scheduler so the scheduler
	// sees buffer changes in order.
	mu       sync.Mutex
	content  string
	writing  realtime.WritingSession
	undo     *string
	disposed bool

	// feedbackMu guards the feedback slot; the scheduler never touches it.
	// Only the most recently issued request (feedbackGen) may fill the slot.
	feedbackMu  sync.Mutex
	feedback    *feedback.Result
	feedbackGen uint64
}

// NewEditorSession opens a session on content.
func NewEditorSession(cfg SessionConfig, deps SessionDeps, content string) (*EditorSession, error) {
	if deps.Runner == nil || deps.Feedback == nil || deps.Drafts == nil {
		return nil, errors.New("editor session requires an axis runner, a feedback service and a draft service")
	}
	if deps.Matcher == nil {
		deps.Matcher = matching.Default()
	}
	deps.Publisher = orNop(deps.Publisher)
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	logger = logger.With("session_id", id)

	template := analysis.Request{
		DocumentType: cfg.DocumentType,
		Context: analysis.Context{
			ProgramID:  cfg.ProgramID,
			DocumentID: cfg.DocumentID,
			UserID:     cfg.UserID,
		},
		Tone: cfg.Tone,
	}
	sched, err := NewRealtimeScheduler(deps.Runner, cfg.Scheduler, template, logger)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &EditorSession{
		id:      id,
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		now:     time.Now,
		sched:   sched,
		content: content,
	}
	s.writing = realtime.NewWritingSession(cfg.DocumentID, s.now())
	if err := sched.OnChange(content); err != nil {
		sched.Dispose()
		return nil, err
	}
	return s, nil
}

// ID returns the session identifier.
func (s *EditorSession) ID() string { return s.id }

// Scheduler exposes the realtime scheduler, mainly for listeners and stats.
func (s *EditorSession) Scheduler() *RealtimeScheduler { return s.sched }

// OnSnapshot registers a listener for accepted realtime snapshots.
func (s *EditorSession) OnSnapshot(l Listener) { s.sched.SetListener(l) }

// Open switches the session to another document. Unless the same document
// is reopened, the writing session restarts and the previous document's
// realtime snapshot, feedback and undo buffer are dropped. Requests still
// running for it are discarded when they finish.
func (s *EditorSession) Open(documentID, content string) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrSessionDisposed
	}
	if s.writing.Reset(documentID, s.now()) {
		s.undo = nil
		if err := s.sched.Reset(documentID); err != nil {
			s.mu.Unlock()
			return err
		}
		s.feedbackMu.Lock()
		s.feedback = nil
		s.feedbackGen++
		s.feedbackMu.Unlock()
	}
	s.cfg.DocumentID = documentID
	s.content = content
	err := s.sched.OnChange(content)
	s.mu.Unlock()
	return err
}

// Edit replaces the buffer with the editor's current text.
func (s *EditorSession) Edit(content string) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrSessionDisposed
	}
	if content == s.content {
		s.mu.Unlock()
		return nil
	}
	s.content = content
	s.writing.Record()
	err := s.sched.OnChange(content)
	s.mu.Unlock()
	return err
}

// Content returns the current buffer.
func (s *EditorSession) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// Writing returns a copy of the writing session.
func (s *EditorSession) Writing() realtime.WritingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writing
}

// Elapsed returns the time spent writing in this session.
func (s *EditorSession) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writing.Elapsed(s.now())
}

// Analysis returns the latest accepted realtime snapshot.
func (s *EditorSession) Analysis() (Snapshot, bool) {
	return s.sched.Current()
}

// Feedback returns the latest feedback, or nil.
func (s *EditorSession) Feedback() *feedback.Result {
	s.feedbackMu.Lock()
	defer s.feedbackMu.Unlock()
	return s.feedback
}

// RequestFeedback runs a full review of the current buffer and stores it in
// the feedback slot. A failed request leaves the previous feedback in place.
// When a newer request was issued, or another document was opened, before
// this one finished, the result is dropped and ErrSuperseded is returned.
func (s *EditorSession) RequestFeedback(ctx context.Context) (*feedback.Result, error) {
	call, err := s.PrepareFeedback()
	if err != nil {
		return nil, err
	}
	return call.Run(ctx)
}

// FeedbackCall is a feedback request bound to the buffer and slot
// generation it was prepared for.
type FeedbackCall struct {
	s   *EditorSession
	gen uint64
	req FeedbackRequest
}

// PrepareFeedback captures the current buffer and claims the feedback slot
// without contacting the backend. Calls prepared later supersede it.
func (s *EditorSession) PrepareFeedback() (*FeedbackCall, error) {
	// The buffer and the generation are taken together so a concurrent Open
	// cannot pair one document's content with the next document's slot.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil, ErrSessionDisposed
	}
	s.feedbackMu.Lock()
	s.feedbackGen++
	gen := s.feedbackGen
	s.feedbackMu.Unlock()

	return &FeedbackCall{s: s, gen: gen, req: FeedbackRequest{
		Content:      s.content,
		DocumentType: s.cfg.DocumentType,
		ProgramID:    s.cfg.ProgramID,
		DocumentID:   s.cfg.DocumentID,
		UserID:       s.cfg.UserID,
		Tone:         s.cfg.Tone,
	}}, nil
}

// Run sends the prepared request and stores the result if the call is still
// the newest one.
func (c *FeedbackCall) Run(ctx context.Context) (*feedback.Result, error) {
	s := c.s
	res, err := s.deps.Feedback.RequestFeedback(ctx, c.req)
	if err != nil {
		return nil, err
	}

	s.feedbackMu.Lock()
	defer s.feedbackMu.Unlock()
	if c.gen != s.feedbackGen {
		s.logger.Debug("feedback result discarded as superseded", "gen", c.gen, "latest", s.feedbackGen)
		return nil, ErrSuperseded
	}
	s.feedback = res
	return res, nil
}

// ResolvedQuotes anchors the stored feedback's quoted improvements in the
// current buffer.
func (s *EditorSession) ResolvedQuotes() []matching.Resolution {
	fb := s.Feedback()
	if fb == nil {
		return []matching.Resolution{}
	}
	return s.deps.Matcher.ResolveAll(s.Content(), fb.QuotedImprovements)
}

// RegenerateDraft asks for a rewritten document based on the stored feedback.
// When the buffer changed since that feedback was produced, it returns
// ErrContentChanged unless confirm is set.
func (s *EditorSession) RegenerateDraft(ctx context.Context, confirm bool) (*Draft, error) {
	content, cfg, err := s.snapshotBuffer()
	if err != nil {
		return nil, err
	}

	fb := s.Feedback()
	if fb.Sufficient() && !fb.ComputedFor(content) && !confirm {
		return nil, ErrContentChanged
	}

	return s.deps.Drafts.RegenerateDraft(ctx, DraftRequest{
		Content:      content,
		DocumentType: cfg.DocumentType,
		ProgramID:    cfg.ProgramID,
		DocumentID:   cfg.DocumentID,
		UserID:       cfg.UserID,
		Feedback:     fb,
	})
}

// ApplyDraft replaces the buffer with the draft text. The replaced buffer
// can be restored with Undo.
func (s *EditorSession) ApplyDraft(d *Draft) error {
	if d == nil {
		return errors.New("no draft to apply")
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrSessionDisposed
	}
	previous := s.content
	s.undo = &previous
	s.content = d.Text
	s.writing.Record()
	err := s.sched.OnChange(d.Text)
	s.mu.Unlock()
	return err
}

// Undo restores the buffer replaced by the last ApplyDraft.
func (s *EditorSession) Undo() (bool, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false, ErrSessionDisposed
	}
	if s.undo == nil {
		s.mu.Unlock()
		return false, nil
	}
	restored := *s.undo
	s.undo = nil
	s.content = restored
	err := s.sched.OnChange(restored)
	s.mu.Unlock()
	return true, err
}

// Save persists the buffer through the document store, creating the document
// on first save. It returns the document id.
func (s *EditorSession) Save(ctx context.Context) (string, error) {
	if s.deps.Store == nil {
		return "", errors.New("no document store configured")
	}
	content, cfg, err := s.snapshotBuffer()
	if err != nil {
		return "", err
	}

	id := cfg.DocumentID
	if id == "" {
		id, err = s.deps.Store.CreateDocument(ctx, cfg.DocumentType, cfg.ProgramID, content)
		if err != nil {
			return "", fmt.Errorf("create document: %w", err)
		}
		s.mu.Lock()
		s.cfg.DocumentID = id
		s.writing.DocumentID = id
		s.mu.Unlock()
	} else if err := s.deps.Store.UpdateDocument(ctx, id, document.Update{Content: &content}); err != nil {
		return "", fmt.Errorf("update document: %w", err)
	}

	doc, err := s.deps.Store.GetDocument(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load saved document: %w", err)
	}
	_ = s.deps.Publisher.Dispatch(ctx, &events.DocumentSaved{
		BaseEvent: events.NewBaseEvent(events.EventTypeDocumentSaved, id),
		Version:   doc.Version,
	})
	s.logger.Info("document saved", "document_id", id, "version", doc.Version)
	return id, nil
}

// Close disposes the scheduler. Further calls fail with ErrSessionDisposed.
func (s *EditorSession) Close() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.mu.Unlock()

	s.sched.Dispose()
}

func (s *EditorSession) snapshotBuffer() (string, SessionConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return "", SessionConfig{}, ErrSessionDisposed
	}
	return s.content, s.cfg, nil
}
