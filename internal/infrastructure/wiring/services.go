package wiring

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/messaging"
	"github.com/felixgeelhaar/essaycoach/pkg/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/application"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/matching"
)

// AppServices exposes the application services wired together with a workspace.
type AppServices struct {
	Workspace  *Workspace
	Logger     *slog.Logger
	Dispatcher *events.EventDispatcher
	Client     *analysis.Client
	Feedback   *application.FeedbackService
	Drafts     *application.DraftService
	Axes       *application.AxisAnalyzer
	Matcher    *matching.Matcher
	Documents  *DocumentStore
	Messaging  *messaging.Registry
}

// Options customizes BuildAppServicesWithOptions.
type Options struct {
	Logger *slog.Logger
	// Console receives user-facing notifications; nil disables console output.
	Console io.Writer
	// Backend replaces the backend selected from the config.
	Backend func(*config.Config) (analysis.Backend, error)
}

// BuildAppServices wires the services for a repo root with notifications on stderr.
func BuildAppServices(root string) (*AppServices, error) {
	return BuildAppServicesWithOptions(root, Options{Console: os.Stderr})
}

// BuildAppServicesWithOptions wires the services for a repo root.
func BuildAppServicesWithOptions(root string, opts Options) (*AppServices, error) {
	workspace, err := NewWorkspace(root)
	if err != nil {
		return nil, err
	}
	return BuildServices(workspace, opts)
}

// BuildServices wires the services for an opened workspace.
func BuildServices(workspace *Workspace, opts Options) (*AppServices, error) {
	cfg := workspace.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolve := opts.Backend
	if resolve == nil {
		resolve = LoadBackend
	}
	backend, err := resolve(cfg)
	if err != nil {
		return nil, fmt.Errorf("analysis backend: %w", err)
	}

	registry, err := messaging.NewRegistry(&cfg.Messaging, logger)
	if err != nil {
		return nil, fmt.Errorf("messaging: %w", err)
	}
	registry.WithDeadLetters(workspace.DeadLetters)

	var notifiers []events.Notifier
	if opts.Console != nil {
		notifiers = append(notifiers, messaging.NewConsoleNotifier(opts.Console))
	}

	dispatcher := events.NewEventDispatcher()
	dispatcher.Register(events.NewLoggingHandler(logger).Registration())
	dispatcher.Register(events.NewNotificationHandler(messaging.NewFanoutNotifier(notifiers...), logger).Registration())
	dispatcher.Register(registry.Registration())
	dispatcher.Register(workspace.Events.Registration())

	documents, err := workspace.OpenDocumentStore()
	if err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}

	client := analysis.NewClient(backend, logger)
	return &AppServices{
		Workspace:  workspace,
		Logger:     logger,
		Dispatcher: dispatcher,
		Client:     client,
		Feedback:   application.NewFeedbackService(client, dispatcher, logger),
		Drafts:     application.NewDraftService(client, dispatcher, logger),
		Axes:       application.NewAxisAnalyzer(client, logger),
		Matcher:    matching.Default(),
		Documents:  documents,
		Messaging:  registry,
	}, nil
}

// SessionOptions identify the document an editor session works on. Empty
// fields take the configured defaults.
type SessionOptions struct {
	DocumentType string
	ProgramID    string
	DocumentID   string
	UserID       string
	Tone         string
}

// NewEditorSession opens an editor session on content using the configured
// realtime and feedback settings.
func (s *AppServices) NewEditorSession(opts SessionOptions, content string) (*application.EditorSession, error) {
	cfg := s.Workspace.Config
	if opts.DocumentType == "" {
		opts.DocumentType = cfg.Feedback.DocumentType
	}
	if opts.Tone == "" {
		opts.Tone = cfg.Feedback.Tone
	}
	return application.NewEditorSession(application.SessionConfig{
		DocumentType: opts.DocumentType,
		ProgramID:    opts.ProgramID,
		DocumentID:   opts.DocumentID,
		UserID:       opts.UserID,
		Tone:         opts.Tone,
		Scheduler: application.SchedulerConfig{
			Debounce:  cfg.Realtime.Debounce,
			MinLength: cfg.Realtime.MinLength,
		},
	}, application.SessionDeps{
		Runner:    s.Axes,
		Feedback:  s.Feedback,
		Drafts:    s.Drafts,
		Matcher:   s.Matcher,
		Store:     s.Documents,
		Publisher: s.Dispatcher,
		Logger:    s.Logger,
	}, content)
}

// Close releases the document store.
func (s *AppServices) Close() error {
	if s.Documents == nil {
		return nil
	}
	return s.Documents.Close()
}
