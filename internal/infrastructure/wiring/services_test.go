package wiring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
	"github.com/felixgeelhaar/essaycoach/pkg/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/application"
	domainanalysis "github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/storage"
)

const statement = "I became interested in robotics when I built a line-following robot at school."

func mockWorkspace(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.AI.Provider = "mock"
	cfg.AI.Model = "test"
	if mutate != nil {
		mutate(cfg)
	}
	if err := config.Save(root, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return root
}

func TestBuildAppServicesDefaults(t *testing.T) {
	t.Setenv("ESSAYCOACH_AI_PROVIDER", "")
	t.Setenv("ESSAYCOACH_BACKEND_URL", "")

	services, err := BuildAppServicesWithOptions(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("build services failed: %v", err)
	}
	defer services.Close()

	if services.Feedback == nil || services.Drafts == nil || services.Axes == nil || services.Documents == nil {
		t.Fatalf("expected non-nil services, got %+v", services)
	}
	if services.Workspace.Config.Storage.Driver != config.StorageFile {
		t.Errorf("expected file storage by default, got %s", services.Workspace.Config.Storage.Driver)
	}
	if _, ok := services.Documents.Store.(*storage.FileDocumentStore); !ok {
		t.Errorf("expected file document store, got %T", services.Documents.Store)
	}
}

func TestBuildAppServicesInvalidProvider(t *testing.T) {
	t.Setenv("ESSAYCOACH_AI_PROVIDER", "")
	root := mockWorkspace(t, func(c *config.Config) { c.AI.Provider = "unknown" })

	if _, err := BuildAppServicesWithOptions(root, Options{}); err == nil {
		t.Fatal("expected error when provider is invalid")
	}
}

func TestBuildAppServicesFeedbackFlow(t *testing.T) {
	t.Setenv("ESSAYCOACH_AI_PROVIDER", "")
	t.Setenv("ESSAYCOACH_BACKEND_URL", "")
	root := mockWorkspace(t, nil)

	var console bytes.Buffer
	services, err := BuildAppServicesWithOptions(root, Options{Console: &console})
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	defer services.Close()

	ctx := context.Background()
	res, err := services.Feedback.RequestFeedback(ctx, application.FeedbackRequest{Content: statement})
	if err != nil {
		t.Fatalf("request feedback: %v", err)
	}
	if res.Summary == "" {
		t.Error("expected a summary from the mock provider")
	}
	if !strings.Contains(console.String(), "Feedback Ready:") {
		t.Errorf("expected console notification, got %q", console.String())
	}

	records, err := services.Workspace.Events.LoadByType(events.EventTypeFeedbackReady)
	if err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one logged feedback event, got %d", len(records))
	}
}

func TestBuildAppServicesCustomBackend(t *testing.T) {
	t.Setenv("ESSAYCOACH_BACKEND_URL", "")
	root := mockWorkspace(t, nil)

	services, err := BuildAppServicesWithOptions(root, Options{
		Backend: func(*config.Config) (analysis.Backend, error) { return failingBackend{}, nil },
	})
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	defer services.Close()

	_, err = services.Feedback.RequestFeedback(context.Background(), application.FeedbackRequest{Content: statement})
	if !errors.Is(err, domainanalysis.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	records, _ := services.Workspace.Events.LoadByType(events.EventTypeFeedbackFailed)
	if len(records) != 1 {
		t.Errorf("expected a logged failure, got %d", len(records))
	}
}

func TestBuildAppServicesBackendResolverError(t *testing.T) {
	root := mockWorkspace(t, nil)
	_, err := BuildAppServicesWithOptions(root, Options{
		Backend: func(*config.Config) (analysis.Backend, error) { return nil, errors.New("no backend") },
	})
	if err == nil || !strings.Contains(err.Error(), "no backend") {
		t.Fatalf("expected resolver error, got %v", err)
	}
}

func TestAppServicesEditorSessionSaves(t *testing.T) {
	t.Setenv("ESSAYCOACH_AI_PROVIDER", "")
	t.Setenv("ESSAYCOACH_BACKEND_URL", "")
	t.Setenv("ESSAYCOACH_STORAGE", "")
	root := mockWorkspace(t, func(c *config.Config) { c.Storage.Driver = config.StorageSQLite })

	services, err := BuildAppServicesWithOptions(root, Options{})
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	defer services.Close()

	if _, ok := services.Documents.Store.(*storage.SQLiteDocumentStore); !ok {
		t.Fatalf("expected sqlite store, got %T", services.Documents.Store)
	}
	if _, err := os.Stat(filepath.Join(root, storage.WorkspaceDir, storage.DatabaseFile)); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	session, err := services.NewEditorSession(SessionOptions{ProgramID: "cs-msc"}, statement)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer session.Close()

	id, err := session.Save(context.Background())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	doc, err := services.Documents.GetDocument(context.Background(), id)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc.Type != services.Workspace.Config.Feedback.DocumentType || doc.ProgramID != "cs-msc" {
		t.Errorf("unexpected document %+v", doc)
	}

	records, _ := services.Workspace.Events.LoadByDocument(id)
	if len(records) != 1 || records[0].Type != events.EventTypeDocumentSaved {
		t.Errorf("expected one saved event, got %+v", records)
	}
}

type failingBackend struct{}

func (failingBackend) Analyze(_ context.Context, req domainanalysis.Request) (json.RawMessage, error) {
	return nil, domainanalysis.BackendError(req.Action, "quota exceeded", nil)
}
