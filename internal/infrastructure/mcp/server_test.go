package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/essaycoach/pkg/application"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/matching"
)

const statement = "I became interested in robotics when I built a line-following robot at school."

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("ESSAYCOACH_AI_PROVIDER", "")
	t.Setenv("ESSAYCOACH_BACKEND_URL", "")
	t.Setenv("ESSAYCOACH_STORAGE", "")

	root := t.TempDir()
	cfg := config.Default()
	cfg.AI.Provider = "mock"
	if err := config.Save(root, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	services, err := wiring.BuildAppServicesWithOptions(root, wiring.Options{})
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	t.Cleanup(func() { _ = services.Close() })
	return NewServer(services)
}

func TestServer_HandleFeedback(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleFeedback(ctx, FeedbackArgs{Content: statement, ProgramID: "robotics-bsc"})
	if err != nil {
		t.Fatalf("handleFeedback failed: %v", err)
	}
	fb, ok := resp.(*FeedbackResponse)
	if !ok {
		t.Fatalf("unexpected response type %T", resp)
	}
	if fb.Feedback.Summary == "" || fb.Feedback.ContentDigest != feedback.Digest(statement) {
		t.Errorf("unexpected feedback %+v", fb.Feedback)
	}
	if fb.Quotes == nil {
		t.Error("quotes must never be nil")
	}

	_, err = s.handleFeedback(ctx, FeedbackArgs{Content: "   "})
	if err == nil || !strings.Contains(err.Error(), "Content is empty") {
		t.Errorf("expected empty content message, got %v", err)
	}
}

func TestServer_HandleDraft(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleDraft(ctx, DraftArgs{Content: statement})
	if err != nil {
		t.Fatalf("handleDraft without feedback: %v", err)
	}
	d := resp.(*application.Draft)
	if d.Text == "" || d.Previous != statement {
		t.Errorf("unexpected draft %+v", d)
	}

	_, err = s.handleDraft(ctx, DraftArgs{Content: statement, Feedback: &feedback.Result{}})
	if err == nil || !strings.Contains(err.Error(), "no summary") {
		t.Errorf("expected insufficient feedback message, got %v", err)
	}
}

func TestServer_HandleMatchQuotes(t *testing.T) {
	s := newTestServer(t)
	content := "I like coding. It is fun."

	resp, err := s.handleMatchQuotes(context.Background(), MatchQuotesArgs{
		Content: content,
		Quotes: []feedback.QuotedImprovement{
			{OriginalText: "I like coding.", ImprovedText: "I love building software.", Explanation: "Stronger verb"},
			{OriginalText: "", ImprovedText: "dropped"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	res := resp.([]matching.Resolution)
	if len(res) != 1 {
		t.Fatalf("expected blank quotes dropped, got %d resolutions", len(res))
	}
	if !res[0].Anchored() || res[0].Anchor.Text(content) != "I like coding." || res[0].Strategy != matching.StrategyExact {
		t.Errorf("unexpected resolution %+v", res[0])
	}
}

func TestServer_HandleLiveAnalysis(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleLiveAnalysis(context.Background(), LiveAnalysisArgs{Content: statement})
	if err != nil {
		t.Fatalf("handleLiveAnalysis failed: %v", err)
	}
	live := resp.(*LiveAnalysisResponse)
	if len(live.Analysis.FailedAxes) != 0 {
		t.Errorf("expected every axis to succeed, failed: %v", live.Analysis.FailedAxes)
	}
	if len(live.Suggestions) == 0 {
		t.Error("expected derived suggestions")
	}

	if _, err := s.handleLiveAnalysis(context.Background(), LiveAnalysisArgs{}); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestServer_HandleListVersions(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	id, err := s.services.Documents.CreateDocument(ctx, document.TypeMotivationLetter, "p1", "first")
	if err != nil {
		t.Fatal(err)
	}
	second := "second"
	if err := s.services.Documents.UpdateDocument(ctx, id, document.Update{Content: &second}); err != nil {
		t.Fatal(err)
	}

	var args VersionsArgs
	if err := json.Unmarshal([]byte(`{"document_type":"motivation_letter","program_id":"p1","limit":"1"}`), &args); err != nil {
		t.Fatalf("unmarshal args: %v", err)
	}
	resp, err := s.handleListVersions(ctx, args)
	if err != nil {
		t.Fatal(err)
	}
	docs := resp.([]document.Document)
	if len(docs) != 1 || docs[0].Content != "second" || docs[0].Version != 2 {
		t.Errorf("expected newest version only, got %+v", docs)
	}

	if _, err := s.handleListVersions(ctx, VersionsArgs{}); err == nil {
		t.Error("expected error without document_type")
	}
}

func TestFlexIntUnmarshal_Invalid(t *testing.T) {
	var args VersionsArgs
	if err := json.Unmarshal([]byte(`{"limit": {}}`), &args); err == nil {
		t.Fatal("expected error for invalid flex int")
	}
}

func TestActionSchemas(t *testing.T) {
	re := regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	if !re.MatchString(SchemaVersion) {
		t.Fatalf("SchemaVersion %q is not valid semver", SchemaVersion)
	}
	schemas := actionSchemas()
	if len(schemas) != 6 {
		t.Fatalf("expected a schema per action, got %d", len(schemas))
	}
	for action, raw := range schemas {
		if !json.Valid(raw) {
			t.Errorf("schema for %s is not valid JSON", action)
		}
	}
}

func TestServerServeHTTPReturnsCanceled(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.ServeHTTP(ctx, "127.0.0.1:0"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
