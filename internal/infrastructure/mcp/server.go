package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/essaycoach/pkg/application"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/matching"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/realtime"
)

type Server struct {
	mcpServer *mcp.Server
	services  *wiring.AppServices
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients.
// Internal details are omitted; only the friendly message is returned.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

// NewServer exposes services as MCP tools.
func NewServer(services *wiring.AppServices) *Server {
	info := mcp.ServerInfo{
		Name:    "essaycoach",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("EssayCoach MCP Server"),
			mcp.WithDescription("EssayCoach reviews application essays, anchors suggested rewrites and regenerates improved drafts."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Request feedback first; pass its result to essay_draft to regenerate the document."),
		),
		services: services,
	}

	s.registerTools()
	s.registerSchemaResource()
	return s
}

type FeedbackArgs struct {
	Content      string `json:"content" jsonschema:"description=The full document text"`
	DocumentType string `json:"document_type,omitempty" jsonschema:"description=Document type such as personal_statement or motivation_letter"`
	ProgramID    string `json:"program_id,omitempty" jsonschema:"description=The program the document is written for"`
	Tone         string `json:"tone,omitempty" jsonschema:"description=Feedback tone (defaults to conversational)"`
}

type DraftArgs struct {
	Content      string           `json:"content" jsonschema:"description=The document text to rewrite"`
	DocumentType string           `json:"document_type,omitempty" jsonschema:"description=Document type such as personal_statement"`
	ProgramID    string           `json:"program_id,omitempty" jsonschema:"description=The program the document is written for"`
	Feedback     *feedback.Result `json:"feedback,omitempty" jsonschema:"description=Feedback returned by essay_feedback; generated first when omitted"`
}

type MatchQuotesArgs struct {
	Content string                       `json:"content" jsonschema:"description=The document to anchor the quotes in"`
	Quotes  []feedback.QuotedImprovement `json:"quotes" jsonschema:"description=Quoted improvements with originalText, improvedText and explanation"`
}

type LiveAnalysisArgs struct {
	Content      string `json:"content" jsonschema:"description=The in-progress document text"`
	DocumentType string `json:"document_type,omitempty" jsonschema:"description=Document type such as personal_statement"`
	Tone         string `json:"tone,omitempty" jsonschema:"description=Desired tone"`
}

type VersionsArgs struct {
	DocumentType string  `json:"document_type" jsonschema:"description=Document type to list"`
	ProgramID    string  `json:"program_id,omitempty" jsonschema:"description=Program the documents belong to"`
	Limit        FlexInt `json:"limit,omitempty" jsonschema:"description=Maximum number of versions to return"`
}

// FeedbackResponse is the essay_feedback result.
type FeedbackResponse struct {
	Feedback *feedback.Result      `json:"feedback"`
	Quotes   []matching.Resolution `json:"quotes"`
}

// LiveAnalysisResponse is the essay_live_analysis result.
type LiveAnalysisResponse struct {
	Analysis    realtime.ContentAnalysis `json:"analysis"`
	Suggestions []realtime.Suggestion    `json:"suggestions"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("essay_feedback").
		Description("Review a document and return scores, improvement points and quoted improvements anchored in the text").
		Handler(s.handleFeedback)

	s.mcpServer.Tool("essay_draft").
		Description("Regenerate an improved full draft of a document from feedback").
		Handler(s.handleDraft)

	s.mcpServer.Tool("essay_match_quotes").
		Description("Locate quoted improvements in a document (exact, whitespace-normalized or similar text)").
		Handler(s.handleMatchQuotes)

	s.mcpServer.Tool("essay_live_analysis").
		Description("Run one realtime analysis pass: suggestions, content gaps, tone and redundancy").
		Handler(s.handleLiveAnalysis)

	s.mcpServer.Tool("essay_list_versions").
		Description("List stored versions of a document type for a program, newest first").
		Handler(s.handleListVersions)
}

func (s *Server) documentType(t string) string {
	if t == "" {
		return s.services.Workspace.Config.Feedback.DocumentType
	}
	return t
}

func (s *Server) handleFeedback(ctx context.Context, args FeedbackArgs) (any, error) {
	resp, err := s.feedback(ctx, args)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Server) feedback(ctx context.Context, args FeedbackArgs) (*FeedbackResponse, error) {
	tone := args.Tone
	if tone == "" {
		tone = s.services.Workspace.Config.Feedback.Tone
	}
	res, err := s.services.Feedback.RequestFeedback(ctx, application.FeedbackRequest{
		Content:      args.Content,
		DocumentType: s.documentType(args.DocumentType),
		ProgramID:    args.ProgramID,
		Tone:         tone,
	})
	if err != nil {
		return nil, analysisErr("Failed to generate feedback", err)
	}
	return &FeedbackResponse{
		Feedback: res,
		Quotes:   s.services.Matcher.ResolveAll(args.Content, res.QuotedImprovements),
	}, nil
}

func (s *Server) handleDraft(ctx context.Context, args DraftArgs) (any, error) {
	fb := args.Feedback
	if fb == nil {
		resp, err := s.feedback(ctx, FeedbackArgs{
			Content:      args.Content,
			DocumentType: args.DocumentType,
			ProgramID:    args.ProgramID,
		})
		if err != nil {
			return nil, err
		}
		fb = resp.Feedback
	}
	d, err := s.services.Drafts.RegenerateDraft(ctx, application.DraftRequest{
		Content:      args.Content,
		DocumentType: s.documentType(args.DocumentType),
		ProgramID:    args.ProgramID,
		Feedback:     fb,
	})
	if err != nil {
		return nil, analysisErr("Failed to regenerate draft", err)
	}
	return d, nil
}

func (s *Server) handleMatchQuotes(_ context.Context, args MatchQuotesArgs) (any, error) {
	return s.services.Matcher.ResolveAll(args.Content, feedback.CleanQuotes(args.Quotes)), nil
}

func (s *Server) handleLiveAnalysis(ctx context.Context, args LiveAnalysisArgs) (any, error) {
	if strings.TrimSpace(args.Content) == "" {
		return nil, mcpErr("Content is empty. Write some text before requesting analysis.")
	}
	tone := args.Tone
	if tone == "" {
		tone = s.services.Workspace.Config.Feedback.Tone
	}
	result := s.services.Axes.Run(ctx, 1, analysis.Request{
		Content:      args.Content,
		DocumentType: s.documentType(args.DocumentType),
		Tone:         tone,
	})
	if result.AllFailed() {
		return nil, mcpErr("Realtime analysis is unavailable. Check that the analysis backend is reachable.")
	}
	return &LiveAnalysisResponse{Analysis: result, Suggestions: realtime.DeriveSuggestions(result)}, nil
}

func (s *Server) handleListVersions(ctx context.Context, args VersionsArgs) (any, error) {
	if err := document.Validate(args.DocumentType); err != nil {
		return nil, mcpErr("document_type is required.")
	}
	docs, err := s.services.Documents.ListVersions(ctx, args.DocumentType, args.ProgramID)
	if err != nil {
		return nil, mcpErr("Failed to list document versions.")
	}
	if limit := int(args.Limit); limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// analysisErr turns pipeline failures into client-facing messages that keep
// the backend's reason.
func analysisErr(generic string, err error) error {
	switch {
	case errors.Is(err, analysis.ErrEmptyContent):
		return mcpErr("Content is empty. Write some text before requesting feedback.")
	case errors.Is(err, analysis.ErrInsufficientFeedback):
		return mcpErr("The feedback has no summary. Request feedback with essay_feedback first.")
	case errors.Is(err, analysis.ErrNetwork):
		return mcpErr(generic + ": the analysis backend is unreachable.")
	}
	if reason := analysis.Reason(err); reason != "" {
		return mcpErr(generic + ": " + reason)
	}
	return mcpErr(generic + ".")
}

// FlexInt accepts both integer and string JSON values.
type FlexInt int

func (fi *FlexInt) UnmarshalJSON(data []byte) error {
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*fi = FlexInt(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
			*fi = FlexInt(n)
			return nil
		}
	}
	return fmt.Errorf("expected integer or string, got %s", string(data))
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}
