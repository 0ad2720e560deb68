package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/essaycoach/pkg/application"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/matching"
)

var (
	docType      string
	programID    string
	feedbackTone string
	jsonOutput   bool
)

// feedbackReport is the --json form of the feedback command.
type feedbackReport struct {
	Feedback *feedback.Result      `json:"feedback"`
	Quotes   []matching.Resolution `json:"quotes"`
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <file>",
	Short: "Review a document and suggest rewrites",
	Long: `Review a document and print its score, strengths, improvement points and
quoted rewrites located in the text. Use "-" to read the document from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readDocument(args[0])
		if err != nil {
			return err
		}
		services, cleanup, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer cleanup()

		cfg := services.Workspace.Config
		req := application.FeedbackRequest{
			Content:      content,
			DocumentType: cfg.Feedback.DocumentType,
			ProgramID:    programID,
			Tone:         cfg.Feedback.Tone,
		}
		if docType != "" {
			req.DocumentType = docType
		}
		if feedbackTone != "" {
			req.Tone = feedbackTone
		}

		res, err := services.Feedback.RequestFeedback(cmd.Context(), req)
		if err != nil {
			return MapError(err)
		}
		quotes := services.Matcher.ResolveAll(content, res.QuotedImprovements)

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, feedbackReport{Feedback: res, Quotes: quotes})
		}
		renderFeedback(out, res, quotes, content)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&docType, "type", "", "Document type (defaults to feedback.document_type)")
	feedbackCmd.Flags().StringVar(&programID, "program", "", "Program the document is written for")
	feedbackCmd.Flags().StringVar(&feedbackTone, "tone", "", "Feedback tone (defaults to feedback.tone)")
	feedbackCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	RootCmd.AddCommand(feedbackCmd)
}
