package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/essaycoach/pkg/application"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
)

var (
	draftType     string
	draftProgram  string
	draftFeedback string
	draftWrite    bool
	draftForce    bool
)

var draftCmd = &cobra.Command{
	Use:   "draft <file>",
	Short: "Regenerate an improved draft of a document",
	Long: `Regenerate an improved version of a document. Feedback is generated first
unless --feedback points at the JSON written by 'essaycoach feedback --json'.
Feedback produced for a different version of the text is rejected unless
--force is given. With --write the file is replaced and the old text is kept
next to it with a .bak suffix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		content, err := readDocument(path)
		if err != nil {
			return err
		}
		if draftWrite && path == "-" {
			return NewCLIError("cannot write a draft back to stdin", "Pass a file path with --write", nil)
		}

		services, cleanup, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer cleanup()

		cfg := services.Workspace.Config
		typ := cfg.Feedback.DocumentType
		if draftType != "" {
			typ = draftType
		}

		var fb *feedback.Result
		if draftFeedback != "" {
			fb, err = loadFeedbackFile(draftFeedback)
			if err != nil {
				return err
			}
		} else {
			fb, err = services.Feedback.RequestFeedback(cmd.Context(), application.FeedbackRequest{
				Content:      content,
				DocumentType: typ,
				ProgramID:    draftProgram,
				Tone:         cfg.Feedback.Tone,
			})
			if err != nil {
				return MapError(err)
			}
			// The file may have been edited while feedback was generated.
			if path != "-" {
				if content, err = readDocument(path); err != nil {
					return err
				}
			}
		}

		if fb.Sufficient() && !fb.ComputedFor(content) && !draftForce {
			return MapError(application.ErrContentChanged)
		}

		d, err := services.Drafts.RegenerateDraft(cmd.Context(), application.DraftRequest{
			Content:      content,
			DocumentType: typ,
			ProgramID:    draftProgram,
			Feedback:     fb,
		})
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if !draftWrite {
			if jsonOutput {
				return writeJSON(out, d)
			}
			fmt.Fprintln(out, d.Text)
			return nil
		}

		if err := writeDraft(path, content, d.Text); err != nil {
			return err
		}
		renderDraftSummary(out, d)
		fmt.Fprintf(out, "Wrote %s (previous version in %s.bak)\n", path, path)
		return nil
	},
}

func loadFeedbackFile(path string) (*feedback.Result, error) {
	// #nosec G304 -- path is supplied by the user on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feedback: %w", err)
	}
	var report feedbackReport
	if err := json.Unmarshal(data, &report); err == nil && report.Feedback != nil {
		return report.Feedback, nil
	}
	var res feedback.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse feedback %s: %w", path, err)
	}
	return &res, nil
}

func writeDraft(path, previous, text string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path+".bak", []byte(previous), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

func init() {
	draftCmd.Flags().StringVar(&draftType, "type", "", "Document type (defaults to feedback.document_type)")
	draftCmd.Flags().StringVar(&draftProgram, "program", "", "Program the document is written for")
	draftCmd.Flags().StringVar(&draftFeedback, "feedback", "", "Feedback JSON from 'essaycoach feedback --json'")
	draftCmd.Flags().BoolVar(&draftWrite, "write", false, "Replace the file with the draft, keeping a .bak copy")
	draftCmd.Flags().BoolVar(&draftForce, "force", false, "Draft even when the feedback was produced for different text")
	draftCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the draft as JSON")
	RootCmd.AddCommand(draftCmd)
}
