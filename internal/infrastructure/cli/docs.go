package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/realtime"
)

var (
	docsType    string
	docsProgram string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Store and list document versions",
}

var docsCreateCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Store a document as version 1",
	Args:  cobra.ExactArgs(1),
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

		typ := docsType
		if typ == "" {
			typ = services.Workspace.Config.Feedback.DocumentType
		}
		id, err := services.Documents.CreateDocument(cmd.Context(), typ, docsProgram, content)
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created document %s (%s)\n", id, typ)
		return nil
	},
}

var docsUpdateCmd = &cobra.Command{
	Use:   "update <id> <file>",
	Short: "Store a new version of a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readDocument(args[1])
		if err != nil {
			return err
		}
		services, cleanup, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer cleanup()

		update := document.Update{Content: &content}
		if docsProgram != "" {
			update.ProgramID = &docsProgram
		}
		if err := services.Documents.UpdateDocument(cmd.Context(), args[0], update); err != nil {
			return MapError(err)
		}
		doc, err := services.Documents.GetDocument(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Document %s is at version %d\n", doc.ID, doc.Version)
		return nil
	},
}

var docsVersionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List stored versions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, cleanup, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer cleanup()

		typ := docsType
		if typ == "" {
			typ = services.Workspace.Config.Feedback.DocumentType
		}
		docs, err := services.Documents.ListVersions(cmd.Context(), typ, docsProgram)
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, docs)
		}
		if len(docs) == 0 {
			fmt.Fprintf(out, "No %s documents stored.\n", typ)
			return nil
		}
		for _, d := range docs {
			fmt.Fprintf(out, "%s  v%-3d %s  %s  %d words\n",
				d.ID, d.Version, d.UpdatedAt.Local().Format("2006-01-02 15:04"),
				dimStyle.Render(programLabel(d.ProgramID)), realtime.WordCount(d.Content))
		}
		return nil
	},
}

var docsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the latest version of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, cleanup, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer cleanup()

		doc, err := services.Documents.GetDocument(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), doc)
		}
		fmt.Fprintln(cmd.OutOrStdout(), doc.Content)
		return nil
	},
}

func programLabel(id string) string {
	if id == "" {
		return "(no program)"
	}
	return id
}

func init() {
	docsCmd.PersistentFlags().StringVar(&docsType, "type", "", "Document type (defaults to feedback.document_type)")
	docsCmd.PersistentFlags().StringVar(&docsProgram, "program", "", "Program the document belongs to")
	docsVersionsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print versions as JSON")
	docsShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the document as JSON")
	docsCmd.AddCommand(docsCreateCmd, docsUpdateCmd, docsVersionsCmd, docsShowCmd)
	RootCmd.AddCommand(docsCmd)
}
