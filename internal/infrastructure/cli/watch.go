package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/watch"
	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/essaycoach/pkg/application"
)

var (
	watchType     string
	watchProgram  string
	watchDocument string
	watchSave     bool
)

// lockedWriter serializes snapshot output from scheduler goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Analyze a document live while you edit it",
	Long: `Watch a document file and print a realtime analysis (suggestions, content
gaps, tone and redundancy) each time the file settles after a write. Stop with
Ctrl-C; --save stores the final text as a new document version.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		content, err := readDocument(path)
		if err != nil {
			return err
		}

		services, cleanup, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer cleanup()

		session, err := services.NewEditorSession(wiring.SessionOptions{
			DocumentType: watchType,
			ProgramID:    watchProgram,
			DocumentID:   watchDocument,
		}, content)
		if err != nil {
			return MapError(err)
		}
		defer session.Close()

		out := &lockedWriter{w: cmd.OutOrStdout()}
		session.OnSnapshot(func(snap application.Snapshot) {
			renderSnapshot(out, snap)
			fmt.Fprintln(out)
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watcher, err := watch.NewFileWatcher(path, 100*time.Millisecond, func(updated string) {
			if err := session.Edit(updated); err != nil {
				services.Logger.Warn("edit rejected", "error", err)
			}
		}, services.Logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Watching %s (session %s). Press Ctrl-C to stop.\n", path, session.ID())
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}

		fmt.Fprintf(out, "Stopped after %s of writing.\n", session.Elapsed().Round(time.Second))
		if !watchSave {
			return nil
		}
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		id, err := session.Save(saveCtx)
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintf(out, "Saved document %s\n", id)
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchType, "type", "", "Document type (defaults to feedback.document_type)")
	watchCmd.Flags().StringVar(&watchProgram, "program", "", "Program the document is written for")
	watchCmd.Flags().StringVar(&watchDocument, "document", "", "Stored document id to version on --save")
	watchCmd.Flags().BoolVar(&watchSave, "save", false, "Save the final text when the watch stops")
	RootCmd.AddCommand(watchCmd)
}
