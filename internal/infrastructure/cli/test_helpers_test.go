package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
)

const statement = "I became interested in robotics when I built a line-following robot at school."

const mockDraft = "This is a placeholder draft produced by the mock provider."

// mockWorkspace creates a workspace that analyzes with the mock provider.
func mockWorkspace(t *testing.T) string {
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
	return root
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// resetFlags restores flag variables; cobra keeps them between executions.
func resetFlags() {
	projectPath = ""
	jsonOutput = false
	docType, programID, feedbackTone = "", "", ""
	draftType, draftProgram, draftFeedback = "", "", ""
	draftWrite, draftForce = false, false
	docsType, docsProgram = "", ""
	initProvider, initModel, initStorage = "", "", ""
	messagingSecret, messagingEvents = "", nil
}

// runCLI executes the root command and returns everything written to its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	buf := new(bytes.Buffer)
	RootCmd.SetOut(buf)
	RootCmd.SetErr(buf)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return buf.String(), err
}
