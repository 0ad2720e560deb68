package main

import (
	"os"
	"testing"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/cli"
)

func TestRun_Help(t *testing.T) {
	cli.RootCmd.SetArgs([]string{"--help"})
	if code := run(); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	cli.RootCmd.SetArgs([]string{"invalid-cmd-999"})
	if code := run(); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestRun_ReinitFails(t *testing.T) {
	t.Setenv("ESSAYCOACH_STORAGE", "")
	dir := t.TempDir()
	if err := os.Mkdir(dir+"/.essaycoach", 0o700); err != nil {
		t.Fatal(err)
	}
	cli.RootCmd.SetArgs([]string{"--project", dir, "init"})
	if code := run(); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}
