package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/logging"
	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/wiring"
)

// loadServices wires the services for root with the configured log sink.
// The returned cleanup closes the document store and the log file.
func loadServices(root string) (*wiring.AppServices, func(), error) {
	workspace, err := wiring.NewWorkspace(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	sink := logging.New(workspace.Config.Logging, root, os.Stderr)

	services, err := wiring.BuildServices(workspace, wiring.Options{
		Logger:  sink.Logger,
		Console: os.Stderr,
	})
	if err != nil {
		_ = sink.Close()
		return nil, nil, fmt.Errorf("failed to build services: %w", err)
	}
	cleanup := func() {
		if err := services.Close(); err != nil {
			sink.Logger.Warn("closing document store failed", "error", err)
		}
		_ = sink.Close()
	}
	return services, cleanup, nil
}

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

func loadServicesForCurrentDir() (*wiring.AppServices, func(), error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, nil, err
	}
	return loadServices(root)
}

// readDocument reads a document file; "-" reads stdin.
func readDocument(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	// #nosec G304 -- path is supplied by the user on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
