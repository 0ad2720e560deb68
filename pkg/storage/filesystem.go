package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"gopkg.in/yaml.v3"
)

const WorkspaceDir = ".essaycoach"
const ConfigFile = "config.yaml"
const DocumentsFile = "documents.json"
const DatabaseFile = "documents.db"
const EventsFile = "events.jsonl"
const DeadLetterFile = "deadletters.jsonl"

// FilesystemRepository gives access to files inside the .essaycoach workspace directory.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// Dir returns the .essaycoach directory.
func (r *FilesystemRepository) Dir() string {
	return filepath.Join(r.root, WorkspaceDir)
}

// ResolvePath ensures the path is within the .essaycoach directory and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := r.Dir()
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	// Only direct children of the workspace directory are allowed.
	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(r.Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", WorkspaceDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(r.Dir())
	return err == nil
}

// ReadFile reads a workspace file, retrying transient failures. A missing
// file returns fs.ErrNotExist without retrying.
func (r *FilesystemRepository) ReadFile(ctx context.Context, filename string) ([]byte, error) {
	path, err := r.ResolvePath(filename)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	retryer := retry.New[[]byte](r.retryConfig)
	return retryer.Do(ctx, func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filename, err)
		}
		return data, nil
	})
}

// WriteFile atomically replaces a workspace file.
func (r *FilesystemRepository) WriteFile(filename string, data []byte) error {
	path, err := r.ResolvePath(filename)
	if err != nil {
		return err
	}
	if err := r.Initialize(); err != nil {
		return err
	}

	tmp := path + ".tmp"
	// G306: Use 0600 for files
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}

// LoadYAML decodes a workspace yaml file into v. It reports false when the file does not exist.
func (r *FilesystemRepository) LoadYAML(ctx context.Context, filename string, v any) (bool, error) {
	data, err := r.ReadFile(ctx, filename)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	return true, nil
}

// SaveYAML encodes v into a workspace yaml file.
func (r *FilesystemRepository) SaveYAML(filename string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filename, err)
	}
	return r.WriteFile(filename, data)
}

// LoadJSON decodes a workspace json file into v. It reports false when the file does not exist.
func (r *FilesystemRepository) LoadJSON(ctx context.Context, filename string, v any) (bool, error) {
	data, err := r.ReadFile(ctx, filename)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	return true, nil
}

// SaveJSON encodes v into an indented workspace json file.
func (r *FilesystemRepository) SaveJSON(filename string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filename, err)
	}
	return r.WriteFile(filename, data)
}
