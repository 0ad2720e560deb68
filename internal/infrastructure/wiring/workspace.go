package wiring

import (
	"fmt"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/messaging"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
	"github.com/felixgeelhaar/essaycoach/pkg/storage"
)

// Workspace bundles the configuration and file-backed infrastructure of one project root.
type Workspace struct {
	Root        string
	Repo        *storage.FilesystemRepository
	Config      *config.Config
	Events      *storage.FileEventStore
	DeadLetters *messaging.DeadLetterStore
}

// NewWorkspace loads the configuration under root. A missing workspace
// directory is not an error; the defaults apply.
func NewWorkspace(root string) (*Workspace, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return newWorkspace(root, cfg)
}

func newWorkspace(root string, cfg *config.Config) (*Workspace, error) {
	repo := storage.NewFilesystemRepository(root)
	dlPath, err := repo.ResolvePath(storage.DeadLetterFile)
	if err != nil {
		return nil, fmt.Errorf("resolve dead letter file: %w", err)
	}
	return &Workspace{
		Root:        root,
		Repo:        repo,
		Config:      cfg,
		Events:      storage.NewFileEventStore(repo),
		DeadLetters: messaging.NewDeadLetterStore(dlPath),
	}, nil
}

// DocumentStore is a document.Store that may hold an open database.
type DocumentStore struct {
	document.Store
	close func() error
}

// Close releases the underlying database, if any.
func (d *DocumentStore) Close() error {
	return d.close()
}

// OpenDocumentStore opens the store selected by storage.driver.
func (w *Workspace) OpenDocumentStore() (*DocumentStore, error) {
	switch w.Config.Storage.Driver {
	case config.StorageSQLite:
		path := w.Config.Storage.Path
		if path == "" {
			resolved, err := w.Repo.ResolvePath(storage.DatabaseFile)
			if err != nil {
				return nil, err
			}
			path = resolved
		}
		db, err := storage.OpenSQLiteDocumentStore(path)
		if err != nil {
			return nil, err
		}
		return &DocumentStore{Store: db, close: db.Close}, nil
	default:
		return &DocumentStore{Store: storage.NewFileDocumentStore(w.Repo), close: func() error { return nil }}, nil
	}
}
