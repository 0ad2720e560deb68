package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
)

type documentsFile struct {
	Documents []document.Document `json:"documents"`
}

// FileDocumentStore keeps every document version in .essaycoach/documents.json.
type FileDocumentStore struct {
	repo *FilesystemRepository
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileDocumentStore creates a document store inside the workspace.
func NewFileDocumentStore(repo *FilesystemRepository) *FileDocumentStore {
	return &FileDocumentStore{repo: repo, now: time.Now}
}

func (s *FileDocumentStore) load(ctx context.Context) (*documentsFile, error) {
	var f documentsFile
	if _, err := s.repo.LoadJSON(ctx, DocumentsFile, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FileDocumentStore) CreateDocument(ctx context.Context, docType, programID, content string) (string, error) {
	if err := document.Validate(docType); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	doc := document.Document{
		ID:        uuid.NewString(),
		Type:      docType,
		ProgramID: programID,
		Content:   content,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.Documents = append(f.Documents, doc)
	if err := s.repo.SaveJSON(DocumentsFile, f); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// UpdateDocument appends a new version when content changes. A program change
// alone is recorded on the latest version.
func (s *FileDocumentStore) UpdateDocument(ctx context.Context, id string, update document.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(ctx)
	if err != nil {
		return err
	}

	idx := latestIndex(f.Documents, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", document.ErrNotFound, id)
	}

	next := f.Documents[idx]
	if !next.Apply(update, s.now().UTC()) {
		return nil
	}
	if next.Version != f.Documents[idx].Version {
		f.Documents = append(f.Documents, next)
	} else {
		f.Documents[idx] = next
	}
	return s.repo.SaveJSON(DocumentsFile, f)
}

func (s *FileDocumentStore) ListVersions(ctx context.Context, docType, programID string) ([]document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]document.Document, 0)
	for _, d := range f.Documents {
		if d.Type == docType && d.ProgramID == programID {
			out = append(out, d)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *FileDocumentStore) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := latestIndex(f.Documents, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", document.ErrNotFound, id)
	}
	doc := f.Documents[idx]
	return &doc, nil
}

func latestIndex(docs []document.Document, id string) int {
	idx := -1
	for i, d := range docs {
		if d.ID == id && (idx < 0 || d.Version > docs[idx].Version) {
			idx = i
		}
	}
	return idx
}

// sortNewestFirst orders records by UpdatedAt descending. Records are appended
// in write order, so ties keep the later record first.
func sortNewestFirst(docs []document.Document) {
	for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
		docs[i], docs[j] = docs[j], docs[i]
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
}
