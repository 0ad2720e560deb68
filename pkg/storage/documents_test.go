package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
)

// storeContract runs the document.Store behaviour shared by every adapter.
func storeContract(t *testing.T, newStore func(t *testing.T, now func() time.Time) document.Store) {
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t, tick)
		id, err := s.CreateDocument(ctx, document.TypePersonalStatement, "med", "first draft")
		if err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}
		doc, err := s.GetDocument(ctx, id)
		if err != nil {
			t.Fatalf("GetDocument: %v", err)
		}
		if doc.Version != 1 || doc.Content != "first draft" || doc.ProgramID != "med" || doc.Type != document.TypePersonalStatement {
			t.Errorf("unexpected document %+v", doc)
		}
	})

	t.Run("type required", func(t *testing.T) {
		s := newStore(t, tick)
		if _, err := s.CreateDocument(ctx, " ", "", "x"); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("content update bumps version", func(t *testing.T) {
		s := newStore(t, tick)
		id, _ := s.CreateDocument(ctx, document.TypeEssay, "p", "v1")
		v2 := "v2"
		if err := s.UpdateDocument(ctx, id, document.Update{Content: &v2}); err != nil {
			t.Fatalf("UpdateDocument: %v", err)
		}
		same := "v2"
		if err := s.UpdateDocument(ctx, id, document.Update{Content: &same}); err != nil {
			t.Fatalf("no-op update: %v", err)
		}
		doc, _ := s.GetDocument(ctx, id)
		if doc.Version != 2 || doc.Content != "v2" {
			t.Errorf("expected version 2, got %+v", doc)
		}
	})

	t.Run("program change keeps version", func(t *testing.T) {
		s := newStore(t, tick)
		id, _ := s.CreateDocument(ctx, document.TypeEssay, "old", "text")
		program := "new"
		if err := s.UpdateDocument(ctx, id, document.Update{ProgramID: &program}); err != nil {
			t.Fatal(err)
		}
		doc, _ := s.GetDocument(ctx, id)
		if doc.Version != 1 || doc.ProgramID != "new" {
			t.Errorf("unexpected document %+v", doc)
		}
	})

	t.Run("list versions newest first", func(t *testing.T) {
		s := newStore(t, tick)
		id, _ := s.CreateDocument(ctx, document.TypeCV, "eng", "one")
		other, _ := s.CreateDocument(ctx, document.TypeCV, "eng", "other")
		_, _ = s.CreateDocument(ctx, document.TypeCV, "law", "elsewhere")
		two := "two"
		_ = s.UpdateDocument(ctx, id, document.Update{Content: &two})

		got, err := s.ListVersions(ctx, document.TypeCV, "eng")
		if err != nil {
			t.Fatalf("ListVersions: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 versions, got %d", len(got))
		}
		if got[0].ID != id || got[0].Version != 2 {
			t.Errorf("newest entry should be version 2 of %s, got %+v", id, got[0])
		}
		if got[1].ID != other || got[2].ID != id || got[2].Version != 1 {
			t.Errorf("unexpected order %+v", got)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		s := newStore(t, tick)
		if _, err := s.GetDocument(ctx, "missing"); !errors.Is(err, document.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		content := "x"
		if err := s.UpdateDocument(ctx, "missing", document.Update{Content: &content}); !errors.Is(err, document.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		s := newStore(t, tick)
		got, err := s.ListVersions(ctx, document.TypeEssay, "none")
		if err != nil || got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil list, got %v %v", got, err)
		}
	})
}

func TestFileDocumentStore(t *testing.T) {
	storeContract(t, func(t *testing.T, now func() time.Time) document.Store {
		s := NewFileDocumentStore(NewFilesystemRepository(t.TempDir()))
		s.now = now
		return s
	})
}

func TestSQLiteDocumentStore(t *testing.T) {
	storeContract(t, func(t *testing.T, now func() time.Time) document.Store {
		s, err := OpenSQLiteDocumentStore(filepath.Join(t.TempDir(), WorkspaceDir, DatabaseFile))
		if err != nil {
			t.Fatalf("OpenSQLiteDocumentStore: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		s.now = now
		return s
	})
}

func TestFileDocumentStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	id, err := NewFileDocumentStore(NewFilesystemRepository(dir)).CreateDocument(ctx, document.TypeEssay, "", "kept")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := NewFileDocumentStore(NewFilesystemRepository(dir)).GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("reopened store: %v", err)
	}
	if doc.Content != "kept" {
		t.Errorf("unexpected content %q", doc.Content)
	}
}
