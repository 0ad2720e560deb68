package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteDocumentStore keeps one row per document version.
type SQLiteDocumentStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteDocumentStore opens or creates the database and applies migrations.
func OpenSQLiteDocumentStore(path string) (*SQLiteDocumentStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteDocumentStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteDocumentStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteDocumentStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT NOT NULL,
			version INTEGER NOT NULL,
			type TEXT NOT NULL,
			program_id TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (id, version)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_type_program ON documents(type, program_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDocumentStore) CreateDocument(ctx context.Context, docType, programID, content string) (string, error) {
	if err := document.Validate(docType); err != nil {
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
	if err := insertVersion(ctx, s.db, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (s *SQLiteDocumentStore) UpdateDocument(ctx context.Context, id string, update document.Update) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := latestVersion(ctx, tx, id)
	if err != nil {
		return err
	}
	next := *current
	if !next.Apply(update, s.now().UTC()) {
		return tx.Commit()
	}

	if next.Version != current.Version {
		err = insertVersion(ctx, tx, next)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET program_id = ?, updated_at = ? WHERE id = ? AND version = ?`,
			next.ProgramID, formatTime(next.UpdatedAt), next.ID, next.Version)
	}
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteDocumentStore) ListVersions(ctx context.Context, docType, programID string) ([]document.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version, type, program_id, content, created_at, updated_at
		 FROM documents WHERE type = ? AND program_id = ?
		 ORDER BY updated_at DESC, rowid DESC`,
		docType, programID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	out := make([]document.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return out, nil
}

func (s *SQLiteDocumentStore) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	return latestVersion(ctx, s.db, id)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func insertVersion(ctx context.Context, db execer, doc document.Document) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO documents (id, version, type, program_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Version, doc.Type, doc.ProgramID, doc.Content,
		formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert document version: %w", err)
	}
	return nil
}

func latestVersion(ctx context.Context, db queryer, id string) (*document.Document, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, version, type, program_id, content, created_at, updated_at
		 FROM documents WHERE id = ? ORDER BY version DESC LIMIT 1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", document.ErrNotFound, id)
	}
	return doc, err
}

func scanDocument(row scanner) (*document.Document, error) {
	var (
		doc              document.Document
		created, updated string
	)
	if err := row.Scan(&doc.ID, &doc.Version, &doc.Type, &doc.ProgramID, &doc.Content, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	var err error
	if doc.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if doc.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &doc, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
