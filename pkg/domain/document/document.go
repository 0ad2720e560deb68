// Package document defines application documents and the storage
// collaborator that versions them.
package document

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a document id is unknown to the store.
var ErrNotFound = errors.New("document not found")

// Common document types.
const (
	TypePersonalStatement = "personal_statement"
	TypeMotivationLetter  = "motivation_letter"
	TypeCV                = "cv"
	TypeEssay             = "essay"
)

// Document is one stored version of an application document.
type Document struct {
	ID        string    `json:"id" yaml:"id"`
	Type      string    `json:"type" yaml:"type"`
	ProgramID string    `json:"program_id,omitempty" yaml:"program_id,omitempty"`
	Content   string    `json:"content" yaml:"content"`
	Version   int       `json:"version" yaml:"version"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Update carries the fields to change; nil fields are left untouched.
type Update struct {
	Content   *string
	ProgramID *string
}

// Store persists documents. Every UpdateDocument that changes content bumps
// the version. ListVersions returns the documents of one type and program,
// newest first.
type Store interface {
	CreateDocument(ctx context.Context, docType, programID, content string) (string, error)
	UpdateDocument(ctx context.Context, id string, update Update) error
	ListVersions(ctx context.Context, docType, programID string) ([]Document, error)
	GetDocument(ctx context.Context, id string) (*Document, error)
}

// Validate checks the fields required to create a document.
func Validate(docType string) error {
	if strings.TrimSpace(docType) == "" {
		return errors.New("document type is required")
	}
	return nil
}

// Apply applies the update to d and reports whether anything changed.
func (d *Document) Apply(u Update, now time.Time) bool {
	changed := false
	if u.Content != nil && *u.Content != d.Content {
		d.Content = *u.Content
		d.Version++
		changed = true
	}
	if u.ProgramID != nil && *u.ProgramID != d.ProgramID {
		d.ProgramID = *u.ProgramID
		changed = true
	}
	if changed {
		d.UpdatedAt = now
	}
	return changed
}
