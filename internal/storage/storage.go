// Package storage defines the persistence interfaces for document
// metadata and per-document chat history. Implementations live in the
// memory and sqlite subpackages.
package storage

import (
	"context"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
)

// DocumentStore persists document metadata rows.
type DocumentStore interface {
	// Create inserts a new document. Inserting an existing ID fails with
	// domain.ErrInvalidInput.
	Create(ctx context.Context, doc domain.Document) error

	// Get returns the document with the given ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (domain.Document, error)

	// List returns all documents, most recently uploaded first.
	List(ctx context.Context) ([]domain.Document, error)

	// Update replaces the row for doc.ID, or returns domain.ErrNotFound.
	Update(ctx context.Context, doc domain.Document) error

	// Delete removes the document row, or returns domain.ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// HistoryStore persists the question/answer history of each document.
type HistoryStore interface {
	// Append adds one exchange to the document's history.
	Append(ctx context.Context, record domain.QARecord) error

	// List returns the document's history in append order. An unknown
	// document yields an empty slice, not an error.
	List(ctx context.Context, documentID string) ([]domain.QARecord, error)

	// Purge deletes the document's entire history. Purging a document
	// with no history is a no-op.
	Purge(ctx context.Context, documentID string) error
}

// Store bundles both stores behind one backend.
type Store interface {
	Documents() DocumentStore
	History() HistoryStore
	Close() error
}
