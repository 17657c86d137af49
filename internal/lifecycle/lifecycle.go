// Package lifecycle removes documents and their derived state as a unit:
// vector collection, chat history and the metadata row go together.
package lifecycle

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Divyansh-Atri/pdf-query/internal/storage"
)

var tracer = otel.Tracer("pdfquery.lifecycle")

// VectorIndex is the slice of the vector store deletion needs.
type VectorIndex interface {
	Drop(ctx context.Context, documentID string) error
}

// Manager coordinates cascading deletes across the three stores.
type Manager struct {
	index     VectorIndex
	documents storage.DocumentStore
	history   storage.HistoryStore
	logger    *zap.Logger
}

// New creates a lifecycle manager.
func New(index VectorIndex, documents storage.DocumentStore, history storage.HistoryStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		index:     index,
		documents: documents,
		history:   history,
		logger:    logger,
	}
}

// Delete removes a document and everything derived from it. The vector
// collection goes first, then the chat history, then the row itself, so a
// partially deleted document can never answer a query with dangling
// state. Unknown documents return domain.ErrNotFound.
func (m *Manager) Delete(ctx context.Context, documentID string) error {
	ctx, span := tracer.Start(ctx, "lifecycle.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentID))

	if _, err := m.documents.Get(ctx, documentID); err != nil {
		return err
	}

	if err := m.index.Drop(ctx, documentID); err != nil {
		return err
	}
	if err := m.history.Purge(ctx, documentID); err != nil {
		return err
	}
	if err := m.documents.Delete(ctx, documentID); err != nil {
		return err
	}

	m.logger.Info("document deleted", zap.String("document_id", documentID))
	return nil
}

// ClearHistory wipes a document's chat history without touching the
// document or its index. Unknown documents return domain.ErrNotFound.
func (m *Manager) ClearHistory(ctx context.Context, documentID string) error {
	ctx, span := tracer.Start(ctx, "lifecycle.ClearHistory")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentID))

	if _, err := m.documents.Get(ctx, documentID); err != nil {
		return err
	}
	if err := m.history.Purge(ctx, documentID); err != nil {
		return err
	}

	m.logger.Info("chat history cleared", zap.String("document_id", documentID))
	return nil
}
