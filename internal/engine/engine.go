// Package engine answers questions against a single ready document by
// retrieving its most relevant chunks and prompting the generator.
package engine

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
	"github.com/Divyansh-Atri/pdf-query/internal/embeddings"
	"github.com/Divyansh-Atri/pdf-query/internal/generation"
	"github.com/Divyansh-Atri/pdf-query/internal/storage"
)

var tracer = otel.Tracer("pdfquery.engine")

// DefaultTopK is how many chunks are retrieved when no override is set.
const DefaultTopK = 4

// VectorIndex is the retrieval slice of the vector store.
type VectorIndex interface {
	Query(ctx context.Context, documentID string, queryVector []float32, topK int) ([]domain.ScoredChunk, error)
}

// Answer is a generated answer with the chunks it was grounded on.
type Answer struct {
	Text    string
	Sources []domain.ScoredChunk
}

// Engine runs the retrieve-then-generate loop.
type Engine struct {
	embedder  embeddings.Embedder
	index     VectorIndex
	generator generation.Generator
	documents storage.DocumentStore
	topK      int
	logger    *zap.Logger
}

// New creates an engine. topK <= 0 selects DefaultTopK.
func New(
	embedder embeddings.Embedder,
	index VectorIndex,
	generator generation.Generator,
	documents storage.DocumentStore,
	topK int,
	logger *zap.Logger,
) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		embedder:  embedder,
		index:     index,
		generator: generator,
		documents: documents,
		topK:      topK,
		logger:    logger,
	}
}

// Answer answers the question against the given document. The document
// must exist and be ready; a pending or failed document is rejected with
// domain.ErrDocumentNotReady. History is the caller's concern.
func (e *Engine) Answer(ctx context.Context, documentID, question string) (Answer, error) {
	ctx, span := tracer.Start(ctx, "engine.Answer")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentID))

	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	doc, err := e.documents.Get(ctx, documentID)
	if err != nil {
		return Answer{}, err
	}
	if doc.Status != domain.StatusReady {
		return Answer{}, fmt.Errorf("%w: document %s is %s", domain.ErrDocumentNotReady, documentID, doc.Status)
	}

	queryVector, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query embedding failed")
		return Answer{}, err
	}

	chunks, err := e.index.Query(ctx, documentID, queryVector, e.topK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return Answer{}, err
	}
	span.SetAttributes(attribute.Int("retrieved", len(chunks)))

	text, err := e.generator.Generate(ctx, question, chunks)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return Answer{}, err
	}

	e.logger.Debug("question answered",
		zap.String("document_id", documentID),
		zap.Int("retrieved", len(chunks)))
	return Answer{Text: text, Sources: chunks}, nil
}
