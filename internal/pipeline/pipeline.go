// Package pipeline drives document ingestion: extraction, chunking,
// embedding and indexing, with the document row tracking progress.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
	"github.com/Divyansh-Atri/pdf-query/internal/embeddings"
	"github.com/Divyansh-Atri/pdf-query/internal/storage"
)

var tracer = otel.Tracer("pdfquery.pipeline")

// Extractor produces per-page text from raw PDF bytes.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (pages []string, pageCount int, err error)
}

// Splitter cuts page texts into retrieval chunks.
type Splitter interface {
	Split(documentID string, pages []string) []domain.Chunk
}

// VectorIndex is the slice of the vector store the pipeline needs.
type VectorIndex interface {
	Upsert(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) error
	Drop(ctx context.Context, documentID string) error
}

// Pipeline ingests one document at a time per document ID. Ingestions of
// different documents run concurrently; re-ingestion of the same ID
// serializes behind the in-flight run.
type Pipeline struct {
	extractor Extractor
	splitter  Splitter
	embedder  embeddings.Embedder
	index     VectorIndex
	documents storage.DocumentStore
	logger    *zap.Logger

	inflight sync.Map // document ID -> *sync.Mutex
}

// New wires the ingestion stages together.
func New(
	extractor Extractor,
	splitter Splitter,
	embedder embeddings.Embedder,
	index VectorIndex,
	documents storage.DocumentStore,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		index:     index,
		documents: documents,
		logger:    logger,
	}
}

func (p *Pipeline) lock(documentID string) *sync.Mutex {
	mu, _ := p.inflight.LoadOrStore(documentID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Result reports what one ingestion run produced.
type Result struct {
	Document   domain.Document
	ChunkCount int
}

// Ingest runs the full pipeline for an already-created document row and
// returns the updated row. On success the document is ready and queryable;
// on failure its collection is dropped, the row is marked failed with the
// reason, and the stage error is returned.
func (p *Pipeline) Ingest(ctx context.Context, documentID string, data []byte) (Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.id", documentID),
		attribute.Int("document.bytes", len(data)),
	)

	mu := p.lock(documentID)
	mu.Lock()
	defer mu.Unlock()

	doc, err := p.documents.Get(ctx, documentID)
	if err != nil {
		return Result{}, err
	}

	pages, chunks, err := p.run(ctx, doc, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingestion failed")
		return p.fail(ctx, doc, err)
	}

	doc.PageCount = len(pages)
	doc.Status = domain.StatusReady
	doc.FailureReason = ""
	if err := p.documents.Update(ctx, doc); err != nil {
		return p.fail(ctx, doc, err)
	}

	p.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)))
	span.SetAttributes(attribute.Int("document.chunks", len(chunks)))
	return Result{Document: doc, ChunkCount: len(chunks)}, nil
}

func (p *Pipeline) run(ctx context.Context, doc domain.Document, data []byte) ([]string, []domain.Chunk, error) {
	pages, _, err := p.extractor.Extract(ctx, data)
	if err != nil {
		return nil, nil, err
	}

	chunks := p.splitter.Split(doc.ID, pages)

	// A scanned or blank PDF can extract zero usable text. The document
	// still becomes ready, with an empty collection behind it.
	var vectors [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		vectors, err = p.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := p.index.Upsert(ctx, doc.ID, chunks, vectors); err != nil {
		return nil, nil, err
	}
	return pages, chunks, nil
}

// fail cleans up after a broken ingestion: the half-built collection is
// dropped so a failed document never serves stale chunks, and the row
// records the failure kind.
func (p *Pipeline) fail(ctx context.Context, doc domain.Document, cause error) (Result, error) {
	if err := p.index.Drop(ctx, doc.ID); err != nil {
		p.logger.Warn("dropping collection after failed ingestion",
			zap.String("document_id", doc.ID), zap.Error(err))
	}

	doc.Status = domain.StatusFailed
	doc.FailureReason = fmt.Sprintf("%s: %v", domain.Kind(cause), cause)
	if err := p.documents.Update(ctx, doc); err != nil {
		p.logger.Error("marking document failed",
			zap.String("document_id", doc.ID), zap.Error(err))
	}

	p.logger.Warn("document ingestion failed",
		zap.String("document_id", doc.ID),
		zap.String("kind", domain.Kind(cause)),
		zap.Error(cause))
	return Result{Document: doc}, cause
}
