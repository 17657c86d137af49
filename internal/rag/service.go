// Package rag is the application facade: upload, ask, list, history and
// deletion, built on the ingestion pipeline and the retrieval engine.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
	"github.com/Divyansh-Atri/pdf-query/internal/engine"
	"github.com/Divyansh-Atri/pdf-query/internal/pipeline"
	"github.com/Divyansh-Atri/pdf-query/internal/storage"
)

var tracer = otel.Tracer("pdfquery.rag")

// DefaultMaxUploadBytes caps uploads when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// Ingestor runs the ingestion pipeline for an existing document row.
type Ingestor interface {
	Ingest(ctx context.Context, documentID string, data []byte) (pipeline.Result, error)
}

// Answerer answers a question against one ready document.
type Answerer interface {
	Answer(ctx context.Context, documentID, question string) (engine.Answer, error)
}

// Lifecycle removes documents and chat history.
type Lifecycle interface {
	Delete(ctx context.Context, documentID string) error
	ClearHistory(ctx context.Context, documentID string) error
}

// IngestResult is what an upload produced.
type IngestResult struct {
	DocumentID    string
	Filename      string
	Status        domain.IngestionStatus
	PageCount     int
	ChunkCount    int
	FailureReason string
}

// Service ties the pipeline, engine and lifecycle together behind one API.
type Service struct {
	ingestor       Ingestor
	answerer       Answerer
	lifecycle      Lifecycle
	documents      storage.DocumentStore
	history        storage.HistoryStore
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewService creates the facade. maxUploadBytes <= 0 selects the default.
func NewService(
	ingestor Ingestor,
	answerer Answerer,
	lifecycle Lifecycle,
	documents storage.DocumentStore,
	history storage.HistoryStore,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Service {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ingestor:       ingestor,
		answerer:       answerer,
		lifecycle:      lifecycle,
		documents:      documents,
		history:        history,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Ingest registers an uploaded PDF and runs it through the pipeline. A new
// document ID is minted per upload. When ingestion fails the document row
// survives in failed state and both the result and the error report it.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (IngestResult, error) {
	ctx, span := tracer.Start(ctx, "rag.Ingest")
	defer span.End()

	if strings.TrimSpace(filename) == "" {
		return IngestResult{}, fmt.Errorf("%w: filename required", domain.ErrInvalidInput)
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return IngestResult{}, fmt.Errorf("%w: %s is not a pdf", domain.ErrInvalidInput, filename)
	}
	if len(data) == 0 {
		return IngestResult{}, fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return IngestResult{}, fmt.Errorf("%w: %d bytes exceeds limit of %d",
			domain.ErrFileTooLarge, len(data), s.maxUploadBytes)
	}

	doc := domain.Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		FileSize:   int64(len(data)),
		Status:     domain.StatusPending,
		UploadedAt: time.Now(),
	}
	span.SetAttributes(attribute.String("document.id", doc.ID))
	if err := s.documents.Create(ctx, doc); err != nil {
		return IngestResult{}, err
	}

	result, err := s.ingestor.Ingest(ctx, doc.ID, data)
	out := IngestResult{
		DocumentID:    doc.ID,
		Filename:      filename,
		Status:        result.Document.Status,
		PageCount:     result.Document.PageCount,
		ChunkCount:    result.ChunkCount,
		FailureReason: result.Document.FailureReason,
	}
	if err != nil {
		return out, err
	}

	s.logger.Info("document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("filename", filename),
		zap.Int("pages", out.PageCount),
		zap.Int("chunks", out.ChunkCount))
	return out, nil
}

// Ask answers a question against a document and records the exchange.
// Exactly one history record is appended per successful answer; a failed
// generation leaves the history untouched.
func (s *Service) Ask(ctx context.Context, documentID, question string) (engine.Answer, error) {
	ctx, span := tracer.Start(ctx, "rag.Ask")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentID))

	answer, err := s.answerer.Answer(ctx, documentID, question)
	if err != nil {
		return engine.Answer{}, err
	}

	record := domain.QARecord{
		DocumentID: documentID,
		Question:   question,
		Answer:     answer.Text,
		CreatedAt:  time.Now(),
	}
	if err := s.history.Append(ctx, record); err != nil {
		return engine.Answer{}, fmt.Errorf("recording exchange: %w", err)
	}
	return answer, nil
}

// Documents lists all uploaded documents, most recent first.
func (s *Service) Documents(ctx context.Context) ([]domain.Document, error) {
	return s.documents.List(ctx)
}

// History returns a document's chat history in chronological order.
func (s *Service) History(ctx context.Context, documentID string) ([]domain.QARecord, error) {
	if _, err := s.documents.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.history.List(ctx, documentID)
}

// DeleteDocument removes the document, its collection and its history.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) error {
	return s.lifecycle.Delete(ctx, documentID)
}

// ClearChat wipes the document's chat history only.
func (s *Service) ClearChat(ctx context.Context, documentID string) error {
	return s.lifecycle.ClearHistory(ctx, documentID)
}
