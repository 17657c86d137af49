// Package domain holds the core types shared by the ingestion and
// question-answering pipeline.
package domain

import "time"

// IngestionStatus tracks where a document is in its lifecycle.
type IngestionStatus string

const (
	// StatusPending means the document row exists but indexing has not finished.
	StatusPending IngestionStatus = "pending"
	// StatusReady means the document is fully indexed and queryable.
	StatusReady IngestionStatus = "ready"
	// StatusFailed means ingestion failed; the document has no vector collection.
	StatusFailed IngestionStatus = "failed"
)

// Document is the metadata row for one uploaded PDF. Its ID is the join key
// for the vector collection and the chat history.
type Document struct {
	ID       string
	Filename string

	PageCount int
	FileSize  int64

	Status IngestionStatus
	// FailureReason records why ingestion failed. Empty unless Status is failed.
	FailureReason string

	UploadedAt time.Time
}

// Chunk is a bounded text span derived from one page of a document. It is
// the unit of embedding and retrieval and is persisted only in the vector
// index, never as its own row.
type Chunk struct {
	DocumentID string

	// Index is the global position of the chunk within the document.
	// Monotonic across pages and stable across re-ingestion of the same bytes.
	Index int

	// Page is the 1-based source page number.
	Page int

	Text string

	// Start and End are rune offsets of the span within the source page text.
	Start int
	End   int
}

// ScoredChunk is a retrieved chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk
	Similarity float32
}

// QARecord is one question/answer exchange in a document's chat history.
// Append-only per document; bulk-deletable without touching the document.
type QARecord struct {
	DocumentID string
	Question   string
	Answer     string
	CreatedAt  time.Time
}
