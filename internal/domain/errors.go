package domain

import "errors"

// Sentinel errors for the pipeline. Callers match with errors.Is; Kind maps
// them to the stable strings surfaced in responses.
var (
	// ErrExtraction indicates the uploaded bytes are not a readable PDF.
	ErrExtraction = errors.New("pdf extraction failed")

	// ErrEmbedding indicates the embedding provider failed. Transient
	// failures may be retried by the caller; the pipeline does not retry.
	ErrEmbedding = errors.New("embedding generation failed")

	// ErrGeneration indicates the answer model failed.
	ErrGeneration = errors.New("answer generation failed")

	// ErrDocumentNotReady indicates a question arrived before ingestion
	// finished, or after it failed.
	ErrDocumentNotReady = errors.New("document not ready")

	// ErrNotFound indicates an operation against an unknown document id.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidInput indicates malformed input (empty question, blank id).
	ErrInvalidInput = errors.New("invalid input")

	// ErrFileTooLarge indicates the upload exceeds the configured byte limit.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
)

// Kind returns the stable machine-readable kind for an error, or "internal"
// for anything outside the taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrExtraction):
		return "extraction_error"
	case errors.Is(err, ErrEmbedding):
		return "embedding_error"
	case errors.Is(err, ErrGeneration):
		return "generation_error"
	case errors.Is(err, ErrDocumentNotReady):
		return "document_not_ready"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrFileTooLarge):
		return "file_too_large"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
