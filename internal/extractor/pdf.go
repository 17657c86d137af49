// Package extractor turns uploaded PDF bytes into ordered page texts.
package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tmc/langchaingo/documentloaders"
	"go.uber.org/zap"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
)

// Extractor extracts per-page text from a PDF byte stream.
//
// Image-only pages come back as empty strings so page numbering stays
// aligned with the source document.
type Extractor struct {
	logger *zap.Logger
}

// New creates an Extractor. A nil logger falls back to a no-op logger.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract returns the ordered page texts and the total page count.
//
// Invalid, encrypted or otherwise unreadable bytes fail with
// domain.ErrExtraction before any chunking or embedding work happens.
func (e *Extractor) Extract(ctx context.Context, data []byte) (pages []string, pageCount int, err error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w: empty input", domain.ErrExtraction)
	}

	// The underlying PDF parser panics on some malformed files instead of
	// returning an error; convert that into the extraction failure the
	// pipeline expects.
	defer func() {
		if r := recover(); r != nil {
			pages, pageCount = nil, 0
			err = fmt.Errorf("%w: malformed file: %v", domain.ErrExtraction, r)
		}
	}()

	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	pages = make([]string, 0, len(docs))
	pageCount = len(docs)
	for _, doc := range docs {
		pages = append(pages, doc.PageContent)
		if total, ok := doc.Metadata["total_pages"].(int); ok && total > pageCount {
			pageCount = total
		}
	}

	e.logger.Debug("extracted pdf",
		zap.Int("page_count", pageCount),
		zap.Int("bytes", len(data)),
	)

	return pages, pageCount, nil
}
