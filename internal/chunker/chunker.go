// Package chunker splits extracted page texts into overlapping spans sized
// for the embedding context budget.
package chunker

import (
	"iter"
	"strings"
	"unicode"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
)

// DefaultChunkSize is the default span size in runes.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between consecutive spans.
const DefaultChunkOverlap = 200

// Chunker produces deterministic overlapping chunks from ordered page texts.
// Identical input and parameters always yield identical boundaries, which is
// what makes re-ingestion idempotent.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the span size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between consecutive spans in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Chunks returns a lazy, restartable sequence of chunks for the ordered page
// texts of one document. Pages are chunked independently: a page shorter than
// the span size becomes exactly one chunk and an empty page contributes none.
// Chunk indexes are global and monotonic across pages.
func (c *Chunker) Chunks(documentID string, pages []string) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		index := 0
		for pageNum, page := range pages {
			if strings.TrimSpace(page) == "" {
				continue
			}
			runes := []rune(page)
			n := len(runes)
			start := 0
			for start < n {
				end := start + c.size
				if end >= n {
					end = n
				} else {
					// Prefer a whitespace boundary inside the window;
					// hard-cut only when the window has none.
					if cut := lastBoundary(runes, start, end); cut > start {
						end = cut
					}
				}

				if !yield(domain.Chunk{
					DocumentID: documentID,
					Index:      index,
					Page:       pageNum + 1,
					Text:       string(runes[start:end]),
					Start:      start,
					End:        end,
				}) {
					return
				}
				index++

				if end == n {
					break
				}
				next := end - c.overlap
				if next <= start {
					// Overlap would stall the window; drop it for this step.
					next = end
				}
				start = next
			}
		}
	}
}

// Split collects the full chunk sequence into a slice.
func (c *Chunker) Split(documentID string, pages []string) []domain.Chunk {
	var chunks []domain.Chunk
	for chunk := range c.Chunks(documentID, pages) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// lastBoundary returns the rune offset just past the last whitespace rune in
// (start, end), or -1 when the window contains no whitespace.
func lastBoundary(runes []rune, start, end int) int {
	for i := end; i > start; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return -1
}
