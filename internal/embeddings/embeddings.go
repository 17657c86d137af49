// Package embeddings provides embedding generation for chunks and queries.
package embeddings

import "context"

// Embedder generates vector embeddings from text.
//
// Implementations must return one vector per input, in input order, with a
// fixed dimension for a given configuration.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension for the configured model.
	Dimension() int
}
