// Package vectorstore stores chunk embeddings in per-document collections.
//
// Each document gets its own chromem collection, so queries can never mix
// chunks from different documents and deletion is a collection drop.
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
)

var tracer = otel.Tracer("pdfquery.vectorstore")

// Config holds configuration for the embedded vector index.
type Config struct {
	// Path is the directory for persistent storage.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// VectorSize is the expected embedding dimension.
	VectorSize int
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: storage path required", domain.ErrInvalidInput)
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// Index is a per-document vector index backed by chromem-go.
//
// All access to one document's collection is serialized through a keyed
// read/write lock: Upsert and Drop take the write side, Query the read side,
// so a query never observes a half-written replacement and two concurrent
// ingestions for the same id cannot interleave writes. Operations on
// different document ids do not block each other.
type Index struct {
	db     *chromem.DB
	config Config
	logger *zap.Logger

	// locks maps document id to its *sync.RWMutex.
	locks sync.Map
}

// NewIndex opens (or creates) the persistent index at config.Path.
func NewIndex(config Config, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", config.Path, err)
	}

	db, err := chromem.NewPersistentDB(config.Path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}

	logger.Info("vector index opened",
		zap.String("path", config.Path),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", config.VectorSize),
	)

	return &Index{
		db:     db,
		config: config,
		logger: logger,
	}, nil
}

// collectionName returns the chromem collection name for a document id.
func collectionName(documentID string) string {
	return "doc_" + documentID
}

// lock returns the RWMutex guarding one document's collection.
func (ix *Index) lock(documentID string) *sync.RWMutex {
	mu, _ := ix.locks.LoadOrStore(documentID, &sync.RWMutex{})
	return mu.(*sync.RWMutex)
}

// noEmbedding is passed to chromem so it never falls back to its default
// remote embedder; all vectors here are precomputed.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("vector index only accepts precomputed embeddings")
}

// Upsert replaces the entire collection for documentID with the given
// chunks and their vectors. The replacement is atomic with respect to
// readers: the whole drop-then-insert runs under the document's write lock.
//
// An empty chunk slice is valid and produces an empty collection, which is
// what a document with no extractable text gets.
func (ix *Index) Upsert(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) error {
	ctx, span := tracer.Start(ctx, "Index.Upsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("document_id", documentID),
		attribute.Int("chunk_count", len(chunks)),
	)

	if documentID == "" {
		return fmt.Errorf("%w: document id required", domain.ErrInvalidInput)
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}

	mu := ix.lock(documentID)
	mu.Lock()
	defer mu.Unlock()

	name := collectionName(documentID)

	// Drop any previous contents so re-ingestion never appends to stale
	// chunks.
	if existing := ix.db.GetCollection(name, noEmbedding); existing != nil {
		if err := ix.db.DeleteCollection(name); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("replacing collection %s: %w", name, err)
		}
	}

	collection, err := ix.db.CreateCollection(name, nil, noEmbedding)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("creating collection %s: %w", name, err)
	}

	if len(chunks) > 0 {
		docs := make([]chromem.Document, len(chunks))
		for i, chunk := range chunks {
			docs[i] = chromem.Document{
				// Chunk id is (document id, chunk index), so identical
				// re-ingestion maps onto identical ids.
				ID:        fmt.Sprintf("%s_%06d", documentID, chunk.Index),
				Content:   chunk.Text,
				Embedding: normalize(vectors[i]),
				Metadata: map[string]string{
					"chunk_index": strconv.Itoa(chunk.Index),
					"page":        strconv.Itoa(chunk.Page),
					"start":       strconv.Itoa(chunk.Start),
					"end":         strconv.Itoa(chunk.End),
				},
			}
		}

		// Concurrency of 1: embeddings are precomputed, nothing to parallelize.
		if err := collection.AddDocuments(ctx, docs, 1); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("adding chunks to %s: %w", name, err)
		}
	}

	span.SetStatus(codes.Ok, "")
	ix.logger.Debug("upserted collection",
		zap.String("document_id", documentID),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

// Query returns the topK most similar chunks for the query vector, ranked by
// similarity descending with ties broken by ascending chunk index. topK is
// clamped to the collection size; an empty collection yields an empty slice,
// a missing one domain.ErrNotFound.
func (ix *Index) Query(ctx context.Context, documentID string, queryVector []float32, topK int) ([]domain.ScoredChunk, error) {
	ctx, span := tracer.Start(ctx, "Index.Query")
	defer span.End()
	span.SetAttributes(
		attribute.String("document_id", documentID),
		attribute.Int("top_k", topK),
	)

	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidInput)
	}

	mu := ix.lock(documentID)
	mu.RLock()
	defer mu.RUnlock()

	collection := ix.db.GetCollection(collectionName(documentID), noEmbedding)
	if collection == nil {
		span.SetStatus(codes.Error, "collection not found")
		return nil, fmt.Errorf("%w: no collection for document %s", domain.ErrNotFound, documentID)
	}

	count := collection.Count()
	if count == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if topK > count {
		topK = count
	}

	// Rank every chunk, then cut to topK after applying the deterministic
	// tie-break; similarity is exact over the whole collection anyway.
	results, err := collection.QueryEmbedding(ctx, normalize(queryVector), count, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection for %s: %w", documentID, err)
	}

	scored := make([]domain.ScoredChunk, 0, len(results))
	for _, result := range results {
		scored = append(scored, domain.ScoredChunk{
			Chunk:      chunkFromResult(documentID, result),
			Similarity: result.Similarity,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Index < scored[j].Index
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	span.SetAttributes(attribute.Int("results", len(scored)))
	span.SetStatus(codes.Ok, "")
	return scored, nil
}

// Drop removes the document's collection. Dropping a collection that does
// not exist is not an error.
func (ix *Index) Drop(ctx context.Context, documentID string) error {
	_, span := tracer.Start(ctx, "Index.Drop")
	defer span.End()
	span.SetAttributes(attribute.String("document_id", documentID))

	mu := ix.lock(documentID)
	mu.Lock()
	defer mu.Unlock()

	name := collectionName(documentID)
	if ix.db.GetCollection(name, noEmbedding) == nil {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	if err := ix.db.DeleteCollection(name); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}

	span.SetStatus(codes.Ok, "")
	ix.logger.Info("dropped collection", zap.String("document_id", documentID))
	return nil
}

// Exists reports whether the document has a collection.
func (ix *Index) Exists(ctx context.Context, documentID string) bool {
	mu := ix.lock(documentID)
	mu.RLock()
	defer mu.RUnlock()

	return ix.db.GetCollection(collectionName(documentID), noEmbedding) != nil
}

// Count returns the number of chunks stored for the document.
func (ix *Index) Count(ctx context.Context, documentID string) (int, error) {
	mu := ix.lock(documentID)
	mu.RLock()
	defer mu.RUnlock()

	collection := ix.db.GetCollection(collectionName(documentID), noEmbedding)
	if collection == nil {
		return 0, fmt.Errorf("%w: no collection for document %s", domain.ErrNotFound, documentID)
	}
	return collection.Count(), nil
}

// chunkFromResult rebuilds a domain chunk from stored metadata.
func chunkFromResult(documentID string, result chromem.Result) domain.Chunk {
	chunk := domain.Chunk{
		DocumentID: documentID,
		Text:       result.Content,
	}
	chunk.Index, _ = strconv.Atoi(result.Metadata["chunk_index"])
	chunk.Page, _ = strconv.Atoi(result.Metadata["page"])
	chunk.Start, _ = strconv.Atoi(result.Metadata["start"])
	chunk.End, _ = strconv.Atoi(result.Metadata["end"])
	return chunk
}

// normalize returns the unit-length copy of a vector. chromem expects
// normalized embeddings; cosine ranking is unaffected.
func normalize(vector []float32) []float32 {
	var sumSq float64
	for _, v := range vector {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return vector
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
