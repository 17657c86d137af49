package engine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
	"github.com/Divyansh-Atri/pdf-query/internal/engine"
	"github.com/Divyansh-Atri/pdf-query/internal/storage/memory"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, f.err
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }

type fakeRetriever struct {
	chunks []domain.ScoredChunk
	err    error
	topK   int
}

func (f *fakeRetriever) Query(_ context.Context, _ string, _ []float32, topK int) ([]domain.ScoredChunk, error) {
	f.topK = topK
	return f.chunks, f.err
}

type fakeGenerator struct {
	question string
	chunks   []domain.ScoredChunk
	answer   string
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, question string, chunks []domain.ScoredChunk) (string, error) {
	f.question = question
	f.chunks = chunks
	return f.answer, f.err
}

func newTestEngine(t *testing.T, status domain.IngestionStatus, retriever *fakeRetriever, generator *fakeGenerator) *engine.Engine {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.Documents().Create(context.Background(), domain.Document{
		ID:         "doc-1",
		Filename:   "doc.pdf",
		Status:     status,
		UploadedAt: time.Now(),
	}))
	return engine.New(&fakeEmbedder{}, retriever, generator, store.Documents(), 0, nil)
}

func TestAnswer_Success(t *testing.T) {
	retriever := &fakeRetriever{chunks: []domain.ScoredChunk{
		{Chunk: domain.Chunk{DocumentID: "doc-1", Index: 0, Page: 1, Text: "relevant"}, Similarity: 0.9},
	}}
	generator := &fakeGenerator{answer: "Here is the answer."}
	eng := newTestEngine(t, domain.StatusReady, retriever, generator)

	answer, err := eng.Answer(context.Background(), "doc-1", "What is relevant?")
	require.NoError(t, err)

	assert.Equal(t, "Here is the answer.", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "relevant", answer.Sources[0].Text)

	assert.Equal(t, "What is relevant?", generator.question)
	assert.Equal(t, engine.DefaultTopK, retriever.topK)
}

func TestAnswer_EmptyIndexStillGenerates(t *testing.T) {
	retriever := &fakeRetriever{chunks: nil}
	generator := &fakeGenerator{answer: "The document contains no text."}
	eng := newTestEngine(t, domain.StatusReady, retriever, generator)

	answer, err := eng.Answer(context.Background(), "doc-1", "Anything?")
	require.NoError(t, err)
	assert.Equal(t, "The document contains no text.", answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Empty(t, generator.chunks)
}

func TestAnswer_DocumentNotReady(t *testing.T) {
	for _, status := range []domain.IngestionStatus{domain.StatusPending, domain.StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			eng := newTestEngine(t, status, &fakeRetriever{}, &fakeGenerator{})

			_, err := eng.Answer(context.Background(), "doc-1", "q")
			assert.ErrorIs(t, err, domain.ErrDocumentNotReady)
		})
	}
}

func TestAnswer_UnknownDocument(t *testing.T) {
	eng := newTestEngine(t, domain.StatusReady, &fakeRetriever{}, &fakeGenerator{})

	_, err := eng.Answer(context.Background(), "missing", "q")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	eng := newTestEngine(t, domain.StatusReady, &fakeRetriever{}, &fakeGenerator{})

	_, err := eng.Answer(context.Background(), "doc-1", "  \n ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_GenerationFailurePropagates(t *testing.T) {
	generator := &fakeGenerator{err: fmt.Errorf("%w: provider down", domain.ErrGeneration)}
	eng := newTestEngine(t, domain.StatusReady, &fakeRetriever{}, generator)

	_, err := eng.Answer(context.Background(), "doc-1", "q")
	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestAnswer_RetrievalFailurePropagates(t *testing.T) {
	retriever := &fakeRetriever{err: fmt.Errorf("%w: collection doc-1", domain.ErrNotFound)}
	eng := newTestEngine(t, domain.StatusReady, retriever, &fakeGenerator{})

	_, err := eng.Answer(context.Background(), "doc-1", "q")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
