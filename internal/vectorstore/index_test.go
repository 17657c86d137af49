package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
	"github.com/Divyansh-Atri/pdf-query/internal/vectorstore"
)

func newTestIndex(t *testing.T) *vectorstore.Index {
	t.Helper()

	index, err := vectorstore.NewIndex(vectorstore.Config{
		Path:       t.TempDir(),
		VectorSize: 3,
	}, nil)
	require.NoError(t, err)
	return index
}

func chunk(documentID string, index int, text string) domain.Chunk {
	return domain.Chunk{
		DocumentID: documentID,
		Index:      index,
		Page:       1,
		Text:       text,
		Start:      0,
		End:        len(text),
	}
}

func TestUpsertAndQuery_RankedBySimilarity(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	chunks := []domain.Chunk{
		chunk("doc-1", 0, "about cats"),
		chunk("doc-1", 1, "about dogs"),
		chunk("doc-1", 2, "about fish"),
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	require.NoError(t, index.Upsert(ctx, "doc-1", chunks, vectors))

	results, err := index.Query(ctx, "doc-1", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "about cats", results[0].Text)
	assert.Equal(t, "about fish", results[1].Text)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 1, results[0].Page)
}

func TestQuery_TiesBreakByChunkIndex(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	// Three identical vectors: ranking must fall back to chunk order.
	chunks := []domain.Chunk{
		chunk("doc-1", 0, "first"),
		chunk("doc-1", 1, "second"),
		chunk("doc-1", 2, "third"),
	}
	vectors := [][]float32{
		{0, 1, 0},
		{0, 1, 0},
		{0, 1, 0},
	}
	require.NoError(t, index.Upsert(ctx, "doc-1", chunks, vectors))

	results, err := index.Query(ctx, "doc-1", []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{results[0].Index, results[1].Index, results[2].Index})
}

func TestUpsert_ReplacesPreviousContents(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	first := []domain.Chunk{
		chunk("doc-1", 0, "old a"),
		chunk("doc-1", 1, "old b"),
		chunk("doc-1", 2, "old c"),
	}
	firstVectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	require.NoError(t, index.Upsert(ctx, "doc-1", first, firstVectors))

	second := []domain.Chunk{
		chunk("doc-1", 0, "new a"),
	}
	require.NoError(t, index.Upsert(ctx, "doc-1", second, [][]float32{{1, 0, 0}}))

	count, err := index.Count(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := index.Query(ctx, "doc-1", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new a", results[0].Text)
}

func TestUpsert_Idempotent(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	chunks := []domain.Chunk{
		chunk("doc-1", 0, "alpha"),
		chunk("doc-1", 1, "beta"),
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}

	require.NoError(t, index.Upsert(ctx, "doc-1", chunks, vectors))
	require.NoError(t, index.Upsert(ctx, "doc-1", chunks, vectors))

	count, err := index.Count(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestQuery_IsolationBetweenDocuments(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, "doc-a",
		[]domain.Chunk{chunk("doc-a", 0, "alpha content")},
		[][]float32{{1, 0, 0}},
	))
	require.NoError(t, index.Upsert(ctx, "doc-b",
		[]domain.Chunk{chunk("doc-b", 0, "beta content")},
		[][]float32{{1, 0, 0}},
	))

	results, err := index.Query(ctx, "doc-a", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha content", results[0].Text)
	assert.Equal(t, "doc-a", results[0].DocumentID)
}

func TestQuery_EmptyCollection(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, "doc-1", nil, nil))

	results, err := index.Query(ctx, "doc-1", []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_UnknownDocument(t *testing.T) {
	index := newTestIndex(t)

	_, err := index.Query(context.Background(), "missing", []float32{1, 0, 0}, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_ClampsTopK(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, "doc-1",
		[]domain.Chunk{chunk("doc-1", 0, "only one")},
		[][]float32{{1, 0, 0}},
	))

	results, err := index.Query(ctx, "doc-1", []float32{1, 0, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestDrop_Idempotent(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, "doc-1",
		[]domain.Chunk{chunk("doc-1", 0, "content")},
		[][]float32{{1, 0, 0}},
	))
	require.True(t, index.Exists(ctx, "doc-1"))

	require.NoError(t, index.Drop(ctx, "doc-1"))
	assert.False(t, index.Exists(ctx, "doc-1"))

	// Dropping again is not an error.
	require.NoError(t, index.Drop(ctx, "doc-1"))

	_, err := index.Query(ctx, "doc-1", []float32{1, 0, 0}, 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpsert_VectorCountMismatch(t *testing.T) {
	index := newTestIndex(t)

	err := index.Upsert(context.Background(), "doc-1",
		[]domain.Chunk{chunk("doc-1", 0, "content")},
		nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewIndex_InvalidConfig(t *testing.T) {
	_, err := vectorstore.NewIndex(vectorstore.Config{Path: ""}, nil)
	require.Error(t, err)

	_, err = vectorstore.NewIndex(vectorstore.Config{Path: t.TempDir(), VectorSize: 0}, nil)
	require.Error(t, err)
}
