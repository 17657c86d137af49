package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
	"github.com/Divyansh-Atri/pdf-query/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore_MigratesAndReopens(t *testing.T) {
	dir := t.TempDir()

	store, err := sqlite.NewStore(dir)
	require.NoError(t, err)

	doc := domain.Document{
		ID:         "doc-1",
		Filename:   "report.pdf",
		Status:     domain.StatusReady,
		UploadedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Documents().Create(context.Background(), doc))
	require.NoError(t, store.Close())

	// Reopening must not re-run migrations or lose data.
	store, err = sqlite.NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Documents().Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, domain.StatusReady, got.Status)
}

func TestDocuments_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	docs := store.Documents()
	ctx := context.Background()

	doc := domain.Document{
		ID:         "doc-1",
		Filename:   "thesis.pdf",
		PageCount:  12,
		FileSize:   1 << 20,
		Status:     domain.StatusPending,
		UploadedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, docs.Create(ctx, doc))

	got, err := docs.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, doc.PageCount, got.PageCount)
	assert.Equal(t, doc.FileSize, got.FileSize)
	assert.Equal(t, doc.Status, got.Status)
	assert.True(t, doc.UploadedAt.Equal(got.UploadedAt))

	doc.Status = domain.StatusFailed
	doc.FailureReason = "extraction_error: not a pdf"
	require.NoError(t, docs.Update(ctx, doc))

	got, err = docs.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "extraction_error: not a pdf", got.FailureReason)

	require.NoError(t, docs.Delete(ctx, "doc-1"))
	_, err = docs.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocuments_CreateDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := domain.Document{ID: "doc-1", Filename: "a.pdf", Status: domain.StatusPending, UploadedAt: time.Now()}
	require.NoError(t, store.Documents().Create(ctx, doc))

	err := store.Documents().Create(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocuments_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.Documents().Create(ctx, domain.Document{
			ID:         id,
			Status:     domain.StatusReady,
			UploadedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	docs, err := store.Documents().List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "old", docs[2].ID)
}

func TestDocuments_UpdateMissing(t *testing.T) {
	store := newTestStore(t)

	err := store.Documents().Update(context.Background(), domain.Document{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.Documents().Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistory_AppendOrderAndPurge(t *testing.T) {
	store := newTestStore(t)
	history := store.History()
	ctx := context.Background()

	for _, q := range []string{"first?", "second?", "third?"} {
		require.NoError(t, history.Append(ctx, domain.QARecord{
			DocumentID: "doc-1",
			Question:   q,
			Answer:     "a",
			CreatedAt:  time.Now(),
		}))
	}
	require.NoError(t, history.Append(ctx, domain.QARecord{
		DocumentID: "doc-2",
		Question:   "other doc",
		Answer:     "a",
	}))

	records, err := history.List(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "first?", records[0].Question)
	assert.Equal(t, "third?", records[2].Question)

	require.NoError(t, history.Purge(ctx, "doc-1"))

	records, err = history.List(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, records)

	// Other documents keep their history.
	records, err = history.List(ctx, "doc-2")
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, history.Purge(ctx, "doc-1"))
}
