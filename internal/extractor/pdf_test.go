package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
)

func TestExtract_EmptyInput(t *testing.T) {
	e := New(nil)

	pages, count, err := e.Extract(context.Background(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Nil(t, pages)
	assert.Zero(t, count)
}

func TestExtract_NotAPDF(t *testing.T) {
	e := New(nil)

	pages, count, err := e.Extract(context.Background(), []byte("plain text, not a pdf"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Nil(t, pages)
	assert.Zero(t, count)
}

func TestExtract_TruncatedHeader(t *testing.T) {
	e := New(nil)

	// A valid magic prefix with no body must not slip past validation.
	_, _, err := e.Extract(context.Background(), []byte("%PDF-1.7\n"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
