package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "extraction", err: ErrExtraction, want: "extraction_error"},
		{name: "embedding", err: ErrEmbedding, want: "embedding_error"},
		{name: "generation", err: ErrGeneration, want: "generation_error"},
		{name: "not ready", err: ErrDocumentNotReady, want: "document_not_ready"},
		{name: "not found", err: ErrNotFound, want: "not_found"},
		{name: "too large", err: ErrFileTooLarge, want: "file_too_large"},
		{name: "invalid input", err: ErrInvalidInput, want: "invalid_input"},
		{name: "unknown", err: errors.New("boom"), want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestKind_Wrapped(t *testing.T) {
	err := fmt.Errorf("stage embedding: %w", ErrEmbedding)
	assert.Equal(t, "embedding_error", Kind(err))
	assert.True(t, errors.Is(err, ErrEmbedding))
}
