// Package memory provides an in-process storage backend. It backs tests
// and is the default when no data directory is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
	"github.com/Divyansh-Atri/pdf-query/internal/storage"
)

// Store keeps documents and history in maps guarded by one mutex.
type Store struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	history   map[string][]domain.QARecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]domain.Document),
		history:   make(map[string][]domain.QARecord),
	}
}

func (s *Store) Documents() storage.DocumentStore { return (*documentStore)(s) }
func (s *Store) History() storage.HistoryStore    { return (*historyStore)(s) }
func (s *Store) Close() error                     { return nil }

type documentStore Store

func (s *documentStore) Create(_ context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return fmt.Errorf("%w: document %s already exists", domain.ErrInvalidInput, doc.ID)
	}
	s.documents[doc.ID] = doc
	return nil
}

func (s *documentStore) Get(_ context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return doc, nil
}

func (s *documentStore) List(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (s *documentStore) Update(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
	}
	s.documents[doc.ID] = doc
	return nil
}

func (s *documentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	delete(s.documents, id)
	return nil
}

type historyStore Store

func (s *historyStore) Append(_ context.Context, record domain.QARecord) error {
	if record.DocumentID == "" {
		return fmt.Errorf("%w: document id required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[record.DocumentID] = append(s.history[record.DocumentID], record)
	return nil
}

func (s *historyStore) List(_ context.Context, documentID string) ([]domain.QARecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.history[documentID]
	out := make([]domain.QARecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *historyStore) Purge(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, documentID)
	return nil
}
