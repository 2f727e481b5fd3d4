package docstore

import (
	"context"
	"sync"

	"github.com/rescam/phish-triage/internal/core"
)

// MemoryStore is an in-memory implementation of the DocumentStore interface,
// used for tests and local runs.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]any
}

// NewMemoryStore creates a new in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]map[string]any),
	}
}

// Put stores a document's field mapping.
func (s *MemoryStore) Put(collection, documentID string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]map[string]any)
	}
	s.docs[collection][documentID] = fields
}

// Get returns the field mapping of a document, or core.ErrDocumentNotFound.
func (s *MemoryStore) Get(_ context.Context, collection, documentID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.docs[collection][documentID]
	if !ok {
		return nil, core.ErrDocumentNotFound
	}
	return fields, nil
}
