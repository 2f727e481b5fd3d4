package blobstore

import (
	"context"
	"sync"

	"github.com/rescam/phish-triage/internal/core"
)

// MemoryStore is an in-memory implementation of the BlobStore interface,
// used for tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]string
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]string),
	}
}

// Get returns the blob at path, or core.ErrBlobNotFound.
func (s *MemoryStore) Get(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.blobs[path]
	if !ok {
		return "", core.ErrBlobNotFound
	}
	return content, nil
}

// Put writes the blob at path.
func (s *MemoryStore) Put(_ context.Context, path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = content
	return nil
}

// Delete removes the blob at path.
func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
	return nil
}

// Exists reports whether a blob is present at path.
func (s *MemoryStore) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[path]
	return ok
}
