package store

import (
	"context"
	"sync"
)

// MemoryKV is an in-process backend used by tests.
type MemoryKV struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{docs: map[string][]byte{}}
}

// Load reads the full document for key.
func (s *MemoryKV) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

// Save overwrites the document for key.
func (s *MemoryKV) Save(_ context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(doc))
	copy(stored, doc)
	s.docs[key] = stored
	return nil
}

// Ping always succeeds.
func (s *MemoryKV) Ping(_ context.Context) error { return nil }
