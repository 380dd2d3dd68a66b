package blobstore

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store, primarily for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Open opens a blob for reading.
func (s *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[path.Clean(name)]
	if !ok {
		return nil, ErrNotFound
	}
	return &memoryBlob{data: data}, nil
}

// Put stores a copy of data under name.
func (s *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[path.Clean(name)] = cp
	return nil
}

// Exists reports whether a blob exists.
func (s *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[path.Clean(name)]
	return ok, nil
}

// List returns the blobs directly under dir, sorted.
func (s *MemoryStore) List(_ context.Context, dir string) ([]string, error) {
	prefix := path.Clean(dir) + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.blobs {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.Contains(name[len(prefix):], "/") {
			continue // nested under a subdirectory
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type memoryBlob struct {
	data []byte
}

func (b *memoryBlob) Size() int64            { return int64(len(b.data)) }
func (b *memoryBlob) Bytes() ([]byte, error) { return b.data, nil }
func (b *memoryBlob) Close() error           { return nil }
