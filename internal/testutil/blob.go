// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nextfilm/internal/storage"
)

// BlobStub is an in-memory storage.BlobStore. The Fail* fields inject errors.
type BlobStub struct {
	mu      sync.Mutex
	objects map[string][]byte

	FailUpload error
	FailSign   error
	FailRemove error
}

var _ storage.BlobStore = (*BlobStub)(nil)

// NewBlobStub creates an empty in-memory blob store.
func NewBlobStub() *BlobStub {
	return &BlobStub{objects: make(map[string][]byte)}
}

func (s *BlobStub) Upload(_ context.Context, path string, data []byte, _ string) error {
	if s.FailUpload != nil {
		return s.FailUpload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[path]; exists {
		return fmt.Errorf("object %s already exists", path)
	}
	s.objects[path] = append([]byte(nil), data...)
	return nil
}

func (s *BlobStub) CreateSignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	if s.FailSign != nil {
		return "", s.FailSign
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; !ok {
		return "", storage.ErrNotFound
	}
	return SignedURL(path, ttl), nil
}

func (s *BlobStub) Remove(_ context.Context, paths []string) error {
	if s.FailRemove != nil {
		return s.FailRemove
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.objects, p)
	}
	return nil
}

// Has reports whether path is stored.
func (s *BlobStub) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

// Paths lists stored paths in sorted order.
func (s *BlobStub) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.objects))
	for p := range s.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Put stores data at path directly, bypassing FailUpload.
func (s *BlobStub) Put(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
}

// SignedURL is the URL BlobStub returns for path.
func SignedURL(path string, ttl time.Duration) string {
	return fmt.Sprintf("https://blobs.test/%s?expires=%d", path, int(ttl.Seconds()))
}
