package objectstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vietddude/genpost/internal/publish"
)

// MemoryStore keeps uploaded media in memory. Used for dry runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) UploadMedia(ctx context.Context, m publish.Media, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ref := fmt.Sprintf("mem://%d/%s", len(s.objects), m.Name)
	s.objects[ref] = data
	return ref, nil
}

// Get returns the bytes stored under ref.
func (s *MemoryStore) Get(ref string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[ref]
	return data, ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ publish.MediaUploader = (*MemoryStore)(nil)
