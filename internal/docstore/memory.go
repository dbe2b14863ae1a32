package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"certo/pkg/platform/sentinel"
)

// InMemoryStore keeps uploaded binaries in process memory. Suitable for
// tests and development; production deployments plug in object storage.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string][]byte)}
}

func (s *InMemoryStore) Store(_ context.Context, content []byte, _ Metadata) (string, error) {
	ref := uuid.NewString()
	data := make([]byte, len(content))
	copy(data, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = data
	return ref, nil
}

func (s *InMemoryStore) Retrieve(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
