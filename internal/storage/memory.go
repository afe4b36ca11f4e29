package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps artifacts in process memory. It serves development
// setups and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject
}

type memoryObject struct {
	data []byte
	opts PutOptions
}

// NewMemoryStore creates an empty store whose references start with baseURL
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://artifacts"
	}
	return &MemoryStore{
		baseURL: baseURL,
		objects: make(map[string]memoryObject),
	}
}

// Name returns "memory"
func (s *MemoryStore) Name() string { return "memory" }

// Put stores a copy of body
func (s *MemoryStore) Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Object{}, fmt.Errorf("read %s: %w", key, err)
	}

	s.mu.Lock()
	s.objects[key] = memoryObject{data: data, opts: opts}
	s.mu.Unlock()

	return Object{Key: key, URL: joinURL(s.baseURL, key)}, nil
}

// Get returns a stored artifact and the options it was stored with
func (s *MemoryStore) Get(key string) ([]byte, PutOptions, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, obj.opts, ok
}

// Len returns the number of stored artifacts
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
