package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryObjectStore is an in-memory ObjectStore for tests
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryObjectStore creates an empty store
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string][]byte)}
}

func (m *MemoryObjectStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	content, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = content
	m.mu.Unlock()
	return nil
}

func (m *MemoryObjectStore) PresignGet(_ context.Context, key string) (string, error) {
	if !m.Has(key) {
		return "", fmt.Errorf("object %s not found", key)
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

func (m *MemoryObjectStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Has reports whether key is stored
func (m *MemoryObjectStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Keys lists stored keys in order
func (m *MemoryObjectStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MockProofStorage is the S3 proof storage over a MemoryObjectStore
type MockProofStorage struct {
	*S3ProofStorage
	Objects *MemoryObjectStore
}

// NewMockProofStorage creates an in-memory proof storage
func NewMockProofStorage() *MockProofStorage {
	objects := NewMemoryObjectStore()
	return &MockProofStorage{S3ProofStorage: NewS3ProofStorage(objects), Objects: objects}
}

// SetAsMockForTesting sets this mock as the global proof storage for testing
func (m *MockProofStorage) SetAsMockForTesting() {
	SetProofStorage(m)
}
