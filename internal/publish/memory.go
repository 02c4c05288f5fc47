package publish

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"goupi/internal/goupi"
)

// MemoryPublisher keeps published objects in memory. It is used for dry
// runs and tests and is safe for concurrent use.
type MemoryPublisher struct {
	name    string
	objects map[string]Object
	mu      sync.RWMutex
}

// Object is one published file held by a MemoryPublisher.
type Object struct {
	Data        []byte
	ContentType string
}

func NewMemoryPublisher(name string) *MemoryPublisher {
	return &MemoryPublisher{
		name:    name,
		objects: make(map[string]Object),
	}
}

func (m *MemoryPublisher) Name() string {
	return m.name
}

// Put stores the object, replacing any previous one under key.
func (m *MemoryPublisher) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: data, ContentType: contentType}
	return nil
}

// Get returns the object stored under key.
func (m *MemoryPublisher) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}

// Keys returns every stored key in sorted order.
func (m *MemoryPublisher) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.objects))
}

// ValidateSetup always succeeds for the in-memory publisher.
func (m *MemoryPublisher) ValidateSetup(ctx context.Context) error {
	return nil
}

var _ goupi.Publisher = (*MemoryPublisher)(nil)
