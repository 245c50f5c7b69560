// Package memory implements the process-lifetime session layer: a plain
// in-memory map. Аналог sessionStorage — быстрый кеш на время жизни
// процесса, исчезает вместе с ним. Сюда же broadcast-приемник складывает
// значения, услышанные от других процессов.
package memory

import (
	"context"
	"sync"

	"github.com/iudanet/japakeeper/internal/storage"
)

// LayerName — имя слоя в статусах и логах
const LayerName = "memory"

// Storage is a concurrency-safe in-memory key/value layer
type Storage struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ storage.Layer = (*Storage)(nil)

// New creates an empty in-memory layer
func New() *Storage {
	return &Storage{data: make(map[string]string)}
}

// Name returns the layer identifier
func (s *Storage) Name() string { return LayerName }

// Store persists the value under key
func (s *Storage) Store(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Retrieve returns the stored value or storage.ErrNotFound
func (s *Storage) Retrieve(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Delete removes the key; deleting an absent key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys (for diagnostics and tests)
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close is a no-op for the in-memory layer
func (s *Storage) Close() error { return nil }
