// Package tempfile implements a session-scoped layer over a single file in
// the OS temp directory. Аналог window.name: один общий строковый носитель
// на все ключи, поэтому значения мультиплексируются через встроенную
// JSON-карту. Переживает перезапуск процесса, но не очистку temp/перезагрузку.
package tempfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/iudanet/japakeeper/internal/storage"
)

// LayerName — имя слоя в статусах и логах
const LayerName = "tempfile"

// Storage multiplexes all keys through one JSON map persisted in a single
// temp file.
type Storage struct {
	path string
	mu   sync.Mutex
}

var _ storage.Layer = (*Storage)(nil)

// New creates a tempfile layer at the given path.
// Empty path defaults to <os.TempDir()>/japakeeper-session.json.
func New(path string) *Storage {
	if path == "" {
		path = filepath.Join(os.TempDir(), "japakeeper-session.json")
	}
	return &Storage{path: path}
}

// Name returns the layer identifier
func (s *Storage) Name() string { return LayerName }

// Store persists the value under key inside the shared map
func (s *Storage) Store(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	data[key] = value
	return s.save(data)
}

// Retrieve returns the stored value or storage.ErrNotFound
func (s *Storage) Retrieve(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}

	value, ok := data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Delete removes the key; deleting an absent key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.save(data)
}

// load читает общую карту; отсутствие или порча файла == пустая карта
// (носитель мог быть вычищен ОС, это штатный режим)
func (s *Storage) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	data := make(map[string]string)
	if err := json.Unmarshal(raw, &data); err != nil {
		return make(map[string]string), nil
	}
	return data, nil
}

func (s *Storage) save(data map[string]string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session map: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Close is a no-op: the file intentionally outlives the process
func (s *Storage) Close() error { return nil }
