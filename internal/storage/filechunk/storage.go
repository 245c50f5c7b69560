// Package filechunk implements a flat-file mirror layer that splits each
// value into fixed-size chunk files plus a companion count file for
// reassembly. Значения дополнительно запечатываются AES-GCM: носитель —
// простые файлы, доверия к нему меньше всего.
package filechunk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/iudanet/japakeeper/internal/codec"
	"github.com/iudanet/japakeeper/internal/storage"
)

const (
	// LayerName — имя слоя в статусах и логах
	LayerName = "filechunk"

	// ChunkSize — фиксированный размер куска; у отдельного файла-куска нет
	// гарантий на размер значения, поэтому payload нарезается заранее
	ChunkSize = 512
)

// Storage stores sealed values chunked across multiple small files in dir
type Storage struct {
	dir string
	mu  sync.Mutex
}

var _ storage.Layer = (*Storage)(nil)

// New creates a filechunk layer rooted at dir
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Name returns the layer identifier
func (s *Storage) Name() string { return LayerName }

// Store seals the value and writes it as <key>.c0..cN chunk files plus a
// <key>.count file recording the chunk count for reassembly
func (s *Storage) Store(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := codec.Seal(value)
	if err != nil {
		return err
	}

	// Убираем куски предыдущей записи: новая может быть короче
	if err := s.removeChunks(key); err != nil {
		return err
	}

	chunks := splitChunks(sealed, ChunkSize)
	for i, chunk := range chunks {
		if err := os.WriteFile(s.chunkPath(key, i), []byte(chunk), 0600); err != nil {
			return fmt.Errorf("failed to write chunk %d: %w", i, err)
		}
	}

	count := strconv.Itoa(len(chunks))
	if err := os.WriteFile(s.countPath(key), []byte(count), 0600); err != nil {
		return fmt.Errorf("failed to write chunk count: %w", err)
	}
	return nil
}

// Retrieve reassembles the chunks and opens the sealed value.
// Любая порча (нет count-файла, не хватает куска, не сошлась печать)
// эквивалентна отсутствию значения.
func (s *Storage) Retrieve(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.countPath(key))
	if err != nil {
		return "", storage.ErrNotFound
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || count <= 0 {
		return "", storage.ErrNotFound
	}

	var sealed strings.Builder
	for i := 0; i < count; i++ {
		chunk, err := os.ReadFile(s.chunkPath(key, i))
		if err != nil {
			return "", storage.ErrNotFound
		}
		sealed.Write(chunk)
	}

	value, err := codec.OpenSealed(sealed.String())
	if err != nil {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Delete removes the key's chunks; deleting an absent key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeChunks(key)
}

// Close is a no-op for the file-based layer
func (s *Storage) Close() error { return nil }

func (s *Storage) removeChunks(key string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, keyStem(key)+".*"))
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove chunk: %w", err)
		}
	}
	return nil
}

func (s *Storage) chunkPath(key string, i int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.c%d", keyStem(key), i))
}

func (s *Storage) countPath(key string) string {
	return filepath.Join(s.dir, keyStem(key)+".count")
}

// keyStem превращает произвольный ключ в безопасное имя файла
func keyStem(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func splitChunks(value string, size int) []string {
	if value == "" {
		return []string{""}
	}

	chunks := make([]string, 0, len(value)/size+1)
	for len(value) > size {
		chunks = append(chunks, value[:size])
		value = value[size:]
	}
	return append(chunks, value)
}
