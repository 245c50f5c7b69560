// Package broadcast implements a write-only fan-out layer over a spool
// directory. Аналог BroadcastChannel: запись раскладывается файлом-сообщением
// в spool, другие живые процессы подхватывают его через Receiver и
// оппортунистически кешируют у себя. В pull-чтениях слой не участвует.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/iudanet/japakeeper/internal/storage"
)

const (
	// LayerName — имя слоя в статусах и логах
	LayerName = "broadcast"

	// messageTTL — сообщения старше этого возраста вычищаются при записи:
	// spool — эфир для живых слушателей, а не хранилище
	messageTTL = 10 * time.Minute
)

// Message is one spool-file payload
type Message struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Origin int    `json:"origin"` // pid отправителя, чтобы не слушать самого себя
	SentAt int64  `json:"sent_at"`
}

// Storage is the write-only broadcast layer
type Storage struct {
	dir string
}

var _ storage.Layer = (*Storage)(nil)

// New creates a broadcast layer over the given spool directory
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Name returns the layer identifier
func (s *Storage) Name() string { return LayerName }

// Store drops a message file into the spool for other processes to pick up
func (s *Storage) Store(ctx context.Context, key, value string) error {
	s.pruneStale()

	msg := Message{
		Key:    key,
		Value:  value,
		Origin: os.Getpid(),
		SentAt: time.Now().UnixNano(),
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast message: %w", err)
	}

	name := fmt.Sprintf("%d_%06d.msg", msg.SentAt, rand.Intn(1000000))
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write broadcast message: %w", err)
	}

	// Rename, чтобы слушатель никогда не увидел полузаписанный файл
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to publish broadcast message: %w", err)
	}
	return nil
}

// Retrieve always reports ErrNotFound: broadcast is write-only fan-out and
// never participates in pull-reads
func (s *Storage) Retrieve(ctx context.Context, key string) (string, error) {
	return "", storage.ErrNotFound
}

// Delete is a no-op: messages expire via the TTL sweep
func (s *Storage) Delete(ctx context.Context, key string) error { return nil }

// Close is a no-op for the writer side
func (s *Storage) Close() error { return nil }

// pruneStale вычищает протухшие сообщения; ошибки не важны
func (s *Storage) pruneStale() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-messageTTL)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
}
