// Package badgerdb implements a secondary embedded KV layer on BadgerDB.
// Живет в отдельном каталоге со своим независимым форматом: сценарий отказа
// у него другой, чем у BoltDB и SQLite, ради этого слой и существует.
package badgerdb

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/iudanet/japakeeper/internal/storage"
)

// LayerName — имя слоя в статусах и логах
const LayerName = "badgerdb"

// Storage represents the BadgerDB storage layer
type Storage struct {
	db *badger.DB
}

var _ storage.Layer = (*Storage)(nil)

// New opens (or creates) a BadgerDB database in dir
func New(ctx context.Context, dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts = opts.WithLogger(nil) // внутренние логи badger слишком шумные

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Name returns the layer identifier
func (s *Storage) Name() string { return LayerName }

// Store persists the value under key
func (s *Storage) Store(ctx context.Context, key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Retrieve returns the stored value or storage.ErrNotFound
func (s *Storage) Retrieve(ctx context.Context, key string) (string, error) {
	var value string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("failed to get record: %w", err)
	}

	return value, nil
}

// Delete removes the key; deleting an absent key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}
