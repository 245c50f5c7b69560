// Package boltdb implements the primary persistent storage layer on BoltDB.
package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/japakeeper/internal/storage"
)

// LayerName — имя слоя в статусах и логах
const LayerName = "boltdb"

var bucketRecords = []byte("records")

// Storage represents the BoltDB storage layer. It is the first layer in the
// read priority order: large capacity, persistent until the data directory
// is removed.
type Storage struct {
	db *bbolt.DB
}

// Compile-time check that Storage implements the layer contract
var _ storage.Layer = (*Storage)(nil)

// New opens (or creates) the BoltDB database at dbPath
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	// Инициализируем bucket для записей
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRecords); err != nil {
			return fmt.Errorf("failed to create records bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Name returns the layer identifier
func (s *Storage) Name() string { return LayerName }

// Store persists the value under key
func (s *Storage) Store(ctx context.Context, key, value string) error {
	if s.db == nil {
		return storage.ErrClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			return fmt.Errorf("records bucket not found")
		}

		if err := bucket.Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}
		return nil
	})
}

// Retrieve returns the stored value or storage.ErrNotFound
func (s *Storage) Retrieve(ctx context.Context, key string) (string, error) {
	if s.db == nil {
		return "", storage.ErrClosed
	}

	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			return fmt.Errorf("records bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrNotFound
		}

		value = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}

	return value, nil
}

// Delete removes the key; deleting an absent key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return storage.ErrClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			return fmt.Errorf("records bucket not found")
		}
		return bucket.Delete([]byte(key))
	})
}

// Close closes the database; repeated calls are no-ops
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
