package storage

import "errors"

// Common storage errors
var (
	// ErrNotFound indicates that the key is absent in a layer (or, from the
	// Replicator, absent in every readable layer)
	ErrNotFound = errors.New("record not found")

	// ErrAllLayersFailed indicates that a write failed in every configured
	// layer; partial failure is never surfaced
	ErrAllLayersFailed = errors.New("all storage layers failed")

	// ErrClosed indicates that the layer has been closed
	ErrClosed = errors.New("storage layer is closed")
)
