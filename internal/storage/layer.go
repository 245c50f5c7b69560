// Package storage defines the uniform storage-layer contract and the
// replication orchestrator that fans records out across every configured
// layer. No single layer is trusted to survive; the system is correct as
// long as at least one layer still answers.
package storage

import "context"

// Layer is one concrete storage mechanism wrapped behind a uniform contract.
// Each backend has an independent failure mode (missing service, cleared
// directory, OS temp cleanup), which is exactly why several of them are
// stacked behind the Replicator.
//
// Retrieve returns ErrNotFound when the key is absent. Store and Retrieve
// must honor ctx cancellation: the orchestrator bounds every call with a
// per-attempt timeout.
type Layer interface {
	// Name returns a stable identifier used in status maps and logs
	Name() string

	// Store persists the (already encoded) value under key
	Store(ctx context.Context, key, value string) error

	// Retrieve returns the stored value or ErrNotFound
	Retrieve(ctx context.Context, key string) (string, error)

	// Delete removes the key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases backend resources
	Close() error
}
