// Package kv defines the durable key-value backend contract consumed by the
// cache persistence bridge, with in-memory, SQLite, and Redis implementations.
//
// Values are opaque byte slices; callers own serialization. All operations
// take a context for cancellation and timeout on I/O-backed implementations.
package kv

import "context"

// Store is a durable key-value backend.
type Store interface {
	// Get returns the value for key, or found=false when absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// ListKeys returns all keys starting with prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	// Close releases any resources held by the store.
	Close() error
}
