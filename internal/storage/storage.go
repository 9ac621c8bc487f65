package storage

import "context"

// Storage is one key-value state area. The engine uses two of them: a
// durable area (cart lines, identity marker, remember-me token) and a
// session-scoped area (checkout snapshot, non-remembered token).
type Storage interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by adapters that can observe changes made by
// another process sharing the same area (the cross-tab analog). Events
// carry no payload; the consumer re-reads the key.
type Watcher interface {
	Watch(ctx context.Context, key string) <-chan struct{}
}
