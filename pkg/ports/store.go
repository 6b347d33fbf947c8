package ports

import "context"

// KeyValueStore is the narrow contract the runtime needs from its store.
// This keeps the loop decoupled from the concrete backend (Redis, memory).
type KeyValueStore interface {
	// Get returns the raw value stored under key.
	// Returns domain.ErrKeyNotFound when the key holds no value.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the raw value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
