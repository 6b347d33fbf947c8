package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/tendril/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.KeyValueStore backed by Redis.
// The client connection is created once and reused for every command; a
// dropped transport surfaces as per-command errors, not a reconnect cycle.
type Store struct {
	client *backend.Client
}

// New creates a Redis store for the given host, port and logical database.
func New(host string, port, db int) *Store {
	client := backend.NewClient(&backend.Options{
		Addr: fmt.Sprintf("%s:%d", host, port),
		DB:   db,
	})
	return &Store{client: client}
}

// NewFromClient creates a store from an existing client.
func NewFromClient(client *backend.Client) *Store {
	return &Store{client: client}
}

// Get returns the raw value under key, or domain.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Set writes the raw value under key with no expiration.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
