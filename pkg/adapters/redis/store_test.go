package redis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
)

// Ensure Store implements KeyValueStore
var _ ports.KeyValueStore = (*redis.Store)(nil)

func newTestStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	tests.KeyValueStoreContractTest(t, store)
}

func TestRedisStore_GetAfterExternalSet(t *testing.T) {
	store, mr := newTestStore(t)
	defer store.Close()

	// Values written by other clients (the seeder, a collector) must be
	// readable as raw bytes.
	mr.Set("metrics", `{"avg-util-cpu0-60sec": 25.45}`)

	val, err := store.Get(context.Background(), "metrics")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != `{"avg-util-cpu0-60sec": 25.45}` {
		t.Errorf("unexpected value: %q", val)
	}
}

func TestRedisStore_ErrorsWhenDown(t *testing.T) {
	store, mr := newTestStore(t)
	defer store.Close()

	mr.Close()

	_, err := store.Get(context.Background(), "metrics")
	if err == nil {
		t.Fatal("expected transport error, got nil")
	}
	if errors.Is(err, domain.ErrKeyNotFound) {
		t.Error("transport failure must not be reported as a missing key")
	}
}
