package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// KeyValueStoreContractTest is a reusable suite verifying that an adapter
// complies with ports.KeyValueStore.
func KeyValueStoreContractTest(t *testing.T, store ports.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_Missing", func(t *testing.T) {
		_, err := store.Get(ctx, "contract-missing")
		if !errors.Is(err, domain.ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("Set_Then_Get", func(t *testing.T) {
		if err := store.Set(ctx, "contract-key", []byte(`{"n":1}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		val, err := store.Get(ctx, "contract-key")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(val) != `{"n":1}` {
			t.Errorf("got %q, want %q", val, `{"n":1}`)
		}
	})

	t.Run("Set_Overwrites", func(t *testing.T) {
		if err := store.Set(ctx, "contract-key", []byte(`{"n":2}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		val, err := store.Get(ctx, "contract-key")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(val) != `{"n":2}` {
			t.Errorf("got %q, want %q", val, `{"n":2}`)
		}
	})

	t.Run("Empty_Value_Is_Not_Missing", func(t *testing.T) {
		if err := store.Set(ctx, "contract-empty", []byte{}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		val, err := store.Get(ctx, "contract-empty")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(val) != 0 {
			t.Errorf("expected empty value, got %q", val)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := store.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}
