package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/ports/tests"
)

// Ensure Store implements KeyValueStore
var _ ports.KeyValueStore = (*memory.Store)(nil)

func TestMemoryStore_Contract(t *testing.T) {
	tests.KeyValueStoreContractTest(t, memory.NewStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	src := []byte(`{"a":1}`)
	if err := store.Set(ctx, "k", src); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	src[2] = 'x' // mutate the caller's slice

	val, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != `{"a":1}` {
		t.Errorf("stored value aliased caller memory: %q", val)
	}
}

func TestMemoryStore_FailureInjection(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	store.FailGet = errors.New("boom")
	if _, err := store.Get(ctx, "k"); err == nil || errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("expected injected error, got %v", err)
	}

	store.FailGet = nil
	store.FailSet = errors.New("boom")
	if err := store.Set(ctx, "k", nil); err == nil {
		t.Error("expected injected error, got nil")
	}
}
