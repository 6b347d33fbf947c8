package tendril_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/runtime"
	redisAdapter "github.com/aretw0/tendril/pkg/adapters/redis"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHandler(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handler.lua")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *redisAdapter.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return mr, redisAdapter.NewFromClient(client)
}

func TestRuntime_EndToEnd(t *testing.T) {
	mr, store := newRedisStore(t)
	path := writeHandler(t, `
		function handler(payload, context)
			return { y = payload.x + 1 }
		end
	`)

	rt, err := tendril.New("vm-stats",
		tendril.WithStore(store),
		tendril.WithHandlerPath(path),
	)
	require.NoError(t, err)
	defer rt.Close()

	start := time.Now()
	mr.Set("metrics", `{"x": 1}`)

	outcome, err := rt.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomePublished, outcome)

	raw, err := mr.Get("vm-stats")
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Equal(t, map[string]any{"y": float64(2)}, out)

	last := rt.Context().LastExecutionAt
	require.NotNil(t, last)
	assert.False(t, last.Before(start))

	// Second cycle with identical input: nothing happens.
	outcome, err = rt.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeUnchanged, outcome)
}

func TestRuntime_HandlerErrorLeavesOutputUntouched(t *testing.T) {
	mr, store := newRedisStore(t)
	path := writeHandler(t, `
		function handler(payload, context)
			error("broken handler")
		end
	`)

	rt, err := tendril.New("vm-stats",
		tendril.WithStore(store),
		tendril.WithHandlerPath(path),
	)
	require.NoError(t, err)
	defer rt.Close()

	mr.Set("vm-stats", `{"prior":true}`)
	mr.Set("metrics", `{"x": 1}`)

	outcome, stepErr := rt.Step(context.Background())
	require.Error(t, stepErr)
	assert.Equal(t, runtime.OutcomeHandlerFailed, outcome)

	raw, err := mr.Get("vm-stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"prior":true}`, raw)
}

func TestNew_StartupFailures(t *testing.T) {
	_, store := newRedisStore(t)

	t.Run("MissingOutputKey", func(t *testing.T) {
		_, err := tendril.New("", tendril.WithStore(store))
		require.Error(t, err)
	})

	t.Run("MissingHandlerFile", func(t *testing.T) {
		_, err := tendril.New("vm-stats",
			tendril.WithStore(store),
			tendril.WithHandlerPath(filepath.Join(t.TempDir(), "absent.lua")),
		)
		require.Error(t, err)
	})

	t.Run("NoHandlerFunction", func(t *testing.T) {
		_, err := tendril.New("vm-stats",
			tendril.WithStore(store),
			tendril.WithHandlerPath(writeHandler(t, `local x = 1`)),
		)
		require.Error(t, err)
	})
}

func TestRuntime_ContextCarriesHandlerMtime(t *testing.T) {
	_, store := newRedisStore(t)
	path := writeHandler(t, `function handler(p, c) return {} end`)
	info, err := os.Stat(path)
	require.NoError(t, err)

	rt, err := tendril.New("vm-stats",
		tendril.WithStore(store),
		tendril.WithHandlerPath(path),
	)
	require.NoError(t, err)
	defer rt.Close()

	assert.True(t, rt.Context().HandlerModifiedAt.Equal(info.ModTime()))
}
