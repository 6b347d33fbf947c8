// Package lua loads user-supplied handlers as embedded Lua scripts.
//
// A handler file is an ordinary Lua chunk whose top-level statements run once
// at load time (loading is trusted, not sandboxed) and which must leave a
// global function named 'handler' behind:
//
//	function handler(payload, context)
//		return { result = payload.value * 2 }
//	end
package lua

import (
	"fmt"
	"os"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	glua "github.com/yuin/gopher-lua"
)

// Handler is a loaded Lua handler. It owns a dedicated interpreter state and
// is not safe for concurrent invocation; the poll loop is strictly
// sequential, so no locking is needed.
type Handler struct {
	state      *glua.LState
	fn         *glua.LFunction
	path       string
	modifiedAt time.Time
}

// Load executes the script at path and validates that it defines a global
// 'handler' function. Any failure here is a startup failure: the file is
// missing, the chunk does not compile, its top-level statements error, or no
// callable 'handler' exists afterwards.
func Load(path string) (*Handler, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("handler file %s: %w", path, err)
	}

	L := glua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load handler %s: %w", path, err)
	}

	fn, ok := L.GetGlobal("handler").(*glua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("%s: %w", path, domain.ErrHandlerNotDefined)
	}

	return &Handler{
		state:      L,
		fn:         fn,
		path:       path,
		modifiedAt: info.ModTime(),
	}, nil
}

// ModifiedAt returns the handler file's mtime captured at load time.
// The live file is never re-checked; changing it requires a restart.
func (h *Handler) ModifiedAt() time.Time {
	return h.modifiedAt
}

// Path returns the file the handler was loaded from.
func (h *Handler) Path() string {
	return h.path
}

// Invoke calls the Lua handler with the payload and a snapshot of the runtime
// context. Script errors are returned, never propagated as panics. A return
// value that is not a table convertible to an object yields
// domain.ErrNotAnObject.
func (h *Handler) Invoke(payload map[string]any, rc *domain.RuntimeContext) (map[string]any, error) {
	err := h.state.CallByParam(glua.P{
		Fn:      h.fn,
		NRet:    1,
		Protect: true,
	}, toLua(h.state, anyMap(payload)), h.contextTable(rc))
	if err != nil {
		return nil, fmt.Errorf("handler execution failed: %w", err)
	}

	ret := h.state.Get(-1)
	h.state.Pop(1)

	tbl, ok := ret.(*glua.LTable)
	if !ok {
		return nil, fmt.Errorf("handler returned %s: %w", ret.Type(), domain.ErrNotAnObject)
	}
	obj, ok := tableToGo(tbl).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("handler returned an array: %w", domain.ErrNotAnObject)
	}
	return obj, nil
}

// Close releases the interpreter state.
func (h *Handler) Close() {
	h.state.Close()
}

// contextTable projects the runtime context into a fresh Lua table.
// Timestamps are Unix seconds, matching what a metrics-style script expects.
func (h *Handler) contextTable(rc *domain.RuntimeContext) glua.LValue {
	L := h.state
	tbl := L.NewTable()
	tbl.RawSetString("store_host", glua.LString(rc.StoreHost))
	tbl.RawSetString("store_port", glua.LNumber(rc.StorePort))
	tbl.RawSetString("input_key", glua.LString(rc.InputKey))
	tbl.RawSetString("output_key", glua.LString(rc.OutputKey))
	tbl.RawSetString("handler_modified_at", glua.LNumber(rc.HandlerModifiedAt.Unix()))
	if rc.LastExecutionAt != nil {
		tbl.RawSetString("last_execution_at", glua.LNumber(rc.LastExecutionAt.Unix()))
	}
	tbl.RawSetString("env", toLua(L, rc.Env))
	return tbl
}

func anyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
