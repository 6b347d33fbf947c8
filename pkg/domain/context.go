package domain

import "time"

// RuntimeContext is the metadata bundle handed to every handler invocation.
// It is built once at startup; the poll loop is its sole owner and the only
// writer of LastExecutionAt. Handlers receive it by reference for
// introspection and are expected not to mutate it.
type RuntimeContext struct {
	// StoreHost and StorePort identify the key-value store the runtime is
	// connected to.
	StoreHost string
	StorePort int

	// InputKey is read each cycle; OutputKey is where results are written.
	// The runtime never reads OutputKey.
	InputKey  string
	OutputKey string

	// HandlerModifiedAt is the handler file's mtime captured at load time.
	// It is never refreshed; reloading the handler requires a restart.
	HandlerModifiedAt time.Time

	// LastExecutionAt is nil until the first successful publish, then holds
	// the completion time of the most recent one.
	LastExecutionAt *time.Time

	// Env is a free-form extension bag, reserved for future use.
	Env map[string]any
}

// NewRuntimeContext creates a context for the given connection and keys.
func NewRuntimeContext(host string, port int, inputKey, outputKey string, handlerModifiedAt time.Time) *RuntimeContext {
	return &RuntimeContext{
		StoreHost:         host,
		StorePort:         port,
		InputKey:          inputKey,
		OutputKey:         outputKey,
		HandlerModifiedAt: handlerModifiedAt,
		Env:               make(map[string]any),
	}
}

// MarkExecuted records a successful publish at time t.
func (c *RuntimeContext) MarkExecuted(t time.Time) {
	c.LastExecutionAt = &t
}
