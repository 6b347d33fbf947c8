package ports

import "github.com/aretw0/tendril/pkg/domain"

// Handler is a unit of user-supplied logic invoked once per detected input
// change. Invocation is not cancellable and has no timeout: a handler that
// never returns blocks the runtime, which is an accepted limitation.
type Handler interface {
	// Invoke runs the handler against a decoded payload. The runtime context
	// is shared by reference so the handler can introspect runtime metadata.
	// The result must be a JSON-serializable object.
	Invoke(payload map[string]any, rc *domain.RuntimeContext) (map[string]any, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(payload map[string]any, rc *domain.RuntimeContext) (map[string]any, error)

// Invoke calls f.
func (f HandlerFunc) Invoke(payload map[string]any, rc *domain.RuntimeContext) (map[string]any, error) {
	return f(payload, rc)
}
