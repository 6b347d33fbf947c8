package tendril

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/runtime"
	luaAdapter "github.com/aretw0/tendril/pkg/adapters/lua"
	redisAdapter "github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Version is the current release of tendril.
var Version = "0.2.0"

// MarkerPolicy selects when an input is recorded as observed.
type MarkerPolicy = runtime.MarkerPolicy

// Re-exported marker policies.
const (
	AdvanceOnRead  = runtime.AdvanceOnRead
	RetryOnFailure = runtime.RetryOnFailure
)

// Runtime is the high-level entry point: a configured poll loop bound to a
// store and a loaded handler.
type Runtime struct {
	store   ports.KeyValueStore
	handler ports.Handler
	loop    *runtime.Loop
	logger  *slog.Logger

	// resolved configuration
	host        string
	port        int
	db          int
	inputKey    string
	handlerPath string
	interval    time.Duration
	policy      MarkerPolicy
	loopOpts    []runtime.Option
}

// Option defines a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStore injects a custom store, bypassing the default Redis connection.
func WithStore(s ports.KeyValueStore) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithHandler injects an already-loaded handler, bypassing the Lua loader.
func WithHandler(h ports.Handler) Option {
	return func(r *Runtime) {
		r.handler = h
	}
}

// WithStoreAddr sets the store host and port (default localhost:6379).
func WithStoreAddr(host string, port int) Option {
	return func(r *Runtime) {
		r.host = host
		r.port = port
	}
}

// WithDB sets the logical Redis database (default 0).
func WithDB(db int) Option {
	return func(r *Runtime) {
		r.db = db
	}
}

// WithInputKey sets the key polled for input (default "metrics").
func WithInputKey(key string) Option {
	return func(r *Runtime) {
		r.inputKey = key
	}
}

// WithHandlerPath sets the handler script location (default /opt/handler.lua).
func WithHandlerPath(path string) Option {
	return func(r *Runtime) {
		r.handlerPath = path
	}
}

// WithLogger sets a structured logger for the runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithPollInterval overrides the fixed cycle pacing (default 5s).
func WithPollInterval(d time.Duration) Option {
	return func(r *Runtime) {
		r.interval = d
	}
}

// WithMarkerPolicy selects the change-marker policy (default AdvanceOnRead).
func WithMarkerPolicy(p MarkerPolicy) Option {
	return func(r *Runtime) {
		r.policy = p
	}
}

// WithLoopOptions forwards additional low-level loop options, such as
// failure backoff curves for tests.
func WithLoopOptions(opts ...runtime.Option) Option {
	return func(r *Runtime) {
		r.loopOpts = append(r.loopOpts, opts...)
	}
}

// New builds a Runtime that publishes handler results to outputKey.
// Unless overridden it connects to Redis at localhost:6379 and loads the
// handler script from /opt/handler.lua. Every error here is a startup
// error: the caller should exit non-zero rather than retry.
func New(outputKey string, opts ...Option) (*Runtime, error) {
	if outputKey == "" {
		return nil, fmt.Errorf("output key is required")
	}

	r := &Runtime{
		host:        "localhost",
		port:        6379,
		inputKey:    "metrics",
		handlerPath: "/opt/handler.lua",
		interval:    runtime.DefaultPollInterval,
		policy:      AdvanceOnRead,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	var handlerModifiedAt time.Time
	if r.handler == nil {
		h, err := luaAdapter.Load(r.handlerPath)
		if err != nil {
			return nil, err
		}
		r.handler = h
		handlerModifiedAt = h.ModifiedAt()
	} else if h, ok := r.handler.(interface{ ModifiedAt() time.Time }); ok {
		handlerModifiedAt = h.ModifiedAt()
	}

	if r.store == nil {
		r.store = redisAdapter.New(r.host, r.port, r.db)
	}

	rc := domain.NewRuntimeContext(r.host, r.port, r.inputKey, outputKey, handlerModifiedAt)

	loopOpts := append([]runtime.Option{
		runtime.WithLogger(r.logger),
		runtime.WithInterval(r.interval),
		runtime.WithMarkerPolicy(r.policy),
	}, r.loopOpts...)
	r.loop = runtime.NewLoop(r.store, r.handler, rc, loopOpts...)

	return r, nil
}

// Run executes poll cycles until ctx is cancelled. With a background
// context it only stops when the process is terminated.
func (r *Runtime) Run(ctx context.Context) error {
	return r.loop.Run(ctx)
}

// Step executes exactly one poll cycle. Exposed for embedding and tests.
func (r *Runtime) Step(ctx context.Context) (runtime.Outcome, error) {
	return r.loop.Step(ctx)
}

// Context returns the runtime context shared with handler invocations.
func (r *Runtime) Context() *domain.RuntimeContext {
	return r.loop.Context()
}

// Close releases the store connection and, when the handler owns an
// interpreter state, that too.
func (r *Runtime) Close() error {
	if h, ok := r.handler.(interface{ Close() }); ok {
		h.Close()
	}
	return r.store.Close()
}
