package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// DefaultPollInterval is the fixed pacing between cycles.
const DefaultPollInterval = 5 * time.Second

// MarkerPolicy decides when a raw input value is recorded as "observed".
type MarkerPolicy int

const (
	// AdvanceOnRead records the value as soon as a change is detected,
	// before its fate is known. A payload whose decode, execution or publish
	// fails is therefore never retried until the input changes again. This
	// is the historical behavior and the default.
	AdvanceOnRead MarkerPolicy = iota

	// RetryOnFailure records the value only after a successful publish, so
	// a failed cycle re-processes the same input on the next poll.
	RetryOnFailure
)

// Outcome classifies how a single poll cycle concluded.
type Outcome string

const (
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeNoInput       Outcome = "no-input"
	OutcomePublished     Outcome = "published"
	OutcomeReadFailed    Outcome = "read-failed"
	OutcomeDecodeFailed  Outcome = "decode-failed"
	OutcomeHandlerFailed Outcome = "handler-failed"
	OutcomeBadResult     Outcome = "bad-result"
	OutcomePublishFailed Outcome = "publish-failed"
)

// BackoffFunc returns how long to wait before the next poll after attempt
// consecutive store read failures.
type BackoffFunc func(attempt int) time.Duration

// Loop is the single-threaded poll-detect-decode-execute-publish cycle.
// Every stage isolates failure: nothing a handler or the store does after
// startup can crash the loop.
type Loop struct {
	store   ports.KeyValueStore
	handler ports.Handler
	rc      *domain.RuntimeContext
	logger  *slog.Logger

	interval        time.Duration
	backoff         BackoffFunc
	maxReadFailures int
	policy          MarkerPolicy

	// Change marker: the last raw value observed for the input key.
	// A missing key and an empty value are distinct states.
	lastRaw     []byte
	lastPresent bool

	readFailures int
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithInterval overrides the fixed pacing between cycles.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		l.interval = d
	}
}

// WithBackoff sets the wait curve applied after consecutive store read
// failures. The default is a constant wait equal to the poll interval,
// matching the unbounded flat retry of the original runtime.
func WithBackoff(f BackoffFunc) Option {
	return func(l *Loop) {
		l.backoff = f
	}
}

// WithMaxReadFailures makes Run return an error after n consecutive store
// read failures. Zero keeps retrying forever.
func WithMaxReadFailures(n int) Option {
	return func(l *Loop) {
		l.maxReadFailures = n
	}
}

// WithMarkerPolicy selects when inputs are recorded as observed.
func WithMarkerPolicy(p MarkerPolicy) Option {
	return func(l *Loop) {
		l.policy = p
	}
}

// NewLoop creates a poll loop over the given store and handler.
func NewLoop(store ports.KeyValueStore, handler ports.Handler, rc *domain.RuntimeContext, opts ...Option) *Loop {
	l := &Loop{
		store:    store,
		handler:  handler,
		rc:       rc,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		interval: DefaultPollInterval,
		policy:   AdvanceOnRead,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.backoff == nil {
		interval := l.interval
		l.backoff = func(int) time.Duration { return interval }
	}
	return l
}

// Context returns the runtime context owned by the loop.
func (l *Loop) Context() *domain.RuntimeContext {
	return l.rc
}

// Run executes poll cycles until ctx is cancelled. Cancellation is only
// observed between cycles; the pacing sleep itself is not interruptible and
// a handler that never returns blocks Run indefinitely.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("runtime started",
		"host", l.rc.StoreHost,
		"port", l.rc.StorePort,
		"input_key", l.rc.InputKey,
		"output_key", l.rc.OutputKey,
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := l.Step(ctx)

		wait := l.interval
		if outcome == OutcomeReadFailed {
			l.readFailures++
			if l.maxReadFailures > 0 && l.readFailures >= l.maxReadFailures {
				return fmt.Errorf("store unreachable after %d attempts: %w", l.readFailures, err)
			}
			wait = l.backoff(l.readFailures)
		} else {
			l.readFailures = 0
		}

		time.Sleep(wait)
	}
}

// Step executes exactly one poll cycle and reports how it concluded.
// The returned error is the underlying cause for non-publish outcomes; it is
// informational, already logged, and never fatal.
func (l *Loop) Step(ctx context.Context) (Outcome, error) {
	// 1. Read
	raw, err := l.store.Get(ctx, l.rc.InputKey)
	present := true
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			l.logger.Error("failed to read input key", "key", l.rc.InputKey, "err", err)
			return OutcomeReadFailed, err
		}
		present = false
		raw = nil
	}

	// 2. Change detection: exact byte equality, with presence as part of the
	// state so a deleted key and an empty value do not collide.
	if present == l.lastPresent && bytes.Equal(raw, l.lastRaw) {
		return OutcomeUnchanged, nil
	}

	if l.policy == AdvanceOnRead {
		l.observe(raw, present)
	}

	if !present {
		l.logger.Debug("input key has no value", "key", l.rc.InputKey)
		return OutcomeNoInput, nil
	}

	// 3. Decode
	payload, err := decodePayload(raw)
	if err != nil {
		l.logger.Warn("failed to parse input as JSON object", "key", l.rc.InputKey, "err", err)
		return OutcomeDecodeFailed, err
	}

	// 4. Execute
	result, err := l.invoke(payload)
	if err != nil {
		if errors.Is(err, domain.ErrNotAnObject) {
			// 5. Result shape violation: warn, publish nothing.
			l.logger.Warn("handler result skipped", "err", err)
			return OutcomeBadResult, err
		}
		l.logger.Error("handler invocation failed", "err", err)
		return OutcomeHandlerFailed, err
	}
	if result == nil {
		l.logger.Warn("handler result skipped", "err", domain.ErrNotAnObject)
		return OutcomeBadResult, domain.ErrNotAnObject
	}

	// 6. Publish
	encoded, err := json.Marshal(result)
	if err != nil {
		l.logger.Error("failed to encode handler result", "err", err)
		return OutcomePublishFailed, err
	}
	if err := l.store.Set(ctx, l.rc.OutputKey, encoded); err != nil {
		l.logger.Error("failed to write output key", "key", l.rc.OutputKey, "err", err)
		return OutcomePublishFailed, err
	}

	if l.policy == RetryOnFailure {
		l.observe(raw, present)
	}
	l.rc.MarkExecuted(time.Now())
	l.logger.Info("processed input and wrote output", "key", l.rc.OutputKey)
	return OutcomePublished, nil
}

func (l *Loop) observe(raw []byte, present bool) {
	l.lastRaw = raw
	l.lastPresent = present
}

// invoke shields the loop from user code: both returned errors and panics
// from a handler are contained here.
func (l *Loop) invoke(payload map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return l.handler.Invoke(payload, l.rc)
}

// decodePayload parses raw as a JSON object. Valid JSON that is not an
// object (null, arrays, scalars) is rejected the same way malformed input is.
func decodePayload(raw []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("input is not a JSON object")
	}
	return payload, nil
}
