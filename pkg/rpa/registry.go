// pkg/rpa/registry.go
package rpa

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

// ErrUnknownAction is returned when a workflow references an action type
// that was never registered.
var ErrUnknownAction = errors.New("unknown action type")

// ActionFunc is an atomic operation implementation. Parameters arrive already
// resolved through the context's variable substitution.
type ActionFunc func(c *Context, params map[string]any) (any, error)

// CallOptions carries the five reserved per-call policy fields. They are
// consumed by the retry/delay wrapper and never reach the implementation.
type CallOptions struct {
	DelayBefore   float64
	DelayAfter    float64
	RetryCount    int
	RetryInterval float64
	SkipOnError   bool
}

// Handler is a registered action after wrapping: delay-before, retry with
// interval, skip-on-error, and delay-after are applied uniformly around the
// underlying implementation.
type Handler func(c *Context, params map[string]any, opts CallOptions) (any, error)

// Registry maps action-type identifiers to wrapped implementations and their
// metadata. It is built once at startup and read-only afterwards, so lookups
// during execution need no locking.
type Registry struct {
	handlers map[string]Handler
	metadata map[string]schemas.ActionMetadata
}

// NewRegistry creates a registry pre-populated with all built-in actions.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		metadata: make(map[string]schemas.ActionMetadata),
	}
	registerBrowserActions(r)
	registerFileActions(r)
	registerSystemActions(r)
	registerKeyboardActions(r)
	registerVariableActions(r)
	return r
}

// Register associates an action type with an implementation, applying the
// uniform retry/delay wrapper. Registering the same type twice overwrites the
// previous registration; registration is expected to happen only during
// process initialization.
func (r *Registry) Register(actionType string, meta schemas.ActionMetadata, fn ActionFunc) {
	if meta.Type == "" {
		meta.Type = actionType
	}
	if meta.Name == "" {
		meta.Name = actionType
	}
	r.handlers[actionType] = wrapAction(fn)
	r.metadata[actionType] = meta
}

// Get returns the wrapped handler for an action type.
func (r *Registry) Get(actionType string) (Handler, error) {
	h, ok := r.handlers[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, actionType)
	}
	return h, nil
}

// Metadata returns the declared metadata for an action type.
func (r *Registry) Metadata(actionType string) (schemas.ActionMetadata, bool) {
	m, ok := r.metadata[actionType]
	return m, ok
}

// ListActions returns metadata for every registered action, sorted by type
// for stable discovery output.
func (r *Registry) ListActions() []schemas.ActionMetadata {
	out := make([]schemas.ActionMetadata, 0, len(r.metadata))
	for _, m := range r.metadata {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// wrapAction applies the uniform policy wrapper:
//  1. sleep DelayBefore,
//  2. attempt up to RetryCount+1 times, sleeping RetryInterval between
//     failed attempts (not after the last),
//  3. on success sleep DelayAfter and return,
//  4. on exhaustion return nil (no output) when SkipOnError, else the last
//     error.
func wrapAction(fn ActionFunc) Handler {
	return func(c *Context, params map[string]any, opts CallOptions) (any, error) {
		sleepSeconds(opts.DelayBefore)

		// Loaded documents can carry a negative retry_count; the action still
		// runs at least once.
		retries := opts.RetryCount
		if retries < 0 {
			retries = 0
		}

		var lastErr error
		for attempt := 0; attempt <= retries; attempt++ {
			result, err := fn(c, params)
			if err == nil {
				sleepSeconds(opts.DelayAfter)
				return result, nil
			}
			lastErr = err
			if attempt < retries {
				sleepSeconds(opts.RetryInterval)
			}
		}

		if opts.SkipOnError {
			return nil, nil
		}
		return nil, lastErr
	}
}

func sleepSeconds(s float64) {
	if s > 0 {
		time.Sleep(time.Duration(s * float64(time.Second)))
	}
}
