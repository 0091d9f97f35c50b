// Package hooks provides the registry dispatching turn execution events to
// registered observers.
package hooks

import (
	"context"

	"github.com/loom-ai/loom"
)

// Registry stores hooks in registration order and dispatches events to the
// hooks that implement the relevant interface. A hook may implement any
// combination of the loom hook interfaces; it only receives events for the
// interfaces it implements.
//
//	registry := hooks.NewRegistry()
//	registry.Register(&LoggingHook{})
//	registry.Register(&MetricsHook{})
//
// Registry is not safe for concurrent mutation: register everything before
// starting a turn. Fire methods are called by the executor only.
type Registry struct {
	hooks []any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make([]any, 0)}
}

// Register adds a hook. Returns the registry for chaining.
func (r *Registry) Register(hook any) *Registry {
	r.hooks = append(r.hooks, hook)
	return r
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	return len(r.hooks)
}

// FireBeforeTurn dispatches to all BeforeTurnHook implementations.
func (r *Registry) FireBeforeTurn(ctx context.Context, event *loom.BeforeTurnEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(loom.BeforeTurnHook); ok {
			hook.OnBeforeTurn(ctx, event)
		}
	}
}

// FireAfterTurn dispatches to all AfterTurnHook implementations.
func (r *Registry) FireAfterTurn(ctx context.Context, event *loom.AfterTurnEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(loom.AfterTurnHook); ok {
			hook.OnAfterTurn(ctx, event)
		}
	}
}

// FireBeforeModelCall dispatches to all BeforeModelCallHook implementations.
func (r *Registry) FireBeforeModelCall(ctx context.Context, event *loom.BeforeModelCallEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(loom.BeforeModelCallHook); ok {
			hook.OnBeforeModelCall(ctx, event)
		}
	}
}

// FireAfterModelCall dispatches to all AfterModelCallHook implementations.
func (r *Registry) FireAfterModelCall(ctx context.Context, event *loom.AfterModelCallEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(loom.AfterModelCallHook); ok {
			hook.OnAfterModelCall(ctx, event)
		}
	}
}

// FireBeforeFunctionCall dispatches to all BeforeFunctionCallHook
// implementations.
func (r *Registry) FireBeforeFunctionCall(ctx context.Context, event *loom.BeforeFunctionCallEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(loom.BeforeFunctionCallHook); ok {
			hook.OnBeforeFunctionCall(ctx, event)
		}
	}
}

// FireAfterFunctionCall dispatches to all AfterFunctionCallHook
// implementations.
func (r *Registry) FireAfterFunctionCall(ctx context.Context, event *loom.AfterFunctionCallEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(loom.AfterFunctionCallHook); ok {
			hook.OnAfterFunctionCall(ctx, event)
		}
	}
}
