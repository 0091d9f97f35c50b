package loom

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// -----------------------------------------------------------------------------
// Hook Interfaces
// -----------------------------------------------------------------------------
//
// Hooks observe turn execution at its suspension points: the turn boundary,
// each model round trip, and each dispatched function call. To use hooks:
//
//  1. Implement the desired hook interface(s) on one type
//  2. Register it with hooks.NewRegistry().Register(...)
//  3. Pass the registry to the executor via WithHooks
//
// Hooks are called in registration order and must not return errors; a hook
// that needs to influence execution should do so through the policy or the
// invoker, not by panicking.

// BeforeTurnEvent is fired once when RunTurn starts.
type BeforeTurnEvent struct {
	History *ChatHistory
	Manual  []llms.Tool
}

// AfterTurnEvent is fired once when RunTurn ends, whether it completed or
// failed. Err is nil on success.
type AfterTurnEvent struct {
	Final      *Message
	Rounds     int
	CapReached bool
	Err        error
}

// BeforeModelCallEvent is fired before each model round trip.
type BeforeModelCallEvent struct {
	// Round is 1-indexed within the turn.
	Round   int
	History *ChatHistory
	Manual  []llms.Tool
}

// AfterModelCallEvent is fired after each model round trip.
type AfterModelCallEvent struct {
	Round    int
	Message  *Message
	Err      error
	Duration time.Duration
}

// BeforeFunctionCallEvent is fired before each dispatched function call,
// after the call resolved and its arguments parsed.
type BeforeFunctionCallEvent struct {
	Call     llms.ToolCall
	Function *Function
	Args     *Arguments
}

// AfterFunctionCallEvent is fired after each dispatched function call,
// including calls that failed to resolve (Function is nil then). Result holds
// the text content appended to history; on error it is the error description
// the model will see.
type AfterFunctionCallEvent struct {
	Call     llms.ToolCall
	Function *Function
	Result   string
	Err      error
	Duration time.Duration
}

// BeforeTurnHook is implemented by hooks notified when a turn starts.
type BeforeTurnHook interface {
	OnBeforeTurn(ctx context.Context, event *BeforeTurnEvent)
}

// AfterTurnHook is implemented by hooks notified when a turn ends.
type AfterTurnHook interface {
	OnAfterTurn(ctx context.Context, event *AfterTurnEvent)
}

// BeforeModelCallHook is implemented by hooks notified before each model
// round trip.
type BeforeModelCallHook interface {
	OnBeforeModelCall(ctx context.Context, event *BeforeModelCallEvent)
}

// AfterModelCallHook is implemented by hooks notified after each model round
// trip.
type AfterModelCallHook interface {
	OnAfterModelCall(ctx context.Context, event *AfterModelCallEvent)
}

// BeforeFunctionCallHook is implemented by hooks notified before each
// dispatched function call.
type BeforeFunctionCallHook interface {
	OnBeforeFunctionCall(ctx context.Context, event *BeforeFunctionCallEvent)
}

// AfterFunctionCallHook is implemented by hooks notified after each
// dispatched function call.
type AfterFunctionCallHook interface {
	OnAfterFunctionCall(ctx context.Context, event *AfterFunctionCallEvent)
}
