package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/loom-ai/loom"
	"github.com/loom-ai/loom/hooks"
	"github.com/tmc/langchaingo/llms"
)

// DefaultMaxIterations caps auto-invoke round trips when the policy does not
// set its own limit. The cap prevents a model that keeps requesting tools
// from looping forever.
const DefaultMaxIterations = 5

// Policy configures how a turn handles model-requested function calls.
type Policy struct {
	// AutoInvoke executes requested calls automatically. When false, the
	// turn ends at the first response carrying call items and the caller
	// handles them manually.
	AutoInvoke bool

	// MaxIterations is the hard cap on model round trips per turn.
	// Zero or negative uses DefaultMaxIterations.
	MaxIterations int

	// AllowedPlugins, when non-nil, limits the advertised manual to these
	// plugins. ExcludedPlugins removes plugins from the manual; exclusion
	// wins.
	AllowedPlugins  []string
	ExcludedPlugins []string

	// AllowParallelCalls dispatches independent calls from one response
	// concurrently. Results are still appended to history in request
	// order.
	AllowParallelCalls bool

	// RaiseDispatchErrors propagates resolution and invocation failures as
	// errors instead of converting them into tool-result content the model
	// can react to.
	RaiseDispatchErrors bool

	// Settings is passed through to the model boundary on every round.
	Settings *loom.CallSettings
}

// DefaultPolicy returns the auto-invoke policy with default limits.
func DefaultPolicy() Policy {
	return Policy{
		AutoInvoke:    true,
		MaxIterations: DefaultMaxIterations,
	}
}

func (p Policy) maxIterations() int {
	if p.MaxIterations > 0 {
		return p.MaxIterations
	}
	return DefaultMaxIterations
}

func (p Policy) filter() *loom.FunctionFilter {
	if p.AllowedPlugins == nil && p.ExcludedPlugins == nil {
		return nil
	}
	return &loom.FunctionFilter{
		AllowedPlugins:  p.AllowedPlugins,
		ExcludedPlugins: p.ExcludedPlugins,
	}
}

// TurnResult is the outcome of one completed conversation turn.
type TurnResult struct {
	// Final is the last assistant message. When CapReached is false and
	// AutoInvoke is on, it carries no function-call items; when AutoInvoke
	// is off it may carry the unresolved call items for the caller.
	Final *loom.Message

	// Rounds is how many model round trips the turn used.
	Rounds int

	// CapReached reports that the iteration cap ended the turn while the
	// model was still requesting calls. Not an error.
	CapReached bool
}

// Executor drives the auto function-calling loop: send history to the model,
// dispatch any requested function calls, append their results, and resubmit
// until the model produces a plain answer or the iteration cap is hit.
//
// The executor holds no per-turn state; one executor can run many turns,
// serially or on distinct histories.
type Executor struct {
	catalog *loom.Catalog
	model   loom.ModelClient
	policy  Policy
	hooks   *hooks.Registry
	invoke  loom.Invoker
}

// New creates an Executor over the given catalog and model boundary.
func New(catalog *loom.Catalog, model loom.ModelClient, policy Policy) *Executor {
	return &Executor{
		catalog: catalog,
		model:   model,
		policy:  policy,
		hooks:   hooks.NewRegistry(),
		invoke:  loom.DefaultInvoker,
	}
}

// WithHooks replaces the executor's hook registry. Use this to share one
// registry across executors. Returns the executor for chaining.
func (e *Executor) WithHooks(h *hooks.Registry) *Executor {
	e.hooks = h
	return e
}

// RegisterHook adds a hook to the executor's registry. Returns the executor
// for chaining.
func (e *Executor) RegisterHook(hook any) *Executor {
	e.hooks.Register(hook)
	return e
}

// WithInvoker replaces the function invocation capability. The default
// invokes function handlers directly; wrap it for tracing or mocking.
func (e *Executor) WithInvoker(invoke loom.Invoker) *Executor {
	if invoke != nil {
		e.invoke = invoke
	}
	return e
}

// RunTurn runs one conversation turn over the given history.
//
// The turn appends to history: the assistant response of each round, and one
// tool-role message per dispatched call, in request order. It never edits
// messages in place.
//
// Provider errors from the model boundary are returned unchanged; the
// executor does not retry. Hitting the iteration cap is not an error - it is
// reported via TurnResult.CapReached alongside the last assistant message.
func (e *Executor) RunTurn(ctx context.Context, history *loom.ChatHistory) (*TurnResult, error) {
	manual := e.catalog.ToolManual(e.policy.filter())
	e.hooks.FireBeforeTurn(ctx, &loom.BeforeTurnEvent{History: history, Manual: manual})

	result, err := e.runTurn(ctx, history, manual)

	after := &loom.AfterTurnEvent{Err: err}
	if result != nil {
		after.Final = result.Final
		after.Rounds = result.Rounds
		after.CapReached = result.CapReached
	}
	e.hooks.FireAfterTurn(ctx, after)

	return result, err
}

func (e *Executor) runTurn(
	ctx context.Context,
	history *loom.ChatHistory,
	manual []llms.Tool,
) (*TurnResult, error) {
	maxRounds := e.policy.maxIterations()

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.hooks.FireBeforeModelCall(ctx, &loom.BeforeModelCallEvent{
			Round:   round,
			History: history,
			Manual:  manual,
		})

		start := time.Now()
		message, err := e.model.Send(ctx, history, manual, e.policy.Settings)
		e.hooks.FireAfterModelCall(ctx, &loom.AfterModelCallEvent{
			Round:    round,
			Message:  message,
			Err:      err,
			Duration: time.Since(start),
		})
		if err != nil {
			return nil, err
		}

		history.Add(message)

		calls := message.FunctionCalls()
		if len(calls) == 0 {
			return &TurnResult{Final: message, Rounds: round}, nil
		}
		if !e.policy.AutoInvoke {
			// Caller handles the call items manually.
			return &TurnResult{Final: message, Rounds: round}, nil
		}

		if err := e.dispatchCalls(ctx, calls, history); err != nil {
			return nil, err
		}

		if round >= maxRounds {
			return &TurnResult{Final: message, Rounds: round, CapReached: true}, nil
		}
	}
}

// dispatchCalls executes the calls of one assistant response and appends one
// tool-role message per call to history, preserving request order even when
// dispatch runs in parallel.
func (e *Executor) dispatchCalls(
	ctx context.Context,
	calls []llms.ToolCall,
	history *loom.ChatHistory,
) error {
	if e.policy.AllowParallelCalls && len(calls) > 1 {
		return e.dispatchParallel(ctx, calls, history)
	}

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := e.dispatchOne(ctx, call)
		if err != nil {
			return err
		}
		history.AddToolResult(call.ID, callName(call), content)
	}
	return nil
}

// dispatchParallel fans the calls out to goroutines and joins all of them
// before appending any result. A cancelled context discards every result so
// no partial tool message reaches the history.
func (e *Executor) dispatchParallel(
	ctx context.Context,
	calls []llms.ToolCall,
	history *loom.ChatHistory,
) error {
	contents := make([]string, len(calls))
	errs := make([]error, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llms.ToolCall) {
			defer wg.Done()
			contents[i], errs[i] = e.dispatchOne(ctx, call)
		}(i, call)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	for i, call := range calls {
		history.AddToolResult(call.ID, callName(call), contents[i])
	}
	return nil
}

// dispatchOne resolves and invokes a single call, returning the text content
// of its tool-result message. Resolution and invocation failures become the
// result content unless the policy raises dispatch errors; context
// cancellation always propagates as an error.
func (e *Executor) dispatchOne(ctx context.Context, call llms.ToolCall) (string, error) {
	name := callName(call)

	fn, err := e.catalog.Resolve(name)
	if err != nil {
		return e.dispatchFailure(ctx, call, nil, err, false)
	}

	argsMap, err := parseCallArguments(call)
	if err != nil {
		return e.dispatchFailure(ctx, call, fn, err, false)
	}
	if v := fn.Validator(); v != nil {
		if err := v.Validate(argsMap); err != nil {
			return e.dispatchFailure(ctx, call, fn,
				fmt.Errorf("invalid arguments for %s: %w", name, err), false)
		}
	}

	args := loom.NewArguments(argsMap)
	e.hooks.FireBeforeFunctionCall(ctx, &loom.BeforeFunctionCallEvent{
		Call:     call,
		Function: fn,
		Args:     args,
	})

	start := time.Now()
	result, err := e.invoke(ctx, fn, args)
	duration := time.Since(start)

	var content string
	if err == nil {
		content = loom.Stringify(result)
	}
	e.hooks.FireAfterFunctionCall(ctx, &loom.AfterFunctionCallEvent{
		Call:     call,
		Function: fn,
		Result:   content,
		Err:      err,
		Duration: duration,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return e.dispatchFailure(ctx, call, fn, err, true)
	}
	return content, nil
}

// dispatchFailure converts a dispatch error into tool-result content so the
// model can react on the next round, unless the policy raises.
func (e *Executor) dispatchFailure(
	ctx context.Context,
	call llms.ToolCall,
	fn *loom.Function,
	err error,
	eventFired bool,
) (string, error) {
	if e.policy.RaiseDispatchErrors {
		return "", err
	}
	content := "error: " + err.Error()
	if !eventFired {
		e.hooks.FireAfterFunctionCall(ctx, &loom.AfterFunctionCallEvent{
			Call:     call,
			Function: fn,
			Result:   content,
			Err:      err,
		})
	}
	return content, nil
}

// RunTurn is the package-level convenience: build an Executor and run one
// turn.
func RunTurn(
	ctx context.Context,
	history *loom.ChatHistory,
	catalog *loom.Catalog,
	model loom.ModelClient,
	policy Policy,
) (*TurnResult, error) {
	return New(catalog, model, policy).RunTurn(ctx, history)
}

func callName(call llms.ToolCall) string {
	if call.FunctionCall != nil {
		return call.FunctionCall.Name
	}
	return ""
}

// parseCallArguments decodes the model-supplied arguments, which arrive as a
// JSON object string (possibly empty).
func parseCallArguments(call llms.ToolCall) (map[string]any, error) {
	if call.FunctionCall == nil {
		return nil, fmt.Errorf("call %q carries no function payload", call.ID)
	}
	raw := strings.TrimSpace(call.FunctionCall.Arguments)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments for %s are not a JSON object: %w",
			call.FunctionCall.Name, err)
	}
	return args, nil
}
