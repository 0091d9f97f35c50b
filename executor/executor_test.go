package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/loom-ai/loom"
	"github.com/loom-ai/loom/models"
)

// recordingHandler counts invocations and records the arguments it saw.
type recordingHandler struct {
	mu    sync.Mutex
	calls []*loom.Arguments
	reply string
	err   error
	delay time.Duration
}

func (h *recordingHandler) handle(ctx context.Context, args *loom.Arguments) (any, error) {
	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	h.mu.Lock()
	h.calls = append(h.calls, args)
	h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	return h.reply, nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func greetCatalog(handler *recordingHandler) *loom.Catalog {
	fn := loom.NewFunction("greet", "say_hi").
		WithDescription("Greets someone by name").
		WithParameter(loom.Parameter{Name: "name", Type: "string", Required: true}).
		WithHandler(handler.handle)
	return loom.NewCatalog().MustRegister(fn)
}

// toolMessages returns the tool-role messages in the history, in order.
func toolMessages(history *loom.ChatHistory) []*loom.Message {
	var out []*loom.Message
	for _, m := range history.Messages() {
		if m.Role == llms.ChatMessageTypeTool {
			out = append(out, m)
		}
	}
	return out
}

func TestRunTurn_CallThenAnswer(t *testing.T) {
	handler := &recordingHandler{reply: "Hi Kai!"}
	catalog := greetCatalog(handler)

	client := models.NewScripted(
		models.ScriptStep{Message: models.CallMessage(
			models.Call("call_1", "greet-say_hi", `{"name":"Kai"}`),
		)},
		models.ScriptStep{Message: loom.NewAssistantMessage("Greeted Kai.")},
	)

	history := loom.NewChatHistory().AddUser("Greet Kai for me")
	result, err := RunTurn(context.Background(), history, catalog, client, DefaultPolicy())

	require.NoError(t, err)
	assert.Equal(t, "Greeted Kai.", result.Final.Text())
	assert.Equal(t, 2, result.Rounds)
	assert.False(t, result.CapReached)

	// Handler ran once, with the parsed JSON arguments.
	require.Equal(t, 1, handler.count())
	assert.Equal(t, "Kai", handler.calls[0].GetString("name"))

	// History: user, assistant call, tool result, assistant answer.
	assert.Equal(t, 4, history.Len())
	tools := toolMessages(history)
	require.Len(t, tools, 1)
	resp := tools[0].Parts[0].(llms.ToolCallResponse)
	assert.Equal(t, "call_1", resp.ToolCallID)
	assert.Equal(t, "greet-say_hi", resp.Name)
	assert.Equal(t, "Hi Kai!", resp.Content)

	// Second round saw the appended messages.
	assert.Equal(t, []int{1, 3}, client.HistoryLens())
}

func TestRunTurn_IterationCap(t *testing.T) {
	handler := &recordingHandler{reply: "again"}
	catalog := greetCatalog(handler)

	// The model requests a call on every round, forever.
	steps := make([]models.ScriptStep, 10)
	for i := range steps {
		steps[i] = models.ScriptStep{Message: models.CallMessage(
			models.Call("call_n", "greet-say_hi", `{"name":"X"}`),
		)}
	}
	client := models.NewScripted(steps...)

	policy := DefaultPolicy()
	policy.MaxIterations = 3

	history := loom.NewChatHistory().AddUser("loop forever")
	result, err := RunTurn(context.Background(), history, catalog, client, policy)

	require.NoError(t, err, "hitting the cap is not an error")
	assert.True(t, result.CapReached)
	assert.Equal(t, 3, result.Rounds)
	assert.Equal(t, 3, client.Calls(), "exactly MaxIterations round trips")

	// The last round's calls were still dispatched.
	assert.Equal(t, 3, handler.count())
	assert.Len(t, toolMessages(history), 3)
}

func TestRunTurn_NoAutoInvoke(t *testing.T) {
	handler := &recordingHandler{reply: "unused"}
	catalog := greetCatalog(handler)

	client := models.NewScripted(
		models.ScriptStep{Message: models.CallMessage(
			models.Call("call_1", "greet-say_hi", `{"name":"Kai"}`),
		)},
	)

	policy := DefaultPolicy()
	policy.AutoInvoke = false

	history := loom.NewChatHistory().AddUser("hi")
	result, err := RunTurn(context.Background(), history, catalog, client, policy)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Rounds)
	assert.False(t, result.CapReached)
	require.Len(t, result.Final.FunctionCalls(), 1, "caller gets the raw call items")
	assert.Equal(t, 0, handler.count(), "nothing dispatched")
	assert.Empty(t, toolMessages(history))
}

func TestRunTurn_ProviderErrorPassesThrough(t *testing.T) {
	providerErr := errors.New("rate limited")
	client := models.NewScripted(models.ScriptStep{Err: providerErr})

	history := loom.NewChatHistory().AddUser("hi")
	result, err := RunTurn(context.Background(), history, loom.NewCatalog(), client, DefaultPolicy())

	require.Error(t, err)
	assert.True(t, errors.Is(err, providerErr))
	assert.Nil(t, result)
	assert.Equal(t, 1, history.Len(), "failed round appends nothing")
}

func TestRunTurn_DispatchErrorBecomesToolContent(t *testing.T) {
	handler := &recordingHandler{reply: "unused"}
	catalog := greetCatalog(handler)

	client := models.NewScripted(
		models.ScriptStep{Message: models.CallMessage(
			models.Call("call_1", "unknown-fn", `{}`),
		)},
		models.ScriptStep{Message: loom.NewAssistantMessage("I see, it does not exist.")},
	)

	history := loom.NewChatHistory().AddUser("call something that is not there")
	result, err := RunTurn(context.Background(), history, catalog, client, DefaultPolicy())

	require.NoError(t, err, "dispatch failures feed the model, they do not raise")
	assert.Equal(t, "I see, it does not exist.", result.Final.Text())

	tools := toolMessages(history)
	require.Len(t, tools, 1)
	resp := tools[0].Parts[0].(llms.ToolCallResponse)
	assert.True(t, strings.HasPrefix(resp.Content, "error:"), "content: %s", resp.Content)
	assert.Contains(t, resp.Content, "unknown-fn")
}

func TestRunTurn_RaiseDispatchErrors(t *testing.T) {
	handler := &recordingHandler{reply: "unused"}
	catalog := greetCatalog(handler)

	client := models.NewScripted(
		models.ScriptStep{Message: models.CallMessage(
			models.Call("call_1", "unknown-fn", `{}`),
		)},
	)

	policy := DefaultPolicy()
	policy.RaiseDispatchErrors = true

	history := loom.NewChatHistory().AddUser("hi")
	_, err := RunTurn(context.Background(), history, catalog, client, policy)

	require.Error(t, err)
	assert.True(t, errors.Is(err, loom.ErrFunctionNotFound))
	assert.Empty(t, toolMessages(history))
}

func TestRunTurn_HandlerErrorBecomesToolContent(t *testing.T) {
	handler := &recordingHandler{err: errors.New("backend unavailable")}
	catalog := greetCatalog(handler)

	client := models.NewScripted(
		models.ScriptStep{Message: models.CallMessage(
			models.Call("call_1", "greet-say_hi", `{"name":"Kai"}`),
		)},
		models.ScriptStep{Message: loom.NewAssistantMessage("The backend is down.")},
	)

	history := loom.NewChatHistory().AddUser("hi")
	result, err := RunTurn(context.Background(), history, catalog, client, DefaultPolicy())

	require.NoError(t, err)
	assert.Equal(t, "The backend is down.", result.Final.Text())

	tools := toolMessages(history)
	require.Len(t, tools, 1)
	resp := tools[0].Parts[0].(llms.ToolCallResponse)
	assert.Equal(t, "error: backend unavailable", resp.Content)
}

func TestRunTurn_MalformedArgumentsBecomeToolContent(t *testing.T) {
	handler := &recordingHandler{reply: "unused"}
	catalog := greetCatalog(handler)

	client := models.NewScripted(
		models.ScriptStep{Message: models.CallMessage(
			models.Call("call_1", "greet-say_hi", `not json at all`),
		)},
		models.ScriptStep{Message: loom.NewAssistantMessage("Let me retry.")},
	)

	history := loom.NewChatHistory().AddUser("hi")
	_, err := RunTurn(context.Background(), history, catalog, client, DefaultPolicy())

	require.NoError(t, err)
	assert.Equal(t, 0, handler.count(), "handler never runs on bad arguments")

	tools := toolMessages(history)
	require.Len(t, tools, 1)
	resp := tools[0].Parts[0].(llms.ToolCallResponse)
	assert.Contains(t, resp.Content, "not a JSON object")
}

type rejectAll struct{}

func (rejectAll) Validate(map[string]any) error {
	return errors.New("name is required")
}

func TestRunTurn_ValidatorRejectionBecomesToolContent(t *testing.T) {
	handler := &recordingHandler{reply: "unused"}
	fn := loom.NewFunction("greet", "say_hi").
		WithHandler(handler.handle).
		WithValidator(rejectAll{})
	catalog := loom.NewCatalog().MustRegister(fn)

	client := models.NewScripted(
		models.ScriptStep{Message: models.CallMessage(
			models.Call("call_1", "greet-say_hi", `{}`),
		)},
		models.ScriptStep{Message: loom.NewAssistantMessage("fixing the arguments")},
	)

	history := loom.NewChatHistory().AddUser("hi")
	_, err := RunTurn(context.Background(), history, catalog, client, DefaultPolicy())

	require.NoError(t, err)
	assert.Equal(t, 0, handler.count(), "handler never runs on invalid arguments")

	tools := toolMessages(history)
	require.Len(t, tools, 1)
	resp := tools[0].Parts[0].(llms.ToolCallResponse)
	assert.Contains(t, resp.Content, "invalid arguments")
	assert.Contains(t, resp.Content, "name is required")
}

func TestRunTurn_ParallelCallsPreserveRequestOrder(t *testing.T) {
	slow := &recordingHandler{reply: "slow done", delay: 30 * time.Millisecond}
	fast := &recordingHandler{reply: "fast done"}

	catalog := loom.NewCatalog().
		MustRegister(loom.NewFunction("jobs", "slow").WithHandler(slow.handle)).
		MustRegister(loom.NewFunction("jobs", "fast").WithHandler(fast.handle))

	client := models.NewScripted(
		models.ScriptStep{Message: models.CallMessage(
			models.Call("call_slow", "jobs-slow", `{}`),
			models.Call("call_fast", "jobs-fast", `{}`),
		)},
		models.ScriptStep{Message: loom.NewAssistantMessage("both done")},
	)

	policy := DefaultPolicy()
	policy.AllowParallelCalls = true

	history := loom.NewChatHistory().AddUser("run both")
	result, err := RunTurn(context.Background(), history, catalog, client, policy)

	require.NoError(t, err)
	assert.Equal(t, "both done", result.Final.Text())

	// The fast call finishes first but its result is appended second.
	tools := toolMessages(history)
	require.Len(t, tools, 2)
	first := tools[0].Parts[0].(llms.ToolCallResponse)
	second := tools[1].Parts[0].(llms.ToolCallResponse)
	assert.Equal(t, "call_slow", first.ToolCallID)
	assert.Equal(t, "slow done", first.Content)
	assert.Equal(t, "call_fast", second.ToolCallID)
	assert.Equal(t, "fast done", second.Content)
}

func TestRunTurn_ContextCancelledBeforeModelCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := models.NewScripted(
		models.ScriptStep{Message: loom.NewAssistantMessage("never sent")},
	)

	history := loom.NewChatHistory().AddUser("hi")
	_, err := RunTurn(ctx, history, loom.NewCatalog(), client, DefaultPolicy())

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, client.Calls())
}

func TestRunTurn_ManualRespectsPluginFilter(t *testing.T) {
	handler := &recordingHandler{reply: "x"}
	catalog := loom.NewCatalog().
		MustRegister(loom.NewFunction("greet", "say_hi").WithHandler(handler.handle)).
		MustRegister(loom.NewFunction("admin", "wipe").WithHandler(handler.handle))

	client := models.NewScripted(
		models.ScriptStep{Message: loom.NewAssistantMessage("ok")},
	)

	policy := DefaultPolicy()
	policy.ExcludedPlugins = []string{"admin"}

	history := loom.NewChatHistory().AddUser("hi")
	_, err := RunTurn(context.Background(), history, catalog, client, policy)

	require.NoError(t, err)
	manuals := client.Manuals()
	require.Len(t, manuals, 1)
	require.Len(t, manuals[0], 1)
	assert.Equal(t, "greet-say_hi", manuals[0][0].Function.Name)
}

// turnRecorder implements every hook interface and records the event order.
type turnRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *turnRecorder) record(name string) {
	r.mu.Lock()
	r.events = append(r.events, name)
	r.mu.Unlock()
}

func (r *turnRecorder) OnBeforeTurn(_ context.Context, _ *loom.BeforeTurnEvent) {
	r.record("before_turn")
}

func (r *turnRecorder) OnAfterTurn(_ context.Context, _ *loom.AfterTurnEvent) {
	r.record("after_turn")
}

func (r *turnRecorder) OnBeforeModelCall(_ context.Context, _ *loom.BeforeModelCallEvent) {
	r.record("before_model")
}

func (r *turnRecorder) OnAfterModelCall(_ context.Context, _ *loom.AfterModelCallEvent) {
	r.record("after_model")
}

func (r *turnRecorder) OnBeforeFunctionCall(_ context.Context, _ *loom.BeforeFunctionCallEvent) {
	r.record("before_function")
}

func (r *turnRecorder) OnAfterFunctionCall(_ context.Context, _ *loom.AfterFunctionCallEvent) {
	r.record("after_function")
}

func TestRunTurn_HookOrder(t *testing.T) {
	handler := &recordingHandler{reply: "Hi!"}
	catalog := greetCatalog(handler)

	client := models.NewScripted(
		models.ScriptStep{Message: models.CallMessage(
			models.Call("call_1", "greet-say_hi", `{"name":"Kai"}`),
		)},
		models.ScriptStep{Message: loom.NewAssistantMessage("done")},
	)

	recorder := &turnRecorder{}
	exec := New(catalog, client, DefaultPolicy()).RegisterHook(recorder)

	history := loom.NewChatHistory().AddUser("hi")
	_, err := exec.RunTurn(context.Background(), history)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"before_turn",
		"before_model", "after_model",
		"before_function", "after_function",
		"before_model", "after_model",
		"after_turn",
	}, recorder.events)
}
