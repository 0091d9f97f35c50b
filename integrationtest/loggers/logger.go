// Package loggers provides reusable logging hooks for integration testing.
package loggers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loom-ai/loom"
)

// LoggerHook implements all hook interfaces to log everything that happens
// during a turn. Structured data is logged as YAML for easy reading; nothing
// is truncated.
type LoggerHook struct {
	out io.Writer
}

// NewLoggerHook creates a LoggerHook that writes to stdout.
func NewLoggerHook() *LoggerHook {
	return &LoggerHook{out: os.Stdout}
}

// NewLoggerHookWithWriter creates a LoggerHook that writes to the given writer.
func NewLoggerHookWithWriter(w io.Writer) *LoggerHook {
	return &LoggerHook{out: w}
}

// logEvent logs an event header with timestamp.
func (h *LoggerHook) logEvent(name string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(h.out, "\n>>> [%s]: %s\n", name, timestamp)
}

// log writes a line without any prefix.
func (h *LoggerHook) log(format string, args ...any) {
	fmt.Fprintf(h.out, format+"\n", args...)
}

func (h *LoggerHook) logYAML(v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		h.log("(failed to marshal: %v)", err)
		return
	}
	fmt.Fprint(h.out, string(data))
}

// logMessage logs one chat message with indented multi-line content.
func (h *LoggerHook) logMessage(prefix string, msg *loom.Message) {
	if msg == nil {
		return
	}
	h.log("%sRole: %s", prefix, msg.Role)
	if text := msg.Text(); text != "" {
		h.log("%sContent:", prefix)
		for _, line := range strings.Split(text, "\n") {
			h.log("%s  %s", prefix, line)
		}
	}
	for _, call := range msg.FunctionCalls() {
		h.log("%sToolCall: %s id=%s args=%s",
			prefix, call.FunctionCall.Name, call.ID, call.FunctionCall.Arguments)
	}
}

// OnBeforeTurn logs turn start with the advertised manual.
func (h *LoggerHook) OnBeforeTurn(ctx context.Context, event *loom.BeforeTurnEvent) {
	h.logEvent("BeforeTurn")
	h.log("================================================================================")
	h.log("TURN STARTED")
	h.log("================================================================================")
	h.log("History: %d messages", event.History.Len())

	if len(event.Manual) > 0 {
		names := make([]string, 0, len(event.Manual))
		for _, tool := range event.Manual {
			names = append(names, tool.Function.Name)
		}
		h.logYAML(map[string]any{"manual": names})
	}
}

// OnAfterTurn logs turn completion with the outcome.
func (h *LoggerHook) OnAfterTurn(ctx context.Context, event *loom.AfterTurnEvent) {
	h.logEvent("AfterTurn")
	h.log("================================================================================")
	h.log("TURN COMPLETED")
	h.log("================================================================================")

	eventData := map[string]any{
		"rounds":      event.Rounds,
		"cap_reached": event.CapReached,
	}
	if event.Err != nil {
		eventData["error"] = event.Err.Error()
	}
	h.logYAML(eventData)

	if event.Final != nil {
		h.log("")
		h.log("Final:")
		h.logMessage("  ", event.Final)
	}
}

// OnBeforeModelCall logs the request before a model call.
func (h *LoggerHook) OnBeforeModelCall(ctx context.Context, event *loom.BeforeModelCallEvent) {
	h.logEvent(fmt.Sprintf("BeforeModelCall (round %d)", event.Round))

	h.log("Request:")
	for i, msg := range event.History.Messages() {
		h.log("  [%d]", i)
		h.logMessage("      ", msg)
	}
}

// OnAfterModelCall logs the response after a model call.
func (h *LoggerHook) OnAfterModelCall(ctx context.Context, event *loom.AfterModelCallEvent) {
	h.logEvent(fmt.Sprintf("AfterModelCall (round %d, duration: %s)", event.Round, event.Duration))

	if event.Err != nil {
		h.log("Error: %v", event.Err)
		return
	}
	h.log("Response:")
	h.logMessage("  ", event.Message)
}

// OnBeforeFunctionCall logs the function call before dispatch.
func (h *LoggerHook) OnBeforeFunctionCall(ctx context.Context, event *loom.BeforeFunctionCallEvent) {
	h.logEvent(fmt.Sprintf("BeforeFunctionCall: %s", event.Function.QualifiedName()))

	argsData := map[string]any{}
	for _, name := range event.Args.Names() {
		value, _ := event.Args.Get(name)
		argsData[name] = value
	}
	h.log("Args:")
	h.logYAML(argsData)
}

// OnAfterFunctionCall logs the function result after dispatch.
func (h *LoggerHook) OnAfterFunctionCall(ctx context.Context, event *loom.AfterFunctionCallEvent) {
	name := "(unresolved)"
	if event.Function != nil {
		name = event.Function.QualifiedName()
	}
	h.logEvent(fmt.Sprintf("AfterFunctionCall: %s (duration: %s)", name, event.Duration))

	if event.Err != nil {
		h.log("Error: %v", event.Err)
	}
	h.log("Result:")
	for _, line := range strings.Split(event.Result, "\n") {
		h.log("  %s", line)
	}
}

// Compile-time checks that LoggerHook implements all hook interfaces.
var (
	_ loom.BeforeTurnHook         = (*LoggerHook)(nil)
	_ loom.AfterTurnHook          = (*LoggerHook)(nil)
	_ loom.BeforeModelCallHook    = (*LoggerHook)(nil)
	_ loom.AfterModelCallHook     = (*LoggerHook)(nil)
	_ loom.BeforeFunctionCallHook = (*LoggerHook)(nil)
	_ loom.AfterFunctionCallHook  = (*LoggerHook)(nil)
)
