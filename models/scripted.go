package models

import (
	"context"
	"errors"
	"sync"

	"github.com/loom-ai/loom"
	"github.com/tmc/langchaingo/llms"
)

// ErrScriptExhausted is returned when a Scripted client runs out of steps.
var ErrScriptExhausted = errors.New("scripted model: no steps left")

// ScriptStep is one canned model reply. Exactly one of Message and Err
// should be set.
type ScriptStep struct {
	Message *loom.Message
	Err     error
}

// Scripted is a deterministic ModelClient replaying a fixed sequence of
// replies. It records what it was sent, for assertions.
//
//	client := models.NewScripted(
//	    models.ScriptStep{Message: callMessage},
//	    models.ScriptStep{Message: loom.NewAssistantMessage("done")},
//	)
type Scripted struct {
	mu    sync.Mutex
	steps []ScriptStep
	next  int

	// sentHistories records the history length seen on each Send.
	sentHistories []int
	// sentManuals records the manual advertised on each Send.
	sentManuals [][]llms.Tool
}

// NewScripted creates a scripted client replaying steps in order.
func NewScripted(steps ...ScriptStep) *Scripted {
	return &Scripted{steps: steps}
}

// Send implements loom.ModelClient, returning the next scripted step.
func (s *Scripted) Send(
	_ context.Context,
	history *loom.ChatHistory,
	manual []llms.Tool,
	_ *loom.CallSettings,
) (*loom.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sentHistories = append(s.sentHistories, history.Len())
	s.sentManuals = append(s.sentManuals, manual)

	if s.next >= len(s.steps) {
		return nil, ErrScriptExhausted
	}
	step := s.steps[s.next]
	s.next++
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Message, nil
}

// Calls returns how many times Send was invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sentHistories)
}

// HistoryLens returns the history length observed on each Send, in order.
func (s *Scripted) HistoryLens() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.sentHistories))
	copy(out, s.sentHistories)
	return out
}

// Manuals returns the manual advertised on each Send, in order.
func (s *Scripted) Manuals() [][]llms.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]llms.Tool, len(s.sentManuals))
	copy(out, s.sentManuals)
	return out
}

// CallMessage builds an assistant message requesting the given function
// calls, in order. Convenience for scripting tool-loop tests.
func CallMessage(calls ...llms.ToolCall) *loom.Message {
	msg := &loom.Message{Role: llms.ChatMessageTypeAI}
	for _, call := range calls {
		msg.Parts = append(msg.Parts, call)
	}
	return msg
}

// Call builds one tool call request with JSON-encoded arguments.
func Call(id, name, argsJSON string) llms.ToolCall {
	return llms.ToolCall{
		ID:   id,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      name,
			Arguments: argsJSON,
		},
	}
}

var _ loom.ModelClient = (*Scripted)(nil)
