// Package models provides loom.ModelClient implementations: a LangChainGo
// adapter for real providers, and a scripted client for tests and demos.
package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/loom-ai/loom"
	"github.com/tmc/langchaingo/llms"
)

// ErrNoChoices is returned when the provider reply carries no choices.
var ErrNoChoices = errors.New("model returned no choices")

// LCGClient adapts any LangChainGo llms.Model to loom.ModelClient, using
// native tool-calling to advertise the function manual.
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	client := models.NewLCGClient(llm).WithModelName("gpt-4o-mini")
type LCGClient struct {
	model     llms.Model
	modelName string
}

// NewLCGClient wraps the given LangChainGo model.
func NewLCGClient(model llms.Model) *LCGClient {
	return &LCGClient{model: model}
}

// WithModelName sets the default provider model, used when CallSettings
// does not name one. Returns the client for chaining.
func (c *LCGClient) WithModelName(name string) *LCGClient {
	c.modelName = name
	return c
}

// Unwrap returns the underlying llms.Model.
func (c *LCGClient) Unwrap() llms.Model {
	return c.model
}

// Send implements loom.ModelClient. Only the first choice is used: the
// tool loop caps responses to a single choice to stay deterministic.
func (c *LCGClient) Send(
	ctx context.Context,
	history *loom.ChatHistory,
	manual []llms.Tool,
	settings *loom.CallSettings,
) (*loom.Message, error) {
	resp, err := c.model.GenerateContent(
		ctx, history.ToMessageContent(), c.callOptions(manual, settings)...)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return choiceToMessage(resp.Choices[0]), nil
}

// SendStream implements loom.StreamingModelClient. Text deltas arrive on the
// stream as the provider produces them; the final message, including any
// tool calls, is available from Stream.Final once the provider finishes.
func (c *LCGClient) SendStream(
	ctx context.Context,
	history *loom.ChatHistory,
	manual []llms.Tool,
	settings *loom.CallSettings,
) (*loom.Stream, error) {
	stream := loom.NewStream()

	opts := c.callOptions(manual, settings)
	opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		stream.Push(loom.Delta{Content: string(chunk)})
		return nil
	}))

	go func() {
		resp, err := c.model.GenerateContent(ctx, history.ToMessageContent(), opts...)
		switch {
		case err != nil:
			stream.Finish(nil, err)
		case resp == nil || len(resp.Choices) == 0:
			stream.Finish(nil, ErrNoChoices)
		default:
			stream.Finish(choiceToMessage(resp.Choices[0]), nil)
		}
	}()

	return stream, nil
}

func (c *LCGClient) callOptions(manual []llms.Tool, settings *loom.CallSettings) []llms.CallOption {
	var opts []llms.CallOption
	if len(manual) > 0 {
		opts = append(opts, llms.WithTools(manual))
	}

	model := c.modelName
	if settings != nil && settings.Model != "" {
		model = settings.Model
	}
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}
	if settings != nil {
		if settings.Temperature != 0 {
			opts = append(opts, llms.WithTemperature(settings.Temperature))
		}
		if settings.MaxTokens != 0 {
			opts = append(opts, llms.WithMaxTokens(settings.MaxTokens))
		}
		opts = append(opts, settings.Extra...)
	}
	return opts
}

// choiceToMessage converts a provider choice to an assistant message,
// normalizing the legacy single-function-call field into a tool call part.
func choiceToMessage(choice *llms.ContentChoice) *loom.Message {
	msg := &loom.Message{Role: llms.ChatMessageTypeAI}

	if choice.Content != "" {
		msg.Parts = append(msg.Parts, llms.TextContent{Text: choice.Content})
	}
	for _, call := range choice.ToolCalls {
		msg.Parts = append(msg.Parts, call)
	}
	if choice.FuncCall != nil && len(choice.ToolCalls) == 0 {
		msg.Parts = append(msg.Parts, llms.ToolCall{
			ID:           fmt.Sprintf("call_%s", choice.FuncCall.Name),
			Type:         "function",
			FunctionCall: choice.FuncCall,
		})
	}
	return msg
}

// Compile-time interface checks.
var (
	_ loom.ModelClient          = (*LCGClient)(nil)
	_ loom.StreamingModelClient = (*LCGClient)(nil)
)
