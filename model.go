package loom

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// CallSettings carries per-call generation settings passed through to the
// model boundary. Zero values mean "provider default".
type CallSettings struct {
	// Model selects the provider model, e.g. "gpt-4o-mini". Empty uses the
	// client's default.
	Model string

	Temperature float64
	MaxTokens   int

	// Extra passes provider-specific options straight through.
	Extra []llms.CallOption
}

// ModelClient is the model-calling boundary. Implementations send a chat
// history plus a function manual to some provider and return the assistant
// reply. The core never knows which provider backs the client.
//
// Provider failures are returned unchanged; retries, if any, belong to the
// implementation, not to callers.
type ModelClient interface {
	// Send submits history and the advertised tool manual, returning the
	// assistant message. The returned message may carry tool call parts.
	Send(
		ctx context.Context,
		history *ChatHistory,
		manual []llms.Tool,
		settings *CallSettings,
	) (*Message, error)
}

// StreamingModelClient is implemented by model clients that can stream the
// assistant reply as deltas. Consumers that stop reading early must call
// Stream.Stop to release the producer.
type StreamingModelClient interface {
	ModelClient

	// SendStream behaves like Send but returns deltas as they arrive.
	// The final accumulated message is available from the stream after the
	// delta channel closes.
	SendStream(
		ctx context.Context,
		history *ChatHistory,
		manual []llms.Tool,
		settings *CallSettings,
	) (*Stream, error)
}
