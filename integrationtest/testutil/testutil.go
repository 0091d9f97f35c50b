// Package testutil provides shared helpers for integration tests and the
// interactive CLI: real model client construction from environment variables
// and stream printing.
package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/loom-ai/loom"
	"github.com/loom-ai/loom/models"
)

// Environment variables configuring the real model used by integration
// scenarios. The key is required; base URL and model fall back to OpenAI
// defaults when unset.
const (
	EnvAPIKey  = "LOOM_TEST_OPENAI_KEY"
	EnvBaseURL = "LOOM_TEST_OPENAI_BASE_URL"
	EnvModel   = "LOOM_TEST_OPENAI_MODEL"
)

// NewClient builds a real model client from the environment.
func NewClient() (*models.LCGClient, error) {
	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set", EnvAPIKey)
	}

	opts := []openai.Option{openai.WithToken(apiKey)}
	if baseURL := os.Getenv(EnvBaseURL); baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	model := os.Getenv(EnvModel)
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts = append(opts, openai.WithModel(model))

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return models.NewLCGClient(llm).WithModelName(model), nil
}

// RequireClient returns a real model client or skips the test when the
// environment is not configured.
func RequireClient(t *testing.T) *models.LCGClient {
	t.Helper()
	client, err := NewClient()
	if err != nil {
		t.Skipf("real model not configured: %v", err)
	}
	return client
}

// PrintStream writes deltas to w as they arrive and returns the final
// message.
func PrintStream(w io.Writer, stream *loom.Stream) (*loom.Message, error) {
	for delta := range stream.Deltas() {
		fmt.Fprint(w, delta.Content)
	}
	fmt.Fprintln(w)
	return stream.Final()
}

// SendMaybeStreaming sends through the streaming path when the client
// supports it, printing deltas to w, and falls back to a blocking send.
func SendMaybeStreaming(
	ctx context.Context,
	w io.Writer,
	client loom.ModelClient,
	history *loom.ChatHistory,
	manual []llms.Tool,
	settings *loom.CallSettings,
) (*loom.Message, error) {
	streaming, ok := client.(loom.StreamingModelClient)
	if !ok {
		return client.Send(ctx, history, manual, settings)
	}
	stream, err := streaming.SendStream(ctx, history, manual, settings)
	if err != nil {
		return nil, err
	}
	return PrintStream(w, stream)
}
