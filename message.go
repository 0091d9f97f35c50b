package loom

import (
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// ContentPart is a single piece of message content (text, tool call,
// tool response, image, ...). Alias for LangChainGo's content part so
// callers can build parts with llms.TextContent etc. directly.
type ContentPart = llms.ContentPart

// Message is one entry in a ChatHistory: a role plus a list of content parts.
//
// A tool-role message must carry exactly one llms.ToolCallResponse part whose
// ToolCallID matches a tool call in a preceding assistant message. Use
// NewToolResultMessage to get the shape right.
type Message struct {
	Role  llms.ChatMessageType
	Parts []ContentPart
}

// NewSystemMessage creates a system-role message with plain text content.
func NewSystemMessage(text string) *Message {
	return &Message{
		Role:  llms.ChatMessageTypeSystem,
		Parts: []ContentPart{llms.TextContent{Text: text}},
	}
}

// NewUserMessage creates a user-role message with plain text content.
func NewUserMessage(text string) *Message {
	return &Message{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []ContentPart{llms.TextContent{Text: text}},
	}
}

// NewAssistantMessage creates an assistant-role message with plain text
// content. Assistant messages carrying tool calls come from the model
// boundary, not from this constructor.
func NewAssistantMessage(text string) *Message {
	return &Message{
		Role:  llms.ChatMessageTypeAI,
		Parts: []ContentPart{llms.TextContent{Text: text}},
	}
}

// NewToolResultMessage creates a tool-role message carrying a single function
// result correlated to callID.
func NewToolResultMessage(callID, name, content string) *Message {
	return &Message{
		Role: llms.ChatMessageTypeTool,
		Parts: []ContentPart{llms.ToolCallResponse{
			ToolCallID: callID,
			Name:       name,
			Content:    content,
		}},
	}
}

// Text returns the concatenated text content of the message.
// Non-text parts are skipped.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, part := range m.Parts {
		if tc, ok := part.(llms.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

// FunctionCalls returns the tool call requests carried by the message, in the
// order they appear. Empty for plain answers.
func (m *Message) FunctionCalls() []llms.ToolCall {
	var calls []llms.ToolCall
	for _, part := range m.Parts {
		if tc, ok := part.(llms.ToolCall); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// ChatHistory is an ordered, append-only sequence of messages. Messages are
// never edited in place; new information is always a new appended message.
//
// A history is owned by a single logical conversation turn. Concurrent turns
// on the same history must be serialized by the caller.
type ChatHistory struct {
	messages []*Message
}

// NewChatHistory creates an empty chat history.
func NewChatHistory() *ChatHistory {
	return &ChatHistory{messages: make([]*Message, 0, 8)}
}

// Add appends a message and returns the history for chaining.
// Nil messages are ignored.
func (h *ChatHistory) Add(m *Message) *ChatHistory {
	if m != nil {
		h.messages = append(h.messages, m)
	}
	return h
}

// AddSystem appends a system-role text message.
func (h *ChatHistory) AddSystem(text string) *ChatHistory {
	return h.Add(NewSystemMessage(text))
}

// AddUser appends a user-role text message.
func (h *ChatHistory) AddUser(text string) *ChatHistory {
	return h.Add(NewUserMessage(text))
}

// AddAssistant appends an assistant-role text message.
func (h *ChatHistory) AddAssistant(text string) *ChatHistory {
	return h.Add(NewAssistantMessage(text))
}

// AddToolResult appends a tool-role message carrying one function result.
func (h *ChatHistory) AddToolResult(callID, name, content string) *ChatHistory {
	return h.Add(NewToolResultMessage(callID, name, content))
}

// Len returns the number of messages.
func (h *ChatHistory) Len() int {
	return len(h.messages)
}

// Messages returns a copy of the message slice. The messages themselves are
// shared; treat them as immutable.
func (h *ChatHistory) Messages() []*Message {
	out := make([]*Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Last returns the most recent message, or nil for an empty history.
func (h *ChatHistory) Last() *Message {
	if len(h.messages) == 0 {
		return nil
	}
	return h.messages[len(h.messages)-1]
}

// ToMessageContent converts the history to LangChainGo message contents for
// sending through an llms.Model.
func (h *ChatHistory) ToMessageContent() []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(h.messages))
	for _, m := range h.messages {
		out = append(out, llms.MessageContent{
			Role:  m.Role,
			Parts: m.Parts,
		})
	}
	return out
}
