package loom

import (
	"strings"
	"sync"

	"github.com/loom-ai/loom/internal/buffer"
)

// Delta is one increment of a streamed assistant reply.
type Delta struct {
	// Content is the text appended by this delta.
	Content string

	// ReasoningContent is appended reasoning/thinking text, when the
	// provider exposes it.
	ReasoningContent string
}

// Stream is a lazy, finite, non-restartable sequence of reply deltas.
//
// Producers push deltas with Push and finish with Finish; neither blocks,
// regardless of consumer speed. Consumers range over Deltas and may stop
// early by calling Stop - remaining deltas are discarded and later pushes
// are dropped, so producers never leak.
//
//	stream, _ := client.SendStream(ctx, history, manual, nil)
//	for delta := range stream.Deltas() {
//	    fmt.Print(delta.Content)
//	}
//	msg, err := stream.Final()
type Stream struct {
	deltas *buffer.Unbounded[Delta]

	mu      sync.Mutex
	content strings.Builder
	final   *Message
	err     error
	done    chan struct{}
}

// NewStream creates a stream ready for a producer to push into.
func NewStream() *Stream {
	return &Stream{
		deltas: buffer.NewUnbounded[Delta](),
		done:   make(chan struct{}),
	}
}

// Deltas returns the channel of deltas. It closes when the producer finishes
// or the consumer stops the stream.
func (s *Stream) Deltas() <-chan Delta {
	return s.deltas.Receive()
}

// Push appends a delta. Never blocks; dropped after Finish or Stop.
func (s *Stream) Push(d Delta) {
	s.mu.Lock()
	s.content.WriteString(d.Content)
	s.mu.Unlock()
	s.deltas.Send(d)
}

// Finish completes the stream with the final assembled message, or an error.
// Exactly one of msg and err should be set. Safe to call once.
func (s *Stream) Finish(msg *Message, err error) {
	s.mu.Lock()
	s.final = msg
	s.err = err
	s.mu.Unlock()
	s.deltas.Close()
	close(s.done)
}

// Stop abandons the stream from the consumer side. Pending deltas are
// discarded; the producer's remaining pushes are dropped.
func (s *Stream) Stop() {
	s.deltas.Stop()
}

// Final blocks until the producer finishes, then returns the final message.
// Text accumulated from deltas is used when the producer supplied no
// explicit final message.
func (s *Stream) Final() (*Message, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.final != nil {
		return s.final, nil
	}
	return NewAssistantMessage(s.content.String()), nil
}
