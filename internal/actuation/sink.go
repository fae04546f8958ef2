// Package actuation delivers movement commands to whatever drives the
// robots: an in-memory recorder for tests and simulation, or an MQTT broker.
package actuation

import (
	"context"
	"sync"

	"github.com/banshee-data/localnav/internal/localmap/movement"
)

// Message is one command addressed to one agent.
type Message struct {
	Agent   string  `json:"agent"`
	Tick    int     `json:"tick"`
	Forward float64 `json:"forward"`
	Turn    float64 `json:"turn"`
	Safe    bool    `json:"safe"`
}

// NewMessage builds the Message for cmd.
func NewMessage(agent string, tick int, cmd movement.Command, safe bool) Message {
	return Message{Agent: agent, Tick: tick, Forward: cmd.Forward, Turn: cmd.Turn, Safe: safe}
}

// Sink accepts commands. Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// MemorySink keeps every message it receives.
type MemorySink struct {
	mu       sync.Mutex
	messages []Message
	closed   bool
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Send records msg.
func (s *MemorySink) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.messages = append(s.messages, msg)
	return nil
}

// Close stops the sink accepting messages.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Messages returns a copy of everything received so far.
func (s *MemorySink) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Latest returns the most recent message for agent.
func (s *MemorySink) Latest(agent string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Agent == agent {
			return s.messages[i], true
		}
	}
	return Message{}, false
}
