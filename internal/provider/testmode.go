package provider

import (
	"context"
	"sync"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/logger"
)

// TestMode simulates deliveries: it logs each message, remembers the most
// recent ones and reports success without touching the network.
type TestMode struct {
	family config.MessageKind
	limit  int

	mu   sync.Mutex
	sent []Message
}

func newTestMode(family config.MessageKind, o *options) *TestMode {
	return &TestMode{family: family, limit: o.historySize}
}

// NewTestMode returns a simulated sender for the message family.
func NewTestMode(family config.MessageKind, opts ...Option) *TestMode {
	return newTestMode(family, buildOptions(opts))
}

// Kind implements Sender.
func (s *TestMode) Kind() config.ProviderKind {
	return config.ProviderTest
}

// Send implements Sender.
func (s *TestMode) Send(ctx context.Context, msg Message) Result {
	logger.InfoKV(ctx, "test mode delivery",
		"family", s.family,
		"phone", msg.Phone,
		"recipient", msg.RecipientName,
		"text", msg.Text,
	)

	s.mu.Lock()
	s.sent = append(s.sent, msg)

	if over := len(s.sent) - s.limit; over > 0 {
		s.sent = append(s.sent[:0:0], s.sent[over:]...)
	}
	s.mu.Unlock()

	return succeeded(s.Kind(), "simulated "+string(s.family)+" delivery")
}

// Sent returns a copy of the remembered messages, oldest first.
func (s *TestMode) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.sent))
	copy(out, s.sent)

	return out
}
