package testing

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/slidedeck/pkg/core"
)

// MockSocket implements core.Transport and records what was sent.
type MockSocket struct {
	ID string

	sent        []core.Message
	closed      bool
	errorToSend error
	mu          sync.Mutex
}

// NewMockSocket creates a new mock socket.
func NewMockSocket() *MockSocket {
	return &MockSocket{
		ID: "test-socket-" + uuid.NewString()[:8],
	}
}

// Send records a sent message.
func (ms *MockSocket) Send(msg core.Message) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.errorToSend != nil {
		return ms.errorToSend
	}
	if ms.closed {
		return core.ErrSocketClosed
	}
	ms.sent = append(ms.sent, msg)
	return nil
}

// Close marks the socket as closed.
func (ms *MockSocket) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.closed = true
	return nil
}

// IsConnected returns the connection status.
func (ms *MockSocket) IsConnected() bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return !ms.closed
}

// SetError makes every following Send fail with err.
func (ms *MockSocket) SetError(err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.errorToSend = err
}

// SentMessages returns a copy of everything sent.
func (ms *MockSocket) SentMessages() []core.Message {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]core.Message(nil), ms.sent...)
}

// SentCount returns the number of messages sent.
func (ms *MockSocket) SentCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.sent)
}

// LastSent returns the last sent message and whether there was one.
func (ms *MockSocket) LastSent() (core.Message, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.sent) == 0 {
		return core.Message{}, false
	}
	return ms.sent[len(ms.sent)-1], true
}

// AssertSent reports whether a message with event was sent.
func (ms *MockSocket) AssertSent(event string) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, m := range ms.sent {
		if m.Event == event {
			return true
		}
	}
	return false
}
