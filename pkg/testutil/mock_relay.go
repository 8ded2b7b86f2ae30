package testutil

import (
	"context"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// MockRelay records Publish and Close calls. When Block is non-nil, Publish
// waits for it to close or for the context to end.
type MockRelay struct {
	PublishError error
	CloseError   error
	Block        chan struct{}

	mu           sync.Mutex
	publishCalls []nostr.Event
	closeCalls   int
}

func (m *MockRelay) Publish(ctx context.Context, event nostr.Event) error {
	m.mu.Lock()
	m.publishCalls = append(m.publishCalls, event)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.PublishError
}

func (m *MockRelay) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	return m.CloseError
}

func (m *MockRelay) PublishCalls() []nostr.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]nostr.Event, len(m.publishCalls))
	copy(out, m.publishCalls)
	return out
}

func (m *MockRelay) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}
