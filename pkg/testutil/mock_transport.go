package testutil

import (
	"context"
	"sync"
)

// Send is one recorded SendAsync call.
type Send struct {
	Payload      []byte
	PartitionKey string
}

// MockHandle is a transport handle that records sends. With Hold set, sends
// stay pending until Release is called or their context ends.
type MockHandle struct {
	SendError  error
	CloseError error
	Overhead   int
	Hold       bool

	// WireSizeFunc, when set, reports the framed size of a payload.
	WireSizeFunc func(payload []byte) int

	mu              sync.Mutex
	sends           []Send
	sendsAfterClose int
	closeCalls      int
	release         chan struct{}
}

func NewMockHandle() *MockHandle {
	return &MockHandle{release: make(chan struct{})}
}

func (m *MockHandle) SendAsync(ctx context.Context, payload []byte, partitionKey string) <-chan error {
	m.mu.Lock()
	m.sends = append(m.sends, Send{Payload: append([]byte(nil), payload...), PartitionKey: partitionKey})
	if m.closeCalls > 0 {
		m.sendsAfterClose++
	}
	hold, release, sendErr := m.Hold, m.releaseChan(), m.SendError
	m.mu.Unlock()

	result := make(chan error, 1)
	if !hold {
		result <- sendErr
		return result
	}
	go func() {
		select {
		case <-release:
			result <- sendErr
		case <-ctx.Done():
			result <- ctx.Err()
		}
	}()
	return result
}

// Release completes every held send.
func (m *MockHandle) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := m.releaseChan()
	select {
	case <-ch:
	default:
		close(ch)
	}
}

func (m *MockHandle) releaseChan() chan struct{} {
	if m.release == nil {
		m.release = make(chan struct{})
	}
	return m.release
}

func (m *MockHandle) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	return m.CloseError
}

func (m *MockHandle) FramingOverhead() int { return m.Overhead }

func (m *MockHandle) WireSize(payload []byte) int {
	if m.WireSizeFunc != nil {
		return m.WireSizeFunc(payload)
	}
	return len(payload) + m.Overhead
}

func (m *MockHandle) Sends() []Send {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Send, len(m.sends))
	copy(out, m.sends)
	return out
}

// SendsAfterClose counts SendAsync calls made after the first Close.
func (m *MockHandle) SendsAfterClose() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendsAfterClose
}

func (m *MockHandle) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// MockTransport hands out a fixed handle and records the endpoints it was
// asked to create.
type MockTransport struct {
	Handle    *MockHandle
	CreateErr error

	mu        sync.Mutex
	endpoints []string
}

func NewMockTransport() *MockTransport {
	return &MockTransport{Handle: NewMockHandle()}
}

func (m *MockTransport) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.endpoints...)
}

// Create has the shape of a transport factory minus the options, which the
// mock ignores.
func (m *MockTransport) Create(ctx context.Context, endpoint string) (*MockHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints = append(m.endpoints, endpoint)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.Handle, nil
}
