// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ndefsession

import (
	"context"
	"errors"
	"sync"

	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
	"github.com/ZaparooProject/go-ndefsession/protocol"
)

// ErrTransportClosed is returned by a closed transport.
var ErrTransportClosed = errors.New("transport closed")

// Transport carries protocol frames to and from a remote reader.
// It can be implemented by WebSocket or UART backends.
type Transport interface {
	// Send writes one frame. It is safe for concurrent use.
	Send(ctx context.Context, f protocol.Frame) error

	// Receive blocks until the next frame arrives. Only one goroutine may
	// call it at a time.
	Receive(ctx context.Context) (protocol.Frame, error)

	// Close closes the transport connection
	Close() error

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportWebSocket represents a phone or bridge on a WebSocket.
	TransportWebSocket TransportType = "websocket"
	// TransportUART represents reader firmware on a serial port.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// MockTransport is an in-memory Transport. Tests play the remote reader
// through Inject and Sent.
type MockTransport struct {
	inbound  chan protocol.Frame
	outbound chan protocol.Frame
	closed   chan struct{}
	sendErr  error
	mu       syncutil.RWMutex
	once     sync.Once
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		inbound:  make(chan protocol.Frame, 32),
		outbound: make(chan protocol.Frame, 32),
		closed:   make(chan struct{}),
	}
}

// Send implements Transport interface
func (m *MockTransport) Send(ctx context.Context, f protocol.Frame) error {
	m.mu.RLock()
	err := m.sendErr
	m.mu.RUnlock()
	if err != nil {
		return err
	}

	select {
	case <-m.closed:
		return ErrTransportClosed
	default:
	}
	select {
	case m.outbound <- f:
		return nil
	case <-m.closed:
		return ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive implements Transport interface
func (m *MockTransport) Receive(ctx context.Context) (protocol.Frame, error) {
	select {
	case f := <-m.inbound:
		return f, nil
	case <-m.closed:
		return protocol.Frame{}, ErrTransportClosed
	case <-ctx.Done():
		return protocol.Frame{}, ctx.Err()
	}
}

// Close implements Transport interface
func (m *MockTransport) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

// Type implements Transport interface
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Test helper methods

// Inject queues a frame as if the remote reader sent it.
func (m *MockTransport) Inject(f protocol.Frame) {
	select {
	case m.inbound <- f:
	case <-m.closed:
	}
}

// Sent returns the channel of frames written with Send.
func (m *MockTransport) Sent() <-chan protocol.Frame {
	return m.outbound
}

// SetSendError makes every following Send fail with err.
func (m *MockTransport) SetSendError(err error) {
	m.mu.Lock()
	m.sendErr = err
	m.mu.Unlock()
}
