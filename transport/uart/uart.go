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

// Package uart talks to reader firmware over a serial port. Frames travel
// as JSON, one per line.
package uart

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/ZaparooProject/go-ndefsession"
	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
	"github.com/ZaparooProject/go-ndefsession/protocol"
)

const (
	// DefaultBaudRate is the line speed reader firmware uses.
	DefaultBaudRate = 115200
	// maxLineSize bounds one frame; a full NTAG216 dump fits easily.
	maxLineSize = 16 * 1024
)

// Transport implements the ndefsession.Transport interface over a serial
// line.
type Transport struct {
	port      io.ReadWriteCloser
	frames    chan protocol.Frame
	done      chan struct{}
	readErr   error
	portName  string
	writeMu   syncutil.Mutex
	errMu     syncutil.Mutex
	closeOnce sync.Once
}

// New opens portName at DefaultBaudRate and starts reading frames.
func New(portName string) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	// discard whatever the firmware printed while booting
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to reset UART input buffer: %w", err)
	}

	return NewWithPort(port, portName), nil
}

// NewWithPort runs the transport over an already open line.
func NewWithPort(port io.ReadWriteCloser, portName string) *Transport {
	t := &Transport{
		port:     port,
		portName: portName,
		frames:   make(chan protocol.Frame, 16),
		done:     make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *Transport) readLoop() {
	defer close(t.frames)

	scanner := bufio.NewScanner(t.port)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			// firmware log output shares the line
			if len(line) > 0 {
				ndefsession.Debugf("UART %s: %s", t.portName, line)
			}
			continue
		}
		f, err := protocol.Unmarshal(line)
		if err != nil {
			ndefsession.Debugf("UART %s: dropping bad frame: %v", t.portName, err)
			continue
		}
		select {
		case t.frames <- f:
		case <-t.done:
			return
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	t.errMu.Lock()
	t.readErr = err
	t.errMu.Unlock()
}

// Send writes f as one line.
func (t *Transport) Send(ctx context.Context, f protocol.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.done:
		return ndefsession.ErrTransportClosed
	default:
	}

	raw, err := f.Marshal()
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.port.Write(raw); err != nil {
		return fmt.Errorf("UART write failed: %w", err)
	}
	return t.drainWithRetry("send")
}

// Receive returns the next frame from the line.
func (t *Transport) Receive(ctx context.Context) (protocol.Frame, error) {
	select {
	case f, ok := <-t.frames:
		if !ok {
			return protocol.Frame{}, t.err()
		}
		return f, nil
	case <-t.done:
		return protocol.Frame{}, ndefsession.ErrTransportClosed
	case <-ctx.Done():
		return protocol.Frame{}, ctx.Err()
	}
}

func (t *Transport) err() error {
	select {
	case <-t.done:
		return ndefsession.ErrTransportClosed
	default:
	}
	t.errMu.Lock()
	defer t.errMu.Unlock()
	if errors.Is(t.readErr, io.EOF) {
		return fmt.Errorf("%w: %s hung up", ndefsession.ErrTransportClosed, t.portName)
	}
	return fmt.Errorf("UART read failed: %w", t.readErr)
}

// Close closes the transport connection
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		if cerr := t.port.Close(); cerr != nil {
			err = fmt.Errorf("UART close failed: %w", cerr)
		}
	})
	return err
}

// Type returns the transport type
func (*Transport) Type() ndefsession.TransportType {
	return ndefsession.TransportUART
}

// PortName returns the serial device the transport was opened on.
func (t *Transport) PortName() string {
	return t.portName
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

type drainer interface {
	Drain() error
}

// drainWithRetry waits for written data to leave the port, retrying
// interrupted system calls.
func (t *Transport) drainWithRetry(operation string) error {
	d, ok := t.port.(drainer)
	if !ok {
		return nil
	}

	const maxRetries = 3
	baseDelay := 2 * time.Millisecond

	for attempt := range maxRetries {
		err := d.Drain()
		if err == nil {
			return nil
		}
		if !isInterruptedSystemCall(err) {
			return fmt.Errorf("UART %s drain failed: %w", operation, err)
		}
		if attempt < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<attempt)) // 2ms, 4ms
		}
	}
	return fmt.Errorf("UART %s drain failed after %d retries", operation, maxRetries)
}
