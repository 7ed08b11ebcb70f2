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

// Package testing provides test-only transport helpers.
package testing

import (
	"io"
	"math/rand/v2"
	"net"
	"time"

	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
)

// JitterConfig configures the behavior of JitteryConn.
type JitterConfig struct {
	MaxLatency        time.Duration
	FragmentMinBytes  int
	Seed              uint64
	FragmentReads     bool
	USBBoundaryStress bool
}

// DefaultJitterConfig returns a sensible default configuration for testing.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		MaxLatency:       2 * time.Millisecond,
		FragmentReads:    true,
		FragmentMinBytes: 1,
	}
}

// JitteryConn wraps a connection the way a USB-UART bridge delivers it:
// reads arrive late and split at arbitrary points, never losing bytes.
type JitteryConn struct {
	backend   io.ReadWriteCloser
	rng       *rand.Rand
	readBuf   []byte
	config    JitterConfig
	mu        syncutil.Mutex
	bytesRead int
}

// NewJitteryConn wraps backend with jitter simulation.
func NewJitteryConn(backend io.ReadWriteCloser, config JitterConfig) *JitteryConn {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64() //nolint:gosec // Test code, not crypto
	}
	if config.FragmentMinBytes < 1 {
		config.FragmentMinBytes = 1
	}
	return &JitteryConn{
		backend: backend,
		config:  config,
		rng:     rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)), //nolint:gosec // Test code, not crypto
		readBuf: make([]byte, 0, 1024),
	}
}

// SerialPair returns both ends of an in-memory serial line. Reads on the
// host end are jittered.
func SerialPair(config JitterConfig) (host *JitteryConn, device net.Conn) {
	a, b := net.Pipe()
	return NewJitteryConn(a, config), b
}

// Write passes writes through to the backend without modification.
func (j *JitteryConn) Write(data []byte) (int, error) {
	return j.backend.Write(data) //nolint:wrapcheck // Pass-through wrapper
}

// Close closes the backend.
func (j *JitteryConn) Close() error {
	return j.backend.Close() //nolint:wrapcheck // Pass-through wrapper
}

// Read returns a fragment of the buffered backend data.
func (j *JitteryConn) Read(buf []byte) (int, error) {
	j.mu.Lock()
	delay := j.latency()
	j.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	j.mu.Lock()
	empty := len(j.readBuf) == 0
	j.mu.Unlock()
	if empty {
		tmp := make([]byte, 1024)
		n, err := j.backend.Read(tmp)
		if n == 0 {
			return 0, err //nolint:wrapcheck // Pass-through wrapper
		}
		j.mu.Lock()
		j.readBuf = append(j.readBuf, tmp[:n]...)
		j.mu.Unlock()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	n := j.fragment(min(len(j.readBuf), len(buf)))
	copy(buf, j.readBuf[:n])
	j.readBuf = j.readBuf[n:]
	j.bytesRead += n
	return n, nil
}

func (j *JitteryConn) latency() time.Duration {
	if j.config.MaxLatency <= 0 {
		return 0
	}
	return time.Duration(j.rng.Int64N(int64(j.config.MaxLatency) + 1))
}

func (j *JitteryConn) fragment(n int) int {
	// split at 64-byte USB packet boundaries
	if j.config.USBBoundaryStress && n > 0 {
		untilBoundary := 64 - j.bytesRead%64
		n = min(n, untilBoundary)
	}
	if j.config.FragmentReads && n > j.config.FragmentMinBytes {
		n = j.config.FragmentMinBytes + j.rng.IntN(n-j.config.FragmentMinBytes+1)
	}
	return n
}

// BytesRead returns how many bytes Read has returned so far.
func (j *JitteryConn) BytesRead() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.bytesRead
}
