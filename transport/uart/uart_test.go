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

package uart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-ndefsession"
	"github.com/ZaparooProject/go-ndefsession/internal/sim"
	testutil "github.com/ZaparooProject/go-ndefsession/internal/testing"
	"github.com/ZaparooProject/go-ndefsession/protocol"
)

func newPair(t *testing.T, cfg testutil.JitterConfig) (host, device *Transport) {
	t.Helper()
	hostConn, deviceConn := testutil.SerialPair(cfg)
	host = NewWithPort(hostConn, "host")
	device = NewWithPort(deviceConn, "device")
	t.Cleanup(func() {
		_ = host.Close()
		_ = device.Close()
	})
	return host, device
}

func TestFramesSurviveFragmentation(t *testing.T) {
	t.Parallel()

	host, device := newPair(t, testutil.JitterConfig{FragmentReads: true, USBBoundaryStress: true, Seed: 11})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	memory := make([]byte, 300)
	for i := range memory {
		memory[i] = byte(i)
	}
	go func() {
		for i := range 5 {
			f, err := protocol.NewFrame(protocol.TypeResult, protocol.MessageResult{Memory: memory[:60*(i+1)]})
			if err != nil {
				return
			}
			_ = device.Send(ctx, f)
		}
	}()

	for i := range 5 {
		f, err := host.Receive(ctx)
		require.NoError(t, err)
		var res protocol.MessageResult
		require.NoError(t, f.Decode(&res))
		assert.Equal(t, memory[:60*(i+1)], res.Memory)
	}
}

func TestLogLinesAreSkipped(t *testing.T) {
	t.Parallel()

	hostConn, deviceConn := testutil.SerialPair(testutil.JitterConfig{Seed: 5})
	host := NewWithPort(hostConn, "host")
	t.Cleanup(func() { _ = host.Close() })

	go func() {
		_, _ = deviceConn.Write([]byte("boot: reader firmware 1.2\r\n\n{not json\n" +
			`{"type":"hello","payload":{"device":"ring-reader","platform":"rp2040","nfcAvailable":true}}` + "\r\n"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	f, err := host.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeHello, f.Type)
}

func TestReceiveAfterHangup(t *testing.T) {
	t.Parallel()

	hostConn, deviceConn := testutil.SerialPair(testutil.JitterConfig{})
	host := NewWithPort(hostConn, "host")
	t.Cleanup(func() { _ = host.Close() })
	require.NoError(t, deviceConn.Close())

	_, err := host.Receive(context.Background())
	require.ErrorIs(t, err, ndefsession.ErrTransportClosed)
}

func TestClose(t *testing.T) {
	t.Parallel()

	host, _ := newPair(t, testutil.JitterConfig{})
	assert.Equal(t, ndefsession.TransportUART, host.Type())
	require.NoError(t, host.Close())
	require.NoError(t, host.Close())

	_, err := host.Receive(context.Background())
	require.ErrorIs(t, err, ndefsession.ErrTransportClosed)
	require.ErrorIs(t, host.Send(context.Background(), protocol.Frame{Type: protocol.TypeAlert}),
		ndefsession.ErrTransportClosed)
}

func TestReceiveHonorsContext(t *testing.T) {
	t.Parallel()

	host, _ := newPair(t, testutil.JitterConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := host.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScanOverSerialLine(t *testing.T) {
	t.Parallel()

	host, device := newPair(t, testutil.DefaultJitterConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tag := sim.NewVirtualNTAG213(sim.TestRingUID)
	require.NoError(t, tag.SetText("serial ring"))
	dev := sim.NewRemoteDevice(device, tag)
	go func() { _ = dev.Serve(ctx) }()

	reader := ndefsession.NewRemoteReader(host)
	go func() { _ = reader.Run(ctx) }()
	require.NoError(t, reader.WaitReady(ctx))

	c, err := ndefsession.New(reader)
	require.NoError(t, err)
	text, err := c.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "serial ring", text)

	require.NoError(t, c.Write(ctx, "written over uart"))
	got, err := tag.Text()
	require.NoError(t, err)
	assert.Equal(t, "written over uart", got)

	assert.Eventually(t, func() bool { return len(dev.Invalidations()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{ndefsession.DefaultConfig().WriteSuccessAlert}, dev.Alerts())
}

func TestIsInterruptedSystemCall(t *testing.T) {
	t.Parallel()

	assert.True(t, isInterruptedSystemCall(errors.New("read: interrupted system call")))
	assert.True(t, isInterruptedSystemCall(errors.New("EINTR")))
	assert.False(t, isInterruptedSystemCall(errors.New("device not configured")))
	assert.False(t, isInterruptedSystemCall(nil))
}
