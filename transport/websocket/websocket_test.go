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

package websocket

import (
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-ndefsession"
	"github.com/ZaparooProject/go-ndefsession/internal/sim"
	"github.com/ZaparooProject/go-ndefsession/protocol"
)

// connect starts a server and dials it, returning the host and phone ends.
func connect(t *testing.T, ctx context.Context) (host, phone *Conn) {
	t.Helper()
	srv := NewServer()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Close() })

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + DefaultPath
	phone, err := Dial(ctx, url)
	require.NoError(t, err)
	host, err = srv.Accept(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = phone.Close()
		_ = host.Close()
	})
	return host, phone
}

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	host, phone := connect(t, ctx)
	assert.Equal(t, ndefsession.TransportWebSocket, host.Type())

	f, err := protocol.NewFrame(protocol.TypeTagsDetected, protocol.TagsDetected{
		Tags: []protocol.TagInfo{{UID: "04a1"}},
	})
	require.NoError(t, err)
	f.Session = "s1"
	require.NoError(t, phone.Send(ctx, f))

	got, err := host.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.Session)
	var tags protocol.TagsDetected
	require.NoError(t, got.Decode(&tags))
	assert.Equal(t, "04a1", tags.Tags[0].UID)
}

func TestConcurrentSendsStayFramed(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	host, phone := connect(t, ctx)

	const senders = 8
	var wg sync.WaitGroup
	for i := range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f := protocol.Frame{ID: strconv.Itoa(i), Type: protocol.TypeSessionActive}
			assert.NoError(t, phone.Send(ctx, f))
		}()
	}

	seen := make(map[string]bool)
	for range senders {
		got, err := host.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, protocol.TypeSessionActive, got.Type)
		seen[got.ID] = true
	}
	wg.Wait()
	assert.Len(t, seen, senders)
}

func TestPeerCloseEndsReceive(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	host, phone := connect(t, ctx)

	require.NoError(t, phone.Close())
	_, err := host.Receive(ctx)
	require.ErrorIs(t, err, ndefsession.ErrTransportClosed)
	require.ErrorIs(t, phone.Send(ctx, protocol.Frame{Type: protocol.TypeHello}), ndefsession.ErrTransportClosed)
}

func TestAcceptAfterClose(t *testing.T) {
	t.Parallel()

	srv := NewServer()
	require.NoError(t, srv.Close())
	_, err := srv.Accept(context.Background())
	require.ErrorIs(t, err, ErrServerClosed)
}

func TestScanOverWebSocket(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	host, phone := connect(t, ctx)

	tag := sim.NewVirtualNTAG213(sim.TestRingUID)
	dev := sim.NewRemoteDevice(phone, tag)
	go func() { _ = dev.Serve(ctx) }()

	reader := ndefsession.NewRemoteReader(host)
	go func() { _ = reader.Run(ctx) }()
	require.NoError(t, reader.WaitReady(ctx))
	hello, ok := reader.Device()
	require.True(t, ok)
	assert.Equal(t, "virtual-reader", hello.Device)

	c, err := ndefsession.New(reader)
	require.NoError(t, err)
	text, err := c.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)

	tag.SetStatus(ndefsession.StatusReadOnly)
	err = c.Write(ctx, "nope")
	require.ErrorIs(t, err, ndefsession.ErrCapabilityRejected)
	assert.Equal(t, "Tag is read-only. Use a writable tag.", ndefsession.StatusMessage(err))
}
