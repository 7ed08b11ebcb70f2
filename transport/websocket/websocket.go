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

// Package websocket accepts phone readers over WebSocket and advertises
// the endpoint over mDNS so apps can find it on the local network.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"

	"github.com/ZaparooProject/go-ndefsession"
	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
	"github.com/ZaparooProject/go-ndefsession/protocol"
)

const (
	// DefaultPath is where readers connect.
	DefaultPath = "/ws"
	// ServiceType is the mDNS service readers browse for.
	ServiceType = "_ndefsession._tcp"

	serviceDomain = "local."
	writeWait     = 5 * time.Second
	pongWait      = 60 * time.Second
	pingInterval  = pongWait * 9 / 10
	maxFrameSize  = 64 * 1024
)

// ErrServerClosed is returned by Accept once the server is closed.
var ErrServerClosed = errors.New("websocket server closed")

// Conn implements the ndefsession.Transport interface over one WebSocket
// connection.
type Conn struct {
	ws        *websocket.Conn
	frames    chan protocol.Frame
	done      chan struct{}
	readErr   error
	writeMu   syncutil.Mutex
	errMu     syncutil.Mutex
	closeOnce sync.Once
}

// NewConn starts reading frames from ws.
func NewConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:     ws,
		frames: make(chan protocol.Frame, 16),
		done:   make(chan struct{}),
	}
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.readLoop()
	go c.pingLoop()
	return c
}

// Dial connects to a server at url, e.g. ws://host:port/ws.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewConn(ws), nil
}

func (c *Conn) readLoop() {
	defer close(c.frames)
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			c.errMu.Lock()
			c.readErr = err
			c.errMu.Unlock()
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		f, err := protocol.Unmarshal(data)
		if err != nil {
			ndefsession.Debugf("websocket %s: dropping bad frame: %v", c.RemoteAddr(), err)
			continue
		}
		select {
		case c.frames <- f:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				ndefsession.Debugf("websocket %s: ping failed: %v", c.RemoteAddr(), err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// Send writes f as one text message.
func (c *Conn) Send(ctx context.Context, f protocol.Frame) error {
	select {
	case <-c.done:
		return ndefsession.ErrTransportClosed
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteJSON(f); err != nil {
		return fmt.Errorf("websocket write failed: %w", err)
	}
	return nil
}

// Receive returns the next frame from the peer.
func (c *Conn) Receive(ctx context.Context) (protocol.Frame, error) {
	select {
	case f, ok := <-c.frames:
		if !ok {
			return protocol.Frame{}, c.err()
		}
		return f, nil
	case <-c.done:
		return protocol.Frame{}, ndefsession.ErrTransportClosed
	case <-ctx.Done():
		return protocol.Frame{}, ctx.Err()
	}
}

func (c *Conn) err() error {
	select {
	case <-c.done:
		return ndefsession.ErrTransportClosed
	default:
	}
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if websocket.IsCloseError(c.readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return fmt.Errorf("%w: peer closed", ndefsession.ErrTransportClosed)
	}
	return fmt.Errorf("%w: %w", ndefsession.ErrTransportClosed, c.readErr)
}

// Close sends a close message and closes the connection.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		if cerr := c.ws.Close(); cerr != nil {
			err = fmt.Errorf("websocket close failed: %w", cerr)
		}
	})
	return err
}

// Type returns the transport type
func (*Conn) Type() ndefsession.TransportType {
	return ndefsession.TransportWebSocket
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// Server is an http.Handler that hands connected readers to Accept.
type Server struct {
	conns     chan *Conn
	done      chan struct{}
	upgrader  websocket.Upgrader
	closeOnce sync.Once
}

// NewServer creates a server. Mount it at DefaultPath.
func NewServer() *Server {
	return &Server{
		conns: make(chan *Conn),
		done:  make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool {
				return true // phone apps send no Origin we could check
			},
		},
	}
}

// ServeHTTP upgrades the request and waits for Accept to take it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ndefsession.Logger().Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	conn := NewConn(ws)
	ndefsession.Logger().Info().Str("remote", r.RemoteAddr).Msg("reader connected")

	select {
	case s.conns <- conn:
	case <-s.done:
		_ = conn.Close()
	case <-r.Context().Done():
		_ = conn.Close()
	}
}

// Accept returns the next connected reader.
func (s *Server) Accept(ctx context.Context) (*Conn, error) {
	select {
	case c := <-s.conns:
		return c, nil
	case <-s.done:
		return nil, ErrServerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops handing out connections. Accepted connections stay open.
func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Advertise registers the endpoint on port as an mDNS service named name.
// Call the returned function to withdraw it.
func Advertise(name string, port int, path string) (shutdown func(), err error) {
	txt := []string{
		"version=1",
		"protocol=websocket",
		"path=" + path,
	}
	server, err := zeroconf.Register(name, ServiceType, serviceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	ndefsession.Logger().Info().Str("name", name).Int("port", port).Msg("mDNS service registered")
	return server.Shutdown, nil
}
