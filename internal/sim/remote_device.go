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

package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-ndefsession"
	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
	"github.com/ZaparooProject/go-ndefsession/protocol"
)

type nopSink struct{}

func (nopSink) Post(ndefsession.Event) {}

// RemoteDevice plays a phone app or reader firmware on the far end of a
// transport. Every session it opens detects its VirtualTag.
type RemoteDevice struct {
	transport     ndefsession.Transport
	tag           *VirtualTag
	sessions      map[string]*VirtualRadio
	hello         protocol.Hello
	alerts        []string
	invalidations []string
	mu            syncutil.Mutex
}

// NewRemoteDevice creates a device serving tag over t. A nil tag leaves
// the field empty.
func NewRemoteDevice(t ndefsession.Transport, tag *VirtualTag) *RemoteDevice {
	return &RemoteDevice{
		transport: t,
		tag:       tag,
		sessions:  make(map[string]*VirtualRadio),
		hello: protocol.Hello{
			Device:       "virtual-reader",
			Platform:     "test",
			NFCAvailable: true,
		},
	}
}

// SetHello replaces the hello sent when Serve starts.
func (d *RemoteDevice) SetHello(hello protocol.Hello) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hello = hello
}

// Serve introduces the device and answers commands until the transport
// fails or ctx is done.
func (d *RemoteDevice) Serve(ctx context.Context) error {
	d.mu.Lock()
	hello := d.hello
	d.mu.Unlock()
	if err := d.send(ctx, "", protocol.TypeHello, hello); err != nil {
		return err
	}

	for {
		f, err := d.transport.Receive(ctx)
		if err != nil {
			return err
		}
		if err := d.handle(ctx, f); err != nil {
			return err
		}
	}
}

// Alerts returns every alert shown by the device.
func (d *RemoteDevice) Alerts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.alerts...)
}

// Invalidations returns the message of every invalidated session.
func (d *RemoteDevice) Invalidations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.invalidations...)
}

func (d *RemoteDevice) handle(ctx context.Context, f protocol.Frame) error {
	switch f.Type {
	case protocol.TypeOpen:
		return d.open(ctx, f)
	case protocol.TypeAlert:
		var req protocol.AlertRequest
		if err := f.Decode(&req); err != nil {
			return d.reject(ctx, f, err)
		}
		d.mu.Lock()
		d.alerts = append(d.alerts, req.Message)
		d.mu.Unlock()
		return d.reply(ctx, f, nil)
	case protocol.TypeInvalidate:
		var req protocol.InvalidateRequest
		_ = f.Decode(&req)
		d.mu.Lock()
		if radio, ok := d.sessions[f.Session]; ok {
			radio.Invalidate(req.Message)
			delete(d.sessions, f.Session)
			d.invalidations = append(d.invalidations, req.Message)
		}
		d.mu.Unlock()
		return d.reply(ctx, f, nil)
	case protocol.TypeConnect, protocol.TypeQueryStatus,
		protocol.TypeReadMessage, protocol.TypeWriteMessage:
		return d.tagCommand(ctx, f)
	default:
		return d.reject(ctx, f, fmt.Errorf("unknown command %q", f.Type))
	}
}

func (d *RemoteDevice) open(ctx context.Context, f protocol.Frame) error {
	radio := &VirtualRadio{sink: nopSink{}, closed: make(chan struct{})}
	d.mu.Lock()
	d.sessions[f.Session] = radio
	d.mu.Unlock()

	if err := d.reply(ctx, f, nil); err != nil {
		return err
	}
	if err := d.send(ctx, f.Session, protocol.TypeSessionActive, nil); err != nil {
		return err
	}
	if d.tag == nil {
		return nil
	}
	return d.send(ctx, f.Session, protocol.TypeTagsDetected, protocol.TagsDetected{
		Tags: []protocol.TagInfo{{UID: d.tag.UID(), Type: "ntag213"}},
	})
}

func (d *RemoteDevice) tagCommand(ctx context.Context, f protocol.Frame) error {
	d.mu.Lock()
	radio, ok := d.sessions[f.Session]
	d.mu.Unlock()
	if !ok {
		return d.reject(ctx, f, fmt.Errorf("unknown session %q", f.Session))
	}

	var req protocol.WriteRequest
	if err := f.Decode(&req); err != nil {
		return d.reject(ctx, f, err)
	}
	if d.tag == nil || req.UID != d.tag.UID() {
		return d.fail(ctx, f, ErrTagNotPresent)
	}

	switch f.Type {
	case protocol.TypeConnect:
		if err := radio.Connect(ctx, d.tag); err != nil {
			return d.fail(ctx, f, err)
		}
		return d.reply(ctx, f, nil)
	case protocol.TypeQueryStatus:
		status, capacity, err := radio.QueryStatus(ctx, d.tag)
		if err != nil {
			return d.fail(ctx, f, err)
		}
		return d.reply(ctx, f, protocol.StatusResult{Status: statusName(status), Capacity: capacity})
	case protocol.TypeReadMessage:
		msg, err := radio.ReadMessage(ctx, d.tag)
		if err != nil {
			return d.fail(ctx, f, err)
		}
		return d.reply(ctx, f, protocol.MessageResult{Message: msg})
	default:
		if err := radio.WriteMessage(ctx, d.tag, req.Message); err != nil {
			return d.fail(ctx, f, err)
		}
		return d.reply(ctx, f, nil)
	}
}

func (d *RemoteDevice) send(ctx context.Context, session, typ string, payload any) error {
	f, err := protocol.NewFrame(typ, payload)
	if err != nil {
		return err
	}
	f.Session = session
	return d.transport.Send(ctx, f)
}

func (d *RemoteDevice) reply(ctx context.Context, req protocol.Frame, payload any) error {
	f, err := protocol.Reply(req, payload)
	if err != nil {
		return err
	}
	return d.transport.Send(ctx, f)
}

func (d *RemoteDevice) reject(ctx context.Context, req protocol.Frame, err error) error {
	return d.transport.Send(ctx, protocol.ReplyError(req, protocol.CodeBadRequest, err.Error()))
}

func (d *RemoteDevice) fail(ctx context.Context, req protocol.Frame, err error) error {
	return d.transport.Send(ctx, protocol.ReplyError(req, errorCode(err), err.Error()))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrTagNotPresent):
		return protocol.CodeTagLost
	case errors.Is(err, ndefsession.ErrNoMessage):
		return protocol.CodeNoMessage
	case errors.Is(err, ndefsession.ErrDataTooLarge):
		return protocol.CodeTooLarge
	case errors.Is(err, ErrWriteProtected):
		return protocol.CodeReadOnly
	default:
		return protocol.CodeFailed
	}
}

func statusName(status ndefsession.TagStatus) string {
	switch status {
	case ndefsession.StatusReadWrite:
		return protocol.StatusReadWrite
	case ndefsession.StatusReadOnly:
		return protocol.StatusReadOnly
	default:
		return protocol.StatusNotSupported
	}
}
