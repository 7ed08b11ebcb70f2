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
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
	"github.com/ZaparooProject/go-ndefsession/pkg/ndef"
	"github.com/ZaparooProject/go-ndefsession/protocol"
)

// Remote reader errors.
var (
	ErrDisconnected = errors.New("remote reader disconnected")
	ErrForeignTag   = errors.New("tag does not belong to this reader")
	ErrRemote       = errors.New("remote reader error")
)

// notifyTimeout bounds fire-and-forget frames such as alerts.
const notifyTimeout = 2 * time.Second

// RemoteReader is a Reader whose radio lives on the far end of a
// Transport, such as a phone app or reader firmware.
//
// Run must be running for the reader to make progress.
type RemoteReader struct {
	transport Transport
	ready     chan struct{}
	pending   map[string]chan protocol.Frame
	sessions  map[string]*remoteRadio
	hello     protocol.Hello
	mu        syncutil.Mutex
	gotHello  bool
	closed    bool
}

// NewRemoteReader wraps t. The reader is unavailable until the remote end
// sends its hello frame.
func NewRemoteReader(t Transport) *RemoteReader {
	return &RemoteReader{
		transport: t,
		ready:     make(chan struct{}),
		pending:   make(map[string]chan protocol.Frame),
		sessions:  make(map[string]*remoteRadio),
	}
}

// Run dispatches incoming frames until the transport fails or ctx is done.
// Open sessions are invalidated and pending calls fail when it returns.
func (r *RemoteReader) Run(ctx context.Context) error {
	defer r.shutdown()
	for {
		f, err := r.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive frame: %w", err)
		}
		r.dispatch(f)
	}
}

// WaitReady blocks until the remote end has introduced itself.
func (r *RemoteReader) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Device returns the hello the remote end sent, if any.
func (r *RemoteReader) Device() (protocol.Hello, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hello, r.gotHello
}

// Available implements Reader.
func (r *RemoteReader) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gotHello && !r.closed && r.hello.NFCAvailable
}

// Open implements Reader.
func (r *RemoteReader) Open(ctx context.Context, prompt string, sink EventSink) (RadioSession, error) {
	radio := &remoteRadio{reader: r, id: uuid.New().String(), events: newEventQueue()}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrDisconnected
	}
	// registered first, events may arrive before the open result
	r.sessions[radio.id] = radio
	r.mu.Unlock()
	go radio.events.pump(sink)

	if _, err := r.call(ctx, radio.id, protocol.TypeOpen, protocol.OpenRequest{Prompt: prompt}); err != nil {
		r.forget(radio.id)
		return nil, err
	}
	Debugf("remote session %s opened", radio.id)
	return radio, nil
}

func (r *RemoteReader) dispatch(f protocol.Frame) {
	switch f.Type {
	case protocol.TypeHello:
		r.onHello(f)
	case protocol.TypeResult:
		r.mu.Lock()
		ch, ok := r.pending[f.ID]
		delete(r.pending, f.ID)
		r.mu.Unlock()
		if !ok {
			Debugf("dropping result for unknown request %q", f.ID)
			return
		}
		ch <- f
	case protocol.TypeSessionActive, protocol.TypeTagsDetected,
		protocol.TypeMessagesDetected, protocol.TypeInvalidated:
		r.onSessionEvent(f)
	default:
		Debugf("ignoring frame of type %q", f.Type)
	}
}

func (r *RemoteReader) onHello(f protocol.Frame) {
	var hello protocol.Hello
	if err := f.Decode(&hello); err != nil {
		Logger().Warn().Err(err).Msg("bad hello frame")
		return
	}
	r.mu.Lock()
	first := !r.gotHello
	r.hello = hello
	r.gotHello = true
	r.mu.Unlock()

	Logger().Info().
		Str("device", hello.Device).
		Str("platform", hello.Platform).
		Bool("nfc", hello.NFCAvailable).
		Msg("remote reader connected")
	if first {
		close(r.ready)
	}
}

func (r *RemoteReader) onSessionEvent(f protocol.Frame) {
	r.mu.Lock()
	radio, ok := r.sessions[f.Session]
	if ok && f.Type == protocol.TypeInvalidated {
		delete(r.sessions, f.Session)
	}
	r.mu.Unlock()
	if !ok {
		Debugf("dropping %s for unknown session %q", f.Type, f.Session)
		return
	}

	ev, err := radio.event(f)
	if err != nil {
		Logger().Warn().Err(err).Str("type", f.Type).Msg("bad session event")
	} else {
		radio.events.push(ev)
	}
	if f.Type == protocol.TypeInvalidated {
		radio.events.close()
	}
}

// shutdown fails pending calls and ends open sessions.
func (r *RemoteReader) shutdown() {
	r.mu.Lock()
	r.closed = true
	pending := r.pending
	sessions := r.sessions
	r.pending = make(map[string]chan protocol.Frame)
	r.sessions = make(map[string]*remoteRadio)
	r.mu.Unlock()

	for id, ch := range pending {
		ch <- protocol.ReplyError(protocol.Frame{ID: id}, protocol.CodeUnavailable, ErrDisconnected.Error())
	}
	for _, radio := range sessions {
		radio.events.push(Invalidated{Cause: CauseUnexpected, Detail: ErrDisconnected.Error()})
		radio.events.close()
	}
}

func (r *RemoteReader) forget(session string) {
	r.mu.Lock()
	radio, ok := r.sessions[session]
	delete(r.sessions, session)
	r.mu.Unlock()
	if ok {
		radio.events.close()
	}
}

// call sends a command and waits for its result.
func (r *RemoteReader) call(ctx context.Context, session, typ string, payload any) (protocol.Frame, error) {
	f, err := protocol.NewFrame(typ, payload)
	if err != nil {
		return protocol.Frame{}, err
	}
	f.ID = uuid.New().String()
	f.Session = session

	ch := make(chan protocol.Frame, 1)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return protocol.Frame{}, ErrDisconnected
	}
	r.pending[f.ID] = ch
	r.mu.Unlock()

	if err := r.transport.Send(ctx, f); err != nil {
		r.mu.Lock()
		delete(r.pending, f.ID)
		r.mu.Unlock()
		return protocol.Frame{}, fmt.Errorf("send %s: %w", typ, err)
	}

	select {
	case res := <-ch:
		if res.Error != nil {
			return protocol.Frame{}, remoteError(res.Error)
		}
		return res, nil
	case <-ctx.Done():
		r.mu.Lock()
		delete(r.pending, f.ID)
		r.mu.Unlock()
		return protocol.Frame{}, ctx.Err()
	}
}

// notify sends a command without waiting for its result.
func (r *RemoteReader) notify(session, typ string, payload any) {
	f, err := protocol.NewFrame(typ, payload)
	if err != nil {
		Logger().Warn().Err(err).Str("type", typ).Msg("encode notification")
		return
	}
	f.ID = uuid.New().String()
	f.Session = session

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := r.transport.Send(ctx, f); err != nil {
		Debugf("send %s: %v", typ, err)
	}
}

func remoteError(e *protocol.Error) error {
	var kind error
	switch e.Code {
	case protocol.CodeNoMessage:
		kind = ErrNoMessage
	case protocol.CodeTagLost:
		kind = ErrTagLost
	case protocol.CodeTooLarge:
		kind = ErrDataTooLarge
	case protocol.CodeUnavailable:
		kind = ErrDisconnected
	default:
		kind = ErrRemote
	}
	if e.Message == "" {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, e.Message)
}

// remoteTag is a tag detected by a remote reader.
type remoteTag struct {
	uid  string
	kind string
}

func (t *remoteTag) UID() string { return t.uid }

func (t *remoteTag) String() string {
	if t.kind == "" {
		return t.uid
	}
	return t.kind + " " + t.uid
}

// eventQueue hands session events to a sink in arrival order without
// blocking the receive loop on a session that is not draining yet.
type eventQueue struct {
	wake   chan struct{}
	events []Event
	mu     syncutil.Mutex
	closed bool
}

func newEventQueue() *eventQueue {
	return &eventQueue{wake: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.events = append(q.events, ev)
	q.mu.Unlock()
	q.signal()
}

// close stops the queue once the events already pushed are delivered.
func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *eventQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) pump(sink EventSink) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.events[0] = nil
			q.events = q.events[1:]
			q.mu.Unlock()
			sink.Post(ev)
			continue
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return
		}
		<-q.wake
	}
}

// remoteRadio is one session opened on a RemoteReader.
type remoteRadio struct {
	reader *RemoteReader
	events *eventQueue
	id     string
}

func (s *remoteRadio) event(f protocol.Frame) (Event, error) {
	switch f.Type {
	case protocol.TypeSessionActive:
		return SessionActive{}, nil
	case protocol.TypeTagsDetected:
		var p protocol.TagsDetected
		if err := f.Decode(&p); err != nil {
			return nil, err
		}
		tags := make([]Tag, 0, len(p.Tags))
		for _, info := range p.Tags {
			tags = append(tags, &remoteTag{uid: info.UID, kind: info.Type})
		}
		return TagsDetected{Tags: tags}, nil
	case protocol.TypeMessagesDetected:
		var p protocol.MessagesDetected
		if err := f.Decode(&p); err != nil {
			return nil, err
		}
		return MessagesDetected{Messages: p.Messages}, nil
	default:
		var p protocol.Invalidated
		if err := f.Decode(&p); err != nil {
			return nil, err
		}
		return Invalidated{Cause: ParseInvalidationCause(p.Cause), Detail: p.Detail}, nil
	}
}

func (s *remoteRadio) uid(tag Tag) (string, error) {
	rt, ok := tag.(*remoteTag)
	if !ok {
		return "", ErrForeignTag
	}
	return rt.uid, nil
}

func (s *remoteRadio) SetAlert(message string) {
	s.reader.notify(s.id, protocol.TypeAlert, protocol.AlertRequest{Message: message})
}

func (s *remoteRadio) Connect(ctx context.Context, tag Tag) error {
	uid, err := s.uid(tag)
	if err != nil {
		return err
	}
	_, err = s.reader.call(ctx, s.id, protocol.TypeConnect, protocol.TagRequest{UID: uid})
	return err
}

func (s *remoteRadio) QueryStatus(ctx context.Context, tag Tag) (TagStatus, int, error) {
	uid, err := s.uid(tag)
	if err != nil {
		return 0, 0, err
	}
	res, err := s.reader.call(ctx, s.id, protocol.TypeQueryStatus, protocol.TagRequest{UID: uid})
	if err != nil {
		return 0, 0, err
	}
	var p protocol.StatusResult
	if err := res.Decode(&p); err != nil {
		return 0, 0, err
	}
	return parseTagStatus(p.Status), p.Capacity, nil
}

func (s *remoteRadio) ReadMessage(ctx context.Context, tag Tag) ([]byte, error) {
	uid, err := s.uid(tag)
	if err != nil {
		return nil, err
	}
	res, err := s.reader.call(ctx, s.id, protocol.TypeReadMessage, protocol.TagRequest{UID: uid})
	if err != nil {
		return nil, err
	}
	var p protocol.MessageResult
	if err := res.Decode(&p); err != nil {
		return nil, err
	}

	switch {
	case len(p.Message) > 0:
		return p.Message, nil
	case len(p.Memory) > 0:
		msg, err := ndef.UnwrapTLV(p.Memory)
		if errors.Is(err, ndef.ErrNoMessageTLV) {
			return nil, ErrNoMessage
		}
		return msg, err
	default:
		return nil, ErrNoMessage
	}
}

func (s *remoteRadio) WriteMessage(ctx context.Context, tag Tag, message []byte) error {
	uid, err := s.uid(tag)
	if err != nil {
		return err
	}
	_, err = s.reader.call(ctx, s.id, protocol.TypeWriteMessage,
		protocol.WriteRequest{UID: uid, Message: message})
	return err
}

func (s *remoteRadio) Invalidate(errorMessage string) {
	s.reader.forget(s.id)
	s.reader.notify(s.id, protocol.TypeInvalidate, protocol.InvalidateRequest{Message: errorMessage})
}

func parseTagStatus(name string) TagStatus {
	switch name {
	case protocol.StatusNotSupported:
		return StatusNotSupported
	case protocol.StatusReadOnly:
		return StatusReadOnly
	case protocol.StatusReadWrite:
		return StatusReadWrite
	default:
		return 0
	}
}
