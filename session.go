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
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ZaparooProject/go-ndefsession/pkg/ndef"
)

// EffectKind names the side effect a transition asks for.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectOpen
	EffectConnect
	EffectQueryStatus
	EffectReadMessage
	EffectWriteMessage
	EffectFinish
)

// Effect is the single side effect produced by a transition. Which fields
// are set depends on Kind.
type Effect struct {
	Tag     Tag
	Err     error  // EffectFinish: outcome, nil on success
	Text    string // EffectFinish: decoded text of a successful read
	Message []byte // EffectWriteMessage: encoded NDEF message
	Kind    EffectKind
	// CloseRadio is set on EffectFinish when the radio session is still
	// open and must be invalidated.
	CloseRadio bool
}

// Session is the state of one scan or write request. It is not safe for
// concurrent use; a controller drives each session from a single goroutine.
type Session struct {
	tag      Tag
	id       string
	payload  string
	language string
	capacity int
	mode     Mode
	state    State
}

func newSession(mode Mode, payload, language string) *Session {
	return &Session{
		id:       uuid.New().String(),
		mode:     mode,
		payload:  payload,
		language: language,
		state:    StateIdle,
	}
}

// NewReadSession returns an idle session that reads one tag.
func NewReadSession() *Session {
	return newSession(ModeRead, "", ndef.DefaultLanguage)
}

// NewWriteSession returns an idle session that writes text as a single
// text record in language.
func NewWriteSession(text, language string) *Session {
	if language == "" {
		language = ndef.DefaultLanguage
	}
	return newSession(ModeWrite, text, language)
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Mode returns whether the session reads or writes.
func (s *Session) Mode() Mode { return s.mode }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Start leaves StateIdle. When discovery is unavailable the session fails
// with ErrNotAvailable without asking for a radio session.
func (s *Session) Start(available bool) Effect {
	if s.state != StateIdle {
		return Effect{}
	}
	if !available {
		return s.fail(KindNotAvailable, "", nil, false)
	}
	s.moveTo(StateOpening)
	return Effect{Kind: EffectOpen}
}

// Step applies ev and returns the resulting side effect. Events that do
// not belong to the current state, and every event after a terminal
// state, are ignored.
func (s *Session) Step(ev Event) Effect {
	if s.state.Terminal() {
		s.log().Debug().Str("event", fmt.Sprintf("%T", ev)).Msg("event after completion ignored")
		return Effect{}
	}

	switch ev := ev.(type) {
	case opened:
		return s.onOpened(ev)
	case SessionActive:
		s.log().Debug().Msg("radio polling")
		return Effect{}
	case TagsDetected:
		return s.onTags(ev)
	case MessagesDetected:
		return s.onMessages(ev)
	case connectDone:
		return s.onConnected(ev)
	case statusDone:
		return s.onStatus(ev)
	case readDone:
		return s.onRead(ev)
	case writeDone:
		return s.onWritten(ev)
	case Invalidated:
		return s.onInvalidated(ev)
	case canceled:
		s.moveTo(StateInvalidated)
		return Effect{Kind: EffectFinish, Err: fmt.Errorf("%w: %w", ErrCanceled, ev.err), CloseRadio: true}
	default:
		return Effect{}
	}
}

func (s *Session) onOpened(ev opened) Effect {
	if s.state != StateOpening {
		return Effect{}
	}
	if ev.err != nil {
		return s.fail(KindNotAvailable, "", ev.err, false)
	}
	s.moveTo(StateAwaitingTag)
	return Effect{}
}

func (s *Session) onTags(ev TagsDetected) Effect {
	if s.state != StateAwaitingTag || len(ev.Tags) == 0 || ev.Tags[0] == nil {
		return Effect{}
	}
	s.tag = ev.Tags[0]
	if len(ev.Tags) > 1 {
		s.log().Debug().Int("tags", len(ev.Tags)).Msg("several tags in field, using the first")
	}
	s.moveTo(StateConnecting)
	return Effect{Kind: EffectConnect, Tag: s.tag}
}

// onMessages is the read fast path: the platform read the tag already. A
// write session must go through the capability query, so it ignores this.
func (s *Session) onMessages(ev MessagesDetected) Effect {
	if s.state != StateAwaitingTag || s.mode == ModeWrite || len(ev.Messages) == 0 {
		return Effect{}
	}
	return s.finishRead(ev.Messages[0])
}

func (s *Session) onConnected(ev connectDone) Effect {
	if s.state != StateConnecting {
		return Effect{}
	}
	if ev.err != nil {
		return s.fail(KindConnectionFailed, "", ev.err, true)
	}
	s.moveTo(StateQueryingCapability)
	return Effect{Kind: EffectQueryStatus, Tag: s.tag}
}

func (s *Session) onStatus(ev statusDone) Effect {
	if s.state != StateQueryingCapability {
		return Effect{}
	}
	if ev.err != nil {
		return s.fail(KindConnectionFailed, "", ev.err, true)
	}

	decision := Classify(ev.status, s.mode)
	s.log().Debug().Stringer("status", ev.status).Int("capacity", ev.capacity).
		Bool("proceed", decision.Proceed).Msg("capability")
	if !decision.Proceed {
		return s.fail(KindCapabilityRejected, decision.Reason, nil, true)
	}
	s.capacity = ev.capacity

	if s.mode == ModeRead {
		s.moveTo(StateReading)
		return Effect{Kind: EffectReadMessage, Tag: s.tag}
	}

	msg, err := s.encode()
	if err != nil {
		return s.fail(KindWriteFailed, "", err, true)
	}
	s.moveTo(StateWriting)
	return Effect{Kind: EffectWriteMessage, Tag: s.tag, Message: msg}
}

func (s *Session) encode() ([]byte, error) {
	msg, err := ndef.NewTextMessage(s.payload, s.language)
	if err != nil {
		return nil, fmt.Errorf("encode text record: %w", err)
	}
	raw, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	if s.capacity > 0 && len(raw) > s.capacity {
		return nil, fmt.Errorf("%w: %d bytes, tag holds %d", ErrDataTooLarge, len(raw), s.capacity)
	}
	return raw, nil
}

func (s *Session) onRead(ev readDone) Effect {
	if s.state != StateReading {
		return Effect{}
	}
	switch {
	case errors.Is(ev.err, ErrNoMessage):
		return s.fail(KindEmptyTag, "", ev.err, true)
	case ev.err != nil:
		return s.fail(KindReadFailed, "", ev.err, true)
	default:
		return s.finishRead(ev.message)
	}
}

func (s *Session) finishRead(raw []byte) Effect {
	text, err := ndef.DecodeRaw(raw)
	switch {
	case err == nil:
		s.moveTo(StateCompleted)
		return Effect{Kind: EffectFinish, Text: text, CloseRadio: true}
	case errors.Is(err, ndef.ErrNoRecords):
		return s.fail(KindEmptyTag, "", err, true)
	case errors.Is(err, ndef.ErrNoReadableRecords):
		return s.fail(KindNoReadablePayload, "", err, true)
	default:
		return s.fail(KindMalformed, "", err, true)
	}
}

func (s *Session) onWritten(ev writeDone) Effect {
	if s.state != StateWriting {
		return Effect{}
	}
	if ev.err != nil {
		return s.fail(KindWriteFailed, "", ev.err, true)
	}
	s.moveTo(StateCompleted)
	return Effect{Kind: EffectFinish, CloseRadio: true}
}

// onInvalidated handles the radio ending underneath the session. The radio
// is already gone, so nothing needs closing.
func (s *Session) onInvalidated(ev Invalidated) Effect {
	s.log().Debug().Stringer("cause", ev.Cause).Str("detail", ev.Detail).Msg("radio invalidated")
	switch {
	case ev.Cause.Benign():
		s.moveTo(StateInvalidated)
		return Effect{Kind: EffectFinish, Err: fmt.Errorf("%w: %s", ErrCanceled, ev.Cause)}
	case ev.Cause == CauseSystemBusy:
		return s.fail(KindSystemBusy, ev.Detail, nil, false)
	default:
		detail := ev.Detail
		if detail == "" {
			detail = ev.Cause.String()
		}
		return s.fail(KindSessionInvalidated, detail, nil, false)
	}
}

func (s *Session) fail(kind ErrorKind, reason string, cause error, closeRadio bool) Effect {
	s.moveTo(StateInvalidated)
	return Effect{Kind: EffectFinish, Err: newError(kind, reason, cause), CloseRadio: closeRadio}
}

func (s *Session) moveTo(next State) {
	s.log().Debug().Stringer("from", s.state).Stringer("to", next).Msg("transition")
	s.state = next
}
