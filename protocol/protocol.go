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

// Package protocol defines the JSON frames exchanged with a remote tag
// reader, such as a phone app or reader firmware on a serial port.
//
// The host sends commands and the reader answers each with a result frame
// carrying the same id. The reader also sends unsolicited events tagged
// with the session they belong to.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Commands sent by the host.
const (
	TypeOpen         = "open"
	TypeAlert        = "alert"
	TypeConnect      = "connect"
	TypeQueryStatus  = "queryStatus"
	TypeReadMessage  = "readMessage"
	TypeWriteMessage = "writeMessage"
	TypeInvalidate   = "invalidate"
)

// Frames sent by the reader.
const (
	TypeResult           = "result"
	TypeHello            = "hello"
	TypeSessionActive    = "sessionActive"
	TypeTagsDetected     = "tagsDetected"
	TypeMessagesDetected = "messagesDetected"
	TypeInvalidated      = "invalidated"
)

// Error codes carried in result frames.
const (
	CodeNoMessage   = "no_message"
	CodeTagLost     = "tag_lost"
	CodeTooLarge    = "too_large"
	CodeReadOnly    = "read_only"
	CodeUnavailable = "unavailable"
	CodeBadRequest  = "bad_request"
	CodeFailed      = "failed"
)

// Tag status names used in StatusResult.
const (
	StatusNotSupported = "notSupported"
	StatusReadOnly     = "readOnly"
	StatusReadWrite    = "readWrite"
)

// ErrNoPayload is returned when decoding a frame without a payload.
var ErrNoPayload = errors.New("protocol: frame has no payload")

// Frame is one JSON message on the wire.
type Frame struct {
	Error   *Error          `json:"error,omitempty"`
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Session string          `json:"session,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Error is the failure carried by a result frame.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Hello announces the reader once the connection is up.
type Hello struct {
	Device       string `json:"device"`
	Platform     string `json:"platform"`
	AppVersion   string `json:"appVersion,omitempty"`
	NFCAvailable bool   `json:"nfcAvailable"`
}

// OpenRequest asks the reader to start a discovery session.
type OpenRequest struct {
	Prompt string `json:"prompt"`
}

// AlertRequest updates the text shown by an open session.
type AlertRequest struct {
	Message string `json:"message"`
}

// TagRequest addresses a detected tag.
type TagRequest struct {
	UID string `json:"uid"`
}

// WriteRequest writes an NDEF message to a tag.
type WriteRequest struct {
	UID     string `json:"uid"`
	Message []byte `json:"message"`
}

// InvalidateRequest ends a session. An empty message reports success.
type InvalidateRequest struct {
	Message string `json:"message,omitempty"`
}

// StatusResult answers queryStatus.
type StatusResult struct {
	Status   string `json:"status"`
	Capacity int    `json:"capacity"`
}

// MessageResult answers readMessage. Readers that only expose raw tag
// memory send Memory, holding TLV blocks, instead of Message.
type MessageResult struct {
	Message []byte `json:"message,omitempty"`
	Memory  []byte `json:"memory,omitempty"`
}

// TagInfo describes a detected tag.
type TagInfo struct {
	UID  string `json:"uid"`
	Type string `json:"type,omitempty"`
}

// TagsDetected is the payload of a tagsDetected event.
type TagsDetected struct {
	Tags []TagInfo `json:"tags"`
}

// MessagesDetected is the payload of a messagesDetected event.
type MessagesDetected struct {
	Messages [][]byte `json:"messages"`
}

// Invalidated is the payload of an invalidated event.
type Invalidated struct {
	Cause  string `json:"cause"`
	Detail string `json:"detail,omitempty"`
}

// NewFrame builds a frame of type typ. A nil payload is omitted.
func NewFrame(typ string, payload any) (Frame, error) {
	f := Frame{Type: typ}
	if payload == nil {
		return f, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	f.Payload = raw
	return f, nil
}

// Reply builds the result frame answering req.
func Reply(req Frame, payload any) (Frame, error) {
	f, err := NewFrame(TypeResult, payload)
	if err != nil {
		return Frame{}, err
	}
	f.ID = req.ID
	f.Session = req.Session
	return f, nil
}

// ReplyError builds a failed result frame answering req.
func ReplyError(req Frame, code, message string) Frame {
	return Frame{
		ID:      req.ID,
		Type:    TypeResult,
		Session: req.Session,
		Error:   &Error{Code: code, Message: message},
	}
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("%w: %s", ErrNoPayload, f.Type)
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", f.Type, err)
	}
	return nil
}

// Marshal encodes the frame as one JSON document.
func (f Frame) Marshal() ([]byte, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return raw, nil
}

// Unmarshal parses one JSON document into a frame.
func Unmarshal(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" {
		return Frame{}, fmt.Errorf("decode frame: missing type")
	}
	return f, nil
}
