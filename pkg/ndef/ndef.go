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

// Package ndef encodes and decodes the NDEF records exchanged with tags
// during a discovery session.
package ndef

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// TNF (Type Name Format) values as defined by NFC Forum.
const (
	TNFEmpty       byte = 0x00
	TNFWellKnown   byte = 0x01
	TNFMedia       byte = 0x02
	TNFAbsoluteURI byte = 0x03
	TNFExternal    byte = 0x04
	TNFUnknown     byte = 0x05
	TNFUnchanged   byte = 0x06
	TNFReserved    byte = 0x07
)

// Record header bits.
const (
	tnfMask  byte = 0x07
	flagMB   byte = 0x80
	flagME   byte = 0x40
	flagCF   byte = 0x20
	flagSR   byte = 0x10
	flagIL   byte = 0x08
	shortMax      = 0xFF
)

// Framing errors.
var (
	ErrEmptyMessage    = errors.New("ndef: empty message")
	ErrTruncatedRecord = errors.New("ndef: truncated record data")
	ErrInvalidTNF      = errors.New("ndef: invalid TNF value")
	ErrChunkedRecord   = errors.New("ndef: chunked records not supported")
	ErrFieldTooLong    = errors.New("ndef: type or id longer than 255 bytes")
)

// Record is a single NDEF record.
type Record struct {
	Type    string
	ID      string
	Payload []byte
	TNF     byte
	mb      bool
	me      bool
}

// MB reports whether the record opened its message.
func (r *Record) MB() bool { return r.mb }

// ME reports whether the record closed its message.
func (r *Record) ME() bool { return r.me }

// Message is an ordered list of records.
type Message struct {
	Records []*Record
}

// NewMessage builds a message from records.
func NewMessage(records ...*Record) *Message {
	return &Message{Records: records}
}

// ParseMessage decodes the first NDEF message found in raw.
func ParseMessage(raw []byte) (*Message, error) {
	msg := &Message{}
	if _, err := msg.Unmarshal(raw); err != nil {
		return nil, err
	}
	return msg, nil
}

// Marshal serializes the message, setting MB on the first record and ME on
// the last.
func (m *Message) Marshal() ([]byte, error) {
	if len(m.Records) == 0 {
		return nil, ErrEmptyMessage
	}

	var buf bytes.Buffer
	last := len(m.Records) - 1
	for i, rec := range m.Records {
		rec.mb = i == 0
		rec.me = i == last
		if err := rec.writeTo(&buf); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal parses records until one carries ME and returns the number of
// bytes consumed.
func (m *Message) Unmarshal(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrEmptyMessage
	}

	m.Records = m.Records[:0]
	offset := 0
	for offset < len(data) {
		rec := &Record{}
		n, err := rec.Unmarshal(data[offset:])
		if err != nil {
			return offset, fmt.Errorf("record at offset %d: %w", offset, err)
		}
		if rec.mb && len(m.Records) > 0 {
			// a second message begins without the first having ended
			break
		}
		m.Records = append(m.Records, rec)
		offset += n
		if rec.me {
			break
		}
	}

	if len(m.Records) == 0 {
		return 0, ErrEmptyMessage
	}
	return offset, nil
}

// Marshal serializes a single record.
func (r *Record) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.writeTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Record) writeTo(buf *bytes.Buffer) error {
	if r.TNF > TNFReserved {
		return ErrInvalidTNF
	}
	if len(r.Type) > shortMax || len(r.ID) > shortMax {
		return ErrFieldTooLong
	}

	short := len(r.Payload) <= shortMax
	flags := r.TNF & tnfMask
	if r.mb {
		flags |= flagMB
	}
	if r.me {
		flags |= flagME
	}
	if short {
		flags |= flagSR
	}
	if r.ID != "" {
		flags |= flagIL
	}

	buf.WriteByte(flags)
	buf.WriteByte(byte(len(r.Type)))
	if short {
		buf.WriteByte(byte(len(r.Payload)))
	} else {
		var n [4]byte
		//nolint:gosec // len() is non-negative and above 255 here
		binary.BigEndian.PutUint32(n[:], uint32(len(r.Payload)))
		buf.Write(n[:])
	}
	if r.ID != "" {
		buf.WriteByte(byte(len(r.ID)))
	}
	buf.WriteString(r.Type)
	buf.WriteString(r.ID)
	buf.Write(r.Payload)
	return nil
}

// header is the fixed part of a record preceding its type, id and payload.
type header struct {
	flags      byte
	typeLen    int
	idLen      int
	payloadLen int
	size       int
}

func readHeader(data []byte) (header, error) {
	var h header
	if len(data) < 3 {
		return h, ErrTruncatedRecord
	}
	h.flags = data[0]
	h.typeLen = int(data[1])
	h.size = 2

	if h.flags&flagSR != 0 {
		h.payloadLen = int(data[h.size])
		h.size++
	} else {
		if len(data) < h.size+4 {
			return h, ErrTruncatedRecord
		}
		h.payloadLen = int(binary.BigEndian.Uint32(data[h.size:]))
		h.size += 4
	}

	if h.flags&flagIL != 0 {
		if len(data) <= h.size {
			return h, ErrTruncatedRecord
		}
		h.idLen = int(data[h.size])
		h.size++
	}
	return h, nil
}

// Unmarshal parses one record and returns the number of bytes consumed.
func (r *Record) Unmarshal(data []byte) (int, error) {
	h, err := readHeader(data)
	if err != nil {
		return 0, err
	}
	if h.flags&flagCF != 0 {
		return 0, ErrChunkedRecord
	}

	tnf := h.flags & tnfMask
	if tnf == TNFUnchanged || tnf == TNFReserved {
		return 0, ErrInvalidTNF
	}

	end := h.size + h.typeLen + h.idLen + h.payloadLen
	if end < h.size || end > len(data) {
		return 0, ErrTruncatedRecord
	}

	pos := h.size
	r.TNF = tnf
	r.mb = h.flags&flagMB != 0
	r.me = h.flags&flagME != 0
	r.Type = string(data[pos : pos+h.typeLen])
	pos += h.typeLen
	r.ID = string(data[pos : pos+h.idLen])
	pos += h.idLen
	r.Payload = nil
	if h.payloadLen > 0 {
		r.Payload = bytes.Clone(data[pos:end])
	}
	return end, nil
}
