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

package ndef

import (
	"bytes"
	"errors"
	"testing"
)

//nolint:gocognit,revive // table-driven test
func TestRecordFraming(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record Record
	}{
		{
			name: "short text record",
			record: Record{
				TNF:     TNFWellKnown,
				Type:    "T",
				Payload: []byte{0x02, 'e', 'n', 'H', 'i'},
			},
		},
		{
			name: "long media record",
			record: Record{
				TNF:     TNFMedia,
				Type:    "application/json",
				Payload: bytes.Repeat([]byte("x"), 300),
			},
		},
		{
			name: "record with id",
			record: Record{
				TNF:     TNFAbsoluteURI,
				ID:      "ring-1",
				Payload: []byte("https://example.com/ring"),
			},
		},
		{
			name:   "empty record",
			record: Record{TNF: TNFEmpty},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := tt.record.Marshal()
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}

			var got Record
			n, err := got.Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if n != len(data) {
				t.Errorf("consumed %d bytes, want %d", n, len(data))
			}
			if got.TNF != tt.record.TNF {
				t.Errorf("TNF = %d, want %d", got.TNF, tt.record.TNF)
			}
			if got.Type != tt.record.Type {
				t.Errorf("Type = %q, want %q", got.Type, tt.record.Type)
			}
			if got.ID != tt.record.ID {
				t.Errorf("ID = %q, want %q", got.ID, tt.record.ID)
			}
			if !bytes.Equal(got.Payload, tt.record.Payload) {
				t.Errorf("Payload = %x, want %x", got.Payload, tt.record.Payload)
			}
		})
	}
}

func TestMessageFlags(t *testing.T) {
	t.Parallel()

	msg := NewMessage(
		NewAbsoluteURIRecord("https://a.example"),
		NewMediaRecord("text/plain", []byte("b")),
		NewAbsoluteURIRecord("https://c.example"),
	)
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if len(parsed.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(parsed.Records))
	}
	for i, rec := range parsed.Records {
		if rec.MB() != (i == 0) {
			t.Errorf("record %d MB = %v", i, rec.MB())
		}
		if rec.ME() != (i == 2) {
			t.Errorf("record %d ME = %v", i, rec.ME())
		}
	}
}

func TestMessageStopsAtME(t *testing.T) {
	t.Parallel()

	first, err := NewMessage(NewAbsoluteURIRecord("https://a.example")).Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := NewMessage(NewAbsoluteURIRecord("https://b.example")).Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var msg Message
	n, err := msg.Unmarshal(append(first, second...))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n != len(first) {
		t.Errorf("consumed %d bytes, want %d", n, len(first))
	}
	if len(msg.Records) != 1 {
		t.Errorf("got %d records, want 1", len(msg.Records))
	}
}

func TestUnmarshalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want error
		name string
		data []byte
	}{
		{name: "empty", data: nil, want: ErrEmptyMessage},
		{name: "header only", data: []byte{0xD1, 0x01}, want: ErrTruncatedRecord},
		{name: "payload cut short", data: []byte{0xD1, 0x01, 0x05, 'T', 0x02}, want: ErrTruncatedRecord},
		{name: "long length cut short", data: []byte{0xC1, 0x01, 0x00, 0x00}, want: ErrTruncatedRecord},
		{name: "chunked", data: []byte{0xF1, 0x01, 0x00, 'T'}, want: ErrChunkedRecord},
		{name: "unchanged tnf", data: []byte{0xD6, 0x00, 0x00}, want: ErrInvalidTNF},
		{name: "reserved tnf", data: []byte{0xD7, 0x00, 0x00}, want: ErrInvalidTNF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseMessage(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMarshalRejects(t *testing.T) {
	t.Parallel()

	if _, err := (&Message{}).Marshal(); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty message error = %v", err)
	}
	if _, err := (&Record{TNF: 0x09}).Marshal(); !errors.Is(err, ErrInvalidTNF) {
		t.Errorf("bad tnf error = %v", err)
	}
	long := string(bytes.Repeat([]byte("t"), 256))
	if _, err := (&Record{TNF: TNFMedia, Type: long}).Marshal(); !errors.Is(err, ErrFieldTooLong) {
		t.Errorf("long type error = %v", err)
	}
}
