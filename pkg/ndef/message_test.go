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
	"errors"
	"testing"
)

func mustText(t *testing.T, text string) *Record {
	t.Helper()
	rec, err := EncodeText(text, "en")
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	return rec
}

func badText() *Record {
	return &Record{TNF: TNFWellKnown, Type: TextRecordType, Payload: []byte{0x09, 'e'}}
}

//nolint:gocognit,revive // table-driven test
func TestDecodeMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		build   func(t *testing.T) *Message
		name    string
		want    string
	}{
		{
			name: "single text",
			build: func(t *testing.T) *Message {
				return NewMessage(mustText(t, "Hello"))
			},
			want: "Hello",
		},
		{
			name: "text then uri",
			build: func(t *testing.T) *Message {
				return NewMessage(mustText(t, "Hello"), NewAbsoluteURIRecord("https://example.com"))
			},
			want: "Hello\nhttps://example.com",
		},
		{
			name: "unsupported record in the middle",
			build: func(t *testing.T) *Message {
				return NewMessage(
					mustText(t, "A"),
					NewMediaRecord("image/png", []byte{0x89}),
					mustText(t, "B"),
				)
			},
			want: "A\n" + UnsupportedRecordMarker + "\nB",
		},
		{
			name: "malformed record dropped",
			build: func(t *testing.T) *Message {
				return NewMessage(badText(), mustText(t, "kept"))
			},
			want: "kept",
		},
		{
			name: "empty records skipped",
			build: func(t *testing.T) *Message {
				return NewMessage(NewEmptyRecord(), mustText(t, "only"))
			},
			want: "only",
		},
		{
			name: "well-known uri is unsupported",
			build: func(_ *testing.T) *Message {
				return NewMessage(&Record{TNF: TNFWellKnown, Type: "U", Payload: []byte{0x04, 'x'}})
			},
			want: UnsupportedRecordMarker,
		},
		{
			name: "no records",
			build: func(_ *testing.T) *Message {
				return &Message{}
			},
			wantErr: ErrNoRecords,
		},
		{
			name: "only empty records",
			build: func(_ *testing.T) *Message {
				return NewMessage(NewEmptyRecord())
			},
			wantErr: ErrNoRecords,
		},
		{
			name: "every record malformed",
			build: func(_ *testing.T) *Message {
				return NewMessage(badText(), &Record{TNF: TNFAbsoluteURI, Payload: []byte{0xFF}})
			},
			wantErr: ErrNoReadableRecords,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeMessage(tt.build(t))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeMessage: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeMessageWrapsFirstCause(t *testing.T) {
	t.Parallel()

	_, err := DecodeMessage(NewMessage(badText()))
	if !errors.Is(err, ErrNoReadableRecords) {
		t.Fatalf("error = %v", err)
	}
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error %v does not wrap the decode failure", err)
	}
}

func TestDecodeRaw(t *testing.T) {
	t.Parallel()

	raw, err := NewMessage(mustText(t, "raw")).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeRaw(raw)
	if err != nil || got != "raw" {
		t.Errorf("DecodeRaw = %q, %v", got, err)
	}

	masked, err := NewMessage(&Record{
		TNF:     TNFWellKnown,
		Type:    TextRecordType,
		Payload: []byte{0x82, 'e', 'n', 'r', 'i', 'n', 'g'},
	}).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if got, err := DecodeRaw(masked); err != nil || got != "ring" {
		t.Errorf("DecodeRaw(encoding bit set) = %q, %v", got, err)
	}

	if _, err := DecodeRaw(nil); !errors.Is(err, ErrNoRecords) {
		t.Errorf("nil error = %v", err)
	}
	if _, err := DecodeRaw([]byte{0xD1, 0x01, 0x09}); !errors.Is(err, ErrMalformed) {
		t.Errorf("truncated error = %v", err)
	}
}
