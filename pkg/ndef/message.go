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
	"fmt"
	"strings"
)

// UnsupportedRecordMarker stands in for records of a format this package
// does not decode.
const UnsupportedRecordMarker = "Unsupported record type"

// Message decode errors.
var (
	ErrNoRecords         = errors.New("ndef: message has no records")
	ErrNoReadableRecords = errors.New("ndef: no record could be decoded")
)

// DecodeMessage renders every record of msg as one line of text, in record
// order, joined with "\n". Empty records are skipped, text and absolute-URI
// records are decoded, and any other format becomes
// UnsupportedRecordMarker. A text or URI record that fails to decode is
// dropped.
//
// ErrNoRecords is returned when msg holds no non-empty record.
// ErrNoReadableRecords is returned when every record was dropped; it also
// wraps the first decode failure.
func DecodeMessage(msg *Message) (string, error) {
	if msg == nil {
		return "", ErrNoRecords
	}

	var (
		lines    []string
		firstErr error
		seen     int
	)
	for _, rec := range msg.Records {
		if rec == nil || rec.TNF == TNFEmpty {
			continue
		}
		seen++

		line, err := decodeRecord(rec)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		lines = append(lines, line)
	}

	switch {
	case seen == 0:
		return "", ErrNoRecords
	case len(lines) == 0:
		return "", fmt.Errorf("%w: %w", ErrNoReadableRecords, firstErr)
	default:
		return strings.Join(lines, "\n"), nil
	}
}

func decodeRecord(rec *Record) (string, error) {
	switch {
	case rec.TNF == TNFWellKnown && rec.Type == TextRecordType:
		text, err := DecodeText(rec)
		if err != nil {
			return "", err
		}
		return text.Text, nil
	case rec.TNF == TNFAbsoluteURI:
		return DecodeURI(rec)
	default:
		return UnsupportedRecordMarker, nil
	}
}

// DecodeRaw parses raw message bytes and renders them with DecodeMessage.
// Framing failures wrap ErrMalformed.
func DecodeRaw(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrNoRecords
	}
	msg, err := ParseMessage(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return DecodeMessage(msg)
}
