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
	"unicode/utf8"
)

// Text record layout constants.
const (
	TextRecordType     = "T"
	DefaultLanguage    = "en"
	MaxLanguageLength  = 63
	textLangLengthMask = 0x3F
)

// Text record errors. Every decode failure wraps ErrMalformed.
var (
	ErrMalformed        = errors.New("ndef: malformed record")
	ErrNotTextRecord    = errors.New("ndef: not a text record")
	ErrLanguageTooLong  = errors.New("ndef: language code too long")
	ErrTextTooShort     = fmt.Errorf("%w: text payload too short", ErrMalformed)
	ErrTextInvalidUTF8  = fmt.Errorf("%w: text is not valid UTF-8", ErrMalformed)
)

// TextRecord is the decoded content of a well-known text record.
type TextRecord struct {
	Language string
	Text     string
}

// EncodeText builds a UTF-8 text record. An empty language selects
// DefaultLanguage.
func EncodeText(text, language string) (*Record, error) {
	if language == "" {
		language = DefaultLanguage
	}
	if len(language) > MaxLanguageLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrLanguageTooLong, len(language))
	}

	payload := make([]byte, 0, 1+len(language)+len(text))
	payload = append(payload, byte(len(language)))
	payload = append(payload, language...)
	payload = append(payload, text...)

	return &Record{
		TNF:     TNFWellKnown,
		Type:    TextRecordType,
		Payload: payload,
	}, nil
}

// NewTextMessage wraps a single encoded text record in a message.
func NewTextMessage(text, language string) (*Message, error) {
	rec, err := EncodeText(text, language)
	if err != nil {
		return nil, err
	}
	return NewMessage(rec), nil
}

// DecodeText extracts language and text from a well-known "T" record.
// Only the language length is taken from the status byte; the remaining
// bits are masked off and the text is always read as UTF-8.
func DecodeText(rec *Record) (TextRecord, error) {
	if rec.TNF != TNFWellKnown || rec.Type != TextRecordType {
		return TextRecord{}, ErrNotTextRecord
	}

	payload := rec.Payload
	if len(payload) < 1 {
		return TextRecord{}, ErrTextTooShort
	}
	langLen := int(payload[0] & textLangLengthMask)
	if len(payload) < 1+langLen {
		return TextRecord{}, fmt.Errorf("%w: language length %d exceeds payload of %d bytes",
			ErrTextTooShort, langLen, len(payload))
	}

	body := payload[1+langLen:]
	if !utf8.Valid(body) {
		return TextRecord{}, ErrTextInvalidUTF8
	}
	return TextRecord{
		Language: string(payload[1 : 1+langLen]),
		Text:     string(body),
	}, nil
}
