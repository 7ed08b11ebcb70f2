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

// URI record errors.
var (
	ErrNotURIRecord   = errors.New("ndef: not an absolute URI record")
	ErrURIInvalidUTF8 = fmt.Errorf("%w: URI is not valid UTF-8", ErrMalformed)
)

// NewAbsoluteURIRecord creates a TNF 0x03 record carrying uri as its
// payload.
func NewAbsoluteURIRecord(uri string) *Record {
	return &Record{
		TNF:     TNFAbsoluteURI,
		Payload: []byte(uri),
	}
}

// DecodeURI returns the URI carried by an absolute-URI record. Writers that
// follow RFC 3986 strictly put the URI in the type field and leave the
// payload empty; that form is accepted too.
func DecodeURI(rec *Record) (string, error) {
	if rec.TNF != TNFAbsoluteURI {
		return "", ErrNotURIRecord
	}

	raw := rec.Payload
	if len(raw) == 0 {
		raw = []byte(rec.Type)
	}
	if !utf8.Valid(raw) {
		return "", ErrURIInvalidUTF8
	}
	return string(raw), nil
}
