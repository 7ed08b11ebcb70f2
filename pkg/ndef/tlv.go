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
	"encoding/binary"
	"errors"
	"fmt"
)

// TLV block tags used in Type 2 tag memory.
const (
	tlvNull       byte = 0x00
	tlvMessage    byte = 0x03
	tlvTerminator byte = 0xFE
	tlvLongLength byte = 0xFF
)

// TLV errors.
var (
	ErrNoMessageTLV  = errors.New("ndef: no NDEF message TLV found")
	ErrTLVTruncated  = fmt.Errorf("%w: TLV block truncated", ErrMalformed)
	ErrMessageTooBig = errors.New("ndef: message too large for a TLV block")
)

// WrapTLV frames an encoded message as it is stored in tag memory: an NDEF
// message TLV followed by a terminator.
func WrapTLV(msg []byte) ([]byte, error) {
	n := len(msg)
	if n > 0xFFFE {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooBig, n)
	}

	out := make([]byte, 0, n+5)
	if n < int(tlvLongLength) {
		out = append(out, tlvMessage, byte(n))
	} else {
		out = append(out, tlvMessage, tlvLongLength)
		//nolint:gosec // bounded above
		out = binary.BigEndian.AppendUint16(out, uint16(n))
	}
	out = append(out, msg...)
	return append(out, tlvTerminator), nil
}

// UnwrapTLV walks tag memory and returns the value of the first NDEF
// message TLV. A message TLV of length zero yields an empty slice.
func UnwrapTLV(memory []byte) ([]byte, error) {
	pos := 0
	for pos < len(memory) {
		tag := memory[pos]
		pos++
		switch tag {
		case tlvNull:
			continue
		case tlvTerminator:
			return nil, ErrNoMessageTLV
		}

		if pos >= len(memory) {
			return nil, ErrTLVTruncated
		}
		length := int(memory[pos])
		pos++
		if byte(length) == tlvLongLength {
			if pos+2 > len(memory) {
				return nil, ErrTLVTruncated
			}
			length = int(binary.BigEndian.Uint16(memory[pos:]))
			pos += 2
		}
		if pos+length > len(memory) {
			return nil, ErrTLVTruncated
		}

		if tag == tlvMessage {
			return memory[pos : pos+length], nil
		}
		// lock, memory control and proprietary blocks
		pos += length
	}
	return nil, ErrNoMessageTLV
}
