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

// Package sim provides a simulated tag reader for exercising sessions
// without a radio, and for ringctl's sim transport.
package sim

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	gondef "github.com/hsanjuan/go-ndef"

	"github.com/ZaparooProject/go-ndefsession"
	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
	"github.com/ZaparooProject/go-ndefsession/pkg/ndef"
)

// NTAG213UserMemory is the size of an NTAG213's user area in bytes.
const NTAG213UserMemory = 144

// Test UIDs.
var (
	TestRingUID  = []byte{0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0x80}
	TestOtherUID = []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
)

// Errors returned by virtual tags.
var (
	ErrTagNotPresent  = errors.New("virtual tag not present")
	ErrWriteProtected = errors.New("virtual tag is write protected")
)

// VirtualTag is a simulated NDEF tag. Its user memory holds TLV blocks the
// way a Type 2 tag does.
type VirtualTag struct {
	// Injected failures, returned by the matching radio call when set.
	ConnectErr error
	QueryErr   error
	ReadErr    error
	WriteErr   error

	uid     []byte
	memory  []byte
	writes  [][]byte
	status  ndefsession.TagStatus
	mu      syncutil.Mutex
	present bool
}

// NewVirtualNTAG213 creates a writable NTAG213 holding "Hello World".
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	tag := NewBlankTag(uid, NTAG213UserMemory)
	_ = tag.SetText("Hello World")
	return tag
}

// NewBlankTag creates a formatted, writable tag with an empty message TLV.
func NewBlankTag(uid []byte, userMemory int) *VirtualTag {
	if uid == nil {
		uid = TestRingUID
	}
	tag := &VirtualTag{
		uid:     bytes.Clone(uid),
		memory:  make([]byte, userMemory),
		status:  ndefsession.StatusReadWrite,
		present: true,
	}
	copy(tag.memory, []byte{0x03, 0x00, 0xFE})
	return tag
}

// UID returns the tag UID as lowercase hex.
func (v *VirtualTag) UID() string {
	return hex.EncodeToString(v.uid)
}

// SetStatus changes the capability the tag reports.
func (v *VirtualTag) SetStatus(status ndefsession.TagStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
}

// Status returns the capability the tag reports.
func (v *VirtualTag) Status() ndefsession.TagStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Capacity is the largest NDEF message the tag can hold.
func (v *VirtualTag) Capacity() int {
	// short TLV header and terminator
	return len(v.memory) - 3
}

// SetText stores a single English text record, encoded with go-ndef so
// that tests do not depend on this module's encoder.
func (v *VirtualTag) SetText(text string) error {
	raw, err := gondef.NewTextMessage(text, "en").Marshal()
	if err != nil {
		return fmt.Errorf("encode text: %w", err)
	}
	return v.SetMessage(raw)
}

// SetMessage stores raw NDEF message bytes.
func (v *VirtualTag) SetMessage(raw []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store(raw)
}

func (v *VirtualTag) store(raw []byte) error {
	wrapped, err := ndef.WrapTLV(raw)
	if err != nil {
		return err
	}
	if len(wrapped) > len(v.memory) {
		return fmt.Errorf("%w: %d bytes into %d", ndefsession.ErrDataTooLarge, len(wrapped), len(v.memory))
	}
	clear(v.memory)
	copy(v.memory, wrapped)
	return nil
}

// Message returns the stored NDEF message, or ndefsession.ErrNoMessage when
// the message TLV is empty.
func (v *VirtualTag) Message() ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	raw, err := ndef.UnwrapTLV(v.memory)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ndefsession.ErrNoMessage
	}
	return bytes.Clone(raw), nil
}

// Text decodes the stored message.
func (v *VirtualTag) Text() (string, error) {
	raw, err := v.Message()
	if err != nil {
		return "", err
	}
	return ndef.DecodeRaw(raw)
}

// Writes returns every message written through a radio session.
func (v *VirtualTag) Writes() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([][]byte, len(v.writes))
	copy(out, v.writes)
	return out
}

// Remove takes the tag out of the field.
func (v *VirtualTag) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = false
}

// Insert puts the tag back into the field.
func (v *VirtualTag) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = true
}

func (v *VirtualTag) checkPresent() error {
	if !v.present {
		return ErrTagNotPresent
	}
	return nil
}

func (v *VirtualTag) write(raw []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.checkPresent(); err != nil {
		return err
	}
	if v.WriteErr != nil {
		return v.WriteErr
	}
	if v.status != ndefsession.StatusReadWrite {
		return ErrWriteProtected
	}
	if err := v.store(raw); err != nil {
		return err
	}
	v.writes = append(v.writes, bytes.Clone(raw))
	return nil
}
