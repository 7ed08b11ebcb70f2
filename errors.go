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
)

// Failure kinds. Every failed session outcome is an *Error matching exactly
// one of these with errors.Is.
var (
	ErrNotAvailable       = errors.New("NFC tag discovery not available")
	ErrConnectionFailed   = errors.New("tag connection failed")
	ErrCapabilityRejected = errors.New("tag capability rejected")
	ErrEmptyTag           = errors.New("tag holds no NDEF message")
	ErrNoReadablePayload  = errors.New("no readable record on tag")
	ErrMalformed          = errors.New("malformed NDEF message")
	ErrReadFailed         = errors.New("tag read failed")
	ErrWriteFailed        = errors.New("tag write failed")
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrSystemBusy         = errors.New("NFC system busy")
)

// Request errors, returned synchronously or as a non-failure outcome.
var (
	ErrSessionActive = errors.New("a session is already in progress")
	ErrCanceled      = errors.New("session canceled")
	ErrNilReader     = errors.New("reader is nil")
	ErrBadConfig     = errors.New("invalid configuration")
)

// Collaborator errors. Reader implementations return these so sessions can
// tell the cases apart.
var (
	ErrNoMessage    = errors.New("tag has no NDEF message")
	ErrDataTooLarge = errors.New("message exceeds tag capacity")
	ErrTagLost      = errors.New("tag left the field")
)

// ErrorKind names the failure category of an *Error.
type ErrorKind int

const (
	KindNotAvailable ErrorKind = iota + 1
	KindConnectionFailed
	KindCapabilityRejected
	KindEmptyTag
	KindNoReadablePayload
	KindMalformed
	KindReadFailed
	KindWriteFailed
	KindSessionInvalidated
	KindSystemBusy
)

var kindSentinels = map[ErrorKind]error{
	KindNotAvailable:       ErrNotAvailable,
	KindConnectionFailed:   ErrConnectionFailed,
	KindCapabilityRejected: ErrCapabilityRejected,
	KindEmptyTag:           ErrEmptyTag,
	KindNoReadablePayload:  ErrNoReadablePayload,
	KindMalformed:          ErrMalformed,
	KindReadFailed:         ErrReadFailed,
	KindWriteFailed:        ErrWriteFailed,
	KindSessionInvalidated: ErrSessionInvalidated,
	KindSystemBusy:         ErrSystemBusy,
}

// Sentinel returns the package error matching kind.
func (k ErrorKind) Sentinel() error {
	return kindSentinels[k]
}

func (k ErrorKind) String() string {
	if err, ok := kindSentinels[k]; ok {
		return err.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a failed session outcome.
type Error struct {
	Err    error     // underlying cause, may be nil
	Reason string    // rejection reason or invalidation detail
	Kind   ErrorKind // failure category
}

func newError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.Sentinel()
}

// KindOf reports the failure kind of err, if err is a session failure.
func KindOf(err error) (ErrorKind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// IsFailure reports whether err is a failed outcome rather than success or
// a cancellation.
func IsFailure(err error) bool {
	_, ok := KindOf(err)
	return ok
}

// IsRetryable reports whether starting a new session may succeed where this
// one failed. Sessions never retry on their own.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	//nolint:exhaustive // the remaining kinds depend on the tag, not timing
	switch kind {
	case KindConnectionFailed,
		KindReadFailed,
		KindWriteFailed,
		KindSessionInvalidated,
		KindSystemBusy:
		return !errors.Is(err, ErrDataTooLarge)
	default:
		return false
	}
}
