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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesOnlyItsKind(t *testing.T) {
	t.Parallel()

	cause := errors.New("rf glitch")
	for kind, sentinel := range kindSentinels {
		err := error(newError(kind, "", cause))
		assert.ErrorIs(t, err, sentinel, kind.String())
		assert.ErrorIs(t, err, cause, "cause must unwrap for %s", kind)
		for other, otherSentinel := range kindSentinels {
			if other != kind {
				assert.NotErrorIs(t, err, otherSentinel, "%s matched %s", kind, other)
			}
		}
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := newError(KindCapabilityRejected, ReasonReadOnly, nil)
	assert.Equal(t, "tag capability rejected: tag is read-only", err.Error())

	wrapped := fmt.Errorf("scan: %w", newError(KindReadFailed, "", errors.New("timeout")))
	assert.Equal(t, "scan: tag read failed: timeout", wrapped.Error())
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	kind, ok := KindOf(fmt.Errorf("outer: %w", newError(KindSystemBusy, "", nil)))
	require.True(t, ok)
	assert.Equal(t, KindSystemBusy, kind)

	_, ok = KindOf(ErrCanceled)
	assert.False(t, ok)
	assert.False(t, IsFailure(nil))
	assert.False(t, IsFailure(fmt.Errorf("%w: userCanceled", ErrCanceled)))
	assert.True(t, IsFailure(newError(KindEmptyTag, "", nil)))
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection", err: newError(KindConnectionFailed, "", nil), want: true},
		{name: "busy", err: newError(KindSystemBusy, "", nil), want: true},
		{name: "write", err: newError(KindWriteFailed, "", errors.New("nak")), want: true},
		{name: "write too large", err: newError(KindWriteFailed, "", ErrDataTooLarge), want: false},
		{name: "rejected", err: newError(KindCapabilityRejected, ReasonReadOnly, nil), want: false},
		{name: "empty", err: newError(KindEmptyTag, "", nil), want: false},
		{name: "canceled", err: ErrCanceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestStatusMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		name     string
		contains string
	}{
		{name: "success", err: nil, contains: "Done"},
		{name: "canceled", err: ErrCanceled, contains: "Canceled."},
		{name: "canceled by invalidation", err: fmt.Errorf("%w: %s", ErrCanceled, CauseUserCanceled), contains: "Canceled."},
		{name: "busy request", err: ErrSessionActive, contains: "already running"},
		{name: "unavailable", err: newError(KindNotAvailable, "", nil), contains: "not available"},
		{name: "read-only", err: newError(KindCapabilityRejected, ReasonReadOnly, nil), contains: "Use a writable tag"},
		{name: "not compliant", err: newError(KindCapabilityRejected, ReasonNotCompliant, nil), contains: "NDEF formatted"},
		{name: "unknown status", err: newError(KindCapabilityRejected, ReasonUnknownStatus, nil), contains: "different tag"},
		{name: "system busy", err: newError(KindSystemBusy, "", nil), contains: "try again"},
		{name: "too large", err: newError(KindWriteFailed, "", ErrDataTooLarge), contains: "too long"},
		{name: "invalidated", err: newError(KindSessionInvalidated, "session timeout", nil), contains: "session timeout"},
		{name: "foreign error", err: errors.New("boom"), contains: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := StatusMessage(tt.err)
			assert.Contains(t, msg, tt.contains)
			assert.False(t, strings.Contains(msg, "\n"), "status must be a single line")
		})
	}
}
