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

//nolint:paralleltest // Tests modify package-level debug state, cannot run in parallel
package ndefsession

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// captureConsole routes console output to a buffer for the test.
func captureConsole(t *testing.T, enabled bool) *bytes.Buffer {
	t.Helper()
	origEnabled := debugEnabled.Load()
	logMu.Lock()
	origOut := consoleOut
	logMu.Unlock()
	t.Cleanup(func() {
		debugEnabled.Store(origEnabled)
		SetLogOutput(origOut)
	})

	var buf bytes.Buffer
	SetLogOutput(&buf)
	SetDebugEnabled(enabled)
	return &buf
}

func TestDebugf_WritesWhenEnabled(t *testing.T) {
	buf := captureConsole(t, true)

	Debugf("test message %d", 42)

	assert.Contains(t, buf.String(), `"message":"test message 42"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), `"component":"ndefsession"`)
}

func TestDebugf_SilentWhenDisabled(t *testing.T) {
	buf := captureConsole(t, false)

	Debugf("test message %d", 42)
	Debugln("test", "message")

	assert.Empty(t, buf.String())
	assert.Same(t, &nopLogger, Logger())
}

func TestDebugln_JoinsArgs(t *testing.T) {
	buf := captureConsole(t, true)

	Debugln("tag ", "04a1", " connected")

	assert.Contains(t, buf.String(), `"message":"tag 04a1 connected"`)
}

func TestSetDebugEnabled(t *testing.T) {
	captureConsole(t, false)

	SetDebugEnabled(true)
	assert.True(t, debugEnabled.Load())
	assert.Same(t, &baseLogger, Logger())

	SetDebugEnabled(false)
	assert.False(t, debugEnabled.Load())
}

func TestSessionLoggerCarriesSessionFields(t *testing.T) {
	buf := captureConsole(t, true)

	s := NewReadSession()
	s.log().Debug().Msg("hello")

	assert.Contains(t, buf.String(), `"session":"`+s.ID()+`"`)
	assert.Contains(t, buf.String(), `"mode":"read"`)
}

func TestNilConsoleOutput(t *testing.T) {
	captureConsole(t, true)
	SetLogOutput(nil)

	// must not panic
	Debugf("dropped")
	SetLogOutput(io.Discard)
}
