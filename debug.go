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
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
)

var (
	debugEnabled     atomic.Bool
	sessionLogActive atomic.Bool

	// guards consoleOut and sessionLogWriter
	logMu      syncutil.Mutex
	consoleOut io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}

	baseLogger = zerolog.New(debugWriter{}).With().Timestamp().Str("component", "ndefsession").Logger()
	nopLogger  = zerolog.Nop()
)

func init() {
	if os.Getenv("NDEFSESSION_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled.Store(true)
	}
}

// SetLogOutput routes console debug output to w, e.g. a
// zerolog.ConsoleWriter. The session log is unaffected.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	consoleOut = w
}

// SetDebugEnabled turns console debug output on or off.
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// Logger returns the package logger. Events reach the console when debug
// output is on and the session log whenever one is open.
func Logger() *zerolog.Logger {
	if !debugEnabled.Load() && !sessionLogActive.Load() {
		return &nopLogger
	}
	return &baseLogger
}

// Debugf logs a formatted debug message.
func Debugf(format string, args ...any) {
	Logger().Debug().Msg(fmt.Sprintf(format, args...))
}

// Debugln logs its arguments as one debug message.
func Debugln(args ...any) {
	Logger().Debug().Msg(fmt.Sprint(args...))
}

func (s *Session) log() *zerolog.Logger {
	l := Logger().With().Str("session", s.id).Stringer("mode", s.mode).Logger()
	return &l
}

// debugWriter fans log events out to the console and the session log.
type debugWriter struct{}

func (debugWriter) Write(p []byte) (int, error) {
	logMu.Lock()
	defer logMu.Unlock()
	if debugEnabled.Load() && consoleOut != nil {
		_, _ = consoleOut.Write(p)
	}
	if sessionLogWriter != nil {
		_, _ = sessionLogWriter.Write(p)
	}
	return len(p), nil
}
