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

import "github.com/ZaparooProject/go-ndefsession/internal/syncutil"

// continuation holds the caller's callback for the request's mode. Exactly
// one of the funcs is set.
type continuation struct {
	onRead  func(text string, err error)
	onWrite func(err error)
	mode    Mode
}

func readContinuation(fn func(string, error)) continuation {
	return continuation{mode: ModeRead, onRead: fn}
}

func writeContinuation(fn func(error)) continuation {
	return continuation{mode: ModeWrite, onWrite: fn}
}

// completion delivers a request's outcome at most once, whichever path
// reaches it first.
type completion struct {
	cont      continuation
	delivered syncutil.Latch
}

func newCompletion(cont continuation) *completion {
	return &completion{cont: cont}
}

// deliver invokes the callback unless an outcome was already delivered. It
// reports whether this call delivered.
func (c *completion) deliver(text string, err error) bool {
	if !c.delivered.Set() {
		return false
	}
	switch c.cont.mode {
	case ModeRead:
		if c.cont.onRead != nil {
			c.cont.onRead(text, err)
		}
	case ModeWrite:
		if c.cont.onWrite != nil {
			c.cont.onWrite(err)
		}
	}
	return true
}

func (c *completion) done() bool {
	return c.delivered.IsSet()
}
