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

import "context"

// Tag is a tag handle handed out by a RadioSession. Sessions only pass it
// back to the RadioSession that produced it.
type Tag interface {
	UID() string
}

// EventSink receives the events of one radio session. Post never blocks
// for long and drops events once the session has ended.
type EventSink interface {
	Post(ev Event)
}

// Reader is the platform facility that runs tag discovery.
type Reader interface {
	// Available reports whether tag discovery can run at all.
	Available() bool
	// Open starts a discovery session showing prompt. The reader reports
	// SessionActive, TagsDetected, MessagesDetected and Invalidated to sink
	// until the session is invalidated.
	Open(ctx context.Context, prompt string, sink EventSink) (RadioSession, error)
}

// RadioSession is one open discovery session.
//
// Calls run on their own goroutine and may block; they should return
// promptly once ctx is done. ReadMessage returns ErrNoMessage for a
// formatted tag without a message. QueryStatus reports the tag capacity in
// bytes, or zero when unknown.
type RadioSession interface {
	SetAlert(message string)
	Connect(ctx context.Context, tag Tag) error
	QueryStatus(ctx context.Context, tag Tag) (TagStatus, int, error)
	ReadMessage(ctx context.Context, tag Tag) ([]byte, error)
	WriteMessage(ctx context.Context, tag Tag, message []byte) error
	// Invalidate ends the session. An empty message reports success.
	Invalidate(errorMessage string)
}
