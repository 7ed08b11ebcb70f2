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

import "fmt"

// Event is something that happened to a session. Readers post the exported
// events; the controller posts the results of its own collaborator calls.
type Event interface {
	sessionEvent()
}

// SessionActive reports that the radio started polling.
type SessionActive struct{}

// TagsDetected reports tags in the field. Only the first is used.
type TagsDetected struct {
	Tags []Tag
}

// MessagesDetected delivers NDEF messages the platform already read.
type MessagesDetected struct {
	Messages [][]byte
}

// Invalidated reports that the radio session ended.
type Invalidated struct {
	Detail string
	Cause  InvalidationCause
}

func (SessionActive) sessionEvent()    {}
func (TagsDetected) sessionEvent()     {}
func (MessagesDetected) sessionEvent() {}
func (Invalidated) sessionEvent()      {}

// InvalidationCause says why a radio session ended.
type InvalidationCause int

const (
	CauseUnexpected InvalidationCause = iota
	CauseFirstTagRead
	CauseUserCanceled
	CauseSessionTimeout
	CauseSystemBusy
	CauseTagLost
)

var causeNames = map[InvalidationCause]string{
	CauseUnexpected:     "unexpected",
	CauseFirstTagRead:   "firstTagRead",
	CauseUserCanceled:   "userCanceled",
	CauseSessionTimeout: "timeout",
	CauseSystemBusy:     "systemBusy",
	CauseTagLost:        "tagRemoved",
}

func (c InvalidationCause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cause(%d)", int(c))
}

// Benign reports causes that end a session normally.
func (c InvalidationCause) Benign() bool {
	return c == CauseFirstTagRead || c == CauseUserCanceled
}

// ParseInvalidationCause maps a cause name back to its value. Unknown names
// are CauseUnexpected.
func ParseInvalidationCause(name string) InvalidationCause {
	for c, n := range causeNames {
		if n == name {
			return c
		}
	}
	return CauseUnexpected
}

// Results of collaborator calls, posted back to the owning session.
type (
	opened struct {
		radio RadioSession
		err   error
	}
	connectDone struct {
		err error
	}
	statusDone struct {
		err      error
		status   TagStatus
		capacity int
	}
	readDone struct {
		err     error
		message []byte
	}
	writeDone struct {
		err error
	}
	canceled struct {
		err error
	}
)

func (opened) sessionEvent()      {}
func (connectDone) sessionEvent() {}
func (statusDone) sessionEvent()  {}
func (readDone) sessionEvent()    {}
func (writeDone) sessionEvent()   {}
func (canceled) sessionEvent()    {}
