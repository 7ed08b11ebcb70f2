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

// State is a session's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateAwaitingTag
	StateConnecting
	StateQueryingCapability
	StateReading
	StateWriting
	StateCompleted
	StateInvalidated
)

var stateNames = [...]string{
	StateIdle:               "idle",
	StateOpening:            "opening",
	StateAwaitingTag:        "awaiting-tag",
	StateConnecting:         "connecting",
	StateQueryingCapability: "querying-capability",
	StateReading:            "reading",
	StateWriting:            "writing",
	StateCompleted:          "completed",
	StateInvalidated:        "invalidated",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateInvalidated
}
