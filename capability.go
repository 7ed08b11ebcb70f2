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

// TagStatus is the NDEF capability a tag reports when queried. The zero
// value is an unknown status.
type TagStatus int

const (
	StatusNotSupported TagStatus = iota + 1
	StatusReadOnly
	StatusReadWrite
)

func (s TagStatus) String() string {
	switch s {
	case StatusNotSupported:
		return "not supported"
	case StatusReadOnly:
		return "read-only"
	case StatusReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// Mode selects what a session does with the tag.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Rejection reasons reported by Classify.
const (
	ReasonNotCompliant  = "tag not NDEF compliant"
	ReasonReadOnly      = "tag is read-only"
	ReasonUnknownStatus = "unknown tag status"
)

// Decision is the outcome of Classify.
type Decision struct {
	Reason  string
	Proceed bool
}

func proceed() Decision { return Decision{Proceed: true} }

func reject(reason string) Decision { return Decision{Reason: reason} }

// Classify decides whether a tag with the given status can serve mode.
func Classify(status TagStatus, mode Mode) Decision {
	switch status {
	case StatusNotSupported:
		return reject(ReasonNotCompliant)
	case StatusReadOnly:
		if mode == ModeWrite {
			return reject(ReasonReadOnly)
		}
		return proceed()
	case StatusReadWrite:
		return proceed()
	default:
		return reject(ReasonUnknownStatus)
	}
}
