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
	"strings"
)

// StatusMessage turns a session outcome into a single line a user can act
// on. Rejections and busy failures say what to do next.
func StatusMessage(err error) string {
	if err == nil {
		return "Done."
	}
	switch {
	case errors.Is(err, ErrCanceled):
		return "Canceled."
	case errors.Is(err, ErrSessionActive):
		return "Another NFC session is already running. Finish it first."
	}

	var se *Error
	if !errors.As(err, &se) {
		return err.Error()
	}

	switch se.Kind {
	case KindNotAvailable:
		return "NFC is not available on this device."
	case KindConnectionFailed:
		return "Could not connect to the tag. Hold it still and try again."
	case KindCapabilityRejected:
		return rejectionMessage(se.Reason)
	case KindEmptyTag:
		return "The tag is empty."
	case KindNoReadablePayload:
		return "The tag holds no readable text."
	case KindMalformed:
		return "The tag data is corrupted."
	case KindReadFailed:
		return "Reading the tag failed. Try again."
	case KindWriteFailed:
		if errors.Is(se, ErrDataTooLarge) {
			return "The text is too long for this tag. Shorten it or use a larger tag."
		}
		return "Writing the tag failed. Keep it in place and try again."
	case KindSessionInvalidated:
		if se.Reason == "" {
			return "The NFC session ended unexpectedly."
		}
		return "The NFC session ended: " + strings.TrimSuffix(se.Reason, ".") + "."
	case KindSystemBusy:
		return "The NFC system is busy. Wait a moment and try again."
	default:
		return se.Error()
	}
}

func rejectionMessage(reason string) string {
	switch reason {
	case ReasonNotCompliant:
		return "Tag is not NDEF compliant. Use an NDEF formatted tag."
	case ReasonReadOnly:
		return "Tag is read-only. Use a writable tag."
	case ReasonUnknownStatus:
		return "Tag reported an unknown status. Try a different tag."
	default:
		return "Tag rejected: " + reason + "."
	}
}
