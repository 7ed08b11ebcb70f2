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

package ndef

// NewMediaRecord creates a TNF 0x02 record. Sessions do not decode media
// records; they are reported with UnsupportedRecordMarker.
func NewMediaRecord(mediaType string, payload []byte) *Record {
	return &Record{
		TNF:     TNFMedia,
		Type:    mediaType,
		Payload: payload,
	}
}

// NewEmptyRecord creates a TNF 0x00 record.
func NewEmptyRecord() *Record {
	return &Record{TNF: TNFEmpty}
}
