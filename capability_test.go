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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   Decision
		status TagStatus
		mode   Mode
	}{
		{"not supported read", reject(ReasonNotCompliant), StatusNotSupported, ModeRead},
		{"not supported write", reject(ReasonNotCompliant), StatusNotSupported, ModeWrite},
		{"read-only read", proceed(), StatusReadOnly, ModeRead},
		{"read-only write", reject(ReasonReadOnly), StatusReadOnly, ModeWrite},
		{"read-write read", proceed(), StatusReadWrite, ModeRead},
		{"read-write write", proceed(), StatusReadWrite, ModeWrite},
		{"zero status", reject(ReasonUnknownStatus), TagStatus(0), ModeRead},
		{"out of range status", reject(ReasonUnknownStatus), TagStatus(42), ModeWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.status, tt.mode)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Classify(tt.status, tt.mode), "classify must be deterministic")
		})
	}
}

func TestTagStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "read-only", StatusReadOnly.String())
	assert.Equal(t, "unknown", TagStatus(0).String())
	assert.Equal(t, "write", ModeWrite.String())
	assert.Equal(t, "read", ModeRead.String())
}
