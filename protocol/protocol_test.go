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

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameWireFormat(t *testing.T) {
	t.Parallel()

	f, err := NewFrame(TypeWriteMessage, WriteRequest{UID: "04a1", Message: []byte{0xD1, 0x01}})
	require.NoError(t, err)
	f.ID = "req-1"
	f.Session = "s-1"

	raw, err := f.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":"req-1","type":"writeMessage","session":"s-1","payload":{"uid":"04a1","message":"0QE="}}`,
		string(raw))
}

func TestReplyCarriesRequestID(t *testing.T) {
	t.Parallel()

	req := Frame{ID: "abc", Type: TypeQueryStatus, Session: "s"}
	ok, err := Reply(req, StatusResult{Status: StatusReadWrite, Capacity: 137})
	require.NoError(t, err)
	assert.Equal(t, "abc", ok.ID)
	assert.Equal(t, TypeResult, ok.Type)

	var status StatusResult
	require.NoError(t, ok.Decode(&status))
	assert.Equal(t, StatusResult{Status: StatusReadWrite, Capacity: 137}, status)

	failed := ReplyError(req, CodeTagLost, "tag moved")
	assert.Equal(t, "abc", failed.ID)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "tag_lost: tag moved", failed.Error.Error())
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	f, err := Unmarshal([]byte(`{"type":"invalidated","session":"s","payload":{"cause":"userCanceled"}}`))
	require.NoError(t, err)
	var ev Invalidated
	require.NoError(t, f.Decode(&ev))
	assert.Equal(t, "userCanceled", ev.Cause)

	_, err = Unmarshal([]byte(`{"id":"x"}`))
	require.Error(t, err)
	_, err = Unmarshal([]byte(`not json`))
	require.Error(t, err)

	require.ErrorIs(t, Frame{Type: TypeHello}.Decode(&Hello{}), ErrNoPayload)
}
