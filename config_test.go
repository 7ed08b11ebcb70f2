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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-ndefsession/pkg/ndef"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 16, cfg.EventBuffer)
	assert.NotEmpty(t, cfg.WriteSuccessAlert)
	require.NoError(t, cfg.validate())

	assert.Equal(t, cfg.ReadPrompt, cfg.prompt(ModeRead))
	assert.Equal(t, cfg.WritePrompt, cfg.prompt(ModeWrite))
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		mutate  func(*Config)
		name    string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty language", mutate: func(c *Config) { c.Language = "" }},
		{name: "63 byte language", mutate: func(c *Config) { c.Language = strings.Repeat("a", 63) }},
		{
			name:    "64 byte language",
			mutate:  func(c *Config) { c.Language = strings.Repeat("a", 64) },
			wantErr: ndef.ErrLanguageTooLong,
		},
		{
			name:    "zero buffer",
			mutate:  func(c *Config) { c.EventBuffer = 0 },
			wantErr: ErrBadConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, ErrBadConfig)
		})
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range []Option{
		WithLanguage("de"),
		WithReadPrompt("read"),
		WithWritePrompt("write"),
		WithWriteSuccessAlert("ok"),
		WithEventBuffer(4),
	} {
		opt(cfg)
	}
	assert.Equal(t, Config{
		Language:          "de",
		ReadPrompt:        "read",
		WritePrompt:       "write",
		WriteSuccessAlert: "ok",
		EventBuffer:       4,
	}, *cfg)

	WithConfig(Config{Language: "fr", EventBuffer: 1})(cfg)
	assert.Equal(t, Config{Language: "fr", EventBuffer: 1}, *cfg)
}
