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
	"fmt"

	"github.com/ZaparooProject/go-ndefsession/pkg/ndef"
)

// Config holds controller options.
type Config struct {
	// Language is the IANA language code written into text records.
	Language string `toml:"language"`
	// ReadPrompt and WritePrompt are shown while waiting for a tag.
	ReadPrompt  string `toml:"read_prompt"`
	WritePrompt string `toml:"write_prompt"`
	// WriteSuccessAlert is shown when a write completes.
	WriteSuccessAlert string `toml:"write_success_alert"`
	// EventBuffer is the number of events queued per session before
	// posting blocks.
	EventBuffer int `toml:"event_buffer"`
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() *Config {
	return &Config{
		Language:          ndef.DefaultLanguage,
		ReadPrompt:        "Hold your phone near the NFC ring to read.",
		WritePrompt:       "Hold your phone near the NFC ring to write.",
		WriteSuccessAlert: "Successfully wrote to tag.",
		EventBuffer:       16,
	}
}

func (c *Config) validate() error {
	if len(c.Language) > ndef.MaxLanguageLength {
		return fmt.Errorf("%w: language %q: %w", ErrBadConfig, c.Language, ndef.ErrLanguageTooLong)
	}
	if c.EventBuffer < 1 {
		return fmt.Errorf("%w: event buffer must be positive, got %d", ErrBadConfig, c.EventBuffer)
	}
	return nil
}

func (c *Config) prompt(mode Mode) string {
	if mode == ModeWrite {
		return c.WritePrompt
	}
	return c.ReadPrompt
}

// Option configures a Controller.
type Option func(*Config)

// WithLanguage sets the language of written text records.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithReadPrompt sets the prompt shown while scanning.
func WithReadPrompt(prompt string) Option {
	return func(c *Config) { c.ReadPrompt = prompt }
}

// WithWritePrompt sets the prompt shown while writing.
func WithWritePrompt(prompt string) Option {
	return func(c *Config) { c.WritePrompt = prompt }
}

// WithWriteSuccessAlert sets the alert shown after a successful write.
func WithWriteSuccessAlert(message string) Option {
	return func(c *Config) { c.WriteSuccessAlert = message }
}

// WithEventBuffer sets the per-session event queue length.
func WithEventBuffer(n int) Option {
	return func(c *Config) { c.EventBuffer = n }
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}
