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

package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-ndefsession"
	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
)

// ErrNotVirtualTag is returned when a radio call gets a foreign tag handle.
var ErrNotVirtualTag = errors.New("tag is not a *VirtualTag")

// VirtualReader is a scripted ndefsession.Reader. Tests drive each opened
// session through the returned *VirtualRadio.
type VirtualReader struct {
	// OpenErr makes Open fail.
	OpenErr error

	opened    chan *VirtualRadio
	autoTag   *VirtualTag
	prompts   []string
	autoDelay time.Duration
	mu        syncutil.Mutex
	available bool
}

// NewVirtualReader creates an available reader with no tag in range.
func NewVirtualReader() *VirtualReader {
	return &VirtualReader{
		available: true,
		opened:    make(chan *VirtualRadio, 8),
	}
}

// SetAvailable switches tag discovery support on or off.
func (r *VirtualReader) SetAvailable(available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.available = available
}

// AutoPresent makes every opened session detect tag after delay, the way
// a user would bring a ring to the phone.
func (r *VirtualReader) AutoPresent(tag *VirtualTag, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoTag = tag
	r.autoDelay = delay
}

// Available implements ndefsession.Reader.
func (r *VirtualReader) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.available
}

// Open implements ndefsession.Reader.
func (r *VirtualReader) Open(_ context.Context, prompt string, sink ndefsession.EventSink) (
	ndefsession.RadioSession, error,
) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	openErr := r.OpenErr
	auto, delay := r.autoTag, r.autoDelay
	r.mu.Unlock()

	if openErr != nil {
		return nil, openErr
	}

	radio := &VirtualRadio{sink: sink, closed: make(chan struct{})}
	select {
	case r.opened <- radio:
	default:
	}
	if auto != nil {
		time.AfterFunc(delay, func() {
			radio.Activate()
			radio.PresentTags(auto)
		})
	}
	return radio, nil
}

// Prompts returns the prompt of every Open call.
func (r *VirtualReader) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

// WaitOpen returns the next radio session opened, or an error after
// timeout.
func (r *VirtualReader) WaitOpen(timeout time.Duration) (*VirtualRadio, error) {
	select {
	case radio := <-r.opened:
		return radio, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("no session opened within %v", timeout)
	}
}

// VirtualRadio is one session opened on a VirtualReader.
type VirtualRadio struct {
	sink             ndefsession.EventSink
	connectGate      chan struct{}
	closed           chan struct{}
	alerts           []string
	invalidations    []string
	mu               syncutil.Mutex
	connects         int
	invalidatedCount int
}

// Activate reports that polling started.
func (v *VirtualRadio) Activate() {
	v.sink.Post(ndefsession.SessionActive{})
}

// PresentTags reports tags entering the field.
func (v *VirtualRadio) PresentTags(tags ...*VirtualTag) {
	handles := make([]ndefsession.Tag, 0, len(tags))
	for _, t := range tags {
		handles = append(handles, t)
	}
	v.sink.Post(ndefsession.TagsDetected{Tags: handles})
}

// PresentMessages reports messages the platform read on its own.
func (v *VirtualRadio) PresentMessages(messages ...[]byte) {
	v.sink.Post(ndefsession.MessagesDetected{Messages: messages})
}

// End reports that the platform invalidated the session.
func (v *VirtualRadio) End(cause ndefsession.InvalidationCause, detail string) {
	v.sink.Post(ndefsession.Invalidated{Cause: cause, Detail: detail})
}

// HoldConnect makes Connect block until release is called or the call is
// canceled.
func (v *VirtualRadio) HoldConnect() (release func()) {
	gate := make(chan struct{})
	v.mu.Lock()
	v.connectGate = gate
	v.mu.Unlock()
	return func() { close(gate) }
}

// SetAlert implements ndefsession.RadioSession.
func (v *VirtualRadio) SetAlert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, message)
}

// Connect implements ndefsession.RadioSession.
func (v *VirtualRadio) Connect(ctx context.Context, tag ndefsession.Tag) error {
	vt, err := asVirtual(tag)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.connects++
	gate := v.connectGate
	v.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	vt.mu.Lock()
	defer vt.mu.Unlock()
	if err := vt.checkPresent(); err != nil {
		return err
	}
	return vt.ConnectErr
}

// QueryStatus implements ndefsession.RadioSession.
func (*VirtualRadio) QueryStatus(_ context.Context, tag ndefsession.Tag) (ndefsession.TagStatus, int, error) {
	vt, err := asVirtual(tag)
	if err != nil {
		return 0, 0, err
	}
	vt.mu.Lock()
	defer vt.mu.Unlock()
	if err := vt.checkPresent(); err != nil {
		return 0, 0, err
	}
	if vt.QueryErr != nil {
		return 0, 0, vt.QueryErr
	}
	return vt.status, vt.Capacity(), nil
}

// ReadMessage implements ndefsession.RadioSession.
func (*VirtualRadio) ReadMessage(_ context.Context, tag ndefsession.Tag) ([]byte, error) {
	vt, err := asVirtual(tag)
	if err != nil {
		return nil, err
	}
	vt.mu.Lock()
	present, readErr := vt.checkPresent(), vt.ReadErr
	vt.mu.Unlock()
	if present != nil {
		return nil, present
	}
	if readErr != nil {
		return nil, readErr
	}
	return vt.Message()
}

// WriteMessage implements ndefsession.RadioSession.
func (*VirtualRadio) WriteMessage(_ context.Context, tag ndefsession.Tag, message []byte) error {
	vt, err := asVirtual(tag)
	if err != nil {
		return err
	}
	return vt.write(message)
}

// Invalidate implements ndefsession.RadioSession.
func (v *VirtualRadio) Invalidate(errorMessage string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.invalidations = append(v.invalidations, errorMessage)
	v.invalidatedCount++
	if v.invalidatedCount == 1 {
		close(v.closed)
	}
}

// WaitInvalidated blocks until Invalidate is called or timeout passes.
func (v *VirtualRadio) WaitInvalidated(timeout time.Duration) bool {
	select {
	case <-v.closed:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Alerts returns every alert set on the session.
func (v *VirtualRadio) Alerts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.alerts...)
}

// Invalidations returns the message of every Invalidate call.
func (v *VirtualRadio) Invalidations() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.invalidations...)
}

// Connects returns how many times Connect was called.
func (v *VirtualRadio) Connects() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connects
}

func asVirtual(tag ndefsession.Tag) (*VirtualTag, error) {
	vt, ok := tag.(*VirtualTag)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotVirtualTag, tag)
	}
	return vt, nil
}
