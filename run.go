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
	"context"
	"sync"
)

// run is one in-flight request: the session, its event queue and the radio
// session serving it. It is the EventSink handed to the Reader.
type run struct {
	ctx        context.Context
	radio      RadioSession
	session    *Session
	completion *completion
	events     chan Event
	done       chan struct{}
	cancel     context.CancelFunc
	stopOnce   sync.Once
}

func newRun(ctx context.Context, s *Session, c *completion, buffer int) *run {
	runCtx, cancel := context.WithCancel(ctx)
	return &run{
		ctx:        runCtx,
		cancel:     cancel,
		session:    s,
		completion: c,
		events:     make(chan Event, buffer),
		done:       make(chan struct{}),
	}
}

// Post queues ev for the session. Once the session has finished events are
// dropped.
func (r *run) Post(ev Event) {
	if ev == nil {
		return
	}
	select {
	case <-r.done:
		return
	default:
	}
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

// call runs fn off the session goroutine and posts its result.
func (r *run) call(fn func() Event) {
	go func() {
		r.Post(fn())
	}()
}

func (r *run) stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.cancel()
	})
}
