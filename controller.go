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

	"github.com/ZaparooProject/go-ndefsession/internal/syncutil"
)

// Controller runs scan and write requests against a Reader, one at a time.
type Controller struct {
	reader Reader
	active *run
	cfg    Config
	mu     syncutil.Mutex
}

// New creates a controller for reader.
func New(reader Reader, opts ...Option) (*Controller, error) {
	if reader == nil {
		return nil, ErrNilReader
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Controller{reader: reader, cfg: *cfg}, nil
}

// StartScan begins reading one tag. onResult is called exactly once with
// the decoded text or the failure, unless StartScan returns an error, in
// which case it is never called. Canceling ctx ends the scan with
// ErrCanceled.
func (c *Controller) StartScan(ctx context.Context, onResult func(text string, err error)) error {
	return c.start(ctx, NewReadSession(), newCompletion(readContinuation(onResult)))
}

// StartWrite begins writing text to one tag as a single text record.
// onResult is called exactly once unless StartWrite returns an error.
func (c *Controller) StartWrite(ctx context.Context, text string, onResult func(err error)) error {
	s := NewWriteSession(text, c.cfg.Language)
	return c.start(ctx, s, newCompletion(writeContinuation(onResult)))
}

// Scan reads one tag and blocks until the outcome is known.
func (c *Controller) Scan(ctx context.Context) (string, error) {
	type result struct {
		err  error
		text string
	}
	ch := make(chan result, 1)
	err := c.StartScan(ctx, func(text string, err error) {
		ch <- result{text: text, err: err}
	})
	if err != nil {
		return "", err
	}
	res := <-ch
	return res.text, res.err
}

// Write writes text to one tag and blocks until the outcome is known.
func (c *Controller) Write(ctx context.Context, text string) error {
	ch := make(chan error, 1)
	if err := c.StartWrite(ctx, text, func(err error) { ch <- err }); err != nil {
		return err
	}
	return <-ch
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Cancel ends the request in flight, if any, with ErrCanceled.
func (c *Controller) Cancel() {
	c.mu.Lock()
	r := c.active
	c.mu.Unlock()
	if r != nil {
		r.cancel()
	}
}

func (c *Controller) start(ctx context.Context, s *Session, done *completion) error {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}

	if !c.reader.Available() {
		c.mu.Unlock()
		eff := s.Start(false)
		s.log().Debug().Err(eff.Err).Msg("discovery unavailable")
		done.deliver(eff.Text, eff.Err)
		return nil
	}

	r := newRun(ctx, s, done, c.cfg.EventBuffer)
	c.active = r
	c.mu.Unlock()

	s.log().Debug().Msg("session started")
	go c.loop(r)
	return nil
}

func (c *Controller) release(r *run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == r {
		c.active = nil
	}
}

// loop owns r.session until an outcome is delivered.
func (c *Controller) loop(r *run) {
	defer r.stop()

	eff := r.session.Start(true)
	for !c.apply(r, eff) {
		select {
		case <-r.ctx.Done():
			eff = r.session.Step(canceled{err: r.ctx.Err()})
		case ev := <-r.events:
			if err := r.ctx.Err(); err != nil {
				eff = r.session.Step(canceled{err: err})
				continue
			}
			eff = r.session.Step(ev)
		}
	}
}

// apply carries out eff and reports whether the session finished.
func (c *Controller) apply(r *run, eff Effect) bool {
	switch eff.Kind {
	case EffectNone:
		return false
	case EffectOpen:
		radio, err := c.reader.Open(r.ctx, c.cfg.prompt(r.session.Mode()), r)
		if err != nil && r.ctx.Err() != nil {
			return c.apply(r, r.session.Step(canceled{err: r.ctx.Err()}))
		}
		r.radio = radio
		return c.apply(r, r.session.Step(opened{radio: radio, err: err}))
	case EffectConnect:
		r.call(func() Event {
			return connectDone{err: r.radio.Connect(r.ctx, eff.Tag)}
		})
	case EffectQueryStatus:
		r.call(func() Event {
			status, capacity, err := r.radio.QueryStatus(r.ctx, eff.Tag)
			return statusDone{status: status, capacity: capacity, err: err}
		})
	case EffectReadMessage:
		r.call(func() Event {
			msg, err := r.radio.ReadMessage(r.ctx, eff.Tag)
			return readDone{message: msg, err: err}
		})
	case EffectWriteMessage:
		r.call(func() Event {
			return writeDone{err: r.radio.WriteMessage(r.ctx, eff.Tag, eff.Message)}
		})
	case EffectFinish:
		c.finish(r, eff)
		return true
	}
	return false
}

// finish closes the radio, frees the controller for the next request and
// then delivers the outcome.
func (c *Controller) finish(r *run, eff Effect) {
	if eff.CloseRadio && r.radio != nil {
		msg := ""
		if IsFailure(eff.Err) {
			msg = StatusMessage(eff.Err)
		} else if eff.Err == nil && r.session.Mode() == ModeWrite {
			r.radio.SetAlert(c.cfg.WriteSuccessAlert)
		}
		r.radio.Invalidate(msg)
	}
	r.stop()
	c.release(r)

	r.session.log().Debug().Err(eff.Err).Stringer("state", r.session.State()).Msg("session finished")
	r.completion.deliver(eff.Text, eff.Err)
}
