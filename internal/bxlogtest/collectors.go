// Copyright (c) 2016 Bob Ziuchkovski
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package bxlogtest supplies bxlog.Handler test doubles and Record
// fixtures shared across the module's package tests.
package bxlogtest

import (
	"sync"
	"time"

	"github.com/relaycore/bxlog"
)

// CapturingHandler captures every record passed to ProcessLog for later
// inspection. It also counts the lifecycle calls a Controller makes, so
// tests can assert Open/Close/flush/exit wiring without a real sink.
type CapturingHandler struct {
	captured []*bxlog.Record
	cond     *sync.Cond
	mu       sync.Mutex

	Opens           int
	ImplicitFlushes int
	ExplicitFlushes int
	Exits           int
	Closes          int
	Cfgs            []bxlog.FilterSet

	// FailOpen, when set, is returned by Open and prevents the handler
	// from otherwise functioning.
	FailOpen error
	// FailProcessLog, when set, is returned by ProcessLog without
	// capturing the record.
	FailProcessLog error
}

// NewCapturingHandler returns a new, ready-to-use CapturingHandler.
func NewCapturingHandler() *CapturingHandler {
	h := &CapturingHandler{}
	h.cond = sync.NewCond(&h.mu)
	return h
}

func (h *CapturingHandler) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Opens++
	return h.FailOpen
}

// ProcessLog captures rec for later inspection via Captured/WaitCaptured.
func (h *CapturingHandler) ProcessLog(rec *bxlog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailProcessLog != nil {
		return h.FailProcessLog
	}
	h.captured = append(h.captured, rec)
	h.cond.Broadcast()
	return nil
}

func (h *CapturingHandler) ProcessImplicitFlush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ImplicitFlushes++
	return nil
}

func (h *CapturingHandler) ProcessExplicitFlush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ExplicitFlushes++
	return nil
}

func (h *CapturingHandler) ProcessExit() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Exits++
	return nil
}

func (h *CapturingHandler) ProcessCfg(filters bxlog.FilterSet) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Cfgs = append(h.Cfgs, filters)
	return nil
}

func (h *CapturingHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Closes++
	return nil
}

// Captured returns a snapshot slice of the records captured so far.
func (h *CapturingHandler) Captured() []*bxlog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	dup := make([]*bxlog.Record, len(h.captured))
	copy(dup, h.captured)
	return dup
}

// WaitCaptured blocks until count records have been captured. It panics
// if count isn't reached within maxWait.
func (h *CapturingHandler) WaitCaptured(count int, maxWait time.Duration) {
	finished := make(chan struct{})
	go h.waitAsync(count, finished)

	select {
	case <-finished:
		return
	case <-time.After(maxWait):
		panic("WaitCaptured timed-out waiting for records")
	}
}

func (h *CapturingHandler) waitAsync(count int, finished chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.captured) < count {
		h.cond.Wait()
	}
	close(finished)
}

// String returns a string representation of the CapturingHandler.
func (h *CapturingHandler) String() string {
	return "CapturingHandler()"
}
