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

package bxlog

import (
	"sync"
	"sync/atomic"
	"time"
)

// Default tunables, used when a HandlerConfig leaves the corresponding
// field at its zero value.
const (
	DefaultDataHWM             = 1000
	DefaultCtrlHWM             = 1000
	DefaultPollTimeout         = time.Second
	DefaultBackpressureTimeout = 500 * time.Millisecond
	DefaultExitDrainDeadline   = 2 * time.Second
	DefaultExitAbandonDeadline = 3 * time.Second
	// DefaultErrorBudget is the number of distinct errors a handler may
	// accumulate before the Handler Runtime escalates to Exit.
	DefaultErrorBudget = 10
)

// Transport is the many-producer/N-consumer message bus. A Transport
// instance belongs to exactly one Lifecycle Controller generation: it's
// created by Init and discarded by Finalize.
type Transport struct {
	mu      sync.RWMutex
	entries []*handlerEntry
}

func newTransport() *Transport {
	return &Transport{}
}

func (t *Transport) snapshot() []*handlerEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*handlerEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Transport) setEntries(entries []*handlerEntry) {
	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()
}

// dispatch fans rec out to every handler entry's data channel. Handlers
// currently marked degraded are skipped entirely -- a degraded handler
// is one whose worker is already busy surfacing a prior error.
func (t *Transport) dispatch(rec *Record) {
	for _, e := range t.snapshot() {
		if atomic.LoadInt32(&e.degraded) != 0 {
			continue
		}
		e.sendData(rec)
	}
}

// handlerEntry bundles one handler's worker-owned state: its channels,
// its atomically-swappable Filter Set, and bookkeeping the Lifecycle
// Controller and internal worker logic both need to read.
type handlerEntry struct {
	name    string
	handler Handler

	dataCh chan *Record
	ctrlCh chan Message
	done   chan struct{}

	filters atomic.Value // FilterSet

	pollTimeout         time.Duration
	backpressureTimeout time.Duration
	exitDrainDeadline   time.Duration

	state int32 // one of the state* constants, atomic

	// lostLogs is incremented by producer goroutines (dispatch path) and
	// read by the worker goroutine at process_exit time.
	lostLogs uint64

	// degraded is toggled by the worker goroutine itself and read by
	// producer goroutines on the dispatch fast path.
	degraded int32

	// errSeen/distinctErrs are owned exclusively by the worker goroutine;
	// no locking is needed since only run() ever touches them.
	errSeen      map[string]struct{}
	distinctErrs int
	errorBudget  int
}

func newHandlerEntry(hc HandlerConfig) *handlerEntry {
	dataHWM := hc.DataHWM
	if dataHWM <= 0 {
		dataHWM = DefaultDataHWM
	}
	ctrlHWM := hc.CtrlHWM
	if ctrlHWM <= 0 {
		ctrlHWM = DefaultCtrlHWM
	}
	poll := hc.PollTimeout
	if poll <= 0 {
		poll = DefaultPollTimeout
	}
	backpressure := hc.BackpressureTimeout
	if backpressure <= 0 {
		backpressure = DefaultBackpressureTimeout
	}
	drain := hc.ExitDrainDeadline
	if drain <= 0 {
		drain = DefaultExitDrainDeadline
	}
	budget := hc.ErrorBudget
	if budget <= 0 {
		budget = DefaultErrorBudget
	}

	e := &handlerEntry{
		name:                hc.Name,
		handler:             hc.Handler,
		dataCh:              make(chan *Record, dataHWM),
		ctrlCh:              make(chan Message, ctrlHWM),
		done:                make(chan struct{}),
		pollTimeout:         poll,
		backpressureTimeout: backpressure,
		exitDrainDeadline:   drain,
		errSeen:             make(map[string]struct{}),
		errorBudget:         budget,
	}
	e.filters.Store(hc.Filters)
	return e
}

// sendData implements the backpressure policy: CRITICAL-or-worse
// records get a blocking send bounded by backpressureTimeout before
// falling back to drop; everything else is a pure non-blocking
// send-or-drop.
func (e *handlerEntry) sendData(rec *Record) {
	if rec.Level <= CRITICAL {
		select {
		case e.dataCh <- rec:
			return
		default:
		}

		timer := time.NewTimer(e.backpressureTimeout)
		defer timer.Stop()
		select {
		case e.dataCh <- rec:
		case <-timer.C:
			atomic.AddUint64(&e.lostLogs, 1)
		}
		return
	}

	select {
	case e.dataCh <- rec:
	default:
		atomic.AddUint64(&e.lostLogs, 1)
	}
}

// sendControl enqueues a control message. Control sends always block --
// control delivery is never dropped.
func (e *handlerEntry) sendControl(msg Message) {
	e.ctrlCh <- msg
}

func (e *handlerEntry) currentFilters() FilterSet {
	fs, _ := e.filters.Load().(FilterSet)
	return fs
}
