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
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/relaycore/bxlog/bxerr"
)

// Handler runtime states:
// NEW -> INIT -> RUNNING <-> FLUSHING/RECONFIG -> EXITING -> TERMINATED.
const (
	stateNew int32 = iota
	stateInit
	stateRunning
	stateFlushing
	stateReconfig
	stateExiting
	stateTerminated
)

// State returns the handler worker's current lifecycle state, primarily
// useful for tests.
func (e *handlerEntry) State() int32 {
	return atomic.LoadInt32(&e.state)
}

// run is the handler worker's cooperative state machine, one goroutine
// per handler. It's grounded on the producer/consumer select loop
// pattern of an async worker: poll both channels, fall through to an
// implicit-flush tick when neither has anything ready.
func (e *handlerEntry) run(ready chan<- error) {
	atomic.StoreInt32(&e.state, stateInit)
	err := e.openHandler()
	if err != nil {
		atomic.StoreInt32(&e.state, stateTerminated)
		close(e.done)
		ready <- err
		return
	}
	ready <- nil
	atomic.StoreInt32(&e.state, stateRunning)

	for {
		select {
		case msg := <-e.ctrlCh:
			if !e.handleControl(msg) {
				close(e.done)
				return
			}
		case rec := <-e.dataCh:
			if rec != nil && e.processLog(rec) {
				close(e.done)
				return
			}
		case <-time.After(e.pollTimeout):
			if e.processImplicitFlush() {
				close(e.done)
				return
			}
		}
	}
}

func (e *handlerEntry) openHandler() (err error) {
	defer func() {
		if cause := recover(); cause != nil {
			err = fmt.Errorf("handler %q panicked during open: %v", e.name, cause)
		}
	}()
	return e.handler.Open()
}

// handleControl dispatches one control message. It returns false when
// the worker should terminate (an Exit message).
func (e *handlerEntry) handleControl(msg Message) bool {
	switch m := msg.(type) {
	case Flush:
		atomic.StoreInt32(&e.state, stateFlushing)
		e.drainAvailable()
		err := e.processExplicitFlush()
		atomic.StoreInt32(&e.state, stateRunning)
		if m.Reply != nil {
			m.Reply <- err
		}
		return true

	case Reconfigure:
		atomic.StoreInt32(&e.state, stateReconfig)
		e.filters.Store(m.Filters)
		if err := e.safeProcessCfg(m.Filters); err != nil {
			e.processErr(err)
		}
		atomic.StoreInt32(&e.state, stateRunning)
		return true

	case Exit:
		atomic.StoreInt32(&e.state, stateExiting)
		if m.FlushFirst {
			e.drainWithDeadline(e.exitDrainDeadline)
		} else {
			e.discardRemaining()
		}
		e.processExit()
		return false
	}
	return true
}

// drainAvailable processes every record currently buffered in dataCh
// without blocking. Because a data-channel send always completes (either
// landing in the buffer or being counted as dropped) before the sending
// goroutine can go on to post a control message, this non-blocking drain
// is sufficient to guarantee every record enqueued before a Flush is
// processed before that Flush is acknowledged, regardless of which
// channel the worker's select happened to wake on.
func (e *handlerEntry) drainAvailable() {
	for {
		select {
		case rec := <-e.dataCh:
			if rec != nil {
				e.processLog(rec)
			}
		default:
			return
		}
	}
}

// drainWithDeadline drains dataCh, including records that may arrive
// after the call starts, until the channel is momentarily empty or the
// deadline elapses -- used for Exit(FlushFirst: true)'s bounded drain.
func (e *handlerEntry) drainWithDeadline(deadline time.Duration) {
	end := time.Now().Add(deadline)
	for {
		remaining := time.Until(end)
		if remaining <= 0 {
			return
		}
		select {
		case rec := <-e.dataCh:
			if rec != nil {
				e.processLog(rec)
			}
		default:
			return
		}
	}
}

// discardRemaining counts whatever is left in dataCh as lost without
// processing it, for Exit(FlushFirst: false).
func (e *handlerEntry) discardRemaining() {
	for {
		select {
		case <-e.dataCh:
			atomic.AddUint64(&e.lostLogs, 1)
		default:
			return
		}
	}
}

// processLog re-checks this handler's own Filter Set against the
// record's logger name (the per-handler filter check happens on the
// consumer side), then splits the message
// on newlines and calls ProcessLog once per line. It returns true if the
// worker should terminate (the handler's error budget was exceeded, or a
// control message consumed while recovering from a degraded state was an
// Exit).
func (e *handlerEntry) processLog(rec *Record) bool {
	filters := e.currentFilters()
	if level, matched := filters.Apply(rec.LoggerName); matched && rec.Level > level {
		return false
	}

	for _, line := range splitLines(rec.Message) {
		lr := rec.clone()
		lr.Message = line
		if err := e.safeProcessLog(lr); err != nil {
			if e.processErr(err) {
				return true
			}
		}
	}
	return false
}

func splitLines(message string) []string {
	if !strings.Contains(message, "\n") {
		return []string{message}
	}
	return strings.Split(message, "\n")
}

func (e *handlerEntry) processImplicitFlush() bool {
	if err := e.safeProcessImplicitFlush(); err != nil {
		key := err.Error()
		if _, seen := e.errSeen[key]; !seen {
			e.errSeen[key] = struct{}{}
			e.distinctErrs++
		}
	}
	return false
}

func (e *handlerEntry) processExplicitFlush() error {
	err := e.safeProcessExplicitFlush()
	if err != nil {
		e.processErr(err)
	}
	return err
}

// processErr implements the worker's error policy: record once in an
// error set, rate-limit (suppress) duplicates, mark the handler degraded
// while it retries reporting the error, and escalate to Exit if the
// distinct-error budget is exceeded. It's owned entirely by the worker
// goroutine, so no locking is required despite the shared map. It
// returns true if the worker should terminate.
//
// While degraded, Transport.dispatch skips this handler entirely, so new
// records are not delivered to it (and are not counted in lostLogs)
// until recovery is confirmed. Control messages are still serviced
// during degradation so Flush/Exit are never starved.
func (e *handlerEntry) processErr(err error) bool {
	key := err.Error()
	if _, seen := e.errSeen[key]; seen {
		return false
	}
	e.errSeen[key] = struct{}{}
	e.distinctErrs++

	if e.distinctErrs >= e.errorBudget {
		budgetErr := bxerr.Newf(bxerr.TooManyErrors, "handler %q exceeded its error budget (%d distinct errors)", e.name, e.distinctErrs)
		internalLogger.Error(budgetErr, "handler exceeded its error budget; terminating")
		atomic.StoreInt32(&e.state, stateExiting)
		e.discardRemaining()
		e.processExit()
		return true
	}

	return e.handleDegradation(err)
}

// handleDegradation marks the handler degraded, reports the error once
// via the internal logger, and retries a lightweight recovery probe
// (ProcessImplicitFlush) with exponential backoff until it succeeds,
// servicing control messages while it waits. It returns true if a
// serviced control message was an Exit (the worker should terminate).
func (e *handlerEntry) handleDegradation(err error) bool {
	atomic.StoreInt32(&e.degraded, 1)
	internalLogger.With(Fields{"handler": e.name, "distinct_errors": e.distinctErrs}).Errorf(err, "handler %s has entered a degraded state", e.name)

	attempt := 0
	for e.safeProcessImplicitFlush() != nil {
		attempt++
		select {
		case msg := <-e.ctrlCh:
			if !e.handleControl(msg) {
				return true
			}
		case <-time.After(backoff(attempt)):
		}
	}

	atomic.StoreInt32(&e.degraded, 0)
	internalLogger.Warningf("handler %s has recovered from a degraded state", e.name)
	return false
}

// backoff computes an exponentially increasing delay, capped at
// maxDegradedDelay, for the degraded-handler recovery probe.
func backoff(attempt int) time.Duration {
	const maxDegradedDelay = 5 * time.Minute
	delay := time.Millisecond * time.Duration(1<<uint(minInt(attempt, 20)))
	if delay > maxDegradedDelay || delay <= 0 {
		return maxDegradedDelay
	}
	return delay
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (e *handlerEntry) processExit() {
	lost := atomic.LoadUint64(&e.lostLogs)
	if lost > 0 || e.distinctErrs > 0 {
		fmt.Fprintf(os.Stderr, "bxlog: handler %q exiting: lost_logs=%d distinct_errors=%d\n", e.name, lost, e.distinctErrs)
	}
	if err := e.safeProcessExit(); err != nil {
		fmt.Fprintf(os.Stderr, "bxlog: handler %q process_exit error: %v\n", e.name, err)
	}
	if err := e.safeClose(); err != nil {
		fmt.Fprintf(os.Stderr, "bxlog: handler %q close error: %v\n", e.name, err)
	}
	atomic.StoreInt32(&e.state, stateTerminated)
}

// The safe* wrappers recover from a panicking Handler method so one
// broken handler can't take down its own worker goroutine, let alone the
// process.

func (e *handlerEntry) safeProcessLog(rec *Record) (err error) {
	defer e.recoverTo(&err, "process_log")
	return e.handler.ProcessLog(rec)
}

func (e *handlerEntry) safeProcessImplicitFlush() (err error) {
	defer e.recoverTo(&err, "process_implicit_flush")
	return e.handler.ProcessImplicitFlush()
}

func (e *handlerEntry) safeProcessExplicitFlush() (err error) {
	defer e.recoverTo(&err, "process_explicit_flush")
	return e.handler.ProcessExplicitFlush()
}

func (e *handlerEntry) safeProcessExit() (err error) {
	defer e.recoverTo(&err, "process_exit")
	return e.handler.ProcessExit()
}

func (e *handlerEntry) safeProcessCfg(filters FilterSet) (err error) {
	defer e.recoverTo(&err, "process_cfg")
	return e.handler.ProcessCfg(filters)
}

func (e *handlerEntry) safeClose() (err error) {
	defer e.recoverTo(&err, "close")
	return e.handler.Close()
}

func (e *handlerEntry) recoverTo(err *error, op string) {
	if cause := recover(); cause != nil {
		*err = fmt.Errorf("handler %q panicked in %s: %v", e.name, op, cause)
	}
}
