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
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relaycore/bxlog/internal/bxlogtest"
)

func runEntry(e *handlerEntry) {
	ready := make(chan error, 1)
	go e.run(ready)
	<-ready
}

func TestHandlerEntryRunOpenFailure(t *testing.T) {
	h := bxlogtest.NewCapturingHandler()
	h.FailOpen = errors.New("cannot open")
	e := newHandlerEntry(HandlerConfig{Name: "h", Handler: h})

	ready := make(chan error, 1)
	go e.run(ready)
	if err := <-ready; err == nil {
		t.Fatal("expected run to report Open's error on the ready channel")
	}
	if e.State() != stateTerminated {
		t.Errorf("State() = %d, want stateTerminated", e.State())
	}
	select {
	case <-e.done:
	default:
		t.Error("done channel wasn't closed after a failed Open")
	}
}

func TestHandlerEntryRunProcessesData(t *testing.T) {
	h := bxlogtest.NewCapturingHandler()
	e := newHandlerEntry(HandlerConfig{Name: "h", Handler: h})
	runEntry(e)
	defer func() {
		e.sendControl(Exit{})
		<-e.done
	}()

	if e.State() != stateRunning {
		t.Fatalf("State() = %d, want stateRunning", e.State())
	}

	rec := newRecord("x", nil, INFO, nil, "hello")
	e.dataCh <- rec
	h.WaitCaptured(1, 5*time.Second)

	if got := h.Captured(); len(got) != 1 || got[0].Message != "hello" {
		t.Errorf("Captured() = %+v, want 1 record with message %q", got, "hello")
	}
}

func TestHandlerEntryRunExitCallsProcessExitAndClose(t *testing.T) {
	h := bxlogtest.NewCapturingHandler()
	e := newHandlerEntry(HandlerConfig{Name: "h", Handler: h})
	runEntry(e)

	e.sendControl(Exit{FlushFirst: true})
	<-e.done

	if e.State() != stateTerminated {
		t.Errorf("State() = %d, want stateTerminated", e.State())
	}
	if h.Exits != 1 {
		t.Errorf("Exits = %d, want 1", h.Exits)
	}
	if h.Closes != 1 {
		t.Errorf("Closes = %d, want 1", h.Closes)
	}
}

func TestHandlerEntryFlushRepliesAndDrains(t *testing.T) {
	h := bxlogtest.NewCapturingHandler()
	e := newHandlerEntry(HandlerConfig{Name: "h", Handler: h, DataHWM: 4})
	runEntry(e)
	defer func() {
		e.sendControl(Exit{})
		<-e.done
	}()

	e.dataCh <- newRecord("x", nil, INFO, nil, "queued before flush")

	reply := make(chan error, 1)
	e.sendControl(Flush{Reply: reply})
	if err := <-reply; err != nil {
		t.Errorf("Flush reply error: %s", err)
	}
	if h.ExplicitFlushes != 1 {
		t.Errorf("ExplicitFlushes = %d, want 1", h.ExplicitFlushes)
	}
	if got := h.Captured(); len(got) != 1 {
		t.Errorf("expected the record queued before Flush to have drained first, got %d records", len(got))
	}
}

func TestHandlerEntryReconfigureInstallsFilters(t *testing.T) {
	h := bxlogtest.NewCapturingHandler()
	e := newHandlerEntry(HandlerConfig{Name: "h", Handler: h})
	runEntry(e)
	defer func() {
		e.sendControl(Exit{})
		<-e.done
	}()

	fs := FilterSet{{Prefix: "", Level: ERROR}}
	e.sendControl(Reconfigure{Filters: fs})
	time.Sleep(20 * time.Millisecond) // let the worker process the control message

	if got := e.currentFilters(); got.String() != fs.String() {
		t.Errorf("currentFilters() = %s, want %s", got, fs)
	}
	if len(h.Cfgs) != 1 {
		t.Errorf("ProcessCfg called %d times, want 1", len(h.Cfgs))
	}
}

func TestProcessLogSplitsMultilineMessages(t *testing.T) {
	h := bxlogtest.NewCapturingHandler()
	e := newHandlerEntry(HandlerConfig{Name: "h", Handler: h})
	rec := newRecord("x", nil, INFO, nil, "line one\nline two\nline three")

	e.processLog(rec)
	got := h.Captured()
	if len(got) != 3 {
		t.Fatalf("expected 3 split records, got %d", len(got))
	}
	want := []string{"line one", "line two", "line three"}
	for i, w := range want {
		if got[i].Message != w {
			t.Errorf("record %d message = %q, want %q", i, got[i].Message, w)
		}
	}
}

func TestProcessLogHonorsPerHandlerFilter(t *testing.T) {
	h := bxlogtest.NewCapturingHandler()
	e := newHandlerEntry(HandlerConfig{Name: "h", Handler: h, Filters: FilterSet{{Prefix: "", Level: ERROR}}})

	e.processLog(newRecord("x", nil, DEBUG, nil, "too verbose"))
	if len(h.Captured()) != 0 {
		t.Error("expected a DEBUG record to be suppressed by an ERROR-only per-handler filter")
	}

	e.processLog(newRecord("x", nil, ERROR, nil, "within budget"))
	if len(h.Captured()) != 1 {
		t.Error("expected an ERROR record to pass the same filter")
	}
}

func TestProcessErrEscalatesAfterErrorBudget(t *testing.T) {
	h := bxlogtest.NewCapturingHandler()
	e := newHandlerEntry(HandlerConfig{Name: "h", Handler: h, ErrorBudget: 2})

	if terminate := e.processErr(errors.New("err one")); terminate {
		t.Fatal("processErr terminated after only 1 distinct error, want budget of 2")
	}
	if terminate := e.processErr(errors.New("err one")); terminate {
		t.Fatal("processErr terminated on a duplicate error, distinct count shouldn't have advanced")
	}
	if terminate := e.processErr(errors.New("err two")); !terminate {
		t.Fatal("processErr should terminate once the distinct-error budget is exceeded")
	}
	if e.State() != stateTerminated {
		t.Errorf("State() = %d, want stateTerminated after budget escalation", e.State())
	}
}

// flappingHandler fails ProcessImplicitFlush a fixed number of times
// before succeeding, to drive handleDegradation's retry-then-recover
// path deterministically.
type flappingHandler struct {
	mu           sync.Mutex
	failuresLeft int
}

func (h *flappingHandler) Open() error              { return nil }
func (h *flappingHandler) ProcessLog(*Record) error { return nil }
func (h *flappingHandler) ProcessImplicitFlush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failuresLeft > 0 {
		h.failuresLeft--
		return errors.New("still recovering")
	}
	return nil
}
func (h *flappingHandler) ProcessExplicitFlush() error        { return nil }
func (h *flappingHandler) ProcessExit() error                 { return nil }
func (h *flappingHandler) ProcessCfg(filters FilterSet) error { return nil }
func (h *flappingHandler) Close() error                       { return nil }

func TestHandleDegradationReportsAndRecovers(t *testing.T) {
	observer := bxlogtest.NewCapturingHandler()
	ctrl := &Controller{}
	if err := ctrl.Init(Config{Handlers: []HandlerConfig{{Name: "observer", Handler: observer}}}); err != nil {
		t.Fatalf("Init: %s", err)
	}
	defer ctrl.Finalize(false)

	flapping := &flappingHandler{failuresLeft: 1}
	e := newHandlerEntry(HandlerConfig{Name: "flaky", Handler: flapping})

	terminate := e.processErr(errors.New("boom"))
	if terminate {
		t.Fatal("processErr terminated; expected it to recover instead")
	}

	observer.WaitCaptured(2, 5*time.Second)
	got := observer.Captured()
	if len(got) != 2 {
		t.Fatalf("expected 2 internal-logger records, got %d", len(got))
	}
	if got[0].Level != ERROR || !strings.Contains(got[0].Message, "degraded state") {
		t.Errorf("first record = %+v, want an ERROR mentioning a degraded state", got[0])
	}
	if got[1].Level != WARNING || !strings.Contains(got[1].Message, "recovered") {
		t.Errorf("second record = %+v, want a WARNING mentioning recovery", got[1])
	}
}

func TestBackoff(t *testing.T) {
	if backoff(1) < time.Millisecond {
		t.Errorf("backoff(1) = %s, want at least 1ms", backoff(1))
	}
	if backoff(50) > 5*time.Minute {
		t.Errorf("backoff(50) = %s, want at most the 5 minute cap", backoff(50))
	}
	if d := backoff(1000000); d < time.Second || d > time.Hour {
		t.Errorf("backoff(1000000) = %s, want a capped delay between 1s and 1hr", d)
	}
}
