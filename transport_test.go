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
	"sync/atomic"
	"testing"
)

func TestHandlerEntryDefaults(t *testing.T) {
	e := newHandlerEntry(HandlerConfig{Name: "h"})
	if cap(e.dataCh) != DefaultDataHWM {
		t.Errorf("dataCh cap = %d, want %d", cap(e.dataCh), DefaultDataHWM)
	}
	if cap(e.ctrlCh) != DefaultCtrlHWM {
		t.Errorf("ctrlCh cap = %d, want %d", cap(e.ctrlCh), DefaultCtrlHWM)
	}
	if e.errorBudget != DefaultErrorBudget {
		t.Errorf("errorBudget = %d, want %d", e.errorBudget, DefaultErrorBudget)
	}
}

func TestHandlerEntryHonorsExplicitTunables(t *testing.T) {
	e := newHandlerEntry(HandlerConfig{Name: "h", DataHWM: 3, CtrlHWM: 4, ErrorBudget: 2})
	if cap(e.dataCh) != 3 {
		t.Errorf("dataCh cap = %d, want 3", cap(e.dataCh))
	}
	if cap(e.ctrlCh) != 4 {
		t.Errorf("ctrlCh cap = %d, want 4", cap(e.ctrlCh))
	}
	if e.errorBudget != 2 {
		t.Errorf("errorBudget = %d, want 2", e.errorBudget)
	}
}

func TestTransportDispatchFansOutToEveryEntry(t *testing.T) {
	a := newHandlerEntry(HandlerConfig{Name: "a", DataHWM: 1})
	b := newHandlerEntry(HandlerConfig{Name: "b", DataHWM: 1})
	tr := newTransport()
	tr.setEntries([]*handlerEntry{a, b})

	rec := newRecord("x", nil, INFO, nil, "hello")
	tr.dispatch(rec)

	select {
	case got := <-a.dataCh:
		if got != rec {
			t.Error("entry a received a different record than was dispatched")
		}
	default:
		t.Error("entry a's dataCh received nothing")
	}
	select {
	case got := <-b.dataCh:
		if got != rec {
			t.Error("entry b received a different record than was dispatched")
		}
	default:
		t.Error("entry b's dataCh received nothing")
	}
}

func TestTransportDispatchSkipsDegradedEntries(t *testing.T) {
	e := newHandlerEntry(HandlerConfig{Name: "h", DataHWM: 1})
	atomic.StoreInt32(&e.degraded, 1)

	tr := newTransport()
	tr.setEntries([]*handlerEntry{e})
	tr.dispatch(newRecord("x", nil, INFO, nil, "hello"))

	select {
	case <-e.dataCh:
		t.Error("dispatch sent to a degraded entry")
	default:
	}
}

func TestSendDataDropsOrdinaryRecordsWhenFull(t *testing.T) {
	e := newHandlerEntry(HandlerConfig{Name: "h", DataHWM: 1})
	e.sendData(newRecord("x", nil, INFO, nil, "first"))
	e.sendData(newRecord("x", nil, INFO, nil, "second"))

	if got := atomic.LoadUint64(&e.lostLogs); got != 1 {
		t.Errorf("lostLogs = %d, want 1", got)
	}
}

func TestSendDataBlocksBrieflyForCriticalRecords(t *testing.T) {
	e := newHandlerEntry(HandlerConfig{Name: "h", DataHWM: 1, BackpressureTimeout: 0})
	e.backpressureTimeout = 0
	e.sendData(newRecord("x", nil, CRITICAL, nil, "first"))
	e.sendData(newRecord("x", nil, CRITICAL, nil, "second"))

	if got := atomic.LoadUint64(&e.lostLogs); got != 1 {
		t.Errorf("lostLogs = %d, want 1 (second CRITICAL record should drop after its backpressure window)", got)
	}
}

func TestSendControlNeverDrops(t *testing.T) {
	e := newHandlerEntry(HandlerConfig{Name: "h", CtrlHWM: 1})
	done := make(chan struct{})
	go func() {
		e.sendControl(Flush{})
		close(done)
	}()
	<-done

	select {
	case <-e.ctrlCh:
	default:
		t.Error("ctrlCh didn't receive the sent control message")
	}
}
