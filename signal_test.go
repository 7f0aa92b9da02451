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
	"testing"
)

// These tests exercise InstallSignalHandler/StopSignalHandler's
// registration bookkeeping only. They deliberately never push a signal
// through signalCh: handleTerminatingSignal ends in raiseSelf, which
// re-raises the signal against this process with its default
// disposition restored -- exactly the behavior a real test run must not
// trigger against its own test binary.

func TestStopSignalHandlerNoopWhenNotInstalled(t *testing.T) {
	signalMu.Lock()
	running := signalRunning
	signalMu.Unlock()
	if running {
		t.Fatal("signalRunning was already true at test start; a prior test left it installed")
	}

	// Should return without blocking or panicking.
	StopSignalHandler()
}

func TestInstallSignalHandlerIsIdempotent(t *testing.T) {
	InstallSignalHandler()
	defer StopSignalHandler()

	signalMu.Lock()
	firstCh := signalCh
	running := signalRunning
	signalMu.Unlock()
	if !running {
		t.Fatal("signalRunning = false after InstallSignalHandler")
	}

	// A second call while already running must be a no-op: it shouldn't
	// replace signalCh or otherwise re-arm the handler.
	InstallSignalHandler()
	signalMu.Lock()
	secondCh := signalCh
	signalMu.Unlock()
	if firstCh != secondCh {
		t.Error("a second InstallSignalHandler call replaced signalCh; expected a no-op")
	}
}

func TestInstallThenStopAllowsReinstall(t *testing.T) {
	InstallSignalHandler()
	signalMu.Lock()
	firstCh := signalCh
	signalMu.Unlock()

	StopSignalHandler()
	signalMu.Lock()
	running := signalRunning
	signalMu.Unlock()
	if running {
		t.Fatal("signalRunning = true after StopSignalHandler")
	}

	InstallSignalHandler()
	defer StopSignalHandler()
	signalMu.Lock()
	secondCh := signalCh
	signalMu.Unlock()
	if firstCh == secondCh {
		t.Error("expected a fresh signalCh after Stop then Install again")
	}
}

func TestTerminatingSignalsExcludesSIGQUIT(t *testing.T) {
	for _, s := range terminatingSignals {
		if s.String() == "quit" {
			t.Error("terminatingSignals includes SIGQUIT, which should be left for core dumps")
		}
	}
}
