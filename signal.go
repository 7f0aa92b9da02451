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
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// terminatingSignals is the set the Signal Bridge installs for. SIGQUIT
// is deliberately left unregistered -- it's conventionally used to force
// a core dump, and masking it would defeat that purpose.
var terminatingSignals = []os.Signal{
	syscall.SIGTERM,
	syscall.SIGINT,
	syscall.SIGSEGV,
	syscall.SIGBUS,
	syscall.SIGFPE,
	syscall.SIGILL,
	syscall.SIGABRT,
}

// signalFlushDeadline bounds the best-effort flush a caught signal
// triggers before Finalize proceeds regardless.
const signalFlushDeadline = 200 * time.Millisecond

var (
	signalMu      sync.Mutex
	signalCh      chan os.Signal
	signalDone    chan struct{}
	signalRunning bool
)

// InstallSignalHandler registers bxlog's termination sequence for
// SIGTERM, SIGINT, and the crash signals (SIGSEGV, SIGBUS, SIGFPE,
// SIGILL, SIGABRT): on receipt, it performs a best-effort Flush bounded
// by a short deadline, calls Finalize(flushFirst: true), resets the
// signal's default disposition, and re-raises it against this process so
// the eventual exit status still reflects the original signal.
//
// The only work performed on the signal-delivery path itself is a
// non-blocking channel send from the runtime's own signal-forwarding
// goroutine (via os/signal.Notify) -- InstallSignalHandler's own
// goroutine does all the blocking work of flushing and finalizing, kept
// off any async-signal-unsafe code path.
func InstallSignalHandler() {
	signalMu.Lock()
	defer signalMu.Unlock()
	if signalRunning {
		return
	}
	signalRunning = true

	signalCh = make(chan os.Signal, 1)
	signalDone = make(chan struct{})
	signal.Notify(signalCh, terminatingSignals...)

	go func() {
		sig := <-signalCh
		handleTerminatingSignal(sig)
		close(signalDone)
	}()
}

// StopSignalHandler reverts InstallSignalHandler's registration, mainly
// useful for tests that install their own signal handling afterward.
func StopSignalHandler() {
	signalMu.Lock()
	defer signalMu.Unlock()
	if !signalRunning {
		return
	}
	signal.Stop(signalCh)
	signalRunning = false
}

func handleTerminatingSignal(sig os.Signal) {
	_ = Flush(signalFlushDeadline)
	_ = Finalize(true)

	signal.Reset(sig)
	raiseSelf(sig)
}

// raiseSelf re-delivers sig to this process after its default
// disposition has been restored via signal.Reset, so the process exits
// (or dumps core) exactly as it would have without bxlog's handler in
// the way.
func raiseSelf(sig os.Signal) {
	sysSig, ok := sig.(syscall.Signal)
	if !ok {
		return
	}
	_ = unix.Kill(os.Getpid(), sysSig)
}
