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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relaycore/bxlog/bxerr"
)

// HandlerConfig describes one handler's place in the Transport: its
// Handler implementation, its initial Filter Set, and its tunables.
// Tunables left at their zero value fall back to the transport's
// Default* constants.
type HandlerConfig struct {
	Name    string
	Handler Handler
	Filters FilterSet

	DataHWM             int
	CtrlHWM             int
	PollTimeout         time.Duration
	BackpressureTimeout time.Duration
	ExitDrainDeadline   time.Duration
	ErrorBudget         int
}

// Config is the full set of handlers the Lifecycle Controller starts on
// Init (and restarts on ReinitAfterFork).
type Config struct {
	Handlers []HandlerConfig
}

// Controller states. Named distinctly from the handler worker's state*
// constants in worker.go, which share this package.
const (
	ctrlUninitialized int32 = iota
	ctrlRunning
	ctrlFinalized
)

// Controller is the process-wide singleton that owns the current
// generation's Transport: it starts every configured handler's worker on
// Init, coordinates Flush across all of them, and drives the Exit
// sequence on Finalize. Only one Controller is expected per process;
// defaultController is the one the package-level Init/Flush/Finalize/
// ReinitAfterFork functions drive.
type Controller struct {
	mu         sync.Mutex
	state      int32
	transport  *Transport
	lastConfig Config
}

var defaultController = &Controller{}

// combineFlushErrs converts bxerr.CombineFlushFailed's *bxerr.Error
// result to a plain nil error when every cause was nil -- returning a
// typed nil pointer directly as an error interface would produce a
// non-nil interface wrapping a nil value.
func combineFlushErrs(causes ...error) error {
	if ce := bxerr.CombineFlushFailed(causes...); ce != nil {
		return ce
	}
	return nil
}

// Init starts the Transport and every configured handler's worker,
// failing if any handler's Open fails. It waits for every Open to
// finish; on a partial failure it then tears down whatever started
// successfully before returning the combined error. Handlers open concurrently
// (via golang.org/x/sync/errgroup), not serially, so one slow handler
// doesn't stall the rest.
func (c *Controller) Init(cfg Config) error {
	c.mu.Lock()
	if c.state == ctrlRunning {
		c.mu.Unlock()
		return bxerr.New(bxerr.IllegalState, "bxlog: Init called while already running")
	}
	c.mu.Unlock()

	entries := make([]*handlerEntry, len(cfg.Handlers))
	ready := make([]chan error, len(cfg.Handlers))
	for i, hc := range cfg.Handlers {
		entries[i] = newHandlerEntry(hc)
		ready[i] = make(chan error, 1)
		go entries[i].run(ready[i])
	}

	results := make([]error, len(entries))
	g := new(errgroup.Group)
	for i := range entries {
		i := i
		g.Go(func() error {
			results[i] = <-ready[i]
			return results[i]
		})
	}
	_ = g.Wait()

	var failed bool
	for _, err := range results {
		if err != nil {
			failed = true
			break
		}
	}
	if failed {
		for i, e := range entries {
			if results[i] == nil {
				e.sendControl(Exit{FlushFirst: false})
				<-e.done
			}
		}
		return combineFlushErrs(results...)
	}

	t := newTransport()
	t.setEntries(entries)

	c.mu.Lock()
	c.transport = t
	c.lastConfig = cfg
	c.state = ctrlRunning
	c.mu.Unlock()
	currentTransport.Store(t)
	return nil
}

// Flush requests an explicit drain-and-sync from every handler and waits
// up to timeout for each to acknowledge. A handler that doesn't
// acknowledge within timeout contributes a FlushFailed error to the
// combined result; the others are still waited on independently, so one
// slow handler doesn't block reporting the rest.
func (c *Controller) Flush(timeout time.Duration) error {
	c.mu.Lock()
	if c.state != ctrlRunning {
		c.mu.Unlock()
		return bxerr.New(bxerr.IllegalState, "bxlog: Flush called before Init or after Finalize")
	}
	t := c.transport
	c.mu.Unlock()

	entries := t.snapshot()
	errs := make([]error, len(entries))
	deadline := time.After(timeout)

	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func(i int, e *handlerEntry) {
			defer wg.Done()
			reply := make(chan error, 1)
			e.sendControl(Flush{Reply: reply})
			select {
			case err := <-reply:
				errs[i] = err
			case <-deadline:
				errs[i] = bxerr.Newf(bxerr.FlushFailed, "handler %q did not acknowledge flush within %s", e.name, timeout)
			}
		}(i, e)
	}
	wg.Wait()
	return combineFlushErrs(errs...)
}

// Finalize requests orderly termination of every handler and waits for
// each to reach TERMINATED, up to the exit abandon deadline. After
// Finalize returns, the package's logging functions return IllegalState
// until a subsequent Init or ReinitAfterFork.
func (c *Controller) Finalize(flushFirst bool) error {
	c.mu.Lock()
	if c.state != ctrlRunning {
		c.mu.Unlock()
		return bxerr.New(bxerr.IllegalState, "bxlog: Finalize called before Init or after a previous Finalize")
	}
	t := c.transport
	c.state = ctrlFinalized
	c.transport = nil
	c.mu.Unlock()
	currentTransport.Store(nil)

	entries := t.snapshot()
	errs := make([]error, len(entries))

	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func(i int, e *handlerEntry) {
			defer wg.Done()
			e.sendControl(Exit{FlushFirst: flushFirst})
			select {
			case <-e.done:
			case <-time.After(DefaultExitAbandonDeadline):
				errs[i] = bxerr.Newf(bxerr.FlushFailed, "handler %q did not terminate within the abandon deadline", e.name)
			}
		}(i, e)
	}
	wg.Wait()
	return combineFlushErrs(errs...)
}

// ReinitAfterFork discards whatever Transport state a fork's copied
// memory carries (the parent's worker goroutines don't exist in the
// child) and starts a fresh Transport using the last Config given to
// Init. A child that logs without calling this first gets IllegalState
// from LogRaw (and silently drops everything else).
func (c *Controller) ReinitAfterFork() error {
	c.mu.Lock()
	cfg := c.lastConfig
	c.state = ctrlUninitialized
	c.transport = nil
	c.mu.Unlock()
	currentTransport.Store(nil)
	return c.Init(cfg)
}

// Init starts the default Controller. See Controller.Init.
func Init(cfg Config) error {
	return defaultController.Init(cfg)
}

// Flush drains and syncs every handler started by Init. See
// Controller.Flush.
func Flush(timeout time.Duration) error {
	return defaultController.Flush(timeout)
}

// Finalize terminates every handler started by Init. See
// Controller.Finalize.
func Finalize(flushFirst bool) error {
	return defaultController.Finalize(flushFirst)
}

// ReinitAfterFork restarts the default Controller's Transport after a
// fork. See Controller.ReinitAfterFork.
func ReinitAfterFork() error {
	return defaultController.ReinitAfterFork()
}
