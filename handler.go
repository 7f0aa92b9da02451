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

// Handler is the polymorphic contract every sink (console, file,
// syslog, remote publisher, null, net-snmp, ...) implements. A Handler
// is constructed by its own package-specific configuration type (see the
// handler package) and must not perform I/O until Open is called by its
// worker -- construction ("param_new") and opening ("init") are
// deliberately separate steps.
type Handler interface {
	// Open performs the one-time opening of sink resources. A failure
	// here is fatal to this handler only; Init as a whole aborts if any
	// handler's Open fails.
	Open() error

	// ProcessLog writes a single already-line-split record to the sink.
	// The Handler Runtime calls ProcessLog once per line of a multi-line
	// message.
	ProcessLog(rec *Record) error

	// ProcessImplicitFlush performs a best-effort drain. Errors are
	// non-fatal; the Handler Runtime counts but doesn't escalate them.
	ProcessImplicitFlush() error

	// ProcessExplicitFlush performs a strong drain: on return, prior
	// records must be durable per the sink's own notion of durability.
	ProcessExplicitFlush() error

	// ProcessExit performs the final drain and close. The Handler
	// Runtime calls Close afterward regardless of ProcessExit's result.
	ProcessExit() error

	// ProcessCfg installs a new Filter Set snapshot. Most handlers can
	// ignore the argument -- the Handler Runtime already re-checks
	// per-handler admission using the snapshot it holds -- but handlers
	// with filter-dependent formatting (e.g. a Pipeline) may use it.
	ProcessCfg(filters FilterSet) error

	// Close releases all resources. Must be safe to call even if Open
	// failed partway through.
	Close() error
}

// Named is implemented by handlers that carry their own identifying
// name, used for error-summary and log-line reporting. Handlers that
// don't implement Named are identified by the name given in their
// HandlerConfig instead.
type Named interface {
	Name() string
}
