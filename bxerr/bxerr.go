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

// Package bxerr provides the richly-chained error type used throughout
// bxlog: a kind tag, a human message, and an optional wrapped cause.
package bxerr

import (
	"fmt"

	"go.uber.org/multierr"
)

// Kind classifies an Error without pinning callers to a specific message
// string. Callers should compare via Is/As rather than string matching.
type Kind int

const (
	// IllegalState indicates init/finalize (or similar lifecycle calls)
	// were invoked out of order.
	IllegalState Kind = iota
	// BadLevel indicates a filter or config string named an out-of-range
	// or unparseable level.
	BadLevel
	// BadConfig indicates a malformed handler or filter configuration.
	BadConfig
	// Protocol indicates a malformed remote wire frame.
	Protocol
	// SignalInterrupted indicates an operation was cut short by a signal.
	SignalInterrupted
	// FlushFailed is a group kind; Cause carries per-handler causes
	// combined via multierr.
	FlushFailed
	// HandlerExit indicates a handler worker self-terminated.
	HandlerExit
	// IO indicates a failure from the underlying sink.
	IO
	// TooManyErrors indicates a handler's distinct-error budget was
	// exceeded.
	TooManyErrors
)

func (k Kind) String() string {
	switch k {
	case IllegalState:
		return "illegal state"
	case BadLevel:
		return "bad level"
	case BadConfig:
		return "bad config"
	case Protocol:
		return "protocol"
	case SignalInterrupted:
		return "signal interrupted"
	case FlushFailed:
		return "flush failed"
	case HandlerExit:
		return "handler exit"
	case IO:
		return "io"
	case TooManyErrors:
		return "too many errors"
	default:
		return "unknown"
	}
}

// Error is the chained error value used across bxlog in place of plain
// errors.New/fmt.Errorf, so callers can recover the failure Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New returns an *Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error of the given kind wrapping cause. If cause is
// nil, Wrap returns nil.
func Wrap(kind Kind, cause error, message string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
}

// Unwrap exposes Cause so errors.Is/errors.As work against it normally.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind. This lets
// callers write errors.Is(err, bxerr.New(bxerr.IllegalState, "")) or, more
// idiomatically, compare via errors.As and inspect Kind directly.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// CombineFlushFailed aggregates per-handler flush/finalize errors into a
// single FlushFailed-kind Error. Nil causes are dropped; if every cause
// is nil, CombineFlushFailed returns nil.
func CombineFlushFailed(causes ...error) *Error {
	combined := multierr.Combine(causes...)
	if combined == nil {
		return nil
	}
	return &Error{Kind: FlushFailed, Message: "one or more handlers failed", Cause: combined}
}

// Causes returns the individual errors packed into a combined cause, via
// multierr.Errors. For a non-combined cause it returns a single-element
// slice; for nil it returns nil.
func Causes(err error) []error {
	if err == nil {
		return nil
	}
	return multierr.Errors(err)
}
