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
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/relaycore/bxlog/bxerr"
)

// internalLogger is used to report the Handler Runtime's own events (a
// degraded handler, a handler exceeding its error budget) the same way
// any other logger would. It's registered like any other named logger,
// but at a fixed, reserved name so application Filter Sets can target it
// specifically.
var internalLogger = DefaultRegistry.GetOrCreate("github.com/relaycore/bxlog")

// currentTransport is the Transport belonging to the current Lifecycle
// Controller generation, or nil if Init hasn't been called (or Finalize
// already ran). Logger holds no pointer to the Controller itself --
// loading this fresh on every dispatch is what lets ReinitAfterFork swap
// in a new Transport without every existing *Logger needing to change.
var currentTransport atomic.Pointer[Transport]

// Fields is an immutable map of structured key/value context carried by
// a Logger and copied onto every Record it produces.
type Fields map[string]interface{}

var (
	errorP    = (*error)(nil)
	errorT    = reflect.TypeOf(errorP).Elem()
	stringerP = (*fmt.Stringer)(nil)
	stringerT = reflect.TypeOf(stringerP).Elem()
)

// basicValue dereferences pointers and coerces non-basic types to their
// string representation, so a Fields value can't change out from under a
// Record queued for asynchronous delivery.
func basicValue(value interface{}) interface{} {
	rval := reflect.ValueOf(value)
	if !rval.IsValid() {
		return fmt.Sprint(value)
	}
	for rval.Kind() == reflect.Ptr {
		if rval.IsNil() {
			break
		}
		if rval.Type().Implements(stringerT) || rval.Type().Implements(errorT) {
			break
		}
		rval = rval.Elem()
	}

	switch rval.Kind() {
	case reflect.Bool, reflect.String:
		return rval.Interface()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rval.Interface()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rval.Interface()
	case reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return rval.Interface()
	default:
		return fmt.Sprint(rval.Interface())
	}
}

// Logger is a named, leveled event source. A Logger holds only its own
// name, level, and accumulated Fields -- it never holds a reference to
// the Lifecycle Controller or Transport, so reinitializing after a fork
// (see ReinitAfterFork) doesn't require touching any existing *Logger.
type Logger struct {
	name  string
	level int32 // atomic, holds a Level

	fields     Fields
	skipFrames int // frames to skip past our own send* methods
}

func newLogger(name string) *Logger {
	return &Logger{
		name:  name,
		level: int32(LOWEST),

		// send/sendf/sendPanic/etc are called from a uniform depth below
		// the exported per-level methods; skipping 3 frames from there
		// lands on the original caller.
		skipFrames: 3,
	}
}

// NewLogger returns the logger registered under name in the default
// Registry, creating it at LOWEST (then immediately re-leveled by the
// registry's current Filter Set) if it doesn't already exist.
func NewLogger(name string) *Logger {
	return DefaultRegistry.GetOrCreate(name)
}

func (l *Logger) String() string {
	return fmt.Sprintf("Logger(name=%s, level=%s)", l.name, l.Level())
}

// Name returns the logger's registered name.
func (l *Logger) Name() string {
	return l.name
}

// Level returns the logger's current effective level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadInt32(&l.level))
}

func (l *Logger) setLevel(level Level) {
	atomic.StoreInt32(&l.level, int32(level))
}

// EnabledFor reports whether a record at level would currently be
// admitted by this logger.
func (l *Logger) EnabledFor(level Level) bool {
	return level <= l.Level()
}

// With returns a new Logger sharing this one's name and level, with
// fields merged into its accumulated context. Values are coerced via
// basicValue so later mutation of the caller's arguments can't affect
// an already-queued Record.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		if k == "" {
			continue
		}
		merged[k] = basicValue(v)
	}
	new := l.clone()
	new.fields = merged
	return new
}

// WithValue is a convenience wrapper around With for a single key/value
// pair.
func (l *Logger) WithValue(key string, value interface{}) *Logger {
	return l.With(Fields{key: value})
}

// Wrap returns a Logger that skips one additional frame when capturing
// the call site. Use this when logging calls are routed through an
// additional wrapper function.
func (l *Logger) Wrap() *Logger {
	new := l.clone()
	new.skipFrames++
	return new
}

func (l *Logger) clone() *Logger {
	return &Logger{
		name:       l.name,
		level:      int32(l.Level()),
		fields:     l.fields,
		skipFrames: l.skipFrames,
	}
}

// Per-level methods. Panic/Alert/Critical/Error are the error-carrying
// levels: a nil err is a no-op (the common guard-then-log idiom), and
// Error/Alert/Critical return err unchanged so callers can write
// `return logger.Error(err, "...")`.

func (l *Logger) Panic(cause interface{}, message string) {
	if cause == nil {
		return
	}
	l.sendPanic(cause, message)
}

func (l *Logger) Panicf(cause interface{}, format string, values ...interface{}) {
	if cause == nil {
		return
	}
	l.sendPanicf(cause, format, values...)
}

func (l *Logger) Alert(err error, message string) error {
	if err == nil {
		return nil
	}
	l.send(ALERT, err, message)
	return err
}

func (l *Logger) Alertf(err error, format string, values ...interface{}) error {
	if err == nil {
		return nil
	}
	l.sendf(ALERT, err, format, values...)
	return err
}

func (l *Logger) Critical(err error, message string) error {
	if err == nil {
		return nil
	}
	l.send(CRITICAL, err, message)
	return err
}

func (l *Logger) Criticalf(err error, format string, values ...interface{}) error {
	if err == nil {
		return nil
	}
	l.sendf(CRITICAL, err, format, values...)
	return err
}

func (l *Logger) Error(err error, message string) error {
	if err == nil {
		return nil
	}
	l.send(ERROR, err, message)
	return err
}

func (l *Logger) Errorf(err error, format string, values ...interface{}) error {
	if err == nil {
		return nil
	}
	l.sendf(ERROR, err, format, values...)
	return err
}

func (l *Logger) Warning(message string) {
	l.send(WARNING, nil, message)
}

func (l *Logger) Warningf(format string, values ...interface{}) {
	l.sendf(WARNING, nil, format, values...)
}

func (l *Logger) Notice(message string) {
	l.send(NOTICE, nil, message)
}

func (l *Logger) Noticef(format string, values ...interface{}) {
	l.sendf(NOTICE, nil, format, values...)
}

func (l *Logger) Output(message string) {
	l.send(OUTPUT, nil, message)
}

func (l *Logger) Outputf(format string, values ...interface{}) {
	l.sendf(OUTPUT, nil, format, values...)
}

func (l *Logger) Info(message string) {
	l.send(INFO, nil, message)
}

func (l *Logger) Infof(format string, values ...interface{}) {
	l.sendf(INFO, nil, format, values...)
}

func (l *Logger) Debug(message string) {
	l.send(DEBUG, nil, message)
}

func (l *Logger) Debugf(format string, values ...interface{}) {
	l.sendf(DEBUG, nil, format, values...)
}

func (l *Logger) Fine(message string) {
	l.send(FINE, nil, message)
}

func (l *Logger) Finef(format string, values ...interface{}) {
	l.sendf(FINE, nil, format, values...)
}

func (l *Logger) Trace(message string) {
	l.send(TRACE, nil, message)
}

func (l *Logger) Tracef(format string, values ...interface{}) {
	l.sendf(TRACE, nil, format, values...)
}

// Recover recovers from a panic and logs the recovered value at PANIC.
// It must be called via defer. If the panic was triggered by this
// logger's own Panic/Panicf, Recover returns without emitting a second
// record -- the panic call site already logged it.
func (l *Logger) Recover(message string) {
	cause := recover()
	if cause == nil || ourPanic() {
		return
	}
	l.sendRecovery(cause, message)
}

// ReportRecovery logs cause at PANIC without re-panicking. Used when the
// caller has already recovered independently via the builtin recover()
// and wants to distinguish whether a panic actually occurred.
func (l *Logger) ReportRecovery(cause interface{}, message string) {
	if cause == nil || ourPanic() {
		return
	}
	l.sendRecovery(cause, message)
}

// LogRaw emits a record at level unconditionally (subject only to
// EnabledFor) and surfaces any producer-side dispatch failure directly,
// unlike the per-level methods, which silently no-op on dispatch failure
// per the "producer errors are never surfaced to the logging caller"
// policy. LogRaw exists for callers -- tests, mainly -- that need to
// observe that policy's edge, such as a call made before Init or after a
// fork without a matching ReinitAfterFork.
func (l *Logger) LogRaw(level Level, err error, message string) error {
	if !l.EnabledFor(level) {
		return nil
	}
	rec := newRecord(l.name, l.fields, level, err, message)
	// LogRaw sits one frame closer to the caller than send/sendf do.
	rec.captureFrame(l.skipFrames-1, false)
	return l.dispatch(rec)
}

func (l *Logger) send(level Level, err error, message string) {
	if !l.EnabledFor(level) {
		return
	}
	rec := newRecord(l.name, l.fields, level, err, message)
	rec.captureFrame(l.skipFrames, false)
	l.dispatch(rec)
}

func (l *Logger) sendf(level Level, err error, format string, values ...interface{}) {
	if !l.EnabledFor(level) {
		return
	}
	rec := newRecordf(l.name, l.fields, level, err, format, values...)
	rec.captureFrame(l.skipFrames, false)
	l.dispatch(rec)
}

func (l *Logger) sendPanic(cause interface{}, message string) {
	if !l.EnabledFor(PANIC) {
		doPanic(cause)
	}
	err, ok := cause.(error)
	if !ok {
		err = errors.New(fmt.Sprint(cause))
	}
	rec := newRecord(l.name, l.fields, PANIC, err, message)
	rec.captureFrame(l.skipFrames, false)
	l.dispatch(rec)
	doPanic(cause)
}

func (l *Logger) sendPanicf(cause interface{}, format string, values ...interface{}) {
	if !l.EnabledFor(PANIC) {
		doPanic(cause)
	}
	err, ok := cause.(error)
	if !ok {
		err = errors.New(fmt.Sprint(cause))
	}
	rec := newRecordf(l.name, l.fields, PANIC, err, format, values...)
	rec.captureFrame(l.skipFrames, false)
	l.dispatch(rec)
	doPanic(cause)
}

func (l *Logger) sendRecovery(cause interface{}, message string) {
	if !l.EnabledFor(PANIC) {
		return
	}
	err, ok := cause.(error)
	if !ok {
		err = errors.New(fmt.Sprint(cause))
	}
	rec := newRecord(l.name, l.fields, PANIC, err, message)
	rec.captureFrame(l.skipFrames, true)
	l.dispatch(rec)
}

// dispatch hands rec to the currently active Transport, if any. A
// missing Transport (no Init yet, or a fork that hasn't called
// ReinitAfterFork) is reported back to the caller as bxerr.IllegalState
// but otherwise never surfaces -- only LogRaw propagates this return
// value to an ordinary logging call site.
func (l *Logger) dispatch(rec *Record) error {
	t := currentTransport.Load()
	if t == nil {
		return bxerr.New(bxerr.IllegalState, "bxlog: logger used before Init or after Finalize without ReinitAfterFork")
	}
	t.dispatch(rec)
	return nil
}
