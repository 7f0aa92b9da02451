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
	"time"
)

// Record describes a single log event. A single *Record is passed to
// every admitting handler, across multiple goroutines; fields must not
// be mutated in place once a Record has been enqueued.
type Record struct {
	Time       time.Time // Local time the record was generated
	Level      Level     // Event severity
	LoggerName string    // Name of the logger that produced the record
	Pid        int       // Producing process id
	Tid        int32     // Producing kernel thread id
	Rank       uint16    // Logical thread rank (SetThreadRank, or tid & 0xffff)
	File       string    // Source file of the call site, or UnknownFile
	Function   string    // Source function of the call site, or UnknownFunction
	Line       int       // Source line of the call site
	Err        error     // Associated error, if any (ERROR level and below)
	Message    string    // Formatted message

	// Fields carries the logger's accumulated structured context at the
	// time the record was generated (see Logger.With).
	Fields Fields
}

func newRecord(name string, fields Fields, level Level, cause error, message string) *Record {
	return &Record{
		Time:       time.Now(),
		Level:      level,
		LoggerName: name,
		Pid:        os.Getpid(),
		Tid:        currentTid(),
		Rank:       currentRank(),
		Err:        cause,
		Message:    message,
		Fields:     fields,
	}
}

func newRecordf(name string, fields Fields, level Level, cause error, format string, args ...interface{}) *Record {
	r := newRecord(name, fields, level, cause, "")
	r.Message = fmt.Sprintf(format, args...)
	return r
}

func (r *Record) captureFrame(skip int, recovering bool) {
	skip++
	var frame *Frame
	if recovering {
		frame = captureRecoveryFrame(skip)
	} else {
		frame = captureFrame(skip)
	}
	r.File = frame.File
	r.Function = frame.Function
	r.Line = frame.Line
}

// clone returns a shallow copy of r. The Handler Runtime uses it to give
// each line of a multi-line message its own Record with its own Message.
func (r *Record) clone() *Record {
	cp := *r
	return &cp
}

// Clone returns a shallow copy of r, safe to mutate independently of the
// original. Handlers that rewrite a record in place -- handler.Pipeline,
// for instance -- must clone before mutating, since the same *Record is
// shared across every admitting handler's worker.
func (r *Record) Clone() *Record {
	return r.clone()
}
