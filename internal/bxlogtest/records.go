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

package bxlogtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/relaycore/bxlog"
)

// Fixture records at representative severities, each carrying 3
// synthetic call-site frames worth of File/Function/Line data. The
// *NoFrames variants carry none, for exercising formatters that render
// call-site info conditionally.
var (
	DebugRecord         = GenerateRecord(bxlog.DEBUG, "debug event", nil, 3)
	DebugRecordNoFrames = GenerateRecord(bxlog.DEBUG, "debug event", nil, 0)
	InfoRecord          = GenerateRecord(bxlog.INFO, "info event", nil, 3)
	InfoRecordNoFrames  = GenerateRecord(bxlog.INFO, "info event", nil, 0)
	WarningRecord       = GenerateRecord(bxlog.WARNING, "warning event", nil, 3)
	WarningNoFrames     = GenerateRecord(bxlog.WARNING, "warning event", nil, 0)
	ErrorRecord         = GenerateRecord(bxlog.ERROR, "error event", errors.New("error message"), 3)
	ErrorRecordNoFrames = GenerateRecord(bxlog.ERROR, "error event", errors.New("error message"), 0)
	PanicRecord         = GenerateRecord(bxlog.PANIC, "panic event", errors.New("panic message"), 3)
	PanicRecordNoFrames = GenerateRecord(bxlog.PANIC, "panic event", errors.New("panic message"), 0)
)

// Fields returns the accumulated structured context every fixture record
// above carries, for tests asserting Fields survive a handler's pipeline.
func Fields() bxlog.Fields {
	return bxlog.Fields{"k1": "some value", "k2": 2, "k3": 3.5, "k4": true}
}

// GenerateRecord returns a new Record for the given parameters. frames
// determines how many synthetic call-site frame sets to fold into the
// single File/Function/Line triple a Record carries (a Record, unlike
// an event with a Frames slice, only keeps its innermost frame, so the
// last synthesized frame wins); frames of 0 leaves those fields empty.
// The time used is fixed, matching the layout constant the time package
// uses to describe itself, so rendered fixtures are reproducible.
func GenerateRecord(level bxlog.Level, message string, err error, frames int) *bxlog.Record {
	rec := &bxlog.Record{
		Time:       fixtureTime(),
		Level:      level,
		LoggerName: "test",
		Pid:        100,
		Tid:        200,
		Rank:       1,
		Message:    message,
		Err:        err,
		Fields:     Fields(),
	}
	for i := frames; i > 0; i-- {
		rec.File = fmt.Sprintf("/path/relaycore/bxlog/frame%d/file%d.go", i, i)
		rec.Function = fmt.Sprintf("relaycore/bxlog/frame%d.function%d", i, i)
		rec.Line = i
	}
	return rec
}

func fixtureTime() time.Time {
	t, err := time.Parse(time.RFC822, time.RFC822)
	if err != nil {
		panic(err)
	}
	return t
}
