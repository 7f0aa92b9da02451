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
	"os"
	"testing"
)

func TestNewRecord(t *testing.T) {
	fields := Fields{"k": "v"}
	cause := errors.New("boom")
	r := newRecord("mylogger", fields, ERROR, cause, "something broke")

	if r.LoggerName != "mylogger" {
		t.Errorf("LoggerName = %q, want %q", r.LoggerName, "mylogger")
	}
	if r.Level != ERROR {
		t.Errorf("Level = %s, want %s", r.Level, ERROR)
	}
	if r.Pid != os.Getpid() {
		t.Errorf("Pid = %d, want %d", r.Pid, os.Getpid())
	}
	if r.Err != cause {
		t.Errorf("Err = %v, want %v", r.Err, cause)
	}
	if r.Message != "something broke" {
		t.Errorf("Message = %q, want %q", r.Message, "something broke")
	}
	if r.Fields["k"] != "v" {
		t.Errorf("Fields[k] = %v, want %q", r.Fields["k"], "v")
	}
	if r.Time.IsZero() {
		t.Error("Time was left zero")
	}
}

func TestNewRecordf(t *testing.T) {
	r := newRecordf("mylogger", nil, INFO, nil, "count=%d name=%s", 3, "widgets")
	if r.Message != "count=3 name=widgets" {
		t.Errorf("Message = %q, want %q", r.Message, "count=3 name=widgets")
	}
}

func TestRecordCaptureFrame(t *testing.T) {
	r := newRecord("mylogger", nil, INFO, nil, "hi")
	r.captureFrame(0, false)
	if r.File == "" || r.File == UnknownFile {
		t.Errorf("captureFrame left File unset: %q", r.File)
	}
	if r.Line == 0 {
		t.Error("captureFrame left Line at 0")
	}
}

func TestRecordClone(t *testing.T) {
	original := newRecord("mylogger", Fields{"k": "v"}, WARNING, nil, "original message")
	clone := original.Clone()

	if clone == original {
		t.Fatal("Clone returned the same pointer as the original")
	}
	if clone.Message != original.Message || clone.Level != original.Level {
		t.Errorf("clone = %+v, want a copy of %+v", clone, original)
	}

	clone.Message = "mutated"
	if original.Message == "mutated" {
		t.Error("mutating the clone's Message also mutated the original")
	}
}
