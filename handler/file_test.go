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

package handler

import (
	"io/ioutil"
	"os"
	"path"
	"syscall"
	"testing"
	"time"

	"github.com/relaycore/bxlog"
)

func debugRecord() *bxlog.Record {
	return &bxlog.Record{
		Time:       time.Date(2016, time.January, 2, 15, 4, 0, 0, time.UTC),
		Level:      bxlog.DEBUG,
		LoggerName: "test",
		Pid:        100,
		Tid:        200,
		Rank:       1,
		File:       "/src/file3.go",
		Function:   "pkg.function3",
		Line:       3,
		Message:    "debug event",
	}
}

func TestFile(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	file := path.Join(tmp, "file")
	h := File{Path: file}.New()
	if err := h.Open(); err != nil {
		t.Fatalf("Open: %s", err)
	}
	if err := h.ProcessLog(debugRecord()); err != nil {
		t.Fatalf("ProcessLog: %s", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %s", err)
	}

	contents, err := ioutil.ReadFile(file)
	if err != nil {
		t.Fatalf("reading file: %s", err)
	}
	if len(contents) == 0 {
		t.Error("expected non-empty file contents")
	}
}

func TestFileDashIsStdout(t *testing.T) {
	h := File{Path: "-"}.New()
	if err := h.Open(); err != nil {
		t.Fatalf("Open: %s", err)
	}
	if err := h.ProcessLog(debugRecord()); err != nil {
		t.Fatalf("ProcessLog: %s", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %s", err)
	}
}

func TestFileTruncateMode(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	file := path.Join(tmp, "file")
	opts := File{Path: file, OpenMode: OpenTruncate}

	h1 := opts.New()
	h1.Open()
	h1.ProcessLog(debugRecord())
	h1.Close()
	first, _ := ioutil.ReadFile(file)

	h2 := opts.New()
	h2.Open()
	h2.ProcessLog(debugRecord())
	h2.Close()
	second, _ := ioutil.ReadFile(file)

	if len(second) != len(first) {
		t.Errorf("expected truncate mode to produce the same length on reopen, got %d then %d", len(first), len(second))
	}
}

func TestFileAppendMode(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	file := path.Join(tmp, "file")
	opts := File{Path: file}

	h1 := opts.New()
	h1.Open()
	h1.ProcessLog(debugRecord())
	h1.Close()
	first, _ := ioutil.ReadFile(file)

	h2 := opts.New()
	h2.Open()
	h2.ProcessLog(debugRecord())
	h2.Close()
	second, _ := ioutil.ReadFile(file)

	if len(second) != 2*len(first) {
		t.Errorf("expected append mode to double the file length on reopen, got %d then %d", len(first), len(second))
	}
}

func TestFileReopenOnRemoval(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	file := path.Join(tmp, "file")
	h := File{Path: file, ReopenMissing: time.Millisecond}.New()
	h.Open()
	h.ProcessLog(debugRecord())

	if err := os.Remove(file); err != nil {
		t.Fatalf("removing file: %s", err)
	}
	waitExists(t, file, 5*time.Second)

	h.ProcessLog(debugRecord())
	h.Close()

	contents, err := ioutil.ReadFile(file)
	if err != nil {
		t.Fatalf("reading file: %s", err)
	}
	if len(contents) == 0 {
		t.Error("expected non-empty file contents after reopen")
	}
}

func TestFileReopenSignal(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	file := path.Join(tmp, "file")
	h := File{Path: file, ReopenSignal: syscall.SIGHUP}.New()
	h.Open()
	h.ProcessLog(debugRecord())

	if err := os.Remove(file); err != nil {
		t.Fatalf("removing file: %s", err)
	}

	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("finding our own process: %s", err)
	}
	proc.Signal(syscall.SIGHUP)
	waitExists(t, file, 5*time.Second)

	h.ProcessLog(debugRecord())
	h.Close()
}

func tmpDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "bxlog-handler-test")
	if err != nil {
		t.Fatalf("creating temp dir: %s", err)
	}
	return dir
}

func waitExists(t *testing.T, path string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s to exist", path)
}
