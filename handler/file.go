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
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/relaycore/bxlog"
	"github.com/relaycore/bxlog/format"
)

// OpenMode selects how File opens its target path.
type OpenMode int

// The two open modes a File handler supports.
const (
	// OpenAppend appends to an existing file, creating it if necessary.
	OpenAppend OpenMode = iota
	// OpenTruncate truncates an existing file, creating it if necessary.
	OpenTruncate
)

// File represents configuration for a file-based handler. A Path of "-"
// writes to stdout instead of opening a file. File rotation isn't
// implemented directly; ReopenSignal and ReopenMissing let an external
// rotator (logrotate, etc.) coordinate a reopen.
type File struct {
	// Required unless Path is "-"
	Path string

	OpenMode OpenMode    // Default: OpenAppend
	Perms    os.FileMode // Default: 0600

	// If set, reopen the file when the given signal is received.
	ReopenSignal os.Signal

	// If set, poll for the file's existence at this interval and reopen
	// it if it was removed out from under the handler.
	ReopenMissing time.Duration
}

// New returns a new handler based on the File configuration.
func (f File) New() bxlog.Handler {
	if f.Perms == 0 {
		f.Perms = 0600
	}
	return &fileHandler{File: f}
}

type fileHandler struct {
	File

	mu   sync.Mutex
	file *os.File
}

func (f *fileHandler) Name() string {
	return fmt.Sprintf("file(path=%s)", f.Path)
}

func (f *fileHandler) Open() error {
	if err := f.ensureOpen(); err != nil {
		return err
	}
	f.watchSignal()
	f.watchRemoval()
	return nil
}

func (f *fileHandler) ProcessLog(rec *bxlog.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.ensureOpen(); err != nil {
		return err
	}

	buf := format.GetBuffer()
	defer format.ReleaseBuffer(buf)
	format.FileLine(buf, rec)

	line := buf.Bytes()
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}
	_, err := f.file.Write(line)
	if err != nil {
		f.ensureClosed()
	}
	return err
}

func (f *fileHandler) ProcessImplicitFlush() error { return nil }

func (f *fileHandler) ProcessExplicitFlush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

func (f *fileHandler) ProcessExit() error { return nil }

func (f *fileHandler) ProcessCfg(filters bxlog.FilterSet) error { return nil }

func (f *fileHandler) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureClosed()
	return nil
}

func (f *fileHandler) reopen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureClosed()
	return f.ensureOpen()
}

func (f *fileHandler) ensureOpen() error {
	if f.file != nil {
		return nil
	}
	if f.Path == "-" {
		f.file = os.Stdout
		return nil
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if f.OpenMode == OpenTruncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	var err error
	f.file, err = os.OpenFile(f.Path, flags, f.Perms)
	return err
}

func (f *fileHandler) ensureClosed() {
	if f.file != nil && f.file != os.Stdout {
		f.file.Close()
	}
	f.file = nil
}

func (f *fileHandler) watchSignal() {
	if f.ReopenSignal == nil {
		return
	}
	triggered := make(chan os.Signal, 1)
	signal.Notify(triggered, f.ReopenSignal)

	go func() {
		for range triggered {
			f.reopen()
		}
	}()
}

func (f *fileHandler) watchRemoval() {
	if f.ReopenMissing == 0 || f.Path == "-" {
		return
	}
	go func() {
		for {
			time.Sleep(f.ReopenMissing)
			if _, err := os.Stat(f.Path); os.IsNotExist(err) {
				f.reopen()
			}
		}
	}()
}
