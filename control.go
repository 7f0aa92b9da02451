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

// Message is the closed sum type carried on a handler's control channel.
// Flush, Reconfigure, and Exit are its only variants; the unexported
// method prevents other packages from adding their own.
type Message interface {
	isControlMessage()
}

// Flush requests a handler drain its currently-buffered data and perform
// a strong (process_explicit_flush) drain of its sink. Reply, if
// non-nil, receives the handler's flush error (nil on success) and is
// always sent to exactly once.
type Flush struct {
	Reply chan<- error
}

func (Flush) isControlMessage() {}

// Reconfigure installs a new Filter Set snapshot on the handler.
type Reconfigure struct {
	Filters FilterSet
}

func (Reconfigure) isControlMessage() {}

// Exit requests orderly handler termination. If FlushFirst is true, the
// worker drains its data channel (bounded by the exit drain deadline)
// before calling ProcessExit; otherwise outstanding records are
// discarded and counted as lost.
type Exit struct {
	FlushFirst bool
}

func (Exit) isControlMessage() {}
