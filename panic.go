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
	"runtime"
)

// maxPanicDepth is the maximum number of frames to search when locating
// the call site that triggered panic(). On amd64 with modern Go, panic
// adds 2 frames to the stack; 8 is comfortable headroom.
const maxPanicDepth = 8

var _, _, _, canDetect = runtime.Caller(0)

func doPanic(cause interface{}) {
	panic(cause)
}

// ourPanic reports whether the current stack is a panic triggered by our
// own doPanic, as opposed to one the caller recovered independently.
func ourPanic() bool {
	if !canDetect {
		return false
	}

	var framebuf [maxPanicDepth]uintptr
	copied := runtime.Callers(0, framebuf[:])
	for _, pc := range framebuf[:copied] {
		if frameForPC(pc).Function == "github.com/relaycore/bxlog.doPanic" {
			return true
		}
	}
	return false
}
