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
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// ranks maps goroutine id -> caller-assigned thread rank, populated by
// SetThreadRank. This plays the role of thread-local storage: Go has no
// true TLS, but a caller-assigned rank is rare enough (set once per
// worker goroutine, typically at startup) that a map keyed by goroutine
// id is the idiomatic stand-in.
var (
	ranksMu sync.RWMutex
	ranks   = make(map[uint64]uint16)
)

// SetThreadRank assigns rank as the logical thread rank reported in
// Records produced by the calling goroutine. If never called, the rank
// defaults to the low 16 bits of the kernel thread id.
func SetThreadRank(rank uint16) {
	id := goroutineID()
	ranksMu.Lock()
	ranks[id] = rank
	ranksMu.Unlock()
}

// ClearThreadRank removes any rank previously assigned via
// SetThreadRank for the calling goroutine.
func ClearThreadRank() {
	id := goroutineID()
	ranksMu.Lock()
	delete(ranks, id)
	ranksMu.Unlock()
}

func currentRank() uint16 {
	id := goroutineID()
	ranksMu.RLock()
	rank, ok := ranks[id]
	ranksMu.RUnlock()
	if ok {
		return rank
	}
	return uint16(currentTid())
}

// goroutineID recovers the runtime-assigned goroutine id by parsing the
// header line of runtime.Stack's output ("goroutine 123 [running]:").
// This is the same kind of introspection frame capture already performs
// against a caller PC, just applied to the goroutine header instead.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
