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
	"time"

	"github.com/relaycore/bxlog"
)

// ResetDefaultController finalizes the package-level default Controller
// so a subsequent test's Init call starts from a clean state. It panics
// if Finalize doesn't return within 5 seconds.
func ResetDefaultController() {
	finished := make(chan error, 1)
	go func() { finished <- bxlog.Finalize(false) }()

	select {
	case err := <-finished:
		if err != nil {
			panic("bxlogtest: failed to reset default controller: " + err.Error())
		}
	case <-time.After(5 * time.Second):
		panic("bxlogtest: default controller failed to finalize within 5 seconds")
	}
}
