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

import "github.com/relaycore/bxlog/bxerr"

// Inject hands rec directly to the active Transport, skipping logger
// lookup, level filtering, and call-site frame capture. It exists for
// remote.Receiver: a Record decoded off the wire already carries its
// own Time/LoggerName/Level/frame fields from the remote producer, and
// re-running it through a local Logger would stamp it with this
// process's own pid/tid/file/line instead of preserving the original's.
//
// Inject returns the same bxerr.IllegalState error LogRaw does when
// called before Init or after Finalize without a following
// ReinitAfterFork.
func Inject(rec *Record) error {
	t := currentTransport.Load()
	if t == nil {
		return bxerr.New(bxerr.IllegalState, "bxlog: Inject called before Init or after Finalize without ReinitAfterFork")
	}
	t.dispatch(rec)
	return nil
}
