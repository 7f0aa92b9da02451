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

import "github.com/relaycore/bxlog"

// Null is configuration for a handler that discards every record. It's
// useful as a filter-set placeholder or a benchmark baseline.
type Null struct{}

// New returns a new Null handler.
func (n Null) New() bxlog.Handler {
	return nullHandler{}
}

type nullHandler struct{}

func (nullHandler) Open() error                              { return nil }
func (nullHandler) ProcessLog(rec *bxlog.Record) error       { return nil }
func (nullHandler) ProcessImplicitFlush() error              { return nil }
func (nullHandler) ProcessExplicitFlush() error              { return nil }
func (nullHandler) ProcessExit() error                       { return nil }
func (nullHandler) ProcessCfg(filters bxlog.FilterSet) error { return nil }
func (nullHandler) Close() error                             { return nil }

func (nullHandler) Name() string { return "null" }
