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
	"testing"

	"github.com/relaycore/bxlog"
)

func TestNull(t *testing.T) {
	h := Null{}.New()
	if named, ok := h.(interface{ Name() string }); !ok || named.Name() != "null" {
		t.Errorf("expected Name() == \"null\"")
	}

	if err := h.Open(); err != nil {
		t.Errorf("Open: %s", err)
	}
	if err := h.ProcessLog(debugRecord()); err != nil {
		t.Errorf("ProcessLog: %s", err)
	}
	if err := h.ProcessImplicitFlush(); err != nil {
		t.Errorf("ProcessImplicitFlush: %s", err)
	}
	if err := h.ProcessExplicitFlush(); err != nil {
		t.Errorf("ProcessExplicitFlush: %s", err)
	}
	if err := h.ProcessCfg(bxlog.FilterSet{}); err != nil {
		t.Errorf("ProcessCfg: %s", err)
	}
	if err := h.ProcessExit(); err != nil {
		t.Errorf("ProcessExit: %s", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close: %s", err)
	}
}
