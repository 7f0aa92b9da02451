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
	"testing"
)

func TestLevelString(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{PANIC, "PANIC"},
		{ALERT, "ALERT"},
		{CRITICAL, "CRITICAL"},
		{ERROR, "ERROR"},
		{WARNING, "WARNING"},
		{NOTICE, "NOTICE"},
		{OUTPUT, "OUTPUT"},
		{INFO, "INFO"},
		{DEBUG, "DEBUG"},
		{FINE, "FINE"},
		{TRACE, "TRACE"},
		{LOWEST, "LOWEST"},
	}
	for _, c := range cases {
		if got := c.level.String(); got != c.want {
			t.Errorf("Level(%d).String() = %q, want %q", c.level, got, c.want)
		}
	}
	if got := Level(42).String(); got != "LEVEL(42)" {
		t.Errorf("out-of-range Level.String() = %q, want %q", got, "LEVEL(42)")
	}
}

func TestLevelTag(t *testing.T) {
	if got := INFO.Tag(); got != 'I' {
		t.Errorf("INFO.Tag() = %q, want 'I'", got)
	}
	if got := Level(-1).Tag(); got != '?' {
		t.Errorf("out-of-range Level.Tag() = %q, want '?'", got)
	}
}

func TestLevelValid(t *testing.T) {
	if !INFO.Valid() {
		t.Error("INFO.Valid() = false, want true")
	}
	if (LOWEST + 1).Valid() {
		t.Error("LOWEST+1.Valid() = true, want false")
	}
	if (PANIC - 1).Valid() {
		t.Error("PANIC-1.Valid() = true, want false")
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  Level
	}{
		{"INFO", INFO},
		{"info", INFO},
		{"  WARNING  ", WARNING},
		{"warn", WARNING},
		{"err", ERROR},
		{"crit", CRITICAL},
		{"emergency", PANIC},
		{"out", OUTPUT},
		{"7", INFO},
		{"0", PANIC},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.input)
		if err != nil {
			t.Errorf("ParseLevel(%q) returned error: %s", c.input, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", c.input, got, c.want)
		}
	}
}

func TestParseLevelErrors(t *testing.T) {
	bad := []string{"", "   ", "NOTALEVEL", "12", "-1"}
	for _, s := range bad {
		if _, err := ParseLevel(s); err == nil {
			t.Errorf("ParseLevel(%q) expected an error, got nil", s)
		}
	}
}
