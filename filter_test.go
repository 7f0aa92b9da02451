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

func TestParseEmpty(t *testing.T) {
	fs, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") returned error: %s", err)
	}
	if fs != nil {
		t.Errorf("Parse(\"\") = %v, want nil", fs)
	}
}

func TestParseSingleRule(t *testing.T) {
	fs, err := Parse(":warning")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if len(fs) != 1 || fs[0].Prefix != "" || fs[0].Level != WARNING {
		t.Errorf("Parse(\":warning\") = %+v", fs)
	}
}

func TestParseMultipleRules(t *testing.T) {
	fs, err := Parse(":warning,net:info,net.tls:debug")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	want := FilterSet{
		{Prefix: "", Level: WARNING},
		{Prefix: "net", Level: INFO},
		{Prefix: "net.tls", Level: DEBUG},
	}
	if len(fs) != len(want) {
		t.Fatalf("Parse returned %d rules, want %d", len(fs), len(want))
	}
	for i := range want {
		if fs[i] != want[i] {
			t.Errorf("rule %d = %+v, want %+v", i, fs[i], want[i])
		}
	}
}

func TestParseRejectsMissingColon(t *testing.T) {
	if _, err := Parse("net.warning"); err == nil {
		t.Error("expected an error for a rule missing ':'")
	}
}

func TestParseRejectsBadPrefix(t *testing.T) {
	if _, err := Parse("net/tls:warning"); err == nil {
		t.Error("expected an error for a prefix containing '/'")
	}
}

func TestParseRejectsBadLevel(t *testing.T) {
	if _, err := Parse(":notalevel"); err == nil {
		t.Error("expected an error for an unrecognized level name")
	}
}

func TestFilterSetApplyLastMatchWins(t *testing.T) {
	fs, err := Parse(":warning,net:info,net.tls:debug")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}

	cases := []struct {
		name      string
		wantLevel Level
		wantMatch bool
	}{
		{"unrelated", WARNING, true},
		{"net", INFO, true},
		{"net.http", INFO, true},
		{"net.tls", DEBUG, true},
		{"net.tls.handshake", DEBUG, true},
	}
	for _, c := range cases {
		level, matched := fs.Apply(c.name)
		if matched != c.wantMatch || level != c.wantLevel {
			t.Errorf("Apply(%q) = (%s, %v), want (%s, %v)", c.name, level, matched, c.wantLevel, c.wantMatch)
		}
	}
}

func TestFilterSetApplyNoMatch(t *testing.T) {
	fs, err := Parse("net:info")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if _, matched := fs.Apply("storage"); matched {
		t.Error("expected no match for a name outside every rule's prefix")
	}
}

func TestFilterSetString(t *testing.T) {
	fs, err := Parse(":warning,net:info")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	want := ":warning,net:info"
	if got := fs.String(); got != want {
		t.Errorf("FilterSet.String() = %q, want %q", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := ":warning,net:info,net.tls:debug"
	fs, err := Parse(original)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	reparsed, err := Parse(fs.String())
	if err != nil {
		t.Fatalf("Parse(fs.String()): %s", err)
	}
	if fs.String() != reparsed.String() {
		t.Errorf("round-trip mismatch: %q != %q", fs.String(), reparsed.String())
	}
}
