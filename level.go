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
	"strconv"
	"strings"

	"github.com/relaycore/bxlog/bxerr"
)

// Level is a totally ordered event severity. Lower numeric values are
// more severe; a record at level L is emitted iff L <= logger.Level().
type Level int8

// The twelve severity levels, most to least severe.
const (
	PANIC Level = iota
	ALERT
	CRITICAL
	ERROR
	WARNING
	NOTICE
	OUTPUT
	INFO
	DEBUG
	FINE
	TRACE
	LOWEST
)

// tags supplies the single-letter console prefix for each level, in
// level order: PACEWNOIDFTL.
const tags = "PACEWNOIDFTL"

var levelNames = [...]string{
	PANIC:    "PANIC",
	ALERT:    "ALERT",
	CRITICAL: "CRITICAL",
	ERROR:    "ERROR",
	WARNING:  "WARNING",
	NOTICE:   "NOTICE",
	OUTPUT:   "OUTPUT",
	INFO:     "INFO",
	DEBUG:    "DEBUG",
	FINE:     "FINE",
	TRACE:    "TRACE",
	LOWEST:   "LOWEST",
}

// synonyms maps alternate, case-insensitive spellings accepted by
// ParseLevel onto their canonical name.
var synonyms = map[string]string{
	"emergency": "PANIC",
	"crit":      "CRITICAL",
	"err":       "ERROR",
	"warn":      "WARNING",
	"out":       "OUTPUT",
}

// String returns the canonical upper-case name of the level, or
// "LEVEL(n)" for an out-of-range value.
func (l Level) String() string {
	if l < PANIC || l > LOWEST {
		return "LEVEL(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// Tag returns the single-letter console prefix for the level (e.g. "I"
// for INFO), or "?" for an out-of-range value.
func (l Level) Tag() byte {
	if l < PANIC || l > LOWEST {
		return '?'
	}
	return tags[l]
}

// Valid reports whether l is within [PANIC, LOWEST].
func (l Level) Valid() bool {
	return l >= PANIC && l <= LOWEST
}

// ParseLevel parses a level name or decimal digit string, case-
// insensitively, honoring the accepted synonyms (emergency, crit, err,
// warn, out). It returns a BadLevel *bxerr.Error on failure.
func ParseLevel(s string) (Level, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, bxerr.New(bxerr.BadLevel, "empty level string")
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < int(PANIC) || n > int(LOWEST) {
			return 0, bxerr.Newf(bxerr.BadLevel, "numeric level %d out of range [0,11]", n)
		}
		return Level(n), nil
	}

	upper := strings.ToUpper(trimmed)
	if canonical, ok := synonyms[strings.ToLower(trimmed)]; ok {
		upper = canonical
	}
	for lvl, name := range levelNames {
		if name == upper {
			return Level(lvl), nil
		}
	}
	return 0, bxerr.Newf(bxerr.BadLevel, "unrecognized level name %q", s)
}
