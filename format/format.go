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

package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/relaycore/bxlog"
)

// Color codes for use with Colorize.
const (
	red    = 31
	green  = 32
	yellow = 33
	blue   = 34
)

// Pre-defined Formatters. HumanReadable is a nice default when machine
// parsing isn't required.
var (
	// Message[: Error] key1=val1 key2=val2...
	HumanMessage = Escape(Trim(Join(" ", MessageWithError, HumanContext)))

	// Jan _2 15:04:05 LEVEL Shortfile:Line Message[: Error] key1=val1 key2=val2...
	HumanReadable       = Join(" ", Time(time.Stamp), Level, SourceWithLine, HumanMessage)
	HumanReadableColors = Colorize(HumanReadable)

	// Message[: Error] {"key1":"val1","key2":"val2"}
	JSONMessage = Join(" ", Escape(Trim(MessageWithError)), JSONContext)

	// YYYY-MM-DDThh:mm:ss.nnnnnnnnnZ pid:tid@rank [L] loggername file:func:line message
	FileLine = Formatf("%v %v [%v] %v %v:%v:%v %v", TimeUTC(fileLineTimeFormat), PidTidRank, Tag, LoggerName, File, Function, Line, MessageWithError)
)

const fileLineTimeFormat = "2006-01-02T15:04:05.000000000Z"

// Formatter renders a *bxlog.Record into buffer.
type Formatter func(buffer Buffer, rec *bxlog.Record)

// RenderBytes renders rec using formatter and returns the result as an
// independent byte slice (the formatter's own scratch buffer is pooled
// and reused, so the result must be copied out before release).
func RenderBytes(formatter Formatter, rec *bxlog.Record) []byte {
	tmp := GetBuffer()
	defer ReleaseBuffer(tmp)

	formatter(tmp, rec)
	result := make([]byte, tmp.Len())
	copy(result, tmp.Bytes())
	return result
}

// RenderString renders rec using formatter and returns the result as a
// string.
func RenderString(formatter Formatter, rec *bxlog.Record) string {
	tmp := GetBuffer()
	defer ReleaseBuffer(tmp)

	formatter(tmp, rec)
	return string(tmp.Bytes())
}

// Join returns a new Formatter that appends sep between the contents of
// the underlying formatters. Sep is only appended between formatters
// that wrote one or more bytes to their buffers.
func Join(sep string, formatters ...Formatter) Formatter {
	return func(buffer Buffer, rec *bxlog.Record) {
		tmp := GetBuffer()
		defer ReleaseBuffer(tmp)

		needSep := false
		for _, formatter := range formatters {
			formatter(tmp, rec)
			if tmp.Len() == 0 {
				continue
			}

			if needSep {
				buffer.AppendString(sep)
			}
			buffer.Append(tmp.Bytes())
			tmp.Reset()
			needSep = true
		}
	}
}

// Formatf provides printf-like formatting of source formatters. The "%v"
// placeholder specifies a formatter's output position. A literal "%v" is
// written with "%%v". No alignment, padding, or other printf constructs
// are supported.
func Formatf(format string, formatters ...Formatter) Formatter {
	formatterIdx := 0
	segments := splitFormat(format)
	chain := make([]Formatter, len(segments))
	for i, seg := range segments {
		switch {
		case seg == "%v" && formatterIdx < len(formatters):
			chain[i] = formatters[formatterIdx]
			formatterIdx++
		case seg == "%v":
			chain[i] = Literal("%!v(MISSING)")
		default:
			chain[i] = Literal(seg)
		}
	}

	return func(buffer Buffer, rec *bxlog.Record) {
		for _, formatter := range chain {
			formatter(buffer, rec)
		}
	}
}

func splitFormat(format string) []string {
	var (
		segments []string
		segstart int
		lastrune rune
	)

	runes := []rune(format)
	for i, r := range runes {
		switch {
		case lastrune == '%' && r == '%':
			segend := i - 1
			if segstart != segend {
				segments = append(segments, string(runes[segstart:segend]))
			}
			segments = append(segments, "%")
			segstart = i + 1
			lastrune = 0
		case lastrune == '%' && r == 'v':
			segend := i - 1
			if segstart != segend {
				segments = append(segments, string(runes[segstart:segend]))
			}
			segments = append(segments, "%v")
			segstart = i + 1
			lastrune = r
		default:
			lastrune = r
		}
	}

	if segstart < len(runes) {
		segments = append(segments, string(runes[segstart:]))
	}
	return segments
}

// Colorize returns a new formatter that wraps the underlying formatter's
// output in color escape codes by level: DEBUG/FINE/TRACE/LOWEST are
// blue, NOTICE/OUTPUT/INFO are green, WARNING is yellow, and
// PANIC/ALERT/CRITICAL/ERROR are red.
func Colorize(formatter Formatter) Formatter {
	return func(buffer Buffer, rec *bxlog.Record) {
		buffer.AppendString(fmt.Sprintf("\x1b[%dm", colorFor(rec.Level)))
		formatter(buffer, rec)
		buffer.AppendString("\x1b[0m")
	}
}

func colorFor(lvl bxlog.Level) int {
	switch {
	case lvl <= bxlog.ERROR:
		return red
	case lvl == bxlog.WARNING:
		return yellow
	case lvl <= bxlog.INFO:
		return green
	default:
		return blue
	}
}

// Trim returns a formatter that trims leading and trailing whitespace
// from the underlying formatter's output.
func Trim(formatter Formatter) Formatter {
	return func(buffer Buffer, rec *bxlog.Record) {
		tmp := GetBuffer()
		defer ReleaseBuffer(tmp)

		formatter(tmp, rec)
		buffer.AppendString(strings.TrimSpace(string(tmp.Bytes())))
	}
}

// Escape returns a formatter that escapes control characters and all
// whitespace other than ' ' from the underlying formatter's output.
func Escape(formatter Formatter) Formatter {
	return func(buffer Buffer, rec *bxlog.Record) {
		tmp := GetBuffer()
		defer ReleaseBuffer(tmp)

		formatter(tmp, rec)
		runes := []rune(string(tmp.Bytes()))
		for _, r := range runes {
			switch {
			case r == ' ':
				buffer.AppendRune(r)
			case unicode.IsControl(r), unicode.IsSpace(r):
				quoted := strconv.QuoteRune(r)
				buffer.AppendString(quoted[1 : len(quoted)-1])
			default:
				buffer.AppendRune(r)
			}
		}
	}
}

// Truncate returns a new formatter that truncates the underlying
// formatter's output after length bytes.
func Truncate(formatter Formatter, length int) Formatter {
	return func(buffer Buffer, rec *bxlog.Record) {
		tmp := GetBuffer()
		defer ReleaseBuffer(tmp)

		formatter(tmp, rec)
		out := tmp.Bytes()
		if len(out) > length {
			out = out[:length]
		}
		buffer.Append(out)
	}
}

// Literal returns a formatter that always writes s to its buffer.
func Literal(s string) Formatter {
	return func(buffer Buffer, rec *bxlog.Record) {
		buffer.AppendString(s)
	}
}

// Time returns a formatter that writes rec.Time using the formatting
// rules from the time package.
func Time(timeFormat string) Formatter {
	return func(buffer Buffer, rec *bxlog.Record) {
		buffer.AppendString(rec.Time.Format(timeFormat))
	}
}

// TimeUTC is Time, except rec.Time is converted to UTC before formatting.
// Use it with a format string that carries a "Z" (Zulu) suffix, where the
// local offset FileLine otherwise uses would mislabel the rendered value.
func TimeUTC(timeFormat string) Formatter {
	return func(buffer Buffer, rec *bxlog.Record) {
		buffer.AppendString(rec.Time.UTC().Format(timeFormat))
	}
}

// Hostname writes the host's short name, domain excluded. If it can't be
// determined, "unknown" is written instead.
func Hostname(buffer Buffer, rec *bxlog.Record) {
	name, err := os.Hostname()
	if err != nil {
		name = "unknown"
	}
	if idx := strings.Index(name, "."); idx != -1 {
		name = name[:idx]
	}
	buffer.AppendString(name)
}

// FQDN writes the host's fully-qualified domain name. If it can't be
// determined, "unknown" is written instead.
func FQDN(buffer Buffer, rec *bxlog.Record) {
	out, err := exec.Command("/bin/hostname", "-f").Output()
	if err == nil {
		buffer.Append(bytes.TrimSpace(out))
	} else {
		buffer.AppendString("unknown")
	}
}

// Level writes rec.Level.String() to the buffer.
func Level(buffer Buffer, rec *bxlog.Record) {
	buffer.AppendString(rec.Level.String())
}

// Tag writes rec.Level.Tag() (the single-letter console prefix) to the
// buffer.
func Tag(buffer Buffer, rec *bxlog.Record) {
	buffer.AppendByte(rec.Level.Tag())
}

// PidTidRank writes rec's producing process id, kernel thread id, and
// logical thread rank as "pid:tid@rank".
func PidTidRank(buffer Buffer, rec *bxlog.Record) {
	buffer.AppendString(fmt.Sprintf("%d:%d@%d", rec.Pid, rec.Tid, rec.Rank))
}

// Package writes the package name that generated rec, derived from
// rec.Function. If rec.Function is unset, bxlog.UnknownPackage is
// written instead.
func Package(buffer Buffer, rec *bxlog.Record) {
	if rec.Function == "" || rec.Function == bxlog.UnknownFunction {
		buffer.AppendString(bxlog.UnknownPackage)
		return
	}
	buffer.AppendString(packageForFunc(rec.Function))
}

func packageForFunc(fn string) string {
	pkg := fn
	slashidx := strings.LastIndex(pkg, "/")
	if slashidx == -1 {
		slashidx = 0
	}
	dotidx := strings.Index(pkg[slashidx:], ".")
	if dotidx == -1 {
		dotidx = len(pkg)
	}
	return pkg[:slashidx+dotidx]
}

// Function writes the function name that generated rec. If this can't
// be determined, bxlog.UnknownFunction is written instead.
func Function(buffer Buffer, rec *bxlog.Record) {
	if rec.Function == "" {
		buffer.AppendString(bxlog.UnknownFunction)
		return
	}
	buffer.AppendString(rec.Function)
}

// File writes the source file name that generated rec, path included.
// If this can't be determined, bxlog.UnknownFile is written instead.
func File(buffer Buffer, rec *bxlog.Record) {
	if rec.File == "" {
		buffer.AppendString(bxlog.UnknownFile)
		return
	}
	buffer.AppendString(rec.File)
}

// ShortFile writes the source file name that generated rec, path
// omitted. If this can't be determined, bxlog.UnknownFile is written
// instead.
func ShortFile(buffer Buffer, rec *bxlog.Record) {
	if rec.File == "" {
		buffer.AppendString(bxlog.UnknownFile)
		return
	}
	short := rec.File
	idx := strings.LastIndex(short, "/")
	if idx != -1 {
		short = short[idx+1:]
	}
	buffer.AppendString(short)
}

// Line writes the source line number that generated rec. If this can't
// be determined, "0" is written instead.
func Line(buffer Buffer, rec *bxlog.Record) {
	buffer.AppendString(fmt.Sprintf("%d", rec.Line))
}

// Message writes rec.Message to the buffer.
func Message(buffer Buffer, rec *bxlog.Record) {
	buffer.AppendString(rec.Message)
}

// Error writes rec.Err.Error() to the buffer. If rec.Err is nil, nothing
// is written.
func Error(buffer Buffer, rec *bxlog.Record) {
	if rec.Err == nil {
		return
	}
	buffer.AppendString(rec.Err.Error())
}

// ErrorType writes the dereferenced type name of rec.Err. If rec.Err is
// nil, nothing is written.
func ErrorType(buffer Buffer, rec *bxlog.Record) {
	if rec.Err == nil {
		return
	}
	rtype := reflect.TypeOf(rec.Err)
	for rtype.Kind() == reflect.Ptr {
		rtype = rtype.Elem()
	}
	buffer.AppendString(rtype.String())
}

// MessageWithError writes rec.Message, followed by ": " and
// rec.Err.Error(). The latter portion is omitted if rec.Err is nil or
// its text duplicates the message.
func MessageWithError(buffer Buffer, rec *bxlog.Record) {
	buffer.AppendString(rec.Message)
	if rec.Err != nil && rec.Err.Error() != rec.Message {
		buffer.AppendString(": ")
		buffer.AppendString(rec.Err.Error())
	}
}

// SourceWithLine writes ShortFile, followed by ":" and Line. If these
// can't be determined, nothing is written.
func SourceWithLine(buffer Buffer, rec *bxlog.Record) {
	short := RenderString(ShortFile, rec)
	if short == bxlog.UnknownFile {
		return
	}
	buffer.AppendString(short)
	buffer.AppendRune(':')
	buffer.AppendString(RenderString(Line, rec))
}

// LoggerName writes rec.LoggerName to the buffer.
func LoggerName(buffer Buffer, rec *bxlog.Record) {
	buffer.AppendString(rec.LoggerName)
}

// HumanContext writes rec.Fields in key=value format, sorted by key.
// Values free of spaces, quotes, and control characters are written
// unquoted; others are quoted via strconv.Quote.
func HumanContext(buffer Buffer, rec *bxlog.Record) {
	sortedKeys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	for i, k := range sortedKeys {
		writeHumanValue(buffer, k)
		buffer.AppendRune('=')
		writeHumanValue(buffer, rec.Fields[k])
		if i < len(sortedKeys)-1 {
			buffer.AppendRune(' ')
		}
	}
}

func writeHumanValue(buffer Buffer, v interface{}) {
	s := fmt.Sprint(v)
	if len(s) == 0 {
		buffer.AppendString(`""`)
		return
	}

	special := func(r rune) bool {
		switch {
		case r == '"', r == '\'', r == '\\', r == 0:
			return true
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsPunct(r), unicode.IsSymbol(r):
			return false
		default:
			return true
		}
	}
	if strings.IndexFunc(s, special) >= 0 {
		buffer.AppendString(strconv.Quote(s))
		return
	}
	buffer.AppendString(s)
}

// JSONContext marshals rec.Fields into JSON and writes the result.
func JSONContext(buffer Buffer, rec *bxlog.Record) {
	marshaled, _ := json.Marshal(rec.Fields)
	buffer.Append(marshaled)
}

// StructuredContext marshals rec.Fields into structured key=value pairs
// as prescribed by RFC 5424, "The Syslog Protocol".
func StructuredContext(buffer Buffer, rec *bxlog.Record) {
	tmp := GetBuffer()
	defer ReleaseBuffer(tmp)

	sortedKeys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	needSep := false
	for _, name := range sortedKeys {
		if !validStructuredKey(name) {
			continue
		}

		writeStructuredPair(tmp, name, rec.Fields[name])
		if needSep {
			buffer.AppendRune(' ')
		}
		buffer.Append(tmp.Bytes())
		tmp.Reset()
		needSep = true
	}
}

// These restrictions are imposed by RFC 5424.
func validStructuredKey(name string) bool {
	if len(name) > 32 {
		return false
	}
	for _, r := range []rune(name) {
		switch {
		case r <= 32:
			return false
		case r >= 127:
			return false
		case r == '=', r == ']', r == '"':
			return false
		}
	}
	return true
}

func writeStructuredPair(buffer Buffer, name string, value interface{}) {
	buffer.AppendString(name)
	buffer.AppendRune('=')
	buffer.AppendRune('"')
	writeStructuredValue(buffer, value)
	buffer.AppendRune('"')
}

// See Section 6.3.3 of RFC 5424 for details on the character escapes.
func writeStructuredValue(buffer Buffer, v interface{}) {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}

	for _, r := range []rune(s) {
		switch r {
		case '"':
			buffer.AppendRune('\\')
			buffer.AppendRune('"')
		case '\\':
			buffer.AppendRune('\\')
			buffer.AppendRune('\\')
		case ']':
			buffer.AppendRune('\\')
			buffer.AppendRune(']')
		default:
			buffer.AppendRune(r)
		}
	}
}
