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
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/relaycore/bxlog"
	"github.com/relaycore/bxlog/format"
)

// consoleHumanReadable is format.HumanReadable with the level rendered
// as a bracketed single-letter tag (e.g. "[I]") instead of the full
// level name, per the Console handler's line layout.
var consoleHumanReadable = format.Join(" ",
	format.Time(time.Stamp),
	format.Formatf("[%v]", format.Tag),
	format.SourceWithLine,
	format.HumanMessage,
)

// ColorTheme selects the console handler's color palette. ThemeNone
// disables color entirely; the rest differ in the assumed terminal
// background and color depth.
type ColorTheme string

// The named color themes a Console may be configured with.
const (
	Theme216Dark            ColorTheme = "216-dark"
	ThemeTrueColorDark      ColorTheme = "truecolor-dark"
	ThemeTrueColorDarkGray  ColorTheme = "truecolor-darkgray"
	ThemeTrueColorLight     ColorTheme = "truecolor-light"
	ThemeTrueColorLightGray ColorTheme = "truecolor-lightgray"
	ThemeNone               ColorTheme = "none"
)

// Console represents configuration for stdout/stderr handlers. Records
// at StderrLevel or more severe are written to stderr, all others to
// stdout; with the zero StderrLevel (bxlog.PANIC) only PANIC records go
// to stderr.
type Console struct {
	// StderrLevel routes records at this level or more severe (numerically
	// lower) to stderr. The zero value, bxlog.PANIC, means only PANIC
	// records go to stderr; bxlog.LOWEST sends every record to stderr.
	StderrLevel bxlog.Level

	// Theme selects the color palette. If empty, the handler probes
	// os.Stdout with go-isatty and picks ThemeTrueColorDark for a
	// terminal, ThemeNone otherwise.
	Theme ColorTheme
}

// New returns a new handler based on the Console configuration.
func (c Console) New() bxlog.Handler {
	theme := c.Theme
	if theme == "" {
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			theme = ThemeTrueColorDark
		} else {
			theme = ThemeNone
		}
	}
	return &consoleHandler{
		Console: Console{StderrLevel: c.StderrLevel, Theme: theme},
		stdout:  colorable.NewColorable(os.Stdout),
		stderr:  colorable.NewColorable(os.Stderr),
	}
}

type consoleHandler struct {
	Console
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

func (c *consoleHandler) Name() string {
	return fmt.Sprintf("console(theme=%s)", c.Theme)
}

func (c *consoleHandler) Open() error { return nil }

func (c *consoleHandler) ProcessLog(rec *bxlog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.stdout
	if rec.Level <= c.StderrLevel {
		out = c.stderr
	}

	buf := format.GetBuffer()
	defer format.ReleaseBuffer(buf)
	c.formatterFor(rec.Level)(buf, rec)

	line := buf.Bytes()
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}
	_, err := out.Write(line)
	return err
}

// formatterFor returns consoleHumanReadable (optionally colorized per
// theme), except at OUTPUT level, which is printed as a bare message
// with no tag/timestamp/source prefix -- OUTPUT is meant for
// user-directed program output, not diagnostic logging.
func (c *consoleHandler) formatterFor(lvl bxlog.Level) format.Formatter {
	if lvl == bxlog.OUTPUT {
		return format.Message
	}
	if c.Theme == ThemeNone {
		return consoleHumanReadable
	}
	return themedFormatter(c.Theme)
}

func (c *consoleHandler) ProcessImplicitFlush() error              { return nil }
func (c *consoleHandler) ProcessExplicitFlush() error              { return nil }
func (c *consoleHandler) ProcessExit() error                       { return nil }
func (c *consoleHandler) ProcessCfg(filters bxlog.FilterSet) error { return nil }
func (c *consoleHandler) Close() error                             { return nil }

// themedFormatter wraps consoleHumanReadable in an escape sequence drawn
// from the given theme's palette, chosen by record level.
func themedFormatter(theme ColorTheme) format.Formatter {
	return func(buffer format.Buffer, rec *bxlog.Record) {
		buffer.AppendString(escapeFor(theme, rec.Level))
		consoleHumanReadable(buffer, rec)
		buffer.AppendString("\x1b[0m")
	}
}

// escapeFor returns the ANSI escape sequence selecting the theme's
// foreground color for lvl. The 216-dark theme uses the xterm 256-color
// palette (codes 16-231); the truecolor themes use 24-bit escapes tuned
// for the theme's assumed background.
func escapeFor(theme ColorTheme, lvl bxlog.Level) string {
	switch theme {
	case Theme216Dark:
		return fmt.Sprintf("\x1b[38;5;%dm", xterm216For(lvl))
	case ThemeTrueColorDark, ThemeTrueColorDarkGray:
		r, g, b := trueColorFor(lvl, true)
		return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
	case ThemeTrueColorLight, ThemeTrueColorLightGray:
		r, g, b := trueColorFor(lvl, false)
		return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
	default:
		return ""
	}
}

// xterm216For maps a level to one of the xterm 256-color cube's 216
// non-grayscale entries, biased toward warmer colors for more severe
// levels -- vivid red at PANIC down through a muted blue-gray at LOWEST.
func xterm216For(lvl bxlog.Level) int {
	switch {
	case lvl <= bxlog.ERROR:
		return 196 // bright red
	case lvl == bxlog.WARNING:
		return 220 // gold
	case lvl <= bxlog.OUTPUT:
		return 231 // white
	case lvl <= bxlog.INFO:
		return 34 // green
	default:
		return 67 // slate blue
	}
}

// trueColorFor returns an RGB triple for lvl, tuned for a dark or light
// terminal background.
func trueColorFor(lvl bxlog.Level, dark bool) (r, g, b int) {
	switch {
	case lvl <= bxlog.ERROR:
		return 220, 50, 47 // red
	case lvl == bxlog.WARNING:
		return 181, 137, 0 // gold
	case lvl <= bxlog.OUTPUT:
		if dark {
			return 238, 232, 213
		}
		return 7, 54, 66
	case lvl <= bxlog.INFO:
		return 133, 153, 0 // green
	default:
		return 38, 139, 210 // blue
	}
}
