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

	"github.com/relaycore/bxlog"
	"github.com/relaycore/bxlog/format"
)

// NetSNMPLogger is the subset of net-snmp's logging entry points a
// NetSNMP handler forwards to. It's implemented by whatever bridge the
// caller has already initialized against the net-snmp C library (via
// cgo or an external agent process); NetSNMP itself is transport-
// agnostic and only knows how to format and hand off a line.
type NetSNMPLogger interface {
	// LogAtPriority writes msg to the net-snmp logging subsystem at the
	// given syslog-style priority (see Facility/priorityFor).
	LogAtPriority(priority int, msg string) error
}

// NetSNMP represents configuration for a handler that forwards records
// to an externally-initialized net-snmp logging subsystem. NetSNMP does
// not initialize or own that subsystem -- Logger must already be wired
// up to it (net-snmp's own log_syslog/log_file/log_callback
// registration happens independently of bxlog) -- the handler is a thin
// adapter that formats and calls through.
type NetSNMP struct {
	// Required
	Logger NetSNMPLogger

	Facility  Facility
	Formatter format.Formatter // Default: format.HumanMessage
}

// New returns a new handler based on the NetSNMP configuration. It
// returns nil if Logger is nil.
func (n NetSNMP) New() bxlog.Handler {
	if n.Logger == nil {
		return nil
	}
	if n.Formatter == nil {
		n.Formatter = format.HumanMessage
	}
	return &netSNMPHandler{NetSNMP: n}
}

type netSNMPHandler struct {
	NetSNMP
}

func (n *netSNMPHandler) Name() string {
	return fmt.Sprintf("netsnmp(facility=%s)", n.Facility)
}

func (n *netSNMPHandler) Open() error { return nil }

func (n *netSNMPHandler) ProcessLog(rec *bxlog.Record) error {
	msg := format.RenderString(n.Formatter, rec)
	return n.Logger.LogAtPriority(priorityFor(n.Facility, rec.Level), msg)
}

func (n *netSNMPHandler) ProcessImplicitFlush() error               { return nil }
func (n *netSNMPHandler) ProcessExplicitFlush() error               { return nil }
func (n *netSNMPHandler) ProcessExit() error                       { return nil }
func (n *netSNMPHandler) ProcessCfg(filters bxlog.FilterSet) error { return nil }
func (n *netSNMPHandler) Close() error                             { return nil }
