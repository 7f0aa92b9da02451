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
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/relaycore/bxlog"
	"github.com/relaycore/bxlog/format"
)

// Facility identifies the syslog facility a Syslog handler logs under.
type Facility uint

// The syslog facilities defined by RFC 3164.
const (
	FacilityKern Facility = iota
	FacilityUser
	FacilityMail
	FacilityDaemon
	FacilityAuth
	FacilitySyslog
	FacilityLPR
	FacilityNews
	FacilityUUCP
	FacilityCron
	FacilityAuthPriv
	FacilityFTP
	FacilityNTP
	FacilityAudit
	FacilityAlert
	_
	FacilityLocal0
	FacilityLocal1
	FacilityLocal2
	FacilityLocal3
	FacilityLocal4
	FacilityLocal5
	FacilityLocal6
	FacilityLocal7
)

var facilityNames = map[Facility]string{
	FacilityKern:     "KERN",
	FacilityUser:     "USER",
	FacilityMail:     "MAIL",
	FacilityDaemon:   "DAEMON",
	FacilityAuth:     "AUTH",
	FacilitySyslog:   "SYSLOG",
	FacilityLPR:      "LPR",
	FacilityNews:     "NEWS",
	FacilityUUCP:     "UUCP",
	FacilityCron:     "CRON",
	FacilityAuthPriv: "AUTHPRIV",
	FacilityFTP:      "FTP",
	FacilityNTP:      "NTP",
	FacilityAudit:    "AUDIT",
	FacilityAlert:    "ALERT",
	FacilityLocal0:   "LOCAL0",
	FacilityLocal1:   "LOCAL1",
	FacilityLocal2:   "LOCAL2",
	FacilityLocal3:   "LOCAL3",
	FacilityLocal4:   "LOCAL4",
	FacilityLocal5:   "LOCAL5",
	FacilityLocal6:   "LOCAL6",
	FacilityLocal7:   "LOCAL7",
}

func (f Facility) String() string {
	if name, ok := facilityNames[f]; ok {
		return name
	}
	return "INVALID"
}

const (
	rfc5424Time    = "2006-01-02T15:04:05.000000-07:00"
	rfc5424Version = "1"
	ourID          = "bxlog@relaycore"
	syslogNil      = "-"
)

var (
	rfc5424BOM    = []byte{0xef, 0xbb, 0xbf}
	syslogSockets = []string{"/dev/log", "/var/run/log", "/var/run/syslog"}
)

// Syslog represents configuration for an RFC 3164 (unstructured/BSD)
// syslog handler.
type Syslog struct {
	// Required
	Ident    string
	Facility Facility

	// Optional; defaults to a local unix socket if both are empty.
	Network string
	Address string
	TLS     *tls.Config

	Formatter format.Formatter // Default: format.HumanMessage
}

// New returns a new handler based on the Syslog configuration. It
// returns nil if Ident is empty, or if Network/Address are both empty
// and no local syslog socket can be found.
func (s Syslog) New() bxlog.Handler {
	if s.Ident == "" {
		return nil
	}
	var err error
	if s.Network == "" || s.Address == "" {
		s.Network, s.Address, err = localSyslog()
	}
	if err != nil {
		return nil
	}

	local := s.Network == "unix" || s.Network == "unixgram"
	socket := Socket{
		Network:   s.Network,
		Address:   s.Address,
		TLS:       s.TLS,
		Formatter: syslogFormatter(s.Facility, s.Ident, local, s.Formatter),
	}.New()

	return &syslogHandler{Syslog: s, socket: socket}
}

type syslogHandler struct {
	Syslog
	socket bxlog.Handler
}

func (s *syslogHandler) Name() string {
	return fmt.Sprintf("syslog(ident=%s, facility=%s, network=%s, address=%s)", s.Ident, s.Facility, s.Network, s.Address)
}

func (s *syslogHandler) Open() error                              { return s.socket.Open() }
func (s *syslogHandler) ProcessLog(rec *bxlog.Record) error        { return s.socket.ProcessLog(rec) }
func (s *syslogHandler) ProcessImplicitFlush() error               { return s.socket.ProcessImplicitFlush() }
func (s *syslogHandler) ProcessExplicitFlush() error               { return s.socket.ProcessExplicitFlush() }
func (s *syslogHandler) ProcessExit() error                       { return s.socket.ProcessExit() }
func (s *syslogHandler) ProcessCfg(filters bxlog.FilterSet) error { return s.socket.ProcessCfg(filters) }
func (s *syslogHandler) Close() error                             { return s.socket.Close() }

// StructuredSyslog represents configuration for an RFC 5424 (structured)
// syslog handler. Structured fields are rendered as RFC 5424 structured
// data, escaped per section 6.3.3.
type StructuredSyslog struct {
	// Required
	Ident    string
	Facility Facility

	// Optional; defaults to a local unix socket if both are empty.
	Network string
	Address string
	TLS     *tls.Config

	MessageFormatter    format.Formatter // Default: format.HumanMessage
	StructuredFormatter format.Formatter // Default: format.StructuredContext
	ID                  string           // Default: bxlog@relaycore

	// RFC 5424 requires a byte-order mark before the message text; not
	// every receiving syslog server expects or understands it.
	WriteBOM bool
}

// New returns a new handler based on the StructuredSyslog configuration.
func (s StructuredSyslog) New() bxlog.Handler {
	if s.Ident == "" {
		return nil
	}
	var err error
	if s.Network == "" || s.Address == "" {
		s.Network, s.Address, err = localSyslog()
	}
	if err != nil {
		return nil
	}

	socket := Socket{
		Network:   s.Network,
		Address:   s.Address,
		TLS:       s.TLS,
		Formatter: structuredFormatter(s.Facility, s.Ident, s.MessageFormatter, s.StructuredFormatter, s.ID, s.WriteBOM),
	}.New()

	return &structuredSyslogHandler{StructuredSyslog: s, socket: socket}
}

type structuredSyslogHandler struct {
	StructuredSyslog
	socket bxlog.Handler
}

func (s *structuredSyslogHandler) Name() string {
	return fmt.Sprintf("structured-syslog(ident=%s, facility=%s, network=%s, address=%s)", s.Ident, s.Facility, s.Network, s.Address)
}

func (s *structuredSyslogHandler) Open() error                              { return s.socket.Open() }
func (s *structuredSyslogHandler) ProcessLog(rec *bxlog.Record) error        { return s.socket.ProcessLog(rec) }
func (s *structuredSyslogHandler) ProcessImplicitFlush() error               { return s.socket.ProcessImplicitFlush() }
func (s *structuredSyslogHandler) ProcessExplicitFlush() error               { return s.socket.ProcessExplicitFlush() }
func (s *structuredSyslogHandler) ProcessExit() error                       { return s.socket.ProcessExit() }
func (s *structuredSyslogHandler) ProcessCfg(filters bxlog.FilterSet) error { return s.socket.ProcessCfg(filters) }
func (s *structuredSyslogHandler) Close() error                             { return s.socket.Close() }

func syslogFormatter(facility Facility, ident string, local bool, msgFormatter format.Formatter) format.Formatter {
	if msgFormatter == nil {
		msgFormatter = format.HumanMessage
	}
	formatter := format.Formatf("%v%v %v %v: %v\n", priFormatter(facility), format.Time(time.RFC3339), format.Hostname, procIDFormatter(ident), msgFormatter)
	if local {
		formatter = format.Formatf("%v%v %v: %v\n", priFormatter(facility), format.Time(time.Stamp), procIDFormatter(ident), msgFormatter)
	}
	// RFC 3164 limits the message to 1024 bytes.
	return format.Truncate(formatter, 1024)
}

func structuredFormatter(facility Facility, ident string, msgFormatter, structFormatter format.Formatter, id string, writeBOM bool) format.Formatter {
	msgid := syslogNil
	bomFormatter := format.Literal("")
	if writeBOM {
		bomFormatter = formatBOM
	}
	if id == "" {
		id = ourID
	}
	if msgFormatter == nil {
		msgFormatter = format.HumanMessage
	}
	if structFormatter == nil {
		structFormatter = format.StructuredContext
	}
	return format.Formatf("%v%v %v %v %v %v %v [%v] %v%v\n",
		priFormatter(facility), format.Literal(rfc5424Version), format.Time(rfc5424Time),
		format.FQDN, format.Literal(ident), procIDFormatter(ident), format.Literal(msgid),
		format.Join(" ", format.Literal(id), structFormatter), bomFormatter, msgFormatter)
}

func formatBOM(buf format.Buffer, rec *bxlog.Record) {
	buf.Append(rfc5424BOM)
}

func priFormatter(facility Facility) format.Formatter {
	return func(buf format.Buffer, rec *bxlog.Record) {
		buf.AppendString(fmt.Sprintf("<%d>", priorityFor(facility, rec.Level)))
	}
}

func procIDFormatter(ident string) format.Formatter {
	return format.Literal(fmt.Sprintf("%s[%d]", ident, os.Getpid()))
}

// priorityFor computes the syslog PRI value: 8*facility plus the
// record's severity, taken simply as level+1 rather than remapping
// bxlog's twelve levels onto RFC 3164's eight.
func priorityFor(facility Facility, level bxlog.Level) int {
	return 8*int(facility) + int(level) + 1
}

func localSyslog() (network, address string, err error) {
	for _, network = range []string{"unixgram", "unix"} {
		for _, address = range syslogSockets {
			conn, dialErr := net.Dial(network, address)
			if dialErr == nil {
				conn.Close()
				return network, address, nil
			}
		}
	}
	return "", "", errors.New("handler: failed to find a local syslog socket")
}
