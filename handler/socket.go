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
	"fmt"
	"net"
	"sync"

	"github.com/relaycore/bxlog"
	"github.com/relaycore/bxlog/format"
)

// Socket represents configuration for a socket-based handler. The
// connection is opened lazily on the first record and reopened on any
// write error, via net.Dial or, if TLS is set, tls.Dial.
type Socket struct {
	// Required
	Network string
	Address string

	// Optional
	TLS       *tls.Config
	Formatter format.Formatter // Default: format.HumanMessage
}

// New returns a new handler based on the Socket configuration.
func (s Socket) New() bxlog.Handler {
	if s.Formatter == nil {
		s.Formatter = format.HumanMessage
	}
	return &socketHandler{Socket: s}
}

type socketHandler struct {
	Socket
	mu        sync.Mutex
	conn      net.Conn
	connected bool
}

func (s *socketHandler) Name() string {
	return fmt.Sprintf("socket(network=%s, address=%s, tls=%t)", s.Network, s.Address, s.TLS != nil)
}

func (s *socketHandler) Open() error { return nil }

func (s *socketHandler) ProcessLog(rec *bxlog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		if err := s.reopen(); err != nil {
			return err
		}
	}

	buf := format.GetBuffer()
	defer format.ReleaseBuffer(buf)
	s.Formatter(buf, rec)

	line := buf.Bytes()
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}

	_, err := s.conn.Write(line)
	if err != nil {
		s.conn.Close()
		s.conn = nil
		s.connected = false
	}
	return err
}

// ProcessImplicitFlush is a no-op: a best-effort probe write on every
// poll tick would just reconnect a healthy-but-idle socket needlessly,
// and a truly dead connection surfaces on the next ProcessLog anyway.
func (s *socketHandler) ProcessImplicitFlush() error { return nil }

// ProcessExplicitFlush performs a zero-length probe write, surfacing a
// dead connection to the caller of an explicit Flush.
func (s *socketHandler) ProcessExplicitFlush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	_, err := s.conn.Write(nil)
	return err
}

func (s *socketHandler) ProcessExit() error { return nil }

func (s *socketHandler) ProcessCfg(filters bxlog.FilterSet) error { return nil }

func (s *socketHandler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *socketHandler) reopen() error {
	var err error
	if s.TLS != nil {
		s.conn, err = tls.Dial(s.Network, s.Address, s.TLS)
	} else {
		s.conn, err = net.Dial(s.Network, s.Address)
	}
	s.connected = err == nil
	return err
}
