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

// Package remote implements the subscriber side of the wire-framed
// publish protocol: it dials or listens for handler.RemotePublisher
// connections, decodes the records and control frames they send, and
// re-injects the records into the local logging core via bxlog.Inject.
package remote

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/relaycore/bxlog"
	"github.com/relaycore/bxlog/bxerr"
	"github.com/relaycore/bxlog/wire"
)

// recvLogger reports subscriber-connection lifecycle events (accept,
// decode failure, clean exit). It's a plain bxlog.Logger like any
// caller's, subject to the same registry and Filter Set.
var recvLogger = bxlog.NewLogger("github.com/relaycore/bxlog/remote")

// Receiver subscribes to one or more handler.RemotePublisher endpoints
// and forwards every record it decodes to bxlog.Inject. The zero value
// is ready to use.
type Receiver struct {
	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool
}

// Recv connects to every URL in urls (dialing, or listening and
// accepting if bind is true) and blocks, forwarding decoded records to
// bxlog.Inject, until Stop is called or -- in the dial case, where the
// set of producer connections is fixed up front -- every one of them
// has reported a clean exit (a `.ctrl/exit` frame) or dropped its
// connection. The returned error is the first dial/listen error
// encountered while establishing urls; errors from an individual
// connection thereafter are not propagated, since one bad producer
// shouldn't take the whole receiver down.
func (r *Receiver) Recv(urls []string, bind bool) error {
	r.mu.Lock()
	if r.stopCh != nil {
		r.mu.Unlock()
		return bxerr.New(bxerr.IllegalState, "remote: Recv already running on this Receiver")
	}
	r.stopCh = make(chan struct{})
	r.stopped = false
	stopCh := r.stopCh
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.stopCh = nil
		r.mu.Unlock()
	}()

	var listeners []net.Listener
	var dialed []net.Conn
	closeAll := func() {
		for _, ln := range listeners {
			ln.Close()
		}
		for _, conn := range dialed {
			conn.Close()
		}
	}

	for _, raw := range urls {
		network, address, err := parseWireURL(raw)
		if err != nil {
			closeAll()
			return bxerr.Wrapf(bxerr.Protocol, err, "remote: parsing URL %q", raw)
		}
		if bind {
			ln, err := net.Listen(network, address)
			if err != nil {
				closeAll()
				return bxerr.Wrapf(bxerr.IO, err, "remote: listening on %s://%s", network, address)
			}
			listeners = append(listeners, ln)
			continue
		}
		conn, err := net.Dial(network, address)
		if err != nil {
			closeAll()
			return bxerr.Wrapf(bxerr.IO, err, "remote: dialing %s://%s", network, address)
		}
		dialed = append(dialed, conn)
	}

	var wg sync.WaitGroup
	for _, conn := range dialed {
		wg.Add(1)
		go func(conn net.Conn) {
			defer wg.Done()
			r.handleConn(conn)
		}(conn)
	}
	for _, ln := range listeners {
		wg.Add(1)
		go func(ln net.Listener) {
			defer wg.Done()
			var connWG sync.WaitGroup
			for {
				conn, err := ln.Accept()
				if err != nil {
					break
				}
				connWG.Add(1)
				go func(conn net.Conn) {
					defer connWG.Done()
					r.handleConn(conn)
				}(conn)
			}
			connWG.Wait()
		}(ln)
	}

	go func() {
		<-stopCh
		closeAll()
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	<-done
	return nil
}

// handleConn reads frames from conn until it sees an exit notification,
// an unrecoverable decode error, or the connection closes, injecting
// every decoded record along the way.
func (r *Receiver) handleConn(conn net.Conn) {
	defer conn.Close()
	reader := wire.NewReader(conn)

	connID := uuid.New().String()
	connLog := recvLogger.With(bxlog.Fields{"conn_id": connID, "remote_addr": conn.RemoteAddr().String()})
	connLog.Info("accepted subscriber connection")

	for {
		topic, err := wire.ReadTopic(reader)
		if err != nil {
			connLog.Debug("connection closed while reading a topic")
			return
		}

		switch {
		case topic == wire.ExitTopic:
			wire.ReadBody(reader)
			connLog.Info("producer reported a clean exit")
			return
		case topic == wire.URLsQueryTopic:
			wire.ReadBody(reader)
			continue
		case topic == wire.URLsReplyTopic:
			wire.ReadBody(reader)
			continue
		default:
			lvl, ok := wire.ParseLevelTopic(topic)
			if !ok {
				connLog.Warning("unrecognized topic on the wire; closing connection")
				return
			}
			rec, err := wire.DecodeRecord(reader, lvl)
			if err != nil {
				connLog.Error(err, "failed decoding a record frame; closing connection")
				return
			}
			bxlog.Inject(rec)
		}
	}
}

// Stop unblocks a running Recv call. It's safe to call at most once per
// Recv invocation; a Receiver may be reused for a subsequent Recv call
// after the prior one returns.
func (r *Receiver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || r.stopCh == nil {
		return
	}
	r.stopped = true
	close(r.stopCh)
}

// StartAsync launches Recv in a goroutine and returns a closer that
// calls Stop. Errors from Recv are delivered on the returned channel,
// which is closed after Recv returns (a nil value on the channel means
// Recv returned because of Stop or because every producer exited
// cleanly).
func (r *Receiver) StartAsync(urls []string, bind bool) (stop func(), errCh <-chan error) {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		if err := r.Recv(urls, bind); err != nil {
			ch <- err
		}
	}()
	return r.Stop, ch
}

// parseWireURL splits a "tcp://host:port" style URL into net.Dial's
// network and address arguments, the same way handler.RemotePublisher
// does on the publishing side. A bare "host:port" with no scheme is
// treated as tcp.
func parseWireURL(raw string) (network, address string, err error) {
	if !strings.Contains(raw, "://") {
		return "tcp", raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("remote: URL %q has no host", raw)
	}
	return u.Scheme, u.Host, nil
}
