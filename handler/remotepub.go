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
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/relaycore/bxlog"
	"github.com/relaycore/bxlog/wire"
)

// RemotePublisher represents configuration for a handler that republishes
// records to one or more remote.Receiver subscribers over the wire
// package's topic-framed protocol. If Bind is true, the handler listens
// on URL and accepts any number of subscriber connections, broadcasting
// every record to each; otherwise it dials out to URL as a single
// subscriber would.
type RemotePublisher struct {
	// Required
	Progname string
	URL      string // e.g. "tcp://0.0.0.0:9090" or "tcp://receiver.example:9090"

	Bind bool

	// If Bind and SubscriberSyncCount > 0, Open waits (bounded to
	// roughly one second) for that many subscribers to connect and
	// acknowledge before returning, so early records aren't silently
	// missed by subscribers that haven't caught up yet.
	SubscriberSyncCount int
}

// New returns a new handler based on the RemotePublisher configuration.
func (r RemotePublisher) New() bxlog.Handler {
	return &remotePublisherHandler{RemotePublisher: r}
}

type remotePublisherHandler struct {
	RemotePublisher

	mu        sync.Mutex
	listener  net.Listener
	conns     []net.Conn
	dialed    net.Conn
	boundAddr string
}

func (r *remotePublisherHandler) Name() string {
	return fmt.Sprintf("remote-publisher(progname=%s, url=%s, bind=%t)", r.Progname, r.URL, r.Bind)
}

func (r *remotePublisherHandler) Open() error {
	network, address, err := parseWireURL(r.URL)
	if err != nil {
		return err
	}

	if !r.Bind {
		r.dialed, err = net.Dial(network, address)
		return err
	}

	r.listener, err = net.Listen(network, address)
	if err != nil {
		return err
	}
	r.boundAddr = r.listener.Addr().String()
	go r.acceptLoop()

	if r.SubscriberSyncCount > 0 {
		r.waitForSubscribers(r.SubscriberSyncCount, time.Second)
	}
	return nil
}

// acceptLoop registers every accepted subscriber connection for
// broadcast. A completed TCP accept is treated as the subscriber's
// acknowledgement for SubscriberSyncCount's purposes -- there's no
// separate handshake frame, since the connection itself is proof the
// subscriber is ready to receive.
func (r *remotePublisherHandler) acceptLoop() {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			return
		}
		r.mu.Lock()
		r.conns = append(r.conns, conn)
		r.mu.Unlock()
	}
}

func (r *remotePublisherHandler) waitForSubscribers(count int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	n := 0
	for time.Now().Before(deadline) {
		r.mu.Lock()
		n = len(r.conns)
		r.mu.Unlock()
		if n >= count {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	bxlog.NewLogger("github.com/relaycore/bxlog/handler").Warningf("remote publisher %s: %d of %d subscribers connected within %s; proceeding", r.URL, n, count, timeout)
}

func (r *remotePublisherHandler) ProcessLog(rec *bxlog.Record) error {
	if !r.Bind {
		return wire.EncodeRecord(r.dialed, rec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	live := r.conns[:0]
	var firstErr error
	for _, conn := range r.conns {
		if err := wire.EncodeRecord(conn, rec); err != nil {
			conn.Close()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		live = append(live, conn)
	}
	r.conns = live
	return firstErr
}

// ProcessImplicitFlush is a no-op for the same reason as Socket's: a
// dead subscriber connection surfaces on the next broadcast write and
// gets pruned there.
func (r *remotePublisherHandler) ProcessImplicitFlush() error { return nil }

// ProcessExplicitFlush probes every live connection with a zero-length
// write, surfacing (and pruning) any that have gone bad.
func (r *remotePublisherHandler) ProcessExplicitFlush() error {
	if !r.Bind {
		if r.dialed == nil {
			return nil
		}
		_, err := r.dialed.Write(nil)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	live := r.conns[:0]
	for _, conn := range r.conns {
		if _, err := conn.Write(nil); err != nil {
			conn.Close()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		live = append(live, conn)
	}
	r.conns = live
	return firstErr
}

func (r *remotePublisherHandler) ProcessExit() error {
	if r.Bind {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, conn := range r.conns {
			wire.EncodeExit(conn, r.Progname)
		}
		return nil
	}
	if r.dialed == nil {
		return nil
	}
	return wire.EncodeExit(r.dialed, r.Progname)
}

// ProcessCfg is a no-op. The handler does not answer URLs? query frames
// from subscribers; BoundAddr reports the bound address in-process.
func (r *remotePublisherHandler) ProcessCfg(filters bxlog.FilterSet) error { return nil }

func (r *remotePublisherHandler) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	if r.listener != nil {
		firstErr = r.listener.Close()
	}
	for _, conn := range r.conns {
		conn.Close()
	}
	r.conns = nil
	if r.dialed != nil {
		if err := r.dialed.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BoundAddr returns the address the handler is actually listening on
// (useful when URL specifies port 0), or "" if not bound.
func (r *remotePublisherHandler) BoundAddr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boundAddr
}

// parseWireURL splits a "tcp://host:port" style URL into net.Dial's
// network and address arguments. A bare "host:port" with no scheme is
// treated as tcp.
func parseWireURL(raw string) (network, address string, err error) {
	if !hasScheme(raw) {
		return "tcp", raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	return u.Scheme, u.Host, nil
}

func hasScheme(raw string) bool {
	return strings.Contains(raw, "://")
}
