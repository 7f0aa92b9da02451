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
	"net"
	"testing"
	"time"

	"github.com/relaycore/bxlog/wire"
)

func TestRemotePublisherBindBroadcasts(t *testing.T) {
	h := RemotePublisher{Progname: "bxlogtest", URL: "tcp://127.0.0.1:0", Bind: true}.New()
	if err := h.Open(); err != nil {
		t.Fatalf("Open: %s", err)
	}
	defer h.Close()

	pub, ok := h.(*remotePublisherHandler)
	if !ok {
		t.Fatal("expected *remotePublisherHandler")
	}
	addr := pub.BoundAddr()
	if addr == "" {
		t.Fatal("expected a non-empty bound address")
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %s", err)
	}
	defer conn.Close()

	// Give acceptLoop a moment to register the connection.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		pub.mu.Lock()
		n := len(pub.conns)
		pub.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := h.ProcessLog(debugRecord()); err != nil {
		t.Fatalf("ProcessLog: %s", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	topic, err := wire.ReadTopic(conn)
	if err != nil {
		t.Fatalf("ReadTopic: %s", err)
	}
	lvl, ok := wire.ParseLevelTopic(topic)
	if !ok {
		t.Fatalf("expected a level topic, got %q", topic)
	}
	rec, err := wire.DecodeRecord(conn, lvl)
	if err != nil {
		t.Fatalf("DecodeRecord: %s", err)
	}
	if rec.Message != "debug event" {
		t.Errorf("expected message %q, got %q", "debug event", rec.Message)
	}
}

func TestRemotePublisherDialSendsExit(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %s", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	h := RemotePublisher{Progname: "bxlogtest", URL: "tcp://" + ln.Addr().String()}.New()
	if err := h.Open(); err != nil {
		t.Fatalf("Open: %s", err)
	}

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the handler to dial")
	}
	defer conn.Close()

	if err := h.ProcessExit(); err != nil {
		t.Fatalf("ProcessExit: %s", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	topic, err := wire.ReadTopic(conn)
	if err != nil {
		t.Fatalf("ReadTopic: %s", err)
	}
	if topic != wire.ExitTopic {
		t.Fatalf("expected exit topic, got %q", topic)
	}
	progname, err := wire.ReadBody(conn)
	if err != nil {
		t.Fatalf("ReadBody: %s", err)
	}
	if progname != "bxlogtest" {
		t.Errorf("expected progname \"bxlogtest\", got %q", progname)
	}

	h.Close()
}

func TestParseWireURL(t *testing.T) {
	network, address, err := parseWireURL("tcp://127.0.0.1:9090")
	if err != nil {
		t.Fatalf("parseWireURL: %s", err)
	}
	if network != "tcp" || address != "127.0.0.1:9090" {
		t.Errorf("got network=%q address=%q", network, address)
	}

	network, address, err = parseWireURL("127.0.0.1:9090")
	if err != nil {
		t.Fatalf("parseWireURL: %s", err)
	}
	if network != "tcp" || address != "127.0.0.1:9090" {
		t.Errorf("expected schemeless input to default to tcp, got network=%q address=%q", network, address)
	}
}
