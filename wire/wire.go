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

// Package wire implements the framing used between handler.RemotePublisher
// and remote.Receiver. There's no dedicated pub/sub broker in play -- frames
// are multiplexed over a plain net.Conn, each one a topic string followed by
// a length-prefixed body, mirroring the handler package's own reconnecting
// net.Conn sinks (see handler/socket.go) rather than introducing a messaging
// library dependency nothing in the surrounding stack otherwise needs.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/relaycore/bxlog"
)

// ExitTopic marks a producer's clean-exit notification. The frame body is
// the producer's progname.
const ExitTopic = ".ctrl/exit"

// URLsQueryTopic requests the set of URLs a RemotePublisher is bound to. The
// frame body is empty; the reply arrives as a URLsReply frame on the same
// connection.
const URLsQueryTopic = "URLs?"

// URLsReplyTopic carries the reply to a URLsQueryTopic frame.
const URLsReplyTopic = "URLs="

// maxFrameLen bounds a single frame body to guard against a corrupt peer
// claiming an enormous length and exhausting memory on read.
const maxFrameLen = 16 << 20

// TopicForLevel returns the topic string a record at lvl is published
// under, e.g. "level/3/" for bxlog.ERROR.
func TopicForLevel(lvl bxlog.Level) string {
	return fmt.Sprintf("level/%d/", int(lvl))
}

// EncodeRecord writes rec to w as a topic frame followed by the header and
// file/function/logger-name/message frames. The header carries time, pid,
// tid, rank, level, and the four frame lengths in little-endian fixed-width
// fields (whatever the host's byte order) ahead of the string frames
// themselves, which hold the raw bytes with no trailing NUL.
func EncodeRecord(w io.Writer, rec *bxlog.Record) error {
	if err := writeFrame(w, []byte(TopicForLevel(rec.Level))); err != nil {
		return err
	}

	file := []byte(rec.File)
	fn := []byte(rec.Function)
	name := []byte(rec.LoggerName)
	msg := []byte(rec.Message)

	hbuf := make([]byte, 0, 32)
	hbuf = appendInt64(hbuf, rec.Time.UnixNano())
	hbuf = appendInt32(hbuf, int32(rec.Pid))
	hbuf = appendInt32(hbuf, rec.Tid)
	hbuf = appendUint16(hbuf, rec.Rank)
	hbuf = append(hbuf, byte(rec.Level), 0)
	hbuf = appendUint32(hbuf, uint32(len(file)))
	hbuf = appendUint32(hbuf, uint32(len(fn)))
	hbuf = appendUint32(hbuf, uint32(len(name)))
	hbuf = appendUint32(hbuf, uint32(len(msg)))
	if err := writeFrame(w, hbuf); err != nil {
		return err
	}

	for _, frame := range [][]byte{file, fn, name, msg} {
		if err := writeFrame(w, frame); err != nil {
			return err
		}
	}
	return nil
}

// DecodeRecord reads a header and its four string frames from r and
// reassembles a *bxlog.Record. The caller has already consumed the topic
// frame (used to distinguish a record from a control frame) and supplies
// the level it encoded.
func DecodeRecord(r io.Reader, lvl bxlog.Level) (*bxlog.Record, error) {
	hbuf, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	if len(hbuf) < 26 {
		return nil, fmt.Errorf("wire: short record header (%d bytes)", len(hbuf))
	}

	timeNano := int64(binary.LittleEndian.Uint64(hbuf[0:8]))
	pid := int32(binary.LittleEndian.Uint32(hbuf[8:12]))
	tid := int32(binary.LittleEndian.Uint32(hbuf[12:16]))
	rank := binary.LittleEndian.Uint16(hbuf[16:18])
	_ = int8(hbuf[18]) // level redundantly carried in the header; topic is authoritative

	file, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	fn, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	name, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	msg, err := readFrame(r)
	if err != nil {
		return nil, err
	}

	return &bxlog.Record{
		Time:       time.Unix(0, timeNano),
		Level:      lvl,
		LoggerName: string(name),
		Pid:        int(pid),
		Tid:        tid,
		Rank:       rank,
		File:       string(file),
		Function:   string(fn),
		Message:    string(msg),
	}, nil
}

// EncodeExit writes an exit notification for progname to w.
func EncodeExit(w io.Writer, progname string) error {
	if err := writeFrame(w, []byte(ExitTopic)); err != nil {
		return err
	}
	return writeFrame(w, []byte(progname))
}

// EncodeURLsQuery writes a URLs? query frame to w.
func EncodeURLsQuery(w io.Writer) error {
	if err := writeFrame(w, []byte(URLsQueryTopic)); err != nil {
		return err
	}
	return writeFrame(w, nil)
}

// EncodeURLsReply writes the reply to a URLs? query: the bound URLs joined
// with newlines.
func EncodeURLsReply(w io.Writer, urls []string) error {
	if err := writeFrame(w, []byte(URLsReplyTopic)); err != nil {
		return err
	}
	body := ""
	for i, u := range urls {
		if i > 0 {
			body += "\n"
		}
		body += u
	}
	return writeFrame(w, []byte(body))
}

// ReadTopic reads the next topic frame from r. Callers branch on the
// returned string: ExitTopic, URLsQueryTopic, URLsReplyTopic, or a
// "level/<N>/" record topic (use ParseLevelTopic to recover N).
func ReadTopic(r io.Reader) (string, error) {
	frame, err := readFrame(r)
	if err != nil {
		return "", err
	}
	return string(frame), nil
}

// ParseLevelTopic parses the level encoded in a "level/<N>/" topic string.
func ParseLevelTopic(topic string) (bxlog.Level, bool) {
	var n int
	count, err := fmt.Sscanf(topic, "level/%d/", &n)
	if err != nil || count != 1 {
		return 0, false
	}
	lvl := bxlog.Level(n)
	if !lvl.Valid() {
		return 0, false
	}
	return lvl, true
}

// ReadBody reads a single frame, used for the exit progname and URLs?
// reply bodies.
func ReadBody(r io.Reader) (string, error) {
	frame, err := readFrame(r)
	if err != nil {
		return "", err
	}
	return string(frame), nil
}

func writeFrame(w io.Writer, body []byte) error {
	var lenbuf [4]byte
	binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(body)))
	if _, err := w.Write(lenbuf[:]); err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenbuf [4]byte
	if _, err := io.ReadFull(r, lenbuf[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lenbuf[:])
	if length > maxFrameLen {
		return nil, fmt.Errorf("wire: frame length %d exceeds maximum %d", length, maxFrameLen)
	}
	if length == 0 {
		return nil, nil
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// NewReader wraps r with buffering appropriate for frame-at-a-time reads.
func NewReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, 4096)
}

func appendInt64(b []byte, v int64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return append(b, buf[:]...)
}

func appendInt32(b []byte, v int32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	return append(b, buf[:]...)
}

func appendUint16(b []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(b, buf[:]...)
}

func appendUint32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
}
