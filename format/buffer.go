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
	"sync"
	"unicode/utf8"
)

var pool = newPool()

// Using a buffer pool brought basic benchmark runs down substantially
// versus allocating a fresh buffer per rendered record.
type bufferPool struct {
	pool *sync.Pool
}

func newPool() *bufferPool {
	return &bufferPool{pool: &sync.Pool{
		New: func() interface{} {
			return newBuffer()
		},
	}}
}

func (p *bufferPool) get() Buffer {
	buffer := p.pool.Get().(Buffer)
	buffer.Reset()
	return buffer
}

func (p *bufferPool) put(b Buffer) {
	p.pool.Put(b)
}

// Buffer is a simple growable byte buffer, similar to bytes.Buffer but
// with a smaller API surface exposed as an interface so Formatters never
// need to know the concrete pooled type.
type Buffer interface {
	// Bytes returns the buffered bytes.
	Bytes() []byte

	// Len returns the number of buffered bytes.
	Len() int

	// Reset restores the buffer to a blank/empty state. The underlying
	// byte slice is retained.
	Reset()

	// Append appends value to the buffer.
	Append(value []byte)

	// AppendByte appends the single byte value to the buffer.
	AppendByte(value byte)

	// AppendRune appends the rune value to the buffer, UTF-8 encoded.
	AppendRune(value rune)

	// AppendString appends value to the buffer.
	AppendString(value string)
}

type buffer struct {
	bytes   []byte
	runebuf [utf8.UTFMax]byte
}

// GetBuffer returns an empty buffer from a shared pool. A corresponding
// ReleaseBuffer should be deferred to return it when finished.
func GetBuffer() Buffer {
	return pool.get()
}

// ReleaseBuffer returns buffer to the shared pool. Failing to release
// isn't harmful -- the garbage collector reclaims it -- but pooling
// avoids a fresh allocation per rendered record on the hot path.
func ReleaseBuffer(buffer Buffer) {
	pool.put(buffer)
}

// newBuffer creates a new buffer with a small initial capacity that
// grows automatically as needed.
func newBuffer() Buffer {
	return &buffer{
		bytes: make([]byte, 0, 64),
	}
}

func (b *buffer) Reset() {
	b.bytes = b.bytes[:0]
}

func (b *buffer) Bytes() []byte {
	return b.bytes
}

func (b *buffer) Len() int {
	return len(b.bytes)
}

func (b *buffer) AppendByte(value byte) {
	b.ensureCapacity(1)
	b.bytes = append(b.bytes, value)
}

func (b *buffer) AppendRune(value rune) {
	if value < utf8.RuneSelf {
		b.AppendByte(byte(value))
		return
	}
	size := utf8.EncodeRune(b.runebuf[:], value)
	b.Append(b.runebuf[:size])
}

func (b *buffer) AppendString(value string) {
	origlen := len(b.bytes)
	b.ensureCapacity(len(value))
	b.bytes = b.bytes[:origlen+len(value)]
	copy(b.bytes[origlen:], value)
}

func (b *buffer) Append(value []byte) {
	origlen := len(b.bytes)
	b.ensureCapacity(len(value))
	b.bytes = b.bytes[:origlen+len(value)]
	copy(b.bytes[origlen:], value)
}

func (b *buffer) ensureCapacity(size int) {
	curlen := len(b.bytes)
	curcap := cap(b.bytes)
	if curlen+size > curcap {
		new := make([]byte, curlen, 2*curcap+size)
		copy(new, b.bytes)
		b.bytes = new
	}
}
