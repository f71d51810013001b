// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package binary decodes the WebAssembly binary (.wasm) format into the
// shared wasm.Module AST. It never validates instruction type stacks and
// never emits bytes back out; both are external collaborators.
package binary

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/munin/wasmcore/wasm"
	"github.com/munin/wasmcore/wasm/leb128"
)

// cursor wraps a byte reader and tracks the current offset so every
// diagnostic can be attributed to the byte position of the failing read,
// the way the binary format's own section framing demands.
type cursor struct {
	r      io.Reader
	offset int
	sink   *wasm.ErrorSink
}

func newCursor(r io.Reader, sink *wasm.ErrorSink) *cursor {
	return &cursor{r: r, sink: sink}
}

func (c *cursor) pos() int { return c.offset }

func (c *cursor) fail(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	c.sink.OnError(wasm.Span{Start: c.offset, End: c.offset}, "%s", err.Error())
	return err
}

func (c *cursor) readFull(buf []byte) error {
	n, err := io.ReadFull(c.r, buf)
	c.offset += n
	if err != nil {
		return c.fail("unexpected end of input: %v", err)
	}
	return nil
}

func (c *cursor) readByte() (byte, error) {
	var buf [1]byte
	if err := c.readFull(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// countingReader lets the leb128 helpers, which only know about io.Reader,
// still advance the cursor's offset byte-for-byte.
type countingReader struct{ c *cursor }

func (r countingReader) Read(p []byte) (int, error) {
	n, err := r.c.r.Read(p)
	r.c.offset += n
	return n, err
}

func (c *cursor) readU32() (uint32, error) {
	start := c.offset
	v, err := leb128.ReadVarUint32(countingReader{c})
	if err != nil {
		return 0, c.failAt(start, "reading u32 leb128: %v", err)
	}
	return v, nil
}

func (c *cursor) readU64() (uint64, error) {
	start := c.offset
	v, err := leb128.ReadVarUint64(countingReader{c})
	if err != nil {
		return 0, c.failAt(start, "reading u64 leb128: %v", err)
	}
	return v, nil
}

func (c *cursor) readS32() (int32, error) {
	start := c.offset
	v, err := leb128.ReadVarint32(countingReader{c})
	if err != nil {
		return 0, c.failAt(start, "reading s32 leb128: %v", err)
	}
	return v, nil
}

func (c *cursor) readS33() (int64, error) {
	start := c.offset
	v, err := leb128.ReadVarint33(countingReader{c})
	if err != nil {
		return 0, c.failAt(start, "reading s33 leb128: %v", err)
	}
	return v, nil
}

func (c *cursor) readS64() (int64, error) {
	start := c.offset
	v, err := leb128.ReadVarint64(countingReader{c})
	if err != nil {
		return 0, c.failAt(start, "reading s64 leb128: %v", err)
	}
	return v, nil
}

func (c *cursor) failAt(start int, format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	c.sink.OnError(wasm.Span{Start: start, End: c.offset}, "%s", err.Error())
	return err
}

func (c *cursor) readF32() (float32, error) {
	var buf [4]byte
	if err := c.readFull(buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[:])), nil
}

func (c *cursor) readF64() (float64, error) {
	var buf [8]byte
	if err := c.readFull(buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func (c *cursor) readV128() ([16]byte, error) {
	var buf [16]byte
	err := c.readFull(buf[:])
	return buf, err
}

// readString reads a length-prefixed byte string viewed as a raw span. No
// UTF-8 validation is done, here or by the import/export section readers
// that call it for module and field names.
func (c *cursor) readString() (string, error) {
	n, err := c.readU32()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := c.readFull(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (c *cursor) readBytes(n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if err := c.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readReserved reads a single LEB u32 immediate that must be 0 unless the
// caller's active feature set relaxes the rule (multi-memory,
// reference-types repurpose this byte for a table/memory index).
func (c *cursor) readReserved(relaxed bool) (uint32, error) {
	v, err := c.readU32()
	if err != nil {
		return 0, err
	}
	if v != 0 && !relaxed {
		return 0, c.fail("zero byte expected")
	}
	return v, nil
}
