// Copyright 2018 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package leb128 reads and writes the little-endian base-128
// variable-length integer encoding used throughout the WebAssembly binary
// format: type and function counts, section sizes, local/global indices,
// and constant immediates.
package leb128

import (
	"errors"
	"io"
)

// ErrOverflow is returned when a LEB128 group count exceeds the maximum
// allowed for the target width (5 groups for 32 bits, 10 for 64), i.e.
// the "LEB128 too long" diagnostic.
var ErrOverflow = errors.New("leb128: integer too long")

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadVarUint32 reads an unsigned LEB128 value bounded to 32 bits. At most
// 5 groups are consumed; a 5th group whose used bits would overflow 32
// bits is an error.
func ReadVarUint32(r io.Reader) (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < 5; i++ {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		if i == 4 && b&0x70 != 0 {
			return 0, ErrOverflow
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrOverflow
}

// ReadVarUint64 reads an unsigned LEB128 value bounded to 64 bits, at most
// 10 groups.
func ReadVarUint64(r io.Reader) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < 10; i++ {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		if i == 9 && b&0xfe != 0 {
			return 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrOverflow
}

// ReadVarint32 reads a signed LEB128 value bounded to 32 bits, sign
// extending from the final group.
func ReadVarint32(r io.Reader) (int32, error) {
	v, err := readVarintN(r, 32, 5)
	return int32(v), err
}

// ReadVarint33 reads a signed LEB128 value bounded to 33 bits, the width
// the binary format uses for block-type immediates so they can
// distinguish a type-section index from the small set of inline value
// types encoded as negative numbers.
func ReadVarint33(r io.Reader) (int64, error) {
	return readVarintN(r, 33, 5)
}

// ReadVarint64 reads a signed LEB128 value bounded to 64 bits.
func ReadVarint64(r io.Reader) (int64, error) {
	return readVarintN(r, 64, 10)
}

func readVarintN(r io.Reader, width uint, maxGroups int) (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for i := 0; i < maxGroups; i++ {
		b, err = readByte(r)
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if i == maxGroups-1 {
			return 0, ErrOverflow
		}
	}
	if shift < width && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

func putVarUint(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

// WriteVarUint32 encodes an unsigned 32-bit value.
func WriteVarUint32(w io.Writer, v uint32) (int, error) {
	return w.Write(putVarUint(nil, uint64(v)))
}

// WriteVarUint64 encodes an unsigned 64-bit value.
func WriteVarUint64(w io.Writer, v uint64) (int, error) {
	return w.Write(putVarUint(nil, v))
}

func putVarint(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			buf = append(buf, b)
			return buf
		}
		buf = append(buf, b|0x80)
	}
}

// WriteVarint32 encodes a signed 32-bit value.
func WriteVarint32(w io.Writer, v int32) (int, error) {
	return w.Write(putVarint(nil, int64(v)))
}

// WriteVarint64 encodes a signed 64-bit value.
func WriteVarint64(w io.Writer, v int64) (int, error) {
	return w.Write(putVarint(nil, v))
}
