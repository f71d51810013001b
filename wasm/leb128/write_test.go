// Copyright 2018 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leb128

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
)

var casesUint = []struct {
	v uint32
	b []byte
}{
	{0, []byte{0x00}},
	{1, []byte{0x01}},
	{127, []byte{0x7f}},
	{128, []byte{0x80, 0x01}},
	{300, []byte{0xac, 0x02}},
	{624485, []byte{0xe5, 0x8e, 0x26}},
	{0xffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
}

var casesInt = []struct {
	v int64
	b []byte
}{
	{0, []byte{0x00}},
	{1, []byte{0x01}},
	{-1, []byte{0x7f}},
	{63, []byte{0x3f}},
	{64, []byte{0xc0, 0x00}},
	{-64, []byte{0x40}},
	{-129, []byte{0xff, 0x7e}},
	{624485, []byte{0xe5, 0x8e, 0x26}},
}

func TestWriteVarUint32(t *testing.T) {
	for _, c := range casesUint {
		t.Run(fmt.Sprint(c.v), func(t *testing.T) {
			buf := new(bytes.Buffer)
			if _, err := WriteVarUint32(buf, c.v); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(buf.Bytes(), c.b) {
				t.Fatalf("unexpected output: %x", buf.Bytes())
			}
			v, err := ReadVarUint32(bytes.NewReader(c.b))
			if err != nil {
				t.Fatal(err)
			}
			if v != c.v {
				t.Fatalf("unexpected round trip: %v", v)
			}
		})
	}
}

func TestWriteVarint64(t *testing.T) {
	for _, c := range casesInt {
		t.Run(fmt.Sprint(c.v), func(t *testing.T) {
			buf := new(bytes.Buffer)
			if _, err := WriteVarint64(buf, c.v); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(buf.Bytes(), c.b) {
				t.Fatalf("unexpected output: %x", buf.Bytes())
			}
			v, err := ReadVarint64(bytes.NewReader(c.b))
			if err != nil {
				t.Fatal(err)
			}
			if v != c.v {
				t.Fatalf("unexpected round trip: %v", v)
			}
		})
	}
}

func TestWriteReadInt64(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	var buf bytes.Buffer
	for i := 0; i < 10000; i++ {
		n := r.Int63()

		buf.Reset()
		if _, err := WriteVarint64(&buf, n); err != nil {
			t.Fatalf("WriteVarint64: %v", err)
		}

		v, err := ReadVarint64(&buf)
		if err != nil {
			t.Fatalf("ReadVarint64: %v", err)
		}

		if v != n {
			t.Fatalf("wrote %v; read %v", n, v)
		}
	}
}

func TestWriteReadInt32(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	var buf bytes.Buffer
	for i := 0; i < 10000; i++ {
		n := r.Int31()

		buf.Reset()
		if _, err := WriteVarint32(&buf, n); err != nil {
			t.Fatalf("WriteVarint32: %v", err)
		}

		v, err := ReadVarint32(&buf)
		if err != nil {
			t.Fatalf("ReadVarint32: %v", err)
		}

		if v != n {
			t.Fatalf("wrote %v; read %v", n, v)
		}
	}
}

func TestWriteReadUint32(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	var buf bytes.Buffer
	for i := 0; i < 10000; i++ {
		n := r.Uint32()

		buf.Reset()
		if _, err := WriteVarUint32(&buf, n); err != nil {
			t.Fatalf("WriteVarUint32: %v", err)
		}

		v, err := ReadVarUint32(&buf)
		if err != nil {
			t.Fatalf("ReadVarUint32: %v", err)
		}

		if v != n {
			t.Fatalf("wrote %v; read %v", n, v)
		}
	}
}

func TestReadVarUint32Overflow(t *testing.T) {
	buf := bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00})
	if _, err := ReadVarUint32(buf); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}
