// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binary

import (
	"bytes"

	"github.com/munin/wasmcore/wasm"
)

// NameSection holds the decoded contents of the `name` custom section's
// subsections: a module name, an index->name function map, and a
// func->index->name local map, exposed for downstream disassembly.
type NameSection struct {
	ModuleName    string
	FunctionNames map[uint32]string
	LocalNames    map[uint32]map[uint32]string
}

const (
	nameSubsectionModule   = 0
	nameSubsectionFunction = 1
	nameSubsectionLocal    = 2
)

// ReadNameSection decodes the `name` custom section's module/function/
// local subsections. Only reading is supported: emitting a name section
// back out belongs to the binary writer, which is out of scope here.
func ReadNameSection(cs wasm.CustomSection) (*NameSection, error) {
	sink := &wasm.ErrorSink{}
	c := newCursor(bytes.NewReader(cs.Data), sink)

	ns := &NameSection{}
	for {
		idByte, err := c.readByte()
		if err != nil {
			break
		}
		size, err := c.readU32()
		if err != nil {
			return ns, err
		}
		payload, err := c.readBytes(size)
		if err != nil {
			return ns, err
		}
		sub := &decoder{c: newCursor(bytes.NewReader(payload), sink), sink: sink}

		switch idByte {
		case nameSubsectionModule:
			name, err := sub.c.readString()
			if err == nil {
				ns.ModuleName = name
			}
		case nameSubsectionFunction:
			m, err := sub.readNameMap()
			if err == nil {
				ns.FunctionNames = m
			}
		case nameSubsectionLocal:
			n, err := sub.c.readU32()
			if err != nil {
				break
			}
			ns.LocalNames = make(map[uint32]map[uint32]string, n)
			for i := uint32(0); i < n; i++ {
				fnIdx, err := sub.c.readU32()
				if err != nil {
					break
				}
				m, err := sub.readNameMap()
				if err != nil {
					break
				}
				ns.LocalNames[fnIdx] = m
			}
		}
	}
	return ns, nil
}

func (d *decoder) readNameMap() (map[uint32]string, error) {
	n, err := d.c.readU32()
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]string, n)
	for i := uint32(0); i < n; i++ {
		idx, err := d.c.readU32()
		if err != nil {
			return nil, err
		}
		name, err := d.c.readString()
		if err != nil {
			return nil, err
		}
		out[idx] = name
	}
	return out, nil
}
