// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/munin/wasmcore/wasm"
)

// ErrInvalidMagic is returned when the input does not start with the
// `\0asm` header; this is a fatal binary-framing failure that halts
// reading entirely, unlike every other diagnostic, which flows through
// the error sink and lets the caller keep going.
var ErrInvalidMagic = errors.New("magic header not detected")

const (
	magic   = 0x6d736100
	version = 0x1
)

// ReadModule decodes a WebAssembly binary module under the given feature
// set. A non-nil error return is always a fatal framing failure (bad
// magic/version); ordinary parse diagnostics are returned via the
// ErrorSink and the caller receives a best-effort Module alongside them.
func ReadModule(r io.Reader, features wasm.Features) (*wasm.Module, *wasm.ErrorSink, error) {
	sink := &wasm.ErrorSink{}
	c := newCursor(r, sink)

	m, err := readU32Raw(c)
	if err != nil {
		return nil, sink, err
	}
	if m != magic {
		return nil, sink, ErrInvalidMagic
	}
	v, err := readU32Raw(c)
	if err != nil {
		return nil, sink, err
	}
	if v != version {
		return nil, sink, fmt.Errorf("unknown binary version %d", v)
	}

	d := &decoder{c: c, sink: sink, features: features}
	mod := &wasm.Module{}
	if err := d.readSections(mod); err != nil {
		return mod, sink, nil
	}
	return mod, sink, nil
}

func readU32Raw(c *cursor) (uint32, error) {
	var buf [4]byte
	if err := c.readFull(buf[:]); err != nil {
		return 0, err
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, nil
}

type sectionID byte

const (
	secCustom    sectionID = 0
	secType      sectionID = 1
	secImport    sectionID = 2
	secFunction  sectionID = 3
	secTable     sectionID = 4
	secMemory    sectionID = 5
	secGlobal    sectionID = 6
	secExport    sectionID = 7
	secStart     sectionID = 8
	secElement   sectionID = 9
	secCode      sectionID = 10
	secData      sectionID = 11
	secDataCount sectionID = 12
	secEvent     sectionID = 13
)

// readSections walks the module body's section stream: `(id:u8,
// size:u32leb, body:byte[size])` entries. Known sections other than
// custom must appear at most once and in increasing order: id order,
// except that the data-count section (id 12) sits between the element and
// code sections. A violation is recorded but reading resumes at the next
// section boundary so one run can surface every problem in the file.
func (d *decoder) readSections(mod *wasm.Module) error {
	lastKnown := 0
	seenDataCount := false
	var dataCount *uint32

	for {
		var idBuf [1]byte
		n, err := io.ReadFull(d.c.r, idBuf[:])
		d.c.offset += n
		if err == io.EOF {
			// No byte at all: the input ends cleanly at a section boundary.
			return nil
		}
		if err != nil {
			return d.c.fail("unexpected end of input: %v", err)
		}
		id := sectionID(idBuf[0])

		size, err := d.c.readU32()
		if err != nil {
			return err
		}
		bodyBytes, err := d.c.readBytes(size)
		if err != nil {
			return err
		}

		if id != secCustom {
			rank := int(id) * 2
			if id == secDataCount {
				rank = int(secCode)*2 - 1
			}
			if rank <= lastKnown {
				d.sink.OnError(wasm.Span{Start: d.c.pos() - int(size)}, "section id %d is out of order", id)
				continue
			}
			lastKnown = rank
		}

		body := &decoder{c: newCursor(bytes.NewReader(bodyBytes), d.sink), sink: d.sink, features: d.features}

		switch id {
		case secCustom:
			cs, err := body.readCustomSection()
			if err == nil {
				mod.Customs = append(mod.Customs, cs)
			}
		case secType:
			d.readTypeSection(body, mod)
		case secImport:
			d.readImportSection(body, mod)
		case secFunction:
			d.readFunctionSection(body, mod)
		case secTable:
			d.readTableSection(body, mod)
		case secMemory:
			d.readMemorySection(body, mod)
		case secGlobal:
			d.readGlobalSection(body, mod)
		case secExport:
			d.readExportSection(body, mod)
		case secStart:
			d.readStartSection(body, mod)
		case secElement:
			d.readElementSection(body, mod)
		case secDataCount:
			n, err := body.c.readU32()
			if err == nil {
				dataCount = &n
				seenDataCount = true
			}
		case secCode:
			d.readCodeSection(body, mod)
		case secData:
			d.readDataSection(body, mod)
		case secEvent:
			d.readEventSection(body, mod)
		default:
			d.sink.OnError(wasm.Span{Start: d.c.pos() - int(size)}, "unknown section id %d", id)
		}

		if seenDataCount && dataCount != nil && int(*dataCount) != len(mod.Data) && id == secData {
			d.sink.OnError(wasm.Span{}, "data count section (%d) does not match data section (%d)", *dataCount, len(mod.Data))
		}
	}
}

func (d *decoder) readCustomSection() (wasm.CustomSection, error) {
	name, err := d.c.readString()
	if err != nil {
		return wasm.CustomSection{}, err
	}
	rest, _ := io.ReadAll(d.c.r)
	return wasm.CustomSection{Name: name, Data: rest}, nil
}

func (d *decoder) readTypeSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		ft, err := body.readFunctionType()
		if err != nil {
			return
		}
		mod.Types = append(mod.Types, wasm.TypeEntry{Type: ft})
	}
}

func (d *decoder) readImportSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		modName, err := body.c.readString()
		if err != nil {
			return
		}
		field, err := body.c.readString()
		if err != nil {
			return
		}
		kind, err := body.c.readByte()
		if err != nil {
			return
		}
		var desc wasm.ImportDescriptor
		switch kind {
		case 0x00:
			idx, err := body.c.readU32()
			if err != nil {
				return
			}
			desc = wasm.FuncImportDescriptor{Type: wasm.IndexVar(idx)}
		case 0x01:
			tt, err := body.readTableType()
			if err != nil {
				return
			}
			desc = wasm.TableImportDescriptor{Type: tt}
		case 0x02:
			mt, err := body.readMemoryType()
			if err != nil {
				return
			}
			desc = wasm.MemoryImportDescriptor{Type: mt}
		case 0x03:
			gt, err := body.readGlobalType()
			if err != nil {
				return
			}
			desc = wasm.GlobalImportDescriptor{Type: gt}
		case 0x04:
			idx, err := body.c.readU32()
			if err != nil {
				return
			}
			desc = wasm.EventImportDescriptor{Type: wasm.IndexVar(idx)}
		default:
			body.sink.OnError(wasm.Span{}, "invalid import kind 0x%02x", kind)
			return
		}
		mod.Imports = append(mod.Imports, wasm.Import{ModuleName: modName, FieldName: field, Descriptor: desc})
	}
}

func (d *decoder) readFunctionSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		idx, err := body.c.readU32()
		if err != nil {
			return
		}
		mod.Functions = append(mod.Functions, wasm.Function{Type: wasm.IndexVar(idx)})
	}
}

func (d *decoder) readTableSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		tt, err := body.readTableType()
		if err != nil {
			return
		}
		mod.Tables = append(mod.Tables, wasm.Table{Type: tt})
	}
}

func (d *decoder) readMemorySection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		mt, err := body.readMemoryType()
		if err != nil {
			return
		}
		mod.Memories = append(mod.Memories, wasm.Memory{Type: mt})
	}
}

func (d *decoder) readGlobalSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		gt, err := body.readGlobalType()
		if err != nil {
			return
		}
		init, err := body.readConstExpr()
		if err != nil {
			return
		}
		mod.Globals = append(mod.Globals, wasm.Global{Type: gt, Init: init})
	}
}

func (d *decoder) readExportSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		name, err := body.c.readString()
		if err != nil {
			return
		}
		kind, err := body.c.readByte()
		if err != nil {
			return
		}
		idx, err := body.c.readU32()
		if err != nil {
			return
		}
		var extKind wasm.External
		switch kind {
		case 0x00:
			extKind = wasm.ExternalFunction
		case 0x01:
			extKind = wasm.ExternalTable
		case 0x02:
			extKind = wasm.ExternalMemory
		case 0x03:
			extKind = wasm.ExternalGlobal
		case 0x04:
			extKind = wasm.ExternalEvent
		default:
			body.sink.OnError(wasm.Span{}, "invalid export kind 0x%02x", kind)
			return
		}
		mod.Exports = append(mod.Exports, wasm.Export{Name: name, Kind: extKind, Var: wasm.IndexVar(idx)})
	}
}

func (d *decoder) readStartSection(body *decoder, mod *wasm.Module) {
	idx, err := body.c.readU32()
	if err != nil {
		return
	}
	if mod.Start != nil {
		body.sink.OnError(wasm.Span{}, "multiple start sections")
		return
	}
	v := wasm.IndexVar(idx)
	mod.Start = &v
}

func (d *decoder) readCodeSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	if int(n) != len(mod.Functions) {
		body.sink.OnError(wasm.Span{}, "code section count (%d) does not match function section count (%d)", n, len(mod.Functions))
	}
	for i := uint32(0); i < n; i++ {
		size, err := body.c.readU32()
		if err != nil {
			return
		}
		bodyBytes, err := body.c.readBytes(size)
		if err != nil {
			return
		}
		fnDecoder := &decoder{c: newCursor(bytes.NewReader(bodyBytes), body.sink), sink: body.sink, features: body.features}
		locals, err := fnDecoder.readLocalDecls()
		if err != nil {
			continue
		}
		instrs, err := fnDecoder.readInstructions()
		if err != nil {
			continue
		}
		if int(i) < len(mod.Functions) {
			mod.Functions[i].Locals = locals
			mod.Functions[i].Body = instrs
		}
	}
}

func (d *decoder) readLocalDecls() ([]wasm.Local, error) {
	n, err := d.c.readU32()
	if err != nil {
		return nil, err
	}
	var out []wasm.Local
	for i := uint32(0); i < n; i++ {
		count, err := d.c.readU32()
		if err != nil {
			return nil, err
		}
		vt, err := d.readValueType()
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < count; j++ {
			out = append(out, wasm.Local{Type: vt})
		}
	}
	return out, nil
}

func (d *decoder) readDataSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		flags, err := body.c.readU32()
		if err != nil {
			return
		}
		data := wasm.Data{}
		switch flags {
		case 0:
			data.Mode = wasm.DataActive
			data.Memory = wasm.IndexVar(0)
			data.Offset, err = body.readConstExpr()
			if err != nil {
				return
			}
		case 1:
			data.Mode = wasm.DataPassive
		case 2:
			data.Mode = wasm.DataActive
			idx, err2 := body.c.readU32()
			if err2 != nil {
				return
			}
			data.Memory = wasm.IndexVar(idx)
			data.Offset, err = body.readConstExpr()
			if err != nil {
				return
			}
		default:
			body.sink.OnError(wasm.Span{}, "invalid data segment flags %d", flags)
			return
		}
		n2, err := body.c.readU32()
		if err != nil {
			return
		}
		data.Bytes, err = body.c.readBytes(n2)
		if err != nil {
			return
		}
		mod.Data = append(mod.Data, data)
	}
}

func (d *decoder) readEventSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		attr, err := body.c.readByte()
		if err != nil {
			return
		}
		if attr != 0 {
			body.sink.OnError(wasm.Span{}, "invalid event attribute %d", attr)
		}
		idx, err := body.c.readU32()
		if err != nil {
			return
		}
		mod.Events = append(mod.Events, wasm.Event{Type: wasm.IndexVar(idx)})
	}
}
