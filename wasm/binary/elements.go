// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binary

import "github.com/munin/wasmcore/wasm"

// readElemKind reads the single byte that, pre-reference-types, could only
// ever mean funcref; reference-types keeps the byte around for backward
// compatibility but still requires it to be 0x00.
func (d *decoder) readElemKind() (wasm.ReferenceType, error) {
	b, err := d.c.readByte()
	if err != nil {
		return wasm.ReferenceType{}, err
	}
	if b != 0x00 {
		return wasm.ReferenceType{}, d.c.fail("invalid elemkind 0x%02x", b)
	}
	return wasm.ReferenceType{Kind: wasm.RefFunc, Nullable: true, Heap: wasm.HeapType{Kind: wasm.HeapFunc}}, nil
}

func (d *decoder) readFuncVector() ([]wasm.Var, error) {
	n, err := d.c.readU32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.Var, n)
	for i := range out {
		idx, err := d.c.readU32()
		if err != nil {
			return nil, err
		}
		out[i] = wasm.IndexVar(idx)
	}
	return out, nil
}

func (d *decoder) readExprVector() ([][]wasm.Instruction, error) {
	n, err := d.c.readU32()
	if err != nil {
		return nil, err
	}
	out := make([][]wasm.Instruction, n)
	for i := range out {
		expr, err := d.readConstExpr()
		if err != nil {
			return nil, err
		}
		out[i] = expr
	}
	return out, nil
}

// readElementSection normalizes the binary format's eight flag-word
// encodings, spanning {active/passive/declared} x {funcref-only/typed} x
// {index-list/expression-list}, into the one wasm.Element shape.
func (d *decoder) readElementSection(body *decoder, mod *wasm.Module) {
	n, err := body.c.readU32()
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		el, err := body.readElement()
		if err != nil {
			return
		}
		mod.Elements = append(mod.Elements, el)
	}
}

func (d *decoder) readElement() (wasm.Element, error) {
	flags, err := d.c.readU32()
	if err != nil {
		return wasm.Element{}, err
	}

	funcrefType := wasm.ReferenceType{Kind: wasm.RefFunc, Nullable: true, Heap: wasm.HeapType{Kind: wasm.HeapFunc}}

	switch flags {
	case 0: // active, table 0, offset expr, vec(funcidx)
		offset, err := d.readConstExpr()
		if err != nil {
			return wasm.Element{}, err
		}
		funcs, err := d.readFuncVector()
		if err != nil {
			return wasm.Element{}, err
		}
		return wasm.Element{Mode: wasm.ElementActive, Table: wasm.IndexVar(0), Offset: offset, Type: funcrefType, Funcs: funcs}, nil

	case 1: // passive, elemkind, vec(funcidx)
		rt, err := d.readElemKind()
		if err != nil {
			return wasm.Element{}, err
		}
		funcs, err := d.readFuncVector()
		if err != nil {
			return wasm.Element{}, err
		}
		return wasm.Element{Mode: wasm.ElementPassive, Type: rt, Funcs: funcs}, nil

	case 2: // active, explicit table, elemkind, offset expr, vec(funcidx)
		table, err := d.c.readU32()
		if err != nil {
			return wasm.Element{}, err
		}
		offset, err := d.readConstExpr()
		if err != nil {
			return wasm.Element{}, err
		}
		rt, err := d.readElemKind()
		if err != nil {
			return wasm.Element{}, err
		}
		funcs, err := d.readFuncVector()
		if err != nil {
			return wasm.Element{}, err
		}
		return wasm.Element{Mode: wasm.ElementActive, Table: wasm.IndexVar(table), Offset: offset, Type: rt, Funcs: funcs}, nil

	case 3: // declared, elemkind, vec(funcidx)
		rt, err := d.readElemKind()
		if err != nil {
			return wasm.Element{}, err
		}
		funcs, err := d.readFuncVector()
		if err != nil {
			return wasm.Element{}, err
		}
		return wasm.Element{Mode: wasm.ElementDeclared, Type: rt, Funcs: funcs}, nil

	case 4: // active, table 0, offset expr, vec(expr), implicit funcref
		offset, err := d.readConstExpr()
		if err != nil {
			return wasm.Element{}, err
		}
		exprs, err := d.readExprVector()
		if err != nil {
			return wasm.Element{}, err
		}
		return wasm.Element{Mode: wasm.ElementActive, Table: wasm.IndexVar(0), Offset: offset, Type: funcrefType, Exprs: exprs}, nil

	case 5: // passive, reftype, vec(expr)
		rt, err := d.readReferenceType()
		if err != nil {
			return wasm.Element{}, err
		}
		exprs, err := d.readExprVector()
		if err != nil {
			return wasm.Element{}, err
		}
		return wasm.Element{Mode: wasm.ElementPassive, Type: rt, Exprs: exprs}, nil

	case 6: // active, explicit table, reftype, offset expr, vec(expr)
		table, err := d.c.readU32()
		if err != nil {
			return wasm.Element{}, err
		}
		offset, err := d.readConstExpr()
		if err != nil {
			return wasm.Element{}, err
		}
		rt, err := d.readReferenceType()
		if err != nil {
			return wasm.Element{}, err
		}
		exprs, err := d.readExprVector()
		if err != nil {
			return wasm.Element{}, err
		}
		return wasm.Element{Mode: wasm.ElementActive, Table: wasm.IndexVar(table), Offset: offset, Type: rt, Exprs: exprs}, nil

	case 7: // declared, reftype, vec(expr)
		rt, err := d.readReferenceType()
		if err != nil {
			return wasm.Element{}, err
		}
		exprs, err := d.readExprVector()
		if err != nil {
			return wasm.Element{}, err
		}
		return wasm.Element{Mode: wasm.ElementDeclared, Type: rt, Exprs: exprs}, nil

	default:
		return wasm.Element{}, d.c.fail("invalid element segment flags %d", flags)
	}
}
