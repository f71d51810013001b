// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binary

import "github.com/munin/wasmcore/wasm"

const (
	encFunc     = 0x60
	encFuncRef  = 0x70
	encExternRef = 0x6f
	encExnRef   = 0x68

	encI32  = 0x7f
	encI64  = 0x7e
	encF32  = 0x7d
	encF64  = 0x7c
	encV128 = 0x7b
)

func (d *decoder) readValueType() (wasm.ValueType, error) {
	b, err := d.c.readByte()
	if err != nil {
		return wasm.ValueType{}, err
	}
	switch b {
	case encI32:
		return wasm.NumericValueType(wasm.I32), nil
	case encI64:
		return wasm.NumericValueType(wasm.I64), nil
	case encF32:
		return wasm.NumericValueType(wasm.F32), nil
	case encF64:
		return wasm.NumericValueType(wasm.F64), nil
	case encV128:
		return wasm.NumericValueType(wasm.V128), nil
	case encFuncRef:
		return wasm.ReferenceValueType(wasm.ReferenceType{Kind: wasm.RefFunc, Nullable: true, Heap: wasm.HeapType{Kind: wasm.HeapFunc}}), nil
	case encExternRef:
		return wasm.ReferenceValueType(wasm.ReferenceType{Kind: wasm.RefExtern, Nullable: true, Heap: wasm.HeapType{Kind: wasm.HeapExtern}}), nil
	case encExnRef:
		return wasm.ReferenceValueType(wasm.ReferenceType{Kind: wasm.RefExn, Nullable: true, Heap: wasm.HeapType{Kind: wasm.HeapExn}}), nil
	default:
		return wasm.ValueType{}, d.c.fail("invalid value type 0x%02x", b)
	}
}

func (d *decoder) readReferenceType() (wasm.ReferenceType, error) {
	vt, err := d.readValueType()
	if err != nil {
		return wasm.ReferenceType{}, err
	}
	if vt.Kind != wasm.ValueTypeReference {
		return wasm.ReferenceType{}, d.c.fail("expected reference type")
	}
	return vt.Reference, nil
}

func (d *decoder) readFunctionType() (wasm.FunctionType, error) {
	tag, err := d.c.readByte()
	if err != nil {
		return wasm.FunctionType{}, err
	}
	if tag != encFunc {
		return wasm.FunctionType{}, d.c.fail("invalid function type tag 0x%02x", tag)
	}
	params, err := d.readValueTypeVector()
	if err != nil {
		return wasm.FunctionType{}, err
	}
	results, err := d.readValueTypeVector()
	if err != nil {
		return wasm.FunctionType{}, err
	}
	return wasm.FunctionType{Params: params, Results: results}, nil
}

func (d *decoder) readValueTypeVector() ([]wasm.ValueType, error) {
	n, err := d.c.readU32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.ValueType, 0, n)
	for i := uint32(0); i < n; i++ {
		vt, err := d.readValueType()
		if err != nil {
			return nil, err
		}
		out = append(out, vt)
	}
	return out, nil
}

func (d *decoder) readLimits() (wasm.Limits, error) {
	flags, err := d.c.readByte()
	if err != nil {
		return wasm.Limits{}, err
	}
	min, err := d.c.readU32()
	if err != nil {
		return wasm.Limits{}, err
	}
	limits := wasm.Limits{Min: min, Shared: flags&0x02 != 0}
	if flags&0x01 != 0 {
		max, err := d.c.readU32()
		if err != nil {
			return wasm.Limits{}, err
		}
		limits.Max = &max
	}
	if limits.Max != nil && *limits.Max < limits.Min {
		return wasm.Limits{}, d.c.fail("limits maximum is less than minimum")
	}
	if limits.Shared && !d.features.Test(wasm.FeatureThreads) {
		return wasm.Limits{}, d.c.fail("shared memory requires the threads feature")
	}
	return limits, nil
}

func (d *decoder) readTableType() (wasm.TableType, error) {
	elem, err := d.readReferenceType()
	if err != nil {
		return wasm.TableType{}, err
	}
	limits, err := d.readLimits()
	if err != nil {
		return wasm.TableType{}, err
	}
	return wasm.TableType{Limits: limits, Element: elem}, nil
}

func (d *decoder) readMemoryType() (wasm.MemoryType, error) {
	limits, err := d.readLimits()
	if err != nil {
		return wasm.MemoryType{}, err
	}
	return wasm.MemoryType{Limits: limits}, nil
}

func (d *decoder) readGlobalType() (wasm.GlobalType, error) {
	vt, err := d.readValueType()
	if err != nil {
		return wasm.GlobalType{}, err
	}
	mut, err := d.c.readByte()
	if err != nil {
		return wasm.GlobalType{}, err
	}
	if mut > 1 {
		return wasm.GlobalType{}, d.c.fail("invalid mutability flag 0x%02x", mut)
	}
	gt := wasm.GlobalType{Type: vt, Mutable: mut == 1}
	if gt.Mutable && !d.features.Test(wasm.FeatureMutableGlobals) {
		return wasm.GlobalType{}, d.c.fail("mutable globals require the mutable_globals feature")
	}
	return gt, nil
}
