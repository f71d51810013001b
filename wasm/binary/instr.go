// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binary

import "github.com/munin/wasmcore/wasm"

// decoder carries the state threaded through a single module's worth of
// binary reading: the cursor, the error sink, and the active feature set
// both the opcode and type decoders consult before accepting a construct.
type decoder struct {
	c        *cursor
	sink     *wasm.ErrorSink
	features wasm.Features
}

// readOpcode reads a plain or prefixed opcode byte and maps it into the
// canonical Opcode enumeration.
func (d *decoder) readOpcode() (wasm.Opcode, error) {
	b, err := d.c.readByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case wasm.PrefixMisc, wasm.PrefixSIMD, wasm.PrefixThreads:
		sub, err := d.c.readU32()
		if err != nil {
			return 0, err
		}
		switch b {
		case wasm.PrefixMisc:
			return wasm.Opcode(0x100 + sub), nil
		case wasm.PrefixSIMD:
			return wasm.Opcode(0x10000 + sub), nil
		default:
			return wasm.Opcode(0x1000000 + sub), nil
		}
	default:
		return wasm.Opcode(b), nil
	}
}

func (d *decoder) checkFeatures(op wasm.Opcode) error {
	required := op.RequiredFeatures()
	if len(required) == 0 {
		return nil
	}
	if !d.features.TestAll(required...) {
		return d.c.fail("opcode %#x requires feature %s, which is not enabled", uint32(op), required[0])
	}
	return nil
}

func (d *decoder) readVar() (wasm.Var, error) {
	idx, err := d.c.readU32()
	if err != nil {
		return wasm.Var{}, err
	}
	return wasm.IndexVar(idx), nil
}

func (d *decoder) readMemArg() (wasm.MemArgImmediate, error) {
	align, err := d.c.readU32()
	if err != nil {
		return wasm.MemArgImmediate{}, err
	}
	offset, err := d.c.readU32()
	if err != nil {
		return wasm.MemArgImmediate{}, err
	}
	return wasm.MemArgImmediate{Align: align, Offset: offset}, nil
}

// readBlockType decodes the s33-encoded block type immediate: negative
// one-byte encodings name an inline value type (or the empty type), any
// other value is a type-section index.
func (d *decoder) readBlockType() (wasm.BlockType, error) {
	start := d.c.pos()
	v, err := d.c.readS33()
	if err != nil {
		return wasm.BlockType{}, err
	}
	switch v {
	case -0x40:
		return wasm.BlockType{Kind: wasm.BlockTypeEmpty}, nil
	case -1:
		return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: wasm.NumericValueType(wasm.I32)}, nil
	case -2:
		return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: wasm.NumericValueType(wasm.I64)}, nil
	case -3:
		return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: wasm.NumericValueType(wasm.F32)}, nil
	case -4:
		return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: wasm.NumericValueType(wasm.F64)}, nil
	case -5:
		return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: wasm.NumericValueType(wasm.V128)}, nil
	case -0x10:
		return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: wasm.ReferenceValueType(wasm.ReferenceType{Kind: wasm.RefFunc, Nullable: true})}, nil
	case -0x11:
		return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: wasm.ReferenceValueType(wasm.ReferenceType{Kind: wasm.RefExtern, Nullable: true})}, nil
	}
	if v < 0 {
		return wasm.BlockType{}, d.c.failAt(start, "invalid block type %d", v)
	}
	return wasm.BlockType{Kind: wasm.BlockTypeIndex, Index: wasm.IndexVar(uint32(v))}, nil
}

// readInstructions reads a flat instruction sequence until a terminating
// `end` is consumed; the `end` itself is appended to the returned slice.
// An `else` does not end the sequence: it is appended and reading goes on
// into the else arm, up to that arm's `end`.
func (d *decoder) readInstructions() ([]wasm.Instruction, error) {
	var out []wasm.Instruction
	for {
		start := d.c.pos()
		op, err := d.readOpcode()
		if err != nil {
			return nil, err
		}
		if err := d.checkFeatures(op); err != nil {
			return nil, err
		}

		switch op {
		case wasm.OpEnd, wasm.OpElse:
			out = append(out, wasm.Instruction{Opcode: op, Immediate: wasm.NoImmediate{}, Span: wasm.Span{Start: start, End: d.c.pos()}})
			if op == wasm.OpEnd {
				return out, nil
			}
			continue
		}

		imm, err := d.readImmediate(op)
		if err != nil {
			return nil, err
		}
		out = append(out, wasm.Instruction{Opcode: op, Immediate: imm, Span: wasm.Span{Start: start, End: d.c.pos()}})

		if op == wasm.OpBlock || op == wasm.OpLoop || op == wasm.OpIf || op == wasm.OpTry {
			body, err := d.readInstructions()
			if err != nil {
				return nil, err
			}
			out = append(out, body...)
			if op == wasm.OpIf && len(body) > 0 && body[len(body)-1].Opcode == wasm.OpElse {
				elseBody, err := d.readInstructions()
				if err != nil {
					return nil, err
				}
				out = append(out, elseBody...)
			}
		}
	}
}

// readConstExpr reads a global-init / offset expression: an instruction
// sequence terminated by `end`.
func (d *decoder) readConstExpr() ([]wasm.Instruction, error) {
	return d.readInstructions()
}

func (d *decoder) readImmediate(op wasm.Opcode) (wasm.Immediate, error) {
	switch op {
	case wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpTry:
		bt, err := d.readBlockType()
		if err != nil {
			return nil, err
		}
		kind := wasm.BlockPlain
		switch op {
		case wasm.OpLoop:
			kind = wasm.BlockLoop
		case wasm.OpIf:
			kind = wasm.BlockIf
		case wasm.OpTry:
			kind = wasm.BlockTry
		}
		return wasm.BlockImmediate{Kind: kind, Type: bt}, nil

	case wasm.OpBr, wasm.OpBrIf, wasm.OpCall, wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee,
		wasm.OpGlobalGet, wasm.OpGlobalSet, wasm.OpTableGet, wasm.OpTableSet, wasm.OpRefFunc,
		wasm.OpReturnCall, wasm.OpDataDrop, wasm.OpElemDrop, wasm.OpTableGrow, wasm.OpTableSize, wasm.OpTableFill:
		v, err := d.readVar()
		if err != nil {
			return nil, err
		}
		return wasm.IndexImmediate{Var: v}, nil

	case wasm.OpCallIndirect, wasm.OpReturnCallIndirect:
		typeIdx, err := d.c.readU32()
		if err != nil {
			return nil, err
		}
		table, err := d.c.readReserved(d.features.Test(wasm.FeatureReferenceTypes))
		if err != nil {
			return nil, err
		}
		return wasm.CallIndirectImmediate{Table: wasm.IndexVar(table), Type: wasm.BlockType{Kind: wasm.BlockTypeIndex, Index: wasm.IndexVar(typeIdx)}}, nil

	case wasm.OpBrTable:
		n, err := d.c.readU32()
		if err != nil {
			return nil, err
		}
		targets := make([]wasm.Var, n)
		for i := range targets {
			v, err := d.readVar()
			if err != nil {
				return nil, err
			}
			targets[i] = v
		}
		def, err := d.readVar()
		if err != nil {
			return nil, err
		}
		return wasm.BrTableImmediate{Targets: targets, Default: def}, nil

	case wasm.OpBrOnExn:
		label, err := d.readVar()
		if err != nil {
			return nil, err
		}
		event, err := d.readVar()
		if err != nil {
			return nil, err
		}
		return wasm.BrOnExnImmediate{Label: label, Event: event}, nil

	case wasm.OpI32Const:
		v, err := d.c.readS32()
		if err != nil {
			return nil, err
		}
		return wasm.I32Immediate{Value: v}, nil

	case wasm.OpI64Const:
		v, err := d.c.readS64()
		if err != nil {
			return nil, err
		}
		return wasm.I64Immediate{Value: v}, nil

	case wasm.OpF32Const:
		v, err := d.c.readF32()
		if err != nil {
			return nil, err
		}
		return wasm.F32Immediate{Value: v}, nil

	case wasm.OpF64Const:
		v, err := d.c.readF64()
		if err != nil {
			return nil, err
		}
		return wasm.F64Immediate{Value: v}, nil

	case wasm.OpV128Const:
		v, err := d.c.readV128()
		if err != nil {
			return nil, err
		}
		return wasm.V128Immediate{Value: v}, nil

	case wasm.OpI8x16Shuffle:
		var lanes [16]byte
		for i := range lanes {
			b, err := d.c.readByte()
			if err != nil {
				return nil, err
			}
			lanes[i] = b
		}
		return wasm.ShuffleImmediate{Lanes: lanes}, nil

	case wasm.OpI8x16ExtractLaneS, wasm.OpI8x16ReplaceLane:
		b, err := d.c.readByte()
		if err != nil {
			return nil, err
		}
		return wasm.SimdLaneImmediate{Lane: b}, nil

	case wasm.OpRefNull:
		ht, err := d.readHeapType()
		if err != nil {
			return nil, err
		}
		return wasm.HeapTypeImmediate{Type: ht}, nil

	case wasm.OpSelectT:
		types, err := d.readValueTypeVector()
		if err != nil {
			return nil, err
		}
		return wasm.SelectTypesImmediate{Types: types}, nil

	case wasm.OpMemoryCopy, wasm.OpTableCopy:
		dst, err := d.c.readReserved(d.features.Test(wasm.FeatureReferenceTypes))
		if err != nil {
			return nil, err
		}
		src, err := d.c.readReserved(d.features.Test(wasm.FeatureReferenceTypes))
		if err != nil {
			return nil, err
		}
		return wasm.CopyImmediate{Dst: wasm.IndexVar(dst), Src: wasm.IndexVar(src)}, nil

	case wasm.OpMemoryInit, wasm.OpTableInit:
		seg, err := d.c.readU32()
		if err != nil {
			return nil, err
		}
		dst, err := d.c.readReserved(d.features.Test(wasm.FeatureReferenceTypes))
		if err != nil {
			return nil, err
		}
		return wasm.InitImmediate{Segment: wasm.IndexVar(seg), Dst: wasm.IndexVar(dst)}, nil

	case wasm.OpMemorySize, wasm.OpMemoryGrow, wasm.OpMemoryFill:
		_, err := d.c.readReserved(false)
		if err != nil {
			return nil, err
		}
		return wasm.NoImmediate{}, nil

	case wasm.OpI32Load, wasm.OpI64Load, wasm.OpF32Load, wasm.OpF64Load,
		wasm.OpI32Load8S, wasm.OpI32Load8U, wasm.OpI32Load16S, wasm.OpI32Load16U,
		wasm.OpI64Load8S, wasm.OpI64Load8U, wasm.OpI64Load16S, wasm.OpI64Load16U,
		wasm.OpI64Load32S, wasm.OpI64Load32U,
		wasm.OpI32Store, wasm.OpI64Store, wasm.OpF32Store, wasm.OpF64Store,
		wasm.OpI32Store8, wasm.OpI32Store16, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32,
		wasm.OpV128Load, wasm.OpV128Store:
		return d.readMemArg()

	case wasm.OpRefIsNull, wasm.OpDrop, wasm.OpSelect,
		wasm.OpUnreachable, wasm.OpNop, wasm.OpReturn, wasm.OpAtomicFence:
		return wasm.NoImmediate{}, nil

	default:
		// Everything else in the arithmetic/comparison/conversion bands,
		// and SIMD opcodes beyond the representative set above, carries
		// no immediate payload.
		return wasm.NoImmediate{}, nil
	}
}

func (d *decoder) readHeapType() (wasm.HeapType, error) {
	start := d.c.pos()
	v, err := d.c.readS33()
	if err != nil {
		return wasm.HeapType{}, err
	}
	switch v {
	case -0x10:
		return wasm.HeapType{Kind: wasm.HeapFunc}, nil
	case -0x11:
		return wasm.HeapType{Kind: wasm.HeapExtern}, nil
	case -0x18:
		return wasm.HeapType{Kind: wasm.HeapExn}, nil
	}
	if v < 0 {
		return wasm.HeapType{}, d.c.failAt(start, "invalid heap type %d", v)
	}
	return wasm.HeapType{Kind: wasm.HeapTypeIndex, Var: wasm.IndexVar(uint32(v))}, nil
}
