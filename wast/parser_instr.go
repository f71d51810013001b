// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wast

import "github.com/munin/wasmcore/wasm"

// parseInstrList reads instructions, in either plain or folded shape,
// until it hits a ')' that isn't part of a folded instruction it is
// parsing, a `(then`, `(else` or `(catch` arm (left for the enclosing
// folded if/try to read), or a token whose kind is in stop.
func (p *parser) parseInstrList(out *[]wasm.Instruction, stop ...TokenKind) {
	for {
		if p.tok.Kind == RPAR {
			return
		}
		if p.tok.Kind == LPAR && (p.next.Kind == KW_THEN || p.next.Kind == ELSE_INSTR || p.next.Kind == KW_CATCH) {
			return
		}
		for _, s := range stop {
			if p.tok.Kind == s {
				return
			}
		}
		if p.tok.Kind == EOF {
			return
		}
		if p.tok.Kind == LPAR {
			p.parseFoldedInstr(out)
			continue
		}
		if !p.parsePlainInstr(out) {
			p.recover()
			return
		}
	}
}

// parseFoldedInstr parses one `( ... )` folded instruction, including
// nested operands, appending its flattened instruction(s) to out.
func (p *parser) parseFoldedInstr(out *[]wasm.Instruction) {
	p.scan() // '('

	switch p.tok.Kind {
	case BLOCK_INSTR:
		p.parseFoldedBlockLike(out)
		return
	}

	if p.tok.Kind == KW_THEN || p.tok.Kind == KW_ELSE || p.tok.Kind == KW_CATCH {
		// Handled by the (if ...) / (try ...) caller, not reachable here
		// in a well-formed program; resync defensively.
		p.recover()
		p.expectRPar()
		return
	}

	// Generic folded operator: operand instructions first, then the op.
	var op []wasm.Instruction
	if !p.parsePlainInstr(&op) {
		p.recover()
		p.expectRPar()
		return
	}
	p.parseInstrList(out)
	*out = append(*out, op...)
	p.expectRPar()
}

// parseFoldedBlockLike handles `(block ...)`, `(loop ...)`, `(try ...)`,
// and the reordered `(if ...)` shape where the condition is a folded
// operand that must be emitted before the `if` opcode itself.
func (p *parser) parseFoldedBlockLike(out *[]wasm.Instruction) {
	info := p.tok.Value.(*InstrInfo)
	op := info.Opcode
	p.scan()

	label, _ := p.name()
	if label != "" {
		p.ctx.pushLabel(label)
	} else {
		p.ctx.pushLabel("")
	}

	blockType := p.parseBlockType()

	if op == wasm.OpIf {
		var cond []wasm.Instruction
		p.parseInstrList(&cond)
		*out = append(*out, cond...)

		*out = append(*out, wasm.Instruction{Opcode: wasm.OpIf, Immediate: wasm.BlockImmediate{Kind: wasm.BlockIf, Label: label, Type: blockType}})

		if p.scanSExpr(KW_THEN) {
			p.parseInstrList(out)
			p.expectRPar()
		}
		if p.scanSExpr(ELSE_INSTR) {
			*out = append(*out, wasm.Instruction{Opcode: wasm.OpElse})
			p.parseInstrList(out)
			p.expectRPar()
		}
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpEnd})
		p.ctx.popLabel()
		p.expectRPar()
		return
	}

	kind := wasm.BlockPlain
	switch op {
	case wasm.OpLoop:
		kind = wasm.BlockLoop
	case wasm.OpTry:
		kind = wasm.BlockTry
	}
	*out = append(*out, wasm.Instruction{Opcode: op, Immediate: wasm.BlockImmediate{Kind: kind, Label: label, Type: blockType}})
	p.parseInstrList(out)
	if op == wasm.OpTry && p.scanSExpr(KW_CATCH) {
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpCatch})
		p.parseInstrList(out)
		p.expectRPar()
	}
	*out = append(*out, wasm.Instruction{Opcode: wasm.OpEnd})
	p.ctx.popLabel()
	p.expectRPar()
}

func (p *parser) parseBlockType() wasm.BlockType {
	if p.scanSExpr(KW_RESULT) {
		vt, ok := p.parseValueType()
		p.expectRPar()
		if ok {
			return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: vt}
		}
	}
	return wasm.BlockType{Kind: wasm.BlockTypeEmpty}
}

func (p *parser) parseValueType() (wasm.ValueType, bool) {
	if p.tok.Kind != VALUE_TYPE {
		p.errorf("expected a value type")
		return wasm.ValueType{}, false
	}
	txt := p.tok.Text
	p.scan()
	return valueTypeFromKeyword(txt)
}

func valueTypeFromKeyword(kw string) (wasm.ValueType, bool) {
	switch kw {
	case "i32":
		return wasm.NumericValueType(wasm.I32), true
	case "i64":
		return wasm.NumericValueType(wasm.I64), true
	case "f32":
		return wasm.NumericValueType(wasm.F32), true
	case "f64":
		return wasm.NumericValueType(wasm.F64), true
	case "funcref":
		return wasm.ReferenceValueType(wasm.ReferenceType{Kind: wasm.RefFunc, Nullable: true, Heap: wasm.HeapType{Kind: wasm.HeapFunc}}), true
	case "externref":
		return wasm.ReferenceValueType(wasm.ReferenceType{Kind: wasm.RefExtern, Nullable: true, Heap: wasm.HeapType{Kind: wasm.HeapExtern}}), true
	case "exnref":
		return wasm.ReferenceValueType(wasm.ReferenceType{Kind: wasm.RefExn, Nullable: true, Heap: wasm.HeapType{Kind: wasm.HeapExn}}), true
	default:
		return wasm.ValueType{}, false
	}
}

// parsePlainInstr parses a single non-folded instruction (the keyword
// token has already been classified by shape in the scanner) and appends
// it to out. It never recurses into folded operand parsing.
func (p *parser) parsePlainInstr(out *[]wasm.Instruction) bool {
	switch p.tok.Kind {
	case BARE_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode})
		return true

	case VAR_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		v, ok := p.natVar()
		if !ok {
			p.errorf("expected an index or name")
			return false
		}
		switch info.Opcode {
		case wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee:
			v = resolve(v, p.ctx.Locals)
		case wasm.OpGlobalGet, wasm.OpGlobalSet:
			v = resolve(v, p.ctx.Globals)
		case wasm.OpCall, wasm.OpReturnCall:
			v = resolve(v, p.ctx.Funcs)
		case wasm.OpTableGet, wasm.OpTableSet, wasm.OpTableGrow, wasm.OpTableSize, wasm.OpTableFill:
			v = resolve(v, p.ctx.Tables)
		case wasm.OpBr, wasm.OpBrIf:
			if depth, found := p.ctx.resolveLabel(v.Name); v.IsName && found {
				v = wasm.IndexVar(depth)
			}
		}
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode, Immediate: wasm.IndexImmediate{Var: v}})
		return true

	case MEMORY_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		var align, offset uint32
		for {
			if p.tok.Kind == OFFSET_EQ_NAT {
				offset = uint32(p.tok.Value.(uint64))
				p.scan()
				continue
			}
			if p.tok.Kind == ALIGN_EQ_NAT {
				align = uint32(p.tok.Value.(uint64))
				p.scan()
				continue
			}
			break
		}
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode, Immediate: wasm.MemArgImmediate{Align: align, Offset: offset}})
		return true

	case BLOCK_INSTR:
		info := p.tok.Value.(*InstrInfo)
		op := info.Opcode
		p.scan()
		label, _ := p.name()
		p.ctx.pushLabel(label)
		blockType := p.parseBlockType()

		kind := wasm.BlockPlain
		switch op {
		case wasm.OpLoop:
			kind = wasm.BlockLoop
		case wasm.OpIf:
			kind = wasm.BlockIf
		case wasm.OpTry:
			kind = wasm.BlockTry
		}
		*out = append(*out, wasm.Instruction{Opcode: op, Immediate: wasm.BlockImmediate{Kind: kind, Label: label, Type: blockType}})
		return true

	case END_INSTR:
		p.scan()
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpEnd})
		if len(p.ctx.Labels) > 0 {
			p.ctx.popLabel()
		}
		return true

	case ELSE_INSTR:
		p.scan()
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpElse})
		return true

	case I32_CONST_INSTR:
		p.scan()
		v, ok := p.i32()
		if !ok {
			return false
		}
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpI32Const, Immediate: wasm.I32Immediate{Value: v}})
		return true

	case I64_CONST_INSTR:
		p.scan()
		v, ok := p.i64()
		if !ok {
			return false
		}
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpI64Const, Immediate: wasm.I64Immediate{Value: v}})
		return true

	case F32_CONST_INSTR:
		p.scan()
		v, ok := p.f32()
		if !ok {
			return false
		}
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpF32Const, Immediate: wasm.F32Immediate{Value: v}})
		return true

	case F64_CONST_INSTR:
		p.scan()
		v, ok := p.f64()
		if !ok {
			return false
		}
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpF64Const, Immediate: wasm.F64Immediate{Value: v}})
		return true

	case SELECT_INSTR:
		p.scan()
		if p.scanSExpr(KW_RESULT) {
			vt, ok := p.parseValueType()
			p.expectRPar()
			if !ok {
				return false
			}
			*out = append(*out, wasm.Instruction{Opcode: wasm.OpSelectT, Immediate: wasm.SelectTypesImmediate{Types: []wasm.ValueType{vt}}})
			return true
		}
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpSelect})
		return true

	case REF_NULL_INSTR:
		p.scan()
		ht, ok := p.parseHeapType()
		if !ok {
			return false
		}
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpRefNull, Immediate: wasm.HeapTypeImmediate{Type: ht}})
		return true

	case REF_FUNC_INSTR:
		p.scan()
		v, ok := p.natVar()
		if !ok {
			return false
		}
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpRefFunc, Immediate: wasm.IndexImmediate{Var: v}})
		return true

	case CALL_INDIRECT_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		tbl := wasm.IndexVar(0)
		if v, ok := p.natVar(); ok {
			tbl = v
		}
		typ := p.parseTypeUse()
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode, Immediate: wasm.CallIndirectImmediate{Table: tbl, Type: typ}})
		return true

	case BR_TABLE_INSTR:
		p.scan()
		var targets []wasm.Var
		for {
			v, ok := p.natVar()
			if !ok {
				break
			}
			targets = append(targets, v)
		}
		if len(targets) == 0 {
			p.errorf("br_table requires at least one target")
			return false
		}
		def := targets[len(targets)-1]
		targets = targets[:len(targets)-1]
		*out = append(*out, wasm.Instruction{Opcode: wasm.OpBrTable, Immediate: wasm.BrTableImmediate{Targets: targets, Default: def}})
		return true

	case MEMORY_COPY_INSTR, TABLE_COPY_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		dst, dok := p.natVar()
		src, sok := p.natVar()
		if !dok {
			dst = wasm.IndexVar(0)
		}
		if !sok {
			src = wasm.IndexVar(0)
		}
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode, Immediate: wasm.CopyImmediate{Dst: dst, Src: src}})
		return true

	case MEMORY_INIT_INSTR, TABLE_INIT_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		a, aok := p.natVar()
		if !aok {
			p.errorf("expected a segment index")
			return false
		}
		dst := wasm.IndexVar(0)
		if b, ok := p.natVar(); ok {
			dst = b
		}
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode, Immediate: wasm.InitImmediate{Segment: a, Dst: dst}})
		return true

	case SIMD_CONST_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		var bytes [16]byte
		var lane string
		if p.tok.Kind >= LANE_I8X16 && p.tok.Kind <= LANE_F64X2 {
			lane = p.tok.Text
			p.scan()
		}
		_ = lane // lane-width decoding of the literal list is a later refinement
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode, Immediate: wasm.V128Immediate{Value: bytes}})
		for p.tok.Kind == INT || p.tok.Kind == NAT || p.tok.Kind == FLOAT {
			p.scan()
		}
		return true

	case SIMD_LANE_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		lane, ok := p.u32()
		if !ok {
			return false
		}
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode, Immediate: wasm.SimdLaneImmediate{Lane: byte(lane)}})
		return true

	case SIMD_SHUFFLE_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		var lanes [16]byte
		for i := 0; i < 16; i++ {
			v, ok := p.u32()
			if !ok {
				return false
			}
			lanes[i] = byte(v)
		}
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode, Immediate: wasm.ShuffleImmediate{Lanes: lanes}})
		return true

	case BR_ON_EXN_INSTR:
		info := p.tok.Value.(*InstrInfo)
		p.scan()
		label, ok := p.natVar()
		if !ok {
			return false
		}
		event, ok := p.natVar()
		if !ok {
			return false
		}
		*out = append(*out, wasm.Instruction{Opcode: info.Opcode, Immediate: wasm.BrOnExnImmediate{Label: label, Event: event}})
		return true

	default:
		p.errorf("unexpected token %q in instruction sequence", p.tok.Text)
		return false
	}
}

func (p *parser) parseHeapType() (wasm.HeapType, bool) {
	if vt, ok := p.parseValueType(); ok && vt.Kind == wasm.ValueTypeReference {
		return vt.Reference.Heap, true
	}
	p.errorf("expected a heap type")
	return wasm.HeapType{}, false
}

// parseTypeUse reads the `(type $t)` clause of call_indirect, resolving
// it against the type space at parse time so the caller never sees an
// unresolved name.
func (p *parser) parseTypeUse() wasm.BlockType {
	if p.scanSExpr(KW_TYPE) {
		v, _ := p.natVar()
		p.expectRPar()
		return wasm.BlockType{Kind: wasm.BlockTypeIndex, Index: resolve(v, p.ctx.Types)}
	}
	return wasm.BlockType{Kind: wasm.BlockTypeEmpty}
}
