// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wast

import "github.com/munin/wasmcore/wasm"

// TokenKind is the closed set of token types the tokenizer can produce.
// Instruction tokens are grouped by the *shape* of immediate they carry
// rather than enumerated one per opcode: every plain i32 binary op is a
// BareInstr, every local/global reference is a VarInstr, and so on. The
// specific opcode rides along on the token's Value.
type TokenKind int

const (
	EOF TokenKind = iota

	LPAR
	RPAR
	VAR // symbolic $name
	NAT
	INT
	FLOAT
	STRING
	VALUE_TYPE

	BARE_INSTR
	BLOCK_INSTR
	END_INSTR
	ELSE_INSTR
	VAR_INSTR
	I32_CONST_INSTR
	I64_CONST_INSTR
	F32_CONST_INSTR
	F64_CONST_INSTR
	SIMD_CONST_INSTR
	SIMD_LANE_INSTR
	SIMD_SHUFFLE_INSTR
	SELECT_INSTR
	MEMORY_INSTR
	MEMORY_COPY_INSTR
	MEMORY_INIT_INSTR
	TABLE_COPY_INSTR
	TABLE_INIT_INSTR
	REF_NULL_INSTR
	REF_FUNC_INSTR
	BR_ON_EXN_INSTR
	BR_TABLE_INSTR
	CALL_INDIRECT_INSTR

	ALIGN_EQ_NAT
	OFFSET_EQ_NAT

	KW_MODULE
	KW_FUNC
	KW_TYPE
	KW_PARAM
	KW_RESULT
	KW_LOCAL
	KW_IMPORT
	KW_EXPORT
	KW_TABLE
	KW_MEMORY
	KW_GLOBAL
	KW_ELEM
	KW_DATA
	KW_START
	KW_EVENT
	KW_MUT
	KW_OFFSET
	KW_ITEM
	KW_DECLARE
	KW_THEN
	KW_ELSE
	KW_END
	KW_CATCH
	KW_SHARED

	LANE_I8X16
	LANE_I16X8
	LANE_I32X4
	LANE_I64X2
	LANE_F32X4
	LANE_F64X2

	ERROR
)

// Pos is a line/column location used solely for diagnostics.
type Pos struct {
	Line, Column int
}

// Token is one lexeme: its shape tag, source text, location, and for
// literal/instruction tokens a parsed payload riding in Value.
type Token struct {
	Kind  TokenKind
	Text  string
	Pos   Pos
	Value interface{}
}

var keywordTokens = map[string]TokenKind{
	"module":  KW_MODULE,
	"func":    KW_FUNC,
	"type":    KW_TYPE,
	"param":   KW_PARAM,
	"result":  KW_RESULT,
	"local":   KW_LOCAL,
	"import":  KW_IMPORT,
	"export":  KW_EXPORT,
	"table":   KW_TABLE,
	"memory":  KW_MEMORY,
	"global":  KW_GLOBAL,
	"elem":    KW_ELEM,
	"data":    KW_DATA,
	"start":   KW_START,
	"event":   KW_EVENT,
	"mut":     KW_MUT,
	"offset":  KW_OFFSET,
	"item":    KW_ITEM,
	"declare": KW_DECLARE,
	"then":    KW_THEN,
	"else":    KW_ELSE,
	"end":     KW_END,
	"catch":   KW_CATCH,
	"shared":  KW_SHARED,

	"i32":  VALUE_TYPE,
	"i64":  VALUE_TYPE,
	"f32":  VALUE_TYPE,
	"f64":  VALUE_TYPE,
	"v128": VALUE_TYPE,

	"funcref":   VALUE_TYPE,
	"externref": VALUE_TYPE,
	"exnref":    VALUE_TYPE,

	"i8x16": LANE_I8X16,
	"i16x8": LANE_I16X8,
	"i32x4": LANE_I32X4,
	"i64x2": LANE_I64X2,
	"f32x4": LANE_F32X4,
	"f64x2": LANE_F64X2,
}

// bareOpcodes maps a plain instruction keyword straight to its opcode; no
// immediate follows in the token stream (BARE_INSTR shape).
var bareOpcodes = map[string]wasm.Opcode{
	"unreachable": wasm.OpUnreachable,
	"nop":         wasm.OpNop,
	"return":      wasm.OpReturn,
	"drop":        wasm.OpDrop,

	"i32.eqz": wasm.OpI32Eqz, "i32.eq": wasm.OpI32Eq, "i32.ne": wasm.OpI32Ne,
	"i32.lt_s": wasm.OpI32LtS, "i32.lt_u": wasm.OpI32LtU, "i32.gt_s": wasm.OpI32GtS, "i32.gt_u": wasm.OpI32GtU,
	"i32.le_s": wasm.OpI32LeS, "i32.le_u": wasm.OpI32LeU, "i32.ge_s": wasm.OpI32GeS, "i32.ge_u": wasm.OpI32GeU,
	"i32.clz": wasm.OpI32Clz, "i32.ctz": wasm.OpI32Ctz, "i32.popcnt": wasm.OpI32Popcnt,
	"i32.add": wasm.OpI32Add, "i32.sub": wasm.OpI32Sub, "i32.mul": wasm.OpI32Mul,
	"i32.div_s": wasm.OpI32DivS, "i32.div_u": wasm.OpI32DivU, "i32.rem_s": wasm.OpI32RemS, "i32.rem_u": wasm.OpI32RemU,
	"i32.and": wasm.OpI32And, "i32.or": wasm.OpI32Or, "i32.xor": wasm.OpI32Xor,
	"i32.shl": wasm.OpI32Shl, "i32.shr_s": wasm.OpI32ShrS, "i32.shr_u": wasm.OpI32ShrU,
	"i32.rotl": wasm.OpI32Rotl, "i32.rotr": wasm.OpI32Rotr,
	"i32.extend8_s": wasm.OpI32Extend8S, "i32.extend16_s": wasm.OpI32Extend16S,
	"i32.wrap_i64": wasm.OpI32WrapI64,
	"i32.trunc_f32_s": wasm.OpI32TruncF32S, "i32.trunc_f32_u": wasm.OpI32TruncF32U,
	"i32.trunc_f64_s": wasm.OpI32TruncF64S, "i32.trunc_f64_u": wasm.OpI32TruncF64U,
	"i32.trunc_sat_f32_s": wasm.OpI32TruncSatF32S, "i32.trunc_sat_f32_u": wasm.OpI32TruncSatF32U,
	"i32.trunc_sat_f64_s": wasm.OpI32TruncSatF64S, "i32.trunc_sat_f64_u": wasm.OpI32TruncSatF64U,
	"i32.reinterpret_f32": wasm.OpI32ReinterpretF32,

	"i64.eqz": wasm.OpI64Eqz, "i64.eq": wasm.OpI64Eq, "i64.ne": wasm.OpI64Ne,
	"i64.lt_s": wasm.OpI64LtS, "i64.lt_u": wasm.OpI64LtU, "i64.gt_s": wasm.OpI64GtS, "i64.gt_u": wasm.OpI64GtU,
	"i64.le_s": wasm.OpI64LeS, "i64.le_u": wasm.OpI64LeU, "i64.ge_s": wasm.OpI64GeS, "i64.ge_u": wasm.OpI64GeU,
	"i64.clz": wasm.OpI64Clz, "i64.ctz": wasm.OpI64Ctz, "i64.popcnt": wasm.OpI64Popcnt,
	"i64.add": wasm.OpI64Add, "i64.sub": wasm.OpI64Sub, "i64.mul": wasm.OpI64Mul,
	"i64.div_s": wasm.OpI64DivS, "i64.div_u": wasm.OpI64DivU, "i64.rem_s": wasm.OpI64RemS, "i64.rem_u": wasm.OpI64RemU,
	"i64.and": wasm.OpI64And, "i64.or": wasm.OpI64Or, "i64.xor": wasm.OpI64Xor,
	"i64.shl": wasm.OpI64Shl, "i64.shr_s": wasm.OpI64ShrS, "i64.shr_u": wasm.OpI64ShrU,
	"i64.rotl": wasm.OpI64Rotl, "i64.rotr": wasm.OpI64Rotr,
	"i64.extend8_s": wasm.OpI64Extend8S, "i64.extend16_s": wasm.OpI64Extend16S, "i64.extend32_s": wasm.OpI64Extend32S,
	"i64.extend_i32_s": wasm.OpI64ExtendI32S, "i64.extend_i32_u": wasm.OpI64ExtendI32U,
	"i64.trunc_f32_s": wasm.OpI64TruncF32S, "i64.trunc_f32_u": wasm.OpI64TruncF32U,
	"i64.trunc_f64_s": wasm.OpI64TruncF64S, "i64.trunc_f64_u": wasm.OpI64TruncF64U,
	"i64.trunc_sat_f32_s": wasm.OpI64TruncSatF32S, "i64.trunc_sat_f32_u": wasm.OpI64TruncSatF32U,
	"i64.trunc_sat_f64_s": wasm.OpI64TruncSatF64S, "i64.trunc_sat_f64_u": wasm.OpI64TruncSatF64U,
	"i64.reinterpret_f64": wasm.OpI64ReinterpretF64,

	"f32.eq": wasm.OpF32Eq, "f32.ne": wasm.OpF32Ne, "f32.lt": wasm.OpF32Lt, "f32.gt": wasm.OpF32Gt, "f32.le": wasm.OpF32Le, "f32.ge": wasm.OpF32Ge,
	"f32.abs": wasm.OpF32Abs, "f32.neg": wasm.OpF32Neg, "f32.ceil": wasm.OpF32Ceil, "f32.floor": wasm.OpF32Floor,
	"f32.trunc": wasm.OpF32Trunc, "f32.nearest": wasm.OpF32Nearest, "f32.sqrt": wasm.OpF32Sqrt,
	"f32.add": wasm.OpF32Add, "f32.sub": wasm.OpF32Sub, "f32.mul": wasm.OpF32Mul, "f32.div": wasm.OpF32Div,
	"f32.min": wasm.OpF32Min, "f32.max": wasm.OpF32Max, "f32.copysign": wasm.OpF32Copysign,
	"f32.convert_i32_s": wasm.OpF32ConvertI32S, "f32.convert_i32_u": wasm.OpF32ConvertI32U,
	"f32.convert_i64_s": wasm.OpF32ConvertI64S, "f32.convert_i64_u": wasm.OpF32ConvertI64U,
	"f32.demote_f64": wasm.OpF32DemoteF64, "f32.reinterpret_i32": wasm.OpF32ReinterpretI32,

	"f64.eq": wasm.OpF64Eq, "f64.ne": wasm.OpF64Ne, "f64.lt": wasm.OpF64Lt, "f64.gt": wasm.OpF64Gt, "f64.le": wasm.OpF64Le, "f64.ge": wasm.OpF64Ge,
	"f64.abs": wasm.OpF64Abs, "f64.neg": wasm.OpF64Neg, "f64.ceil": wasm.OpF64Ceil, "f64.floor": wasm.OpF64Floor,
	"f64.trunc": wasm.OpF64Trunc, "f64.nearest": wasm.OpF64Nearest, "f64.sqrt": wasm.OpF64Sqrt,
	"f64.add": wasm.OpF64Add, "f64.sub": wasm.OpF64Sub, "f64.mul": wasm.OpF64Mul, "f64.div": wasm.OpF64Div,
	"f64.min": wasm.OpF64Min, "f64.max": wasm.OpF64Max, "f64.copysign": wasm.OpF64Copysign,
	"f64.convert_i32_s": wasm.OpF64ConvertI32S, "f64.convert_i32_u": wasm.OpF64ConvertI32U,
	"f64.convert_i64_s": wasm.OpF64ConvertI64S, "f64.convert_i64_u": wasm.OpF64ConvertI64U,
	"f64.promote_f32": wasm.OpF64PromoteF32, "f64.reinterpret_i64": wasm.OpF64ReinterpretI64,

	"ref.is_null": wasm.OpRefIsNull,
}

// memoryOpcodes maps a load/store keyword to its opcode; these tokenize as
// MEMORY_INSTR. The token carries only the opcode: the parser reads the
// (align, offset) pair from trailing `align=`/`offset=` atoms, each 0 when
// absent.
var memoryOpcodes = map[string]wasm.Opcode{
	"i32.load": wasm.OpI32Load, "i64.load": wasm.OpI64Load, "f32.load": wasm.OpF32Load, "f64.load": wasm.OpF64Load,
	"i32.load8_s": wasm.OpI32Load8S, "i32.load8_u": wasm.OpI32Load8U, "i32.load16_s": wasm.OpI32Load16S, "i32.load16_u": wasm.OpI32Load16U,
	"i64.load8_s": wasm.OpI64Load8S, "i64.load8_u": wasm.OpI64Load8U, "i64.load16_s": wasm.OpI64Load16S, "i64.load16_u": wasm.OpI64Load16U,
	"i64.load32_s": wasm.OpI64Load32S, "i64.load32_u": wasm.OpI64Load32U,
	"i32.store": wasm.OpI32Store, "i64.store": wasm.OpI64Store, "f32.store": wasm.OpF32Store, "f64.store": wasm.OpF64Store,
	"i32.store8": wasm.OpI32Store8, "i32.store16": wasm.OpI32Store16,
	"i64.store8": wasm.OpI64Store8, "i64.store16": wasm.OpI64Store16, "i64.store32": wasm.OpI64Store32,
	"v128.load": wasm.OpV128Load, "v128.store": wasm.OpV128Store,
}

// varOpcodes maps a keyword that takes a single Var immediate to its
// opcode (VAR_INSTR shape).
var varOpcodes = map[string]wasm.Opcode{
	"local.get": wasm.OpLocalGet, "local.set": wasm.OpLocalSet, "local.tee": wasm.OpLocalTee,
	"global.get": wasm.OpGlobalGet, "global.set": wasm.OpGlobalSet,
	"table.get": wasm.OpTableGet, "table.set": wasm.OpTableSet,
	"br": wasm.OpBr, "br_if": wasm.OpBrIf,
	"call": wasm.OpCall, "return_call": wasm.OpReturnCall,
	"data.drop": wasm.OpDataDrop, "elem.drop": wasm.OpElemDrop,
	"table.grow": wasm.OpTableGrow, "table.size": wasm.OpTableSize, "table.fill": wasm.OpTableFill,
}

var blockOpcodes = map[string]wasm.Opcode{
	"block": wasm.OpBlock, "loop": wasm.OpLoop, "if": wasm.OpIf, "try": wasm.OpTry,
}

var memoryCopyInitOpcodes = map[string]wasm.Opcode{
	"memory.copy": wasm.OpMemoryCopy, "table.copy": wasm.OpTableCopy,
}

var memoryInitOpcodes = map[string]wasm.Opcode{
	"memory.init": wasm.OpMemoryInit, "table.init": wasm.OpTableInit,
}

// instrKeyword classifies a keyword lexeme into an instruction token shape,
// or returns ok=false if the keyword is not an instruction at all.
func instrKeyword(kw string) (TokenKind, *InstrInfo, bool) {
	switch kw {
	case "end":
		return END_INSTR, nil, true
	case "else":
		return ELSE_INSTR, nil, true
	case "call_indirect", "return_call_indirect":
		op := wasm.OpCallIndirect
		if kw == "return_call_indirect" {
			op = wasm.OpReturnCallIndirect
		}
		return CALL_INDIRECT_INSTR, &InstrInfo{Opcode: op}, true
	case "br_table":
		return BR_TABLE_INSTR, &InstrInfo{Opcode: wasm.OpBrTable}, true
	case "br_on_exn":
		return BR_ON_EXN_INSTR, &InstrInfo{Opcode: wasm.OpBrOnExn}, true
	case "ref.null":
		return REF_NULL_INSTR, &InstrInfo{Opcode: wasm.OpRefNull}, true
	case "ref.func":
		return REF_FUNC_INSTR, &InstrInfo{Opcode: wasm.OpRefFunc}, true
	case "select":
		return SELECT_INSTR, &InstrInfo{Opcode: wasm.OpSelect}, true
	case "i32.const":
		return I32_CONST_INSTR, &InstrInfo{Opcode: wasm.OpI32Const}, true
	case "i64.const":
		return I64_CONST_INSTR, &InstrInfo{Opcode: wasm.OpI64Const}, true
	case "f32.const":
		return F32_CONST_INSTR, &InstrInfo{Opcode: wasm.OpF32Const}, true
	case "f64.const":
		return F64_CONST_INSTR, &InstrInfo{Opcode: wasm.OpF64Const}, true
	case "v128.const":
		return SIMD_CONST_INSTR, &InstrInfo{Opcode: wasm.OpV128Const}, true
	case "i8x16.shuffle":
		return SIMD_SHUFFLE_INSTR, &InstrInfo{Opcode: wasm.OpI8x16Shuffle}, true
	case "i8x16.extract_lane_s", "i8x16.replace_lane":
		op := wasm.OpI8x16ExtractLaneS
		if kw == "i8x16.replace_lane" {
			op = wasm.OpI8x16ReplaceLane
		}
		return SIMD_LANE_INSTR, &InstrInfo{Opcode: op}, true
	}
	if op, ok := bareOpcodes[kw]; ok {
		return BARE_INSTR, &InstrInfo{Opcode: op}, true
	}
	if op, ok := memoryOpcodes[kw]; ok {
		return MEMORY_INSTR, &InstrInfo{Opcode: op}, true
	}
	if op, ok := varOpcodes[kw]; ok {
		return VAR_INSTR, &InstrInfo{Opcode: op}, true
	}
	if op, ok := blockOpcodes[kw]; ok {
		return BLOCK_INSTR, &InstrInfo{Opcode: op}, true
	}
	if op, ok := memoryCopyInitOpcodes[kw]; ok {
		return MEMORY_COPY_INSTR, &InstrInfo{Opcode: op}, true
	}
	if op, ok := memoryInitOpcodes[kw]; ok {
		return MEMORY_INIT_INSTR, &InstrInfo{Opcode: op}, true
	}
	return 0, nil, false
}

// InstrInfo is the parsed payload of an instruction token: the opcode the
// keyword names.
type InstrInfo struct {
	Opcode wasm.Opcode
}
