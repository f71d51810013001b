// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

// Opcode is the canonical enumeration both readers decode into. Single-byte
// opcodes keep their wire value; opcodes that live behind a prefix byte
// (0xFC misc, 0xFD simd, 0xFE threads) are shifted into their own band so
// the whole space stays a flat, comparable uint32 instead of a (prefix,
// sub-opcode) pair callers have to carry around separately.
type Opcode uint32

const (
	miscBand    Opcode = 0x100
	simdBand    Opcode = 0x10000
	threadsBand Opcode = 0x1000000
)

// PrefixMisc, PrefixSIMD, PrefixThreads are the lead bytes that select an
// extended opcode band in the binary encoding.
const (
	PrefixMisc    byte = 0xfc
	PrefixSIMD    byte = 0xfd
	PrefixThreads byte = 0xfe
)

func miscOp(sub uint32) Opcode    { return miscBand + Opcode(sub) }
func simdOp(sub uint32) Opcode    { return simdBand + Opcode(sub) }
func threadOp(sub uint32) Opcode  { return threadsBand + Opcode(sub) }

const (
	OpUnreachable  Opcode = 0x00
	OpNop          Opcode = 0x01
	OpBlock        Opcode = 0x02
	OpLoop         Opcode = 0x03
	OpIf           Opcode = 0x04
	OpElse         Opcode = 0x05
	OpTry          Opcode = 0x06
	OpCatch        Opcode = 0x07
	OpThrow        Opcode = 0x08
	OpRethrow      Opcode = 0x09
	OpBrOnExn      Opcode = 0x0a
	OpEnd          Opcode = 0x0b
	OpBr           Opcode = 0x0c
	OpBrIf         Opcode = 0x0d
	OpBrTable      Opcode = 0x0e
	OpReturn       Opcode = 0x0f
	OpCall         Opcode = 0x10
	OpCallIndirect Opcode = 0x11
	OpReturnCall         Opcode = 0x12
	OpReturnCallIndirect Opcode = 0x13

	OpDrop   Opcode = 0x1a
	OpSelect Opcode = 0x1b
	OpSelectT Opcode = 0x1c

	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24

	OpTableGet Opcode = 0x25
	OpTableSet Opcode = 0x26

	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF32Load    Opcode = 0x2a
	OpF64Load    Opcode = 0x2b
	OpI32Load8S  Opcode = 0x2c
	OpI32Load8U  Opcode = 0x2d
	OpI32Load16S Opcode = 0x2e
	OpI32Load16U Opcode = 0x2f
	OpI64Load8S  Opcode = 0x30
	OpI64Load8U  Opcode = 0x31
	OpI64Load16S Opcode = 0x32
	OpI64Load16U Opcode = 0x33
	OpI64Load32S Opcode = 0x34
	OpI64Load32U Opcode = 0x35
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF32Store   Opcode = 0x38
	OpF64Store   Opcode = 0x39
	OpI32Store8  Opcode = 0x3a
	OpI32Store16 Opcode = 0x3b
	OpI64Store8  Opcode = 0x3c
	OpI64Store16 Opcode = 0x3d
	OpI64Store32 Opcode = 0x3e
	OpMemorySize Opcode = 0x3f
	OpMemoryGrow Opcode = 0x40

	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44

	OpI32Eqz = Opcode(0x45)
	OpI32Eq  = Opcode(0x46)
	OpI32Ne  = Opcode(0x47)
	OpI32LtS = Opcode(0x48)
	OpI32LtU = Opcode(0x49)
	OpI32GtS = Opcode(0x4a)
	OpI32GtU = Opcode(0x4b)
	OpI32LeS = Opcode(0x4c)
	OpI32LeU = Opcode(0x4d)
	OpI32GeS = Opcode(0x4e)
	OpI32GeU = Opcode(0x4f)

	OpI64Eqz = Opcode(0x50)
	OpI64Eq  = Opcode(0x51)
	OpI64Ne  = Opcode(0x52)
	OpI64LtS = Opcode(0x53)
	OpI64LtU = Opcode(0x54)
	OpI64GtS = Opcode(0x55)
	OpI64GtU = Opcode(0x56)
	OpI64LeS = Opcode(0x57)
	OpI64LeU = Opcode(0x58)
	OpI64GeS = Opcode(0x59)
	OpI64GeU = Opcode(0x5a)

	OpF32Eq = Opcode(0x5b)
	OpF32Ne = Opcode(0x5c)
	OpF32Lt = Opcode(0x5d)
	OpF32Gt = Opcode(0x5e)
	OpF32Le = Opcode(0x5f)
	OpF32Ge = Opcode(0x60)

	OpF64Eq = Opcode(0x61)
	OpF64Ne = Opcode(0x62)
	OpF64Lt = Opcode(0x63)
	OpF64Gt = Opcode(0x64)
	OpF64Le = Opcode(0x65)
	OpF64Ge = Opcode(0x66)

	OpI32Clz    = Opcode(0x67)
	OpI32Ctz    = Opcode(0x68)
	OpI32Popcnt = Opcode(0x69)
	OpI32Add    = Opcode(0x6a)
	OpI32Sub    = Opcode(0x6b)
	OpI32Mul    = Opcode(0x6c)
	OpI32DivS   = Opcode(0x6d)
	OpI32DivU   = Opcode(0x6e)
	OpI32RemS   = Opcode(0x6f)
	OpI32RemU   = Opcode(0x70)
	OpI32And    = Opcode(0x71)
	OpI32Or     = Opcode(0x72)
	OpI32Xor    = Opcode(0x73)
	OpI32Shl    = Opcode(0x74)
	OpI32ShrS   = Opcode(0x75)
	OpI32ShrU   = Opcode(0x76)
	OpI32Rotl   = Opcode(0x77)
	OpI32Rotr   = Opcode(0x78)

	OpI64Clz    = Opcode(0x79)
	OpI64Ctz    = Opcode(0x7a)
	OpI64Popcnt = Opcode(0x7b)
	OpI64Add    = Opcode(0x7c)
	OpI64Sub    = Opcode(0x7d)
	OpI64Mul    = Opcode(0x7e)
	OpI64DivS   = Opcode(0x7f)
	OpI64DivU   = Opcode(0x80)
	OpI64RemS   = Opcode(0x81)
	OpI64RemU   = Opcode(0x82)
	OpI64And    = Opcode(0x83)
	OpI64Or     = Opcode(0x84)
	OpI64Xor    = Opcode(0x85)
	OpI64Shl    = Opcode(0x86)
	OpI64ShrS   = Opcode(0x87)
	OpI64ShrU   = Opcode(0x88)
	OpI64Rotl   = Opcode(0x89)
	OpI64Rotr   = Opcode(0x8a)

	OpF32Abs      = Opcode(0x8b)
	OpF32Neg      = Opcode(0x8c)
	OpF32Ceil     = Opcode(0x8d)
	OpF32Floor    = Opcode(0x8e)
	OpF32Trunc    = Opcode(0x8f)
	OpF32Nearest  = Opcode(0x90)
	OpF32Sqrt     = Opcode(0x91)
	OpF32Add      = Opcode(0x92)
	OpF32Sub      = Opcode(0x93)
	OpF32Mul      = Opcode(0x94)
	OpF32Div      = Opcode(0x95)
	OpF32Min      = Opcode(0x96)
	OpF32Max      = Opcode(0x97)
	OpF32Copysign = Opcode(0x98)

	OpF64Abs      = Opcode(0x99)
	OpF64Neg      = Opcode(0x9a)
	OpF64Ceil     = Opcode(0x9b)
	OpF64Floor    = Opcode(0x9c)
	OpF64Trunc    = Opcode(0x9d)
	OpF64Nearest  = Opcode(0x9e)
	OpF64Sqrt     = Opcode(0x9f)
	OpF64Add      = Opcode(0xa0)
	OpF64Sub      = Opcode(0xa1)
	OpF64Mul      = Opcode(0xa2)
	OpF64Div      = Opcode(0xa3)
	OpF64Min      = Opcode(0xa4)
	OpF64Max      = Opcode(0xa5)
	OpF64Copysign = Opcode(0xa6)

	OpI32WrapI64        = Opcode(0xa7)
	OpI32TruncF32S      = Opcode(0xa8)
	OpI32TruncF32U      = Opcode(0xa9)
	OpI32TruncF64S      = Opcode(0xaa)
	OpI32TruncF64U      = Opcode(0xab)
	OpI64ExtendI32S     = Opcode(0xac)
	OpI64ExtendI32U     = Opcode(0xad)
	OpI64TruncF32S      = Opcode(0xae)
	OpI64TruncF32U      = Opcode(0xaf)
	OpI64TruncF64S      = Opcode(0xb0)
	OpI64TruncF64U      = Opcode(0xb1)
	OpF32ConvertI32S    = Opcode(0xb2)
	OpF32ConvertI32U    = Opcode(0xb3)
	OpF32ConvertI64S    = Opcode(0xb4)
	OpF32ConvertI64U    = Opcode(0xb5)
	OpF32DemoteF64      = Opcode(0xb6)
	OpF64ConvertI32S    = Opcode(0xb7)
	OpF64ConvertI32U    = Opcode(0xb8)
	OpF64ConvertI64S    = Opcode(0xb9)
	OpF64ConvertI64U    = Opcode(0xba)
	OpF64PromoteF32     = Opcode(0xbb)
	OpI32ReinterpretF32 = Opcode(0xbc)
	OpI64ReinterpretF64 = Opcode(0xbd)
	OpF32ReinterpretI32 = Opcode(0xbe)
	OpF64ReinterpretI64 = Opcode(0xbf)

	OpI32Extend8S  = Opcode(0xc0)
	OpI32Extend16S = Opcode(0xc1)
	OpI64Extend8S  = Opcode(0xc2)
	OpI64Extend16S = Opcode(0xc3)
	OpI64Extend32S = Opcode(0xc4)

	OpRefNull   = Opcode(0xd0)
	OpRefIsNull = Opcode(0xd1)
	OpRefFunc   = Opcode(0xd2)
)

// Misc band (prefix 0xFC): saturating truncation, bulk memory, table init.
var (
	OpI32TruncSatF32S = miscOp(0)
	OpI32TruncSatF32U = miscOp(1)
	OpI32TruncSatF64S = miscOp(2)
	OpI32TruncSatF64U = miscOp(3)
	OpI64TruncSatF32S = miscOp(4)
	OpI64TruncSatF32U = miscOp(5)
	OpI64TruncSatF64S = miscOp(6)
	OpI64TruncSatF64U = miscOp(7)

	OpMemoryInit = miscOp(8)
	OpDataDrop   = miscOp(9)
	OpMemoryCopy = miscOp(10)
	OpMemoryFill = miscOp(11)
	OpTableInit  = miscOp(12)
	OpElemDrop   = miscOp(13)
	OpTableCopy  = miscOp(14)
	OpTableGrow  = miscOp(15)
	OpTableSize  = miscOp(16)
	OpTableFill  = miscOp(17)
)

// SIMD band (prefix 0xFD): representative subset. The opcode space has
// roughly 230 entries; the ones below are enough to exercise every
// immediate shape the v128 grammar produces (const, lane, shuffle,
// memarg). Additional numbered SIMD opcodes decode through the same
// shape-dispatch and need no individual entry here.
var (
	OpV128Load      = simdOp(0)
	OpV128Store     = simdOp(11)
	OpV128Const     = simdOp(12)
	OpI8x16Shuffle  = simdOp(13)
	OpI8x16Splat    = simdOp(15)
	OpI8x16ExtractLaneS = simdOp(21)
	OpI8x16ReplaceLane  = simdOp(23)
)

// Threads band (prefix 0xFE): representative atomic subset.
var (
	OpMemoryAtomicNotify = threadOp(0)
	OpMemoryAtomicWait32 = threadOp(1)
	OpMemoryAtomicWait64 = threadOp(2)
	OpAtomicFence        = threadOp(3)
	OpI32AtomicLoad      = threadOp(0x10)
)

// RequiredFeatures reports the minimum feature set an opcode needs; both
// readers consult it and reject an Instruction whose requirement is not
// met under the active set. Value types carry no such requirement and are
// not feature-checked.
func (op Opcode) RequiredFeatures() []Feature {
	switch {
	case op >= threadsBand:
		return []Feature{FeatureThreads}
	case op >= simdBand:
		return []Feature{FeatureSIMD}
	case op >= miscBand && op <= miscOp(7):
		return []Feature{FeatureSaturatingFloatToInt}
	case op >= OpMemoryInit && op <= OpTableFill:
		return []Feature{FeatureBulkMemory}
	case op == OpReturnCall || op == OpReturnCallIndirect:
		return []Feature{FeatureTailCall}
	case op == OpTry || op == OpCatch || op == OpThrow || op == OpRethrow || op == OpBrOnExn:
		return []Feature{FeatureExceptions}
	case op == OpTableGet || op == OpTableSet || op == OpRefNull || op == OpRefIsNull || op == OpRefFunc || op == OpSelectT:
		return []Feature{FeatureReferenceTypes}
	case op == OpI32Extend8S || op == OpI32Extend16S || op == OpI64Extend8S || op == OpI64Extend16S || op == OpI64Extend32S:
		return []Feature{FeatureSignExtension}
	case op == OpGlobalSet:
		return []Feature{FeatureMutableGlobals}
	default:
		return nil
	}
}
