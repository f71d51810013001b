// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

// Immediate is the closed set of payload shapes an Instruction's opcode may
// carry. Exactly one concrete type below is stored per Instruction.
type Immediate interface {
	isImmediate()
}

// NoImmediate carries no payload (e.g. i32.add, nop, end).
type NoImmediate struct{}

func (NoImmediate) isImmediate() {}

type I32Immediate struct{ Value int32 }

func (I32Immediate) isImmediate() {}

type I64Immediate struct{ Value int64 }

func (I64Immediate) isImmediate() {}

type F32Immediate struct{ Value float32 }

func (F32Immediate) isImmediate() {}

type F64Immediate struct{ Value float64 }

func (F64Immediate) isImmediate() {}

// V128Immediate is a 16-byte payload viewable as lanes of any of
// {i8x16, i16x8, i32x4, i64x2, f32x4, f64x2}.
type V128Immediate struct{ Value [16]byte }

func (V128Immediate) isImmediate() {}

// IndexImmediate references a single item in some namespace
// (local.get, call, global.set, br, ref.func, ...).
type IndexImmediate struct{ Var Var }

func (IndexImmediate) isImmediate() {}

// BlockKind distinguishes block/loop/if/try headers.
type BlockKind uint8

const (
	BlockPlain BlockKind = iota
	BlockLoop
	BlockIf
	BlockTry
)

// BlockTypeKind discriminates how a structured instruction's signature is
// spelled: empty, a single result value type, or a full (possibly
// multi-value) function type via a type-section index.
type BlockTypeKind uint8

const (
	BlockTypeEmpty BlockTypeKind = iota
	BlockTypeValue
	BlockTypeIndex
)

// BlockType is the `block-type` immediate shape: `type_use? param*
// result*` collapsed to its resolved form.
type BlockType struct {
	Kind  BlockTypeKind
	Value ValueType
	Index Var
}

// BlockImmediate carries the header of block/loop/if/try.
type BlockImmediate struct {
	Kind  BlockKind
	Label string
	Type  BlockType
}

func (BlockImmediate) isImmediate() {}

// BrOnExnImmediate is br_on_exn's (label, event) pair.
type BrOnExnImmediate struct {
	Label Var
	Event Var
}

func (BrOnExnImmediate) isImmediate() {}

// BrTableImmediate is br_table's target list plus default target.
type BrTableImmediate struct {
	Targets []Var
	Default Var
}

func (BrTableImmediate) isImmediate() {}

// CallIndirectImmediate is call_indirect's (table, type) pair. Table
// defaults to index 0 when the reference-types multi-table grammar is not
// in play.
type CallIndirectImmediate struct {
	Table Var
	Type  BlockType
}

func (CallIndirectImmediate) isImmediate() {}

// CopyImmediate is the (dst, src) pair used by table.copy/memory.copy.
type CopyImmediate struct {
	Dst Var
	Src Var
}

func (CopyImmediate) isImmediate() {}

// InitImmediate is the (segment, table-or-memory) pair used by
// table.init/memory.init.
type InitImmediate struct {
	Segment Var
	Dst     Var
}

func (InitImmediate) isImmediate() {}

// MemArgImmediate is the (align, offset) pair carried by every
// load/store instruction.
type MemArgImmediate struct {
	Align  uint32
	Offset uint32
}

func (MemArgImmediate) isImmediate() {}

// HeapTypeImmediate carries ref.null's operand.
type HeapTypeImmediate struct{ Type HeapType }

func (HeapTypeImmediate) isImmediate() {}

// SelectTypesImmediate carries the typed `select t*` form's result list.
type SelectTypesImmediate struct{ Types []ValueType }

func (SelectTypesImmediate) isImmediate() {}

// ShuffleImmediate carries i8x16.shuffle's 16 lane-index operands.
type ShuffleImmediate struct{ Lanes [16]byte }

func (ShuffleImmediate) isImmediate() {}

// SimdLaneImmediate carries a SIMD lane-index operand (extract_lane,
// replace_lane).
type SimdLaneImmediate struct{ Lane byte }

func (SimdLaneImmediate) isImmediate() {}

// Instruction is {opcode, immediate}. Every opcode advertises its required
// feature set (Opcode.RequiredFeatures). The binary reader picks the
// immediate reader by switching on the opcode value; the text reader
// dispatches on the token's shape.
type Instruction struct {
	Opcode    Opcode
	Immediate Immediate
	Span      Span
}
