// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

// NumericType is one of the scalar and vector value kinds.
type NumericType uint8

const (
	I32 NumericType = iota
	I64
	F32
	F64
	V128
)

func (t NumericType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case V128:
		return "v128"
	default:
		return "invalid"
	}
}

// HeapKind is the head of a HeapType.
type HeapKind uint8

const (
	HeapFunc HeapKind = iota
	HeapExtern
	HeapExn
	HeapTypeIndex // refers to Var, a defined function type
)

// HeapType is {Kind{func|extern|exn}, Var}: either one of the abstract
// heap kinds, or (under function_references) an index into the type
// namespace.
type HeapType struct {
	Kind HeapKind
	Var  Var
}

// ReferenceKind distinguishes the three reference type heads.
type ReferenceKind uint8

const (
	RefFunc ReferenceKind = iota
	RefExtern
	RefExn
)

// ReferenceType is {Kind{funcref|externref|exnref}, Ref{nullable,HeapType}}.
type ReferenceType struct {
	Kind     ReferenceKind
	Nullable bool
	Heap     HeapType
}

// ValueTypeKind discriminates the ValueType tagged union.
type ValueTypeKind uint8

const (
	ValueTypeNumeric ValueTypeKind = iota
	ValueTypeReference
)

// ValueType is tagged {Numeric{i32|i64|f32|f64|v128}, Reference(ReferenceType)}.
type ValueType struct {
	Kind      ValueTypeKind
	Numeric   NumericType
	Reference ReferenceType
}

func NumericValueType(t NumericType) ValueType {
	return ValueType{Kind: ValueTypeNumeric, Numeric: t}
}

func ReferenceValueType(t ReferenceType) ValueType {
	return ValueType{Kind: ValueTypeReference, Reference: t}
}

func (t ValueType) String() string {
	if t.Kind == ValueTypeNumeric {
		return t.Numeric.String()
	}
	switch t.Reference.Kind {
	case RefFunc:
		return "funcref"
	case RefExtern:
		return "externref"
	case RefExn:
		return "exnref"
	default:
		return "invalid"
	}
}

// Limits is {min:u32, max:u32?, shared:{no,yes}}. Invariant: Max, when
// present, is >= Min; Shared is only meaningful for memory limits and only
// valid when the threads feature is enabled.
type Limits struct {
	Min    uint32
	Max    *uint32
	Shared bool
}

// FunctionType is params: list<ValueType>, results: list<ValueType>.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

func (t FunctionType) Equal(o FunctionType) bool {
	if len(t.Params) != len(o.Params) || len(t.Results) != len(o.Results) {
		return false
	}
	for i := range t.Params {
		if t.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range t.Results {
		if t.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

// Var is a reference to a named item: either a numeric index (IsName
// false) or a symbolic name (IsName true), resolved against a NameMap
// before it reaches the final AST. Once resolved, Index is always valid
// and Name is retained only for diagnostics/round-tripping.
type Var struct {
	IsName bool
	Name   string
	Index  uint32
}

func IndexVar(index uint32) Var { return Var{Index: index} }
func NameVar(name string) Var   { return Var{IsName: true, Name: name} }

// TableType is the table element type plus its size limits.
type TableType struct {
	Limits  Limits
	Element ReferenceType
}

// MemoryType is a memory's size limits, counted in 64KiB pages (or bytes
// under memory64).
type MemoryType struct {
	Limits Limits
}

// GlobalType is a value type plus mutability.
type GlobalType struct {
	Type    ValueType
	Mutable bool
}

// External names the five importable/exportable entity kinds.
type External uint8

const (
	ExternalFunction External = iota
	ExternalTable
	ExternalMemory
	ExternalGlobal
	ExternalEvent
)

func (e External) String() string {
	switch e {
	case ExternalFunction:
		return "func"
	case ExternalTable:
		return "table"
	case ExternalMemory:
		return "memory"
	case ExternalGlobal:
		return "global"
	case ExternalEvent:
		return "event"
	default:
		return "invalid"
	}
}
