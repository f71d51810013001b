// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

// Module is the single typed AST both the text and binary readers
// populate. It is a flat ordered list of module items, grouped here by
// kind the way the binary format's own section layout groups them, plus
// the side tables (Customs, and within Types the dedup-synthesized
// inline types) a caller needs to reconstruct either serialization.
type Module struct {
	Types     []TypeEntry
	Imports   []Import
	Functions []Function
	Tables    []Table
	Memories  []Memory
	Globals   []Global
	Exports   []Export
	Start     *Var
	Elements  []Element
	Data      []Data
	Events    []Event
	Customs   []CustomSection
}

// TypeEntry is `(type $id? (func <bound-func-type>))`: a name bound in the
// type namespace plus the function type it records for call-site dedup.
type TypeEntry struct {
	Name string
	Type FunctionType
}

// ImportDescriptor is the closed set of things an Import can bring into a
// module's index spaces.
type ImportDescriptor interface {
	Kind() External
	isImportDescriptor()
}

type FuncImportDescriptor struct{ Type Var }

func (FuncImportDescriptor) Kind() External      { return ExternalFunction }
func (FuncImportDescriptor) isImportDescriptor() {}

type TableImportDescriptor struct{ Type TableType }

func (TableImportDescriptor) Kind() External      { return ExternalTable }
func (TableImportDescriptor) isImportDescriptor() {}

type MemoryImportDescriptor struct{ Type MemoryType }

func (MemoryImportDescriptor) Kind() External      { return ExternalMemory }
func (MemoryImportDescriptor) isImportDescriptor() {}

type GlobalImportDescriptor struct{ Type GlobalType }

func (GlobalImportDescriptor) Kind() External      { return ExternalGlobal }
func (GlobalImportDescriptor) isImportDescriptor() {}

type EventImportDescriptor struct{ Type Var }

func (EventImportDescriptor) Kind() External      { return ExternalEvent }
func (EventImportDescriptor) isImportDescriptor() {}

// Import is a `(import "mod" "name" (<kind> …))` item, or the inline form
// of the same thing attached to a func/table/memory/global/event.
type Import struct {
	Name       string // the local binding name, if the importing item had one
	ModuleName string
	FieldName  string
	Descriptor ImportDescriptor
}

// Local is one local variable declaration inside a function body; the
// parameter list of the function's type counts as the first locals too,
// but those live in Type, not here.
type Local struct {
	Name string
	Type ValueType
}

// Function is a non-imported function: its header plus body. An imported
// function occupies the same function index space but is recorded as an
// Import item instead, per the invariant that imports precede non-imports.
type Function struct {
	Name   string
	Type   Var
	Locals []Local
	Body   []Instruction
}

// Table is a non-imported table.
type Table struct {
	Name string
	Type TableType
}

// Memory is a non-imported memory.
type Memory struct {
	Name string
	Type MemoryType
}

// Global is a non-imported global.
type Global struct {
	Name string
	Type GlobalType
	Init []Instruction
}

// Export is `(export "name" (<kind> <var>))`.
type Export struct {
	Name string
	Kind External
	Var  Var
}

// ElementMode distinguishes an element segment's three forms.
type ElementMode uint8

const (
	ElementActive ElementMode = iota
	ElementPassive
	ElementDeclared
)

// Element is the normalized shape every one of the text grammar's five
// syntactic forms, and every one of the binary format's eight flag-word
// encodings, reduces to.
type Element struct {
	Name    string
	Mode    ElementMode
	Table   Var // meaningful only when Mode == ElementActive
	Offset  []Instruction
	Type    ReferenceType
	Funcs   []Var           // element-kind form: `func <var>*`
	Exprs   [][]Instruction // expression form: `<reftype> <elem-expr>*`
}

// DataMode distinguishes a data segment's active/passive forms.
type DataMode uint8

const (
	DataActive DataMode = iota
	DataPassive
)

// Data is a data segment, in either active or passive form.
type Data struct {
	Name   string
	Mode   DataMode
	Memory Var // meaningful only when Mode == DataActive
	Offset []Instruction
	Bytes  []byte
}

// Event is `(event $id? (type <var>))`, gated by the exceptions feature.
type Event struct {
	Name string
	Type Var
}

// CustomSection is an opaque `(id:0, name, payload)` section preserved
// verbatim; the name subsection (NameSection) is decoded out of one of
// these when present.
type CustomSection struct {
	Name string
	Data []byte
}
