// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wast

import "github.com/munin/wasmcore/wasm"

// parseModule drives the top-level `(module $id? field*)` grammar,
// dispatching each field to its own parser and resyncing past anything
// malformed so one bad field does not stop the rest of the module from
// loading.
func (p *parser) parseModule() *wasm.Module {
	mod := &wasm.Module{}

	if !p.scanSExpr(KW_MODULE) {
		if !p.expectLPar() {
			return mod
		}
		if p.tok.Kind != KW_MODULE {
			p.errorf("expected 'module'")
		} else {
			p.scan()
		}
	}
	p.name() // optional module id, not retained

	for p.tok.Kind != RPAR && p.tok.Kind != EOF {
		if !p.expectLPar() {
			p.recover()
			continue
		}
		p.parseField(mod)
	}
	p.expectRPar()
	return mod
}

func (p *parser) parseField(mod *wasm.Module) {
	switch p.tok.Kind {
	case KW_TYPE:
		p.parseTypeField(mod)
	case KW_IMPORT:
		p.parseImportField(mod)
	case KW_FUNC:
		p.parseFuncField(mod)
	case KW_TABLE:
		p.parseTableField(mod)
	case KW_MEMORY:
		p.parseMemoryField(mod)
	case KW_GLOBAL:
		p.parseGlobalField(mod)
	case KW_EXPORT:
		p.parseExportField(mod)
	case KW_START:
		p.parseStartField(mod)
	case KW_ELEM:
		p.parseElemField(mod)
	case KW_DATA:
		p.parseDataField(mod)
	case KW_EVENT:
		p.parseEventField(mod)
	default:
		p.errorf("unexpected module field %q", p.tok.Text)
		p.recover()
		p.expectRPar()
	}
}

func (p *parser) parseTypeField(mod *wasm.Module) {
	p.scan() // 'type'
	name, _ := p.name()
	p.expectLPar()
	if _, ok := p.expect(KW_FUNC); !ok {
		p.recover()
		p.expectRPar()
		p.expectRPar()
		return
	}
	ft, _ := p.parseFuncType()
	p.expectRPar()
	mod.Types = append(mod.Types, wasm.TypeEntry{Name: name, Type: ft})
	p.expectRPar()
}

// parseFuncType reads `(param $x? t)* (result t)*`, returning the
// resulting signature and, in parallel, each param's bound name (empty
// for positional params) for the caller to register as locals.
func (p *parser) parseFuncType() (wasm.FunctionType, []string) {
	var ft wasm.FunctionType
	var names []string
	for p.scanSExpr(KW_PARAM) {
		if name, ok := p.name(); ok {
			vt, ok := p.parseValueType()
			if ok {
				ft.Params = append(ft.Params, vt)
				names = append(names, name)
			}
		} else {
			for p.tok.Kind == VALUE_TYPE {
				vt, _ := p.parseValueType()
				ft.Params = append(ft.Params, vt)
				names = append(names, "")
			}
		}
		p.expectRPar()
	}
	for p.scanSExpr(KW_RESULT) {
		for p.tok.Kind == VALUE_TYPE {
			vt, _ := p.parseValueType()
			ft.Results = append(ft.Results, vt)
		}
		p.expectRPar()
	}
	return ft, names
}

// internTypeUse dedups an inline `(param) (result)` signature against the
// type section, appending a fresh unnamed entry only when no existing one
// matches; this is what lets many functions sharing a signature collapse
// onto one type index the way the binary format requires.
func internTypeUse(mod *wasm.Module, ft wasm.FunctionType) wasm.Var {
	for i, te := range mod.Types {
		if te.Type.Equal(ft) {
			return wasm.IndexVar(uint32(i))
		}
	}
	mod.Types = append(mod.Types, wasm.TypeEntry{Type: ft})
	return wasm.IndexVar(uint32(len(mod.Types) - 1))
}

func (p *parser) parseLimits() wasm.Limits {
	min, _ := p.u32()
	var limits wasm.Limits
	limits.Min = min
	if p.tok.Kind == NAT {
		max, _ := p.u32()
		limits.Max = &max
	}
	if _, ok := p.maybe(KW_SHARED); ok {
		limits.Shared = true
	}
	return limits
}

func (p *parser) parseTableType() wasm.TableType {
	limits := p.parseLimits()
	vt, _ := p.parseValueType()
	return wasm.TableType{Limits: limits, Element: vt.Reference}
}

func (p *parser) parseMemoryType() wasm.MemoryType {
	return wasm.MemoryType{Limits: p.parseLimits()}
}

func (p *parser) parseGlobalType() wasm.GlobalType {
	if p.scanSExpr(KW_MUT) {
		vt, _ := p.parseValueType()
		p.expectRPar()
		return wasm.GlobalType{Type: vt, Mutable: true}
	}
	vt, _ := p.parseValueType()
	return wasm.GlobalType{Type: vt}
}

// exportClause is one `(export "name")` sugar attached to a func/table/
// memory/global/event definition, recorded here and turned into a real
// wasm.Export once the defining item's index is known.
type exportClause struct{ Name string }

func (p *parser) parseInlineExports() []exportClause {
	var out []exportClause
	for p.peekSExpr(KW_EXPORT) {
		p.scan()
		p.scan()
		name, _ := p.tok.Value.(string)
		p.scan()
		p.expectRPar()
		out = append(out, exportClause{Name: name})
	}
	return out
}

func (p *parser) bindExports(mod *wasm.Module, clauses []exportClause, kind wasm.External, idx uint32) {
	for _, c := range clauses {
		mod.Exports = append(mod.Exports, wasm.Export{Name: c.Name, Kind: kind, Var: wasm.IndexVar(idx)})
	}
}

// parseInlineImport reads an optional `(import "mod" "name")` sugar,
// reporting whether one was present.
func (p *parser) parseInlineImport() (moduleName, fieldName string, ok bool) {
	if !p.peekSExpr(KW_IMPORT) {
		return "", "", false
	}
	p.scan()
	p.scan()
	if s, ok := p.tok.Value.(string); ok {
		moduleName = s
	}
	p.scan()
	if s, ok := p.tok.Value.(string); ok {
		fieldName = s
	}
	p.scan()
	p.expectRPar()
	return moduleName, fieldName, true
}

func (p *parser) parseFuncField(mod *wasm.Module) {
	p.scan() // 'func'
	name, _ := p.name()
	exports := p.parseInlineExports()

	if modName, fieldName, isImport := p.parseInlineImport(); isImport {
		typ, _ := p.parseFuncSignature(mod)
		idx := uint32(countExternal(mod, wasm.ExternalFunction))
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.FuncImportDescriptor{Type: typ}})
		p.bindExports(mod, exports, wasm.ExternalFunction, idx)
		p.expectRPar()
		return
	}

	typ, paramNames := p.parseFuncSignature(mod)
	idx := uint32(countExternal(mod, wasm.ExternalFunction))

	p.ctx.enterFunction()
	// A type use that names a type not yet in mod.Types (a forward or
	// unknown reference) contributes no params to the local numbering.
	numParams := len(paramNames)
	if int(typ.Index) < len(mod.Types) {
		numParams = len(mod.Types[typ.Index].Type.Params)
	}
	for i, pname := range paramNames {
		p.ctx.Locals.bind(pname, uint32(i))
	}

	var locals []wasm.Local
	for p.scanSExpr(KW_LOCAL) {
		if lname, ok := p.name(); ok {
			vt, _ := p.parseValueType()
			p.ctx.Locals.bind(lname, uint32(numParams+len(locals)))
			locals = append(locals, wasm.Local{Name: lname, Type: vt})
		} else {
			for p.tok.Kind == VALUE_TYPE {
				vt, _ := p.parseValueType()
				locals = append(locals, wasm.Local{Type: vt})
			}
		}
		p.expectRPar()
	}

	var body []wasm.Instruction
	p.parseInstrList(&body)

	mod.Functions = append(mod.Functions, wasm.Function{Name: name, Type: typ, Locals: locals, Body: body})
	p.bindExports(mod, exports, wasm.ExternalFunction, idx)
	p.expectRPar()
}

// parseFuncSignature reads the `(type $t)? (param ..)* (result ..)*`
// clauses of a func header and returns the resolved type-section index
// plus each inline param's bound name (empty slice when a type was used
// without any accompanying inline params).
func (p *parser) parseFuncSignature(mod *wasm.Module) (wasm.Var, []string) {
	var explicit *wasm.Var
	if p.peekSExpr(KW_TYPE) {
		p.scan()
		p.scan()
		v, _ := p.natVar()
		p.expectRPar()
		r := resolve(v, p.ctx.Types)
		explicit = &r
	}
	ft, names := p.parseFuncType()
	if explicit != nil {
		return *explicit, names
	}
	return internTypeUse(mod, ft), names
}

func countExternal(mod *wasm.Module, kind wasm.External) int {
	n := 0
	for _, imp := range mod.Imports {
		if imp.Descriptor.Kind() == kind {
			n++
		}
	}
	switch kind {
	case wasm.ExternalFunction:
		n += len(mod.Functions)
	case wasm.ExternalTable:
		n += len(mod.Tables)
	case wasm.ExternalMemory:
		n += len(mod.Memories)
	case wasm.ExternalGlobal:
		n += len(mod.Globals)
	case wasm.ExternalEvent:
		n += len(mod.Events)
	}
	return n
}

func (p *parser) parseTableField(mod *wasm.Module) {
	p.scan()
	name, _ := p.name()
	exports := p.parseInlineExports()
	idx := uint32(countExternal(mod, wasm.ExternalTable))

	if modName, fieldName, isImport := p.parseInlineImport(); isImport {
		typ := p.parseTableType()
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.TableImportDescriptor{Type: typ}})
		p.bindExports(mod, exports, wasm.ExternalTable, idx)
		p.expectRPar()
		return
	}

	typ := p.parseTableType()
	mod.Tables = append(mod.Tables, wasm.Table{Name: name, Type: typ})
	p.bindExports(mod, exports, wasm.ExternalTable, idx)
	p.expectRPar()
}

func (p *parser) parseMemoryField(mod *wasm.Module) {
	p.scan()
	name, _ := p.name()
	exports := p.parseInlineExports()
	idx := uint32(countExternal(mod, wasm.ExternalMemory))

	if modName, fieldName, isImport := p.parseInlineImport(); isImport {
		typ := p.parseMemoryType()
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.MemoryImportDescriptor{Type: typ}})
		p.bindExports(mod, exports, wasm.ExternalMemory, idx)
		p.expectRPar()
		return
	}

	typ := p.parseMemoryType()
	mod.Memories = append(mod.Memories, wasm.Memory{Name: name, Type: typ})
	p.bindExports(mod, exports, wasm.ExternalMemory, idx)
	p.expectRPar()
}

func (p *parser) parseGlobalField(mod *wasm.Module) {
	p.scan()
	name, _ := p.name()
	exports := p.parseInlineExports()
	idx := uint32(countExternal(mod, wasm.ExternalGlobal))

	if modName, fieldName, isImport := p.parseInlineImport(); isImport {
		typ := p.parseGlobalType()
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.GlobalImportDescriptor{Type: typ}})
		p.bindExports(mod, exports, wasm.ExternalGlobal, idx)
		p.expectRPar()
		return
	}

	typ := p.parseGlobalType()
	var init []wasm.Instruction
	p.parseInstrList(&init)
	mod.Globals = append(mod.Globals, wasm.Global{Name: name, Type: typ, Init: init})
	p.bindExports(mod, exports, wasm.ExternalGlobal, idx)
	p.expectRPar()
}

func (p *parser) parseEventField(mod *wasm.Module) {
	p.scan()
	name, _ := p.name()
	exports := p.parseInlineExports()
	idx := uint32(countExternal(mod, wasm.ExternalEvent))

	readType := func() wasm.Var {
		if p.scanSExpr(KW_TYPE) {
			v, _ := p.natVar()
			p.expectRPar()
			return resolve(v, p.ctx.Types)
		}
		return wasm.Var{}
	}

	if modName, fieldName, isImport := p.parseInlineImport(); isImport {
		typ := readType()
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.EventImportDescriptor{Type: typ}})
		p.bindExports(mod, exports, wasm.ExternalEvent, idx)
		p.expectRPar()
		return
	}

	typ := readType()
	mod.Events = append(mod.Events, wasm.Event{Name: name, Type: typ})
	p.bindExports(mod, exports, wasm.ExternalEvent, idx)
	p.expectRPar()
}

func (p *parser) parseExportField(mod *wasm.Module) {
	p.scan()
	name, _ := p.tok.Value.(string)
	p.scan()
	p.expectLPar()
	kind, space, ok := p.parseExternalKind()
	if !ok {
		p.recover()
		p.expectRPar()
		p.expectRPar()
		return
	}
	v, _ := p.natVar()
	mod.Exports = append(mod.Exports, wasm.Export{Name: name, Kind: kind, Var: resolve(v, space)})
	p.expectRPar()
	p.expectRPar()
}

func (p *parser) parseExternalKind() (wasm.External, NameMap, bool) {
	switch p.tok.Kind {
	case KW_FUNC:
		p.scan()
		return wasm.ExternalFunction, p.ctx.Funcs, true
	case KW_TABLE:
		p.scan()
		return wasm.ExternalTable, p.ctx.Tables, true
	case KW_MEMORY:
		p.scan()
		return wasm.ExternalMemory, p.ctx.Memories, true
	case KW_GLOBAL:
		p.scan()
		return wasm.ExternalGlobal, p.ctx.Globals, true
	case KW_EVENT:
		p.scan()
		return wasm.ExternalEvent, p.ctx.Events, true
	default:
		return 0, nil, false
	}
}

func (p *parser) parseStartField(mod *wasm.Module) {
	p.scan()
	v, ok := p.natVar()
	if ok {
		r := resolve(v, p.ctx.Funcs)
		mod.Start = &r
	}
	p.expectRPar()
}

func (p *parser) parseImportField(mod *wasm.Module) {
	p.scan()
	modName, _ := p.tok.Value.(string)
	p.scan()
	fieldName, _ := p.tok.Value.(string)
	p.scan()
	p.expectLPar()

	kind := p.tok.Kind
	if _, ok := externalForKeyword(kind); ok {
		p.scan()
	}
	name, _ := p.name()
	switch kind {
	case KW_FUNC:
		typ, _ := p.parseFuncSignature(mod)
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.FuncImportDescriptor{Type: typ}})
	case KW_TABLE:
		typ := p.parseTableType()
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.TableImportDescriptor{Type: typ}})
	case KW_MEMORY:
		typ := p.parseMemoryType()
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.MemoryImportDescriptor{Type: typ}})
	case KW_GLOBAL:
		typ := p.parseGlobalType()
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.GlobalImportDescriptor{Type: typ}})
	case KW_EVENT:
		var typ wasm.Var
		if p.scanSExpr(KW_TYPE) {
			v, _ := p.natVar()
			p.expectRPar()
			typ = resolve(v, p.ctx.Types)
		}
		mod.Imports = append(mod.Imports, wasm.Import{Name: name, ModuleName: modName, FieldName: fieldName, Descriptor: wasm.EventImportDescriptor{Type: typ}})
	default:
		p.errorf("unknown import kind %q", p.tok.Text)
		p.recover()
	}
	p.expectRPar()
	p.expectRPar()
}

func (p *parser) parseElemField(mod *wasm.Module) {
	p.scan()
	name, _ := p.name()

	mode := wasm.ElementActive
	table := wasm.IndexVar(0)
	var offset []wasm.Instruction

	if p.scanSExpr(KW_TABLE) {
		v, _ := p.natVar()
		table = resolve(v, p.ctx.Tables)
		p.expectRPar()
	}
	if _, ok := p.maybe(KW_DECLARE); ok {
		mode = wasm.ElementDeclared
	} else if p.scanSExpr(KW_OFFSET) {
		p.parseInstrList(&offset)
		p.expectRPar()
	} else if p.tok.Kind == LPAR {
		// shorthand offset: a single folded instruction with no `offset` keyword
		p.parseInstrList(&offset)
	} else {
		mode = wasm.ElementPassive
	}

	elemType := wasm.ReferenceType{Kind: wasm.RefFunc, Nullable: true, Heap: wasm.HeapType{Kind: wasm.HeapFunc}}
	if _, ok := p.maybe(KW_FUNC); ok {
		// bare `func` elemkind keyword, type stays funcref
	} else if p.tok.Kind == VALUE_TYPE {
		vt, _ := p.parseValueType()
		if vt.Kind == wasm.ValueTypeReference {
			elemType = vt.Reference
		}
	}

	var funcs []wasm.Var
	for {
		v, ok := p.natVar()
		if !ok {
			break
		}
		funcs = append(funcs, resolve(v, p.ctx.Funcs))
	}

	mod.Elements = append(mod.Elements, wasm.Element{Name: name, Mode: mode, Table: table, Offset: offset, Type: elemType, Funcs: funcs})
	p.expectRPar()
}

func (p *parser) parseDataField(mod *wasm.Module) {
	p.scan()
	name, _ := p.name()

	mode := wasm.DataActive
	memory := wasm.IndexVar(0)
	var offset []wasm.Instruction

	if p.scanSExpr(KW_MEMORY) {
		v, _ := p.natVar()
		memory = resolve(v, p.ctx.Memories)
		p.expectRPar()
	}
	if p.scanSExpr(KW_OFFSET) {
		p.parseInstrList(&offset)
		p.expectRPar()
	} else if p.tok.Kind == LPAR {
		p.parseInstrList(&offset)
	} else {
		mode = wasm.DataPassive
	}

	var parts []string
	for p.tok.Kind == STRING {
		s, _ := p.tok.Value.(string)
		parts = append(parts, s)
		p.scan()
	}

	mod.Data = append(mod.Data, wasm.Data{Name: name, Mode: mode, Memory: memory, Offset: offset, Bytes: textToBytes(parts)})
	p.expectRPar()
}
