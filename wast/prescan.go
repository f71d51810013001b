// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wast

import "github.com/munin/wasmcore/wasm"

// prescan walks a module's top-level forms once, before any field body is
// parsed, to bind every name to the index it will end up at. This is what
// lets a function body `call $later` resolve a function declared further
// down in the same module: the real parse (parseModule) never has to
// backpatch, because Context is already complete by the time it starts.
//
// Per the module's index-space rule, imports of a kind occupy the low
// indices of that kind's space, in import order, followed by the kind's
// non-import definitions in declaration order - regardless of how imports
// and definitions interleave in the source text.
func prescan(s *Scanner) *Context {
	ctx := newContext()

	var importNames [5][]string // indexed by wasm.External
	var defNames [5][]string
	typeCount := uint32(0)

	tok := s.Scan()
	if tok.Kind == LPAR {
		next := s.Scan()
		if next.Kind == KW_MODULE {
			tok = s.Scan()
		} else {
			tok = next
		}
	}

	for tok.Kind != EOF {
		if tok.Kind != LPAR {
			tok = s.Scan()
			continue
		}
		kw := s.Scan()

		switch kw.Kind {
		case KW_TYPE:
			name, next := prescanLeadingName(s, kw)
			ctx.Types.bind(name, typeCount)
			typeCount++
			tok = skipForm(s, next, 1)

		case KW_IMPORT:
			tok = prescanImport(s, &importNames)

		case KW_FUNC, KW_TABLE, KW_MEMORY, KW_GLOBAL, KW_EVENT:
			kind, _ := externalForKeyword(kw.Kind)
			tok = prescanDefOrImport(s, kw, kind, &importNames, &defNames)

		default:
			tok = skipForm(s, kw, 1)
		}
	}

	bindSpace(ctx.Funcs, importNames[wasm.ExternalFunction], defNames[wasm.ExternalFunction])
	bindSpace(ctx.Tables, importNames[wasm.ExternalTable], defNames[wasm.ExternalTable])
	bindSpace(ctx.Memories, importNames[wasm.ExternalMemory], defNames[wasm.ExternalMemory])
	bindSpace(ctx.Globals, importNames[wasm.ExternalGlobal], defNames[wasm.ExternalGlobal])
	bindSpace(ctx.Events, importNames[wasm.ExternalEvent], defNames[wasm.ExternalEvent])

	return ctx
}

func bindSpace(space NameMap, imports, defs []string) {
	idx := uint32(0)
	for _, n := range imports {
		space.bind(n, idx)
		idx++
	}
	for _, n := range defs {
		space.bind(n, idx)
		idx++
	}
}

func externalForKeyword(k TokenKind) (wasm.External, bool) {
	switch k {
	case KW_FUNC:
		return wasm.ExternalFunction, true
	case KW_TABLE:
		return wasm.ExternalTable, true
	case KW_MEMORY:
		return wasm.ExternalMemory, true
	case KW_GLOBAL:
		return wasm.ExternalGlobal, true
	case KW_EVENT:
		return wasm.ExternalEvent, true
	default:
		return 0, false
	}
}

// skipForm consumes tokens, starting at tok (not yet examined) with depth
// unmatched '(' already open, until depth returns to zero, and returns
// the token immediately following the form's closing ')'.
func skipForm(s *Scanner, tok *Token, depth int) *Token {
	for depth > 0 {
		if tok.Kind == EOF {
			return tok
		}
		switch tok.Kind {
		case LPAR:
			depth++
		case RPAR:
			depth--
		}
		tok = s.Scan()
	}
	return tok
}

// prescanLeadingName consumes an optional $name immediately following a
// keyword token already read, returning it (or "") plus the next token.
func prescanLeadingName(s *Scanner, afterKeyword *Token) (string, *Token) {
	next := s.Scan()
	if next.Kind == VAR {
		return next.Value.(string), s.Scan()
	}
	return "", next
}

// prescanImport handles a standalone `(import "mod" "name" (kind $id? ...))`.
func prescanImport(s *Scanner, importNames *[5][]string) *Token {
	n1 := s.Scan()
	if n1.Kind != STRING {
		return skipForm(s, n1, 1)
	}
	n2 := s.Scan()
	if n2.Kind != STRING {
		return skipForm(s, n2, 1)
	}
	n3 := s.Scan()
	if n3.Kind != LPAR {
		return skipForm(s, n3, 1)
	}
	kindTok := s.Scan()
	name, next := prescanLeadingName(s, kindTok)
	if k, ok := externalForKeyword(kindTok.Kind); ok {
		importNames[k] = append(importNames[k], name)
	}
	return skipForm(s, next, 2)
}

// prescanDefOrImport handles `(func $id? ...)` and its table/memory/
// global/event analogues, recording the name into defNames unless the
// body is an inline `(import "m" "n")`, possibly after inline exports, in
// which case it goes into importNames instead.
func prescanDefOrImport(s *Scanner, kw *Token, kind wasm.External, importNames, defNames *[5][]string) *Token {
	name, next := prescanLeadingName(s, kw)
	if next.Kind != LPAR {
		defNames[kind] = append(defNames[kind], name)
		return skipForm(s, next, 1)
	}

	inner := s.Scan()
	for inner.Kind == KW_EXPORT {
		next = skipForm(s, s.Scan(), 1)
		if next.Kind != LPAR {
			defNames[kind] = append(defNames[kind], name)
			return skipForm(s, next, 1)
		}
		inner = s.Scan()
	}
	if inner.Kind == KW_IMPORT {
		importNames[kind] = append(importNames[kind], name)
	} else {
		defNames[kind] = append(defNames[kind], name)
	}
	after := s.Scan()
	return skipForm(s, after, 2)
}
