// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wast decodes the WebAssembly text format (.wat) into the same
// wasm.Module AST the binary reader produces. It never emits text back
// out, and it never validates instruction type stacks; both are external
// collaborators.
package wast

import (
	"bytes"
	"io"

	"github.com/munin/wasmcore/wasm"
)

// ReadModule parses one `(module ...)` text unit. The returned error is
// reserved for fatal I/O failures reading r; anything wrong with the
// module's text itself is recorded on the returned ErrorSink instead, and
// parsing continues on a best-effort basis past each fault.
func ReadModule(r io.Reader, features wasm.Features) (*wasm.Module, *wasm.ErrorSink, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	sink := &wasm.ErrorSink{}

	ctx := prescan(NewScanner(bytes.NewReader(data), sink))

	p := newParser(NewScanner(bytes.NewReader(data), sink), sink, ctx)
	mod := p.parseModule()

	checkFeatures(mod, features, sink)

	return mod, sink, nil
}

// checkFeatures walks every instruction the parser produced, recording a
// diagnostic for any opcode the active feature set does not admit; value
// types are not checked. The binary reader does the equivalent opcode
// check inline as it decodes, since it has no separate AST pass to make
// after the fact.
func checkFeatures(mod *wasm.Module, features wasm.Features, sink *wasm.ErrorSink) {
	check := func(instrs []wasm.Instruction) {
		for _, instr := range instrs {
			if !features.TestAll(instr.Opcode.RequiredFeatures()...) {
				sink.OnError(instr.Span, "opcode requires a feature not enabled in this module")
			}
		}
	}
	for _, fn := range mod.Functions {
		check(fn.Body)
	}
	for _, g := range mod.Globals {
		check(g.Init)
	}
	for _, e := range mod.Elements {
		check(e.Offset)
		for _, expr := range e.Exprs {
			check(expr)
		}
	}
	for _, d := range mod.Data {
		check(d.Offset)
	}
}
