// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munin/wasmcore/wasm"
)

func TestReadModuleEmpty(t *testing.T) {
	mod, sink, err := ReadModule(strings.NewReader("(module)"), wasm.DefaultFeatures())
	require.NoError(t, err)
	assert.True(t, sink.Empty(), sink.Errors())
	assert.Empty(t, mod.Functions)
}

func TestReadModuleFuncAddTwo(t *testing.T) {
	src := `(module
	  (func $add (export "add") (param $a i32) (param $b i32) (result i32)
	    local.get $a
	    local.get $b
	    i32.add))`

	mod, sink, err := ReadModule(strings.NewReader(src), wasm.DefaultFeatures())
	require.NoError(t, err)
	require.True(t, sink.Empty(), sink.Errors())

	require.Len(t, mod.Functions, 1)
	fn := mod.Functions[0]
	assert.Equal(t, "add", fn.Name)

	te := mod.Types[fn.Type.Index]
	require.Len(t, te.Type.Params, 2)
	require.Len(t, te.Type.Results, 1)

	require.Len(t, fn.Body, 3)
	assert.Equal(t, wasm.OpLocalGet, fn.Body[0].Opcode)
	assert.Equal(t, uint32(0), fn.Body[0].Immediate.(wasm.IndexImmediate).Var.Index)
	assert.Equal(t, wasm.OpLocalGet, fn.Body[1].Opcode)
	assert.Equal(t, uint32(1), fn.Body[1].Immediate.(wasm.IndexImmediate).Var.Index)
	assert.Equal(t, wasm.OpI32Add, fn.Body[2].Opcode)

	require.Len(t, mod.Exports, 1)
	assert.Equal(t, "add", mod.Exports[0].Name)
	assert.Equal(t, wasm.ExternalFunction, mod.Exports[0].Kind)
}

func TestReadModuleForwardCallReference(t *testing.T) {
	src := `(module
	  (func $caller (result i32) call $callee)
	  (func $callee (result i32) i32.const 7))`

	mod, sink, err := ReadModule(strings.NewReader(src), wasm.DefaultFeatures())
	require.NoError(t, err)
	require.True(t, sink.Empty(), sink.Errors())

	require.Len(t, mod.Functions, 2)
	caller := mod.Functions[0]
	require.Len(t, caller.Body, 1)
	assert.Equal(t, wasm.OpCall, caller.Body[0].Opcode)
	assert.Equal(t, uint32(1), caller.Body[0].Immediate.(wasm.IndexImmediate).Var.Index)
}

func TestReadModuleImportOccupiesLowIndex(t *testing.T) {
	src := `(module
	  (import "env" "log" (func $log (param i32)))
	  (func $main call $log))`

	mod, sink, err := ReadModule(strings.NewReader(src), wasm.DefaultFeatures())
	require.NoError(t, err)
	require.True(t, sink.Empty(), sink.Errors())

	require.Len(t, mod.Imports, 1)
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, wasm.OpCall, mod.Functions[0].Body[0].Opcode)
	assert.Equal(t, uint32(0), mod.Functions[0].Body[0].Immediate.(wasm.IndexImmediate).Var.Index)
}

func TestReadModuleUnknownFieldRecoversAndContinues(t *testing.T) {
	src := `(module
	  (bogus field here)
	  (func $f (result i32) i32.const 1))`

	mod, sink, err := ReadModule(strings.NewReader(src), wasm.DefaultFeatures())
	require.NoError(t, err)
	assert.False(t, sink.Empty())
	require.Len(t, mod.Functions, 1)
}

func TestReadModuleFeatureGate(t *testing.T) {
	src := `(module (func (result i32) i32.const 1 i32.const 2 table.get 0))`

	noRefTypes := wasm.DefaultFeatures()
	_, sink, err := ReadModule(strings.NewReader(src), noRefTypes)
	require.NoError(t, err)
	assert.False(t, sink.Empty())

	withRefTypes := wasm.DefaultFeatures()
	withRefTypes.Set(wasm.FeatureReferenceTypes)
	_, sink2, err := ReadModule(strings.NewReader(src), withRefTypes)
	require.NoError(t, err)
	assert.True(t, sink2.Empty(), sink2.Errors())
}
