// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munin/wasmcore/wasm"
)

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

func TestReadModuleEmpty(t *testing.T) {
	mod, sink, err := ReadModule(bytes.NewReader(header()), wasm.DefaultFeatures())
	require.NoError(t, err)
	assert.True(t, sink.Empty())
	assert.Empty(t, mod.Types)
	assert.Empty(t, mod.Functions)
}

func TestReadModuleBadMagic(t *testing.T) {
	_, _, err := ReadModule(bytes.NewReader([]byte{0, 0, 0, 0}), wasm.DefaultFeatures())
	assert.Equal(t, ErrInvalidMagic, err)
}

func TestReadModuleTypeFunctionCode(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(header())

	// type section: one (func (param i32) (result i32))
	buf.Write([]byte{
		byte(secType), 6,
		1,          // count
		encFunc,    // func tag
		1, encI32,  // params
		1, encI32,  // results
	})
	// function section: one function, type 0
	buf.Write([]byte{byte(secFunction), 2, 1, 0})
	// code section: one body, no locals, `local.get 0; end`
	buf.Write([]byte{
		byte(secCode), 6,
		1,          // count
		4,          // body size
		0,          // local decl count
		0x20, 0x00, // local.get 0
		0x0b, // end
	})

	mod, sink, err := ReadModule(&buf, wasm.DefaultFeatures())
	require.NoError(t, err)
	require.True(t, sink.Empty(), sink.Errors())
	require.Len(t, mod.Types, 1)
	assert.Equal(t, wasm.I32, mod.Types[0].Type.Params[0].Numeric)
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, uint32(0), mod.Functions[0].Type.Index)
	require.Len(t, mod.Functions[0].Body, 2)
	assert.Equal(t, wasm.OpLocalGet, mod.Functions[0].Body[0].Opcode)
	assert.Equal(t, wasm.OpEnd, mod.Functions[0].Body[1].Opcode)
}

func TestReadModuleLEBOverflow(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(header())
	// type section whose count field is six 0x80 bytes followed by 0x00.
	buf.Write([]byte{byte(secType), 7, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00})

	mod, sink, err := ReadModule(&buf, wasm.DefaultFeatures())
	require.NoError(t, err)
	assert.False(t, sink.Empty())
	assert.Empty(t, mod.Types)
}
