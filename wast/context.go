// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wast

import "github.com/munin/wasmcore/wasm"

// NameMap resolves a symbolic name to the index it was bound at, within
// one index space (funcs, tables, globals, ...).
type NameMap map[string]uint32

func (m NameMap) bind(name string, idx uint32) {
	if name != "" {
		m[name] = idx
	}
}

// Context carries the index spaces a module body is resolved against. It
// is built in a first pass over the module's fields, before any field
// body is parsed, so a forward reference (`call $later`) resolves the
// same as a backward one.
type Context struct {
	Types     NameMap
	Funcs     NameMap
	Tables    NameMap
	Memories  NameMap
	Globals   NameMap
	Elements  NameMap
	Data      NameMap
	Events    NameMap

	// Locals and Labels are reset per function; Labels is a stack since
	// blocks nest and labels shadow outward.
	Locals NameMap
	Labels []string
}

func newContext() *Context {
	return &Context{
		Types:    NameMap{},
		Funcs:    NameMap{},
		Tables:   NameMap{},
		Memories: NameMap{},
		Globals:  NameMap{},
		Elements: NameMap{},
		Data:     NameMap{},
		Events:   NameMap{},
	}
}

func (c *Context) enterFunction() {
	c.Locals = NameMap{}
	c.Labels = nil
}

func (c *Context) pushLabel(name string) {
	c.Labels = append(c.Labels, name)
}

func (c *Context) popLabel() {
	c.Labels = c.Labels[:len(c.Labels)-1]
}

// resolveLabel finds the relative depth of a named label, counting
// outward from the innermost (index 0 is the closest enclosing block).
func (c *Context) resolveLabel(name string) (uint32, bool) {
	for i := len(c.Labels) - 1; i >= 0; i-- {
		if c.Labels[i] == name {
			return uint32(len(c.Labels) - 1 - i), true
		}
	}
	return 0, false
}

// resolve turns a wasm.Var carrying a symbolic name into one carrying the
// bound index, looking the name up in the given space; an already-numeric
// Var passes through unchanged.
func resolve(v wasm.Var, space NameMap) wasm.Var {
	if !v.IsName {
		return v
	}
	if idx, ok := space[v.Name]; ok {
		return wasm.IndexVar(idx)
	}
	return v
}
