// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wast

import (
	"math"
	"math/big"

	"github.com/munin/wasmcore/wasm"
)

// parser drives a two-token lookahead over the scanner and never panics:
// a malformed construct is recorded on the sink and the parser resyncs to
// the next balanced ')' so the rest of the module still gets read.
type parser struct {
	s    *Scanner
	sink *wasm.ErrorSink
	ctx  *Context

	tok, next *Token
}

func newParser(s *Scanner, sink *wasm.ErrorSink, ctx *Context) *parser {
	p := &parser{s: s, sink: sink, ctx: ctx}
	p.tok = s.Scan()
	p.next = s.Scan()
	return p
}

func (p *parser) scan() {
	p.tok = p.next
	p.next = p.s.Scan()
}

func (p *parser) kind() TokenKind {
	return p.tok.Kind
}

func (p *parser) peekSExpr(word TokenKind) bool {
	return p.tok.Kind == LPAR && p.next.Kind == word
}

func (p *parser) scanSExpr(word TokenKind) bool {
	if p.peekSExpr(word) {
		p.scan()
		p.scan()
		return true
	}
	return false
}

func (p *parser) expectLPar() bool {
	if p.tok.Kind != LPAR {
		p.errorf("expected '('")
		return false
	}
	p.scan()
	return true
}

func (p *parser) expectRPar() bool {
	if p.tok.Kind != RPAR {
		p.errorf("expected ')'")
		return false
	}
	p.scan()
	return true
}

func (p *parser) expect(k TokenKind) (*Token, bool) {
	if p.tok.Kind != k {
		p.errorf("unexpected token %q", p.tok.Text)
		return nil, false
	}
	tok := p.tok
	p.scan()
	return tok, true
}

func (p *parser) maybe(k TokenKind) (*Token, bool) {
	if p.tok.Kind != k {
		return nil, false
	}
	tok := p.tok
	p.scan()
	return tok, true
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.sink.OnError(wasm.Span{Start: 0, End: 0}, format, args...)
}

// recover skips forward to the ')' that balances the current nesting depth,
// so one malformed field does not abort the rest of the enclosing form.
func (p *parser) recover() {
	depth := 0
	for {
		switch p.tok.Kind {
		case EOF:
			return
		case LPAR:
			depth++
		case RPAR:
			if depth == 0 {
				return
			}
			depth--
		}
		p.scan()
	}
}

func (p *parser) name() (string, bool) {
	if p.tok.Kind != VAR {
		return "", false
	}
	name := p.tok.Value.(string)
	p.scan()
	return name, true
}

func (p *parser) natVar() (wasm.Var, bool) {
	if name, ok := p.name(); ok {
		return wasm.NameVar(name), true
	}
	if p.tok.Kind == NAT {
		v, ok := p.bigIntValue()
		if !ok {
			return wasm.Var{}, false
		}
		p.scan()
		return wasm.IndexVar(uint32(v)), true
	}
	return wasm.Var{}, false
}

func (p *parser) bigIntValue() (int64, bool) {
	b, ok := p.tok.Value.(*BigInt)
	if !ok {
		p.errorf("expected a numeral")
		return 0, false
	}
	v, err := b.I()
	if err != nil {
		p.errorf("malformed numeral: %v", err)
		return 0, false
	}
	return v, true
}

func (p *parser) i32() (int32, bool) {
	v, ok := p.bigIntValue()
	if !ok {
		return 0, false
	}
	p.scan()
	return int32(v), true
}

func (p *parser) i64() (int64, bool) {
	v, ok := p.bigIntValue()
	if !ok {
		return 0, false
	}
	p.scan()
	return v, true
}

func (p *parser) u32() (uint32, bool) {
	v, ok := p.bigIntValue()
	if !ok {
		return 0, false
	}
	p.scan()
	return uint32(v), true
}

func (p *parser) f32() (float32, bool) {
	f, ok := p.f64()
	return float32(f), ok
}

func (p *parser) f64() (float64, bool) {
	switch v := p.tok.Value.(type) {
	case *BigInt:
		bf, err := v.F()
		if err != nil {
			p.errorf("malformed numeral: %v", err)
			return 0, false
		}
		f, _ := bf.Float64()
		p.scan()
		return f, true
	case *big.Float:
		f, _ := v.Float64()
		p.scan()
		return f, true
	case float64:
		p.scan()
		return v, true
	default:
		p.errorf("expected a float")
		return 0, false
	}
}

// signalingNaN32 folds a float64 NaN payload (carried by `nan:0x...`
// literals) down to its 32-bit analogue; plain math.NaN-shaped values
// round-trip through the ordinary float32 conversion.
func signalingNaN32(v float64) float32 {
	if !math.IsNaN(v) {
		return float32(v)
	}
	bits := math.Float64bits(v)
	sign := uint32(bits >> 63)
	payload := uint32(bits&0x7fffff) | uint32(bits>>29)&0x00400000
	return math.Float32frombits(sign<<31 | 0x7f800000 | payload)
}
