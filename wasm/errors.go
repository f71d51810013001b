// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import "fmt"

// Span is a byte range into the original input, used only for diagnostics.
type Span struct {
	Start, End int
}

// Error is a single structured diagnostic produced by either reader.
type Error struct {
	Span    Span
	Message string
	Context []string
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%d:%d: %s", e.Span.Start, e.Span.End, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s (while %s)", e.Span.Start, e.Span.End, e.Message, e.Context[len(e.Context)-1])
}

// ErrorSink collects diagnostics across a single parse invocation. Neither
// reader halts on the first error: they record it here and try to
// resynchronize, so one run can surface many problems at once.
type ErrorSink struct {
	errors  []*Error
	context []string
}

// OnError records a diagnostic at the given span.
func (s *ErrorSink) OnError(span Span, format string, args ...interface{}) {
	s.errors = append(s.errors, &Error{
		Span:    span,
		Message: fmt.Sprintf(format, args...),
		Context: append([]string(nil), s.context...),
	})
}

// PushContext records a human-readable frame ("reading call_indirect",
// "reading function body #42") that is attached to any error raised while
// it is active.
func (s *ErrorSink) PushContext(desc string) {
	s.context = append(s.context, desc)
}

// PopContext removes the most recently pushed frame.
func (s *ErrorSink) PopContext() {
	if len(s.context) > 0 {
		s.context = s.context[:len(s.context)-1]
	}
}

// Errors returns the accumulated diagnostics in the order they were raised.
func (s *ErrorSink) Errors() []*Error {
	return s.errors
}

// Empty reports whether no diagnostics have been recorded.
func (s *ErrorSink) Empty() bool {
	return len(s.errors) == 0
}

// ContextGuard guarantees PopContext runs on every exit path from a reader
// helper, mirroring defer-based cleanup elsewhere in this package.
type ContextGuard struct {
	sink *ErrorSink
}

// Guard pushes a context frame and returns a guard whose Close pops it.
func Guard(sink *ErrorSink, desc string) ContextGuard {
	sink.PushContext(desc)
	return ContextGuard{sink: sink}
}

func (g ContextGuard) Close() {
	g.sink.PopContext()
}
