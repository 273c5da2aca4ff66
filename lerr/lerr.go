// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

// Package lerr defines the uniform error taxonomy used across the
// lexer, parser, code generator, and virtual machine: every fallible
// boundary in this module returns a *Error rather than a bare error
// string, so a host can branch on Kind when mapping a failure to a
// RESP error reply.
package lerr

import "fmt"

// Kind categorizes an *Error for programmatic handling.
type Kind int

//go:generate stringer -type=Kind -linecomment -output=kind_string.go

const (
	// Compile-time kinds. None of these ever propagate as runtime errors;
	// they are fatal to the module being compiled.
	KindLex     Kind = iota // lex error
	KindParse               // parse error
	KindCodegen             // codegen error

	// Runtime kinds, raised by instruction execution.
	KindType             // type error
	KindArithmetic       // arithmetic error
	KindIndex            // index error
	KindCall             // call error
	KindArgument         // argument error
	KindStackOverflow    // stack overflow
	KindMemoryLimit      // memory limit exceeded
	KindInstructionLimit // instruction limit exceeded
	KindScriptKilled     // script killed
	KindGeneric          // runtime error

	// KindInternal marks a condition that must not occur in a correct
	// implementation, such as upvalue/closure corruption. It is never
	// expected but is surfaced with a distinct tag instead of a panic
	// wherever the call site can recover enough state to report it.
	KindInternal // internal error
)

// Position is a source location, used by compile-time errors and
// (when debug information survives) by runtime errors.
type Position struct {
	Source string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Source == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Column)
}

// Error is the error type returned from every package boundary in this
// module.
type Error struct {
	Kind Kind
	Pos  Position
	// Expected/Got are populated for KindType and KindArgument errors.
	Expected string
	Got      string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	loc := ""
	if e.Pos.Line > 0 {
		loc = e.Pos.String() + ": "
	}
	msg := e.Message
	if msg == "" && e.Expected != "" {
		msg = fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
	}
	if e.Cause != nil {
		if msg == "" {
			return loc + e.Cause.Error()
		}
		return fmt.Sprintf("%s%s: %v", loc, msg, e.Cause)
	}
	return loc + msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns a new *Error of the given kind with a formatted message.
func New(kind Kind, pos Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a new *Error of the given kind that wraps cause.
// It returns nil if cause is nil.
func Wrap(kind Kind, pos Position, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Pos: pos, Cause: cause}
}

// TypeError reports that a value of type got was used where expected was required.
func TypeError(pos Position, expected, got string) *Error {
	return &Error{Kind: KindType, Pos: pos, Expected: expected, Got: got}
}

// ArgumentError reports that a function argument had the wrong type or was missing.
func ArgumentError(pos Position, n int, format string, args ...any) *Error {
	return &Error{Kind: KindArgument, Pos: pos, Message: fmt.Sprintf("bad argument #%d (%s)", n, fmt.Sprintf(format, args...))}
}

// Generic wraps a user-level error() call, the common case for scripts
// that fail intentionally.
func Generic(pos Position, message string) *Error {
	return &Error{Kind: KindGeneric, Pos: pos, Message: message}
}

// RedisMessage renders the error in the textual form a Redis-protocol
// host expects to forward as a RESP error reply: an all-caps error
// prefix followed by details. The prefix intentionally mirrors the
// subset of prefixes a Lua script caller can trigger; the enclosing
// server may remap KindGeneric messages that already carry their own
// prefix (e.g. a script that calls redis.call and gets WRONGTYPE back).
func (e *Error) RedisMessage() string {
	switch e.Kind {
	case KindType, KindArgument:
		return "WRONGTYPE " + e.Error()
	case KindScriptKilled:
		return "ERR Script killed: " + e.Error()
	case KindInstructionLimit:
		return "ERR Script exceeded instruction limit: " + e.Error()
	case KindMemoryLimit:
		return "OOM " + e.Error()
	default:
		return "ERR " + e.Error()
	}
}

// IsCompile reports whether the error occurred before execution began.
func (e *Error) IsCompile() bool {
	switch e.Kind {
	case KindLex, KindParse, KindCodegen:
		return true
	default:
		return false
	}
}
