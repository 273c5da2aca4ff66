// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"github.com/lumendb/luascript/internal/luacode"
	"github.com/lumendb/luascript/lerr"
)

// errorObject mirrors the teacher's errorObject pattern (internal
// /mylua/errors.go): a Lua error() call can raise any Value, not just
// a string, so runtime errors carry an optional Value payload
// alongside the *lerr.Error a Go caller sees.
type errorObject struct {
	*lerr.Error
	value Value // the raw Value passed to error(), when not a plain message
}

func (e *errorObject) ErrorValue(h *Heap) Value {
	if e.value != nil {
		return e.value
	}
	return h.InternStringLiteral(e.Error())
}

func runtimeErrorf(pos lerr.Position, kind lerr.Kind, format string, args ...any) error {
	return &errorObject{Error: lerr.New(kind, pos, format, args...)}
}

func typeErrorf(pos lerr.Position, expected string, got Value) error {
	return &errorObject{Error: lerr.TypeError(pos, expected, TypeName(got))}
}

func positionOf(proto *luacode.Prototype, pc int) lerr.Position {
	return lerr.Position{Source: proto.Source, Line: proto.LineForPC(pc)}
}

// luaError wraps an arbitrary Lua-level error value (as raised by the
// error() built-in) into a Go error implementing errorObject's
// interface, so pcall/xpcall can recover the original value rather
// than just a formatted message.
func luaError(pos lerr.Position, v Value) error {
	return &errorObject{
		Error: &lerr.Error{Kind: lerr.KindGeneric, Pos: pos, Message: ToStringValue(v)},
		value: v,
	}
}

func stackOverflow(pos lerr.Position) error {
	return &errorObject{Error: lerr.New(lerr.KindStackOverflow, pos, "stack overflow")}
}

func instructionLimitExceeded(pos lerr.Position) error {
	return &errorObject{Error: lerr.New(lerr.KindInstructionLimit, pos, "instruction limit exceeded")}
}

func scriptKilled(pos lerr.Position) error {
	return &errorObject{Error: lerr.New(lerr.KindScriptKilled, pos, "script killed")}
}

func internalErrorf(format string, args ...any) error {
	return &errorObject{Error: lerr.New(lerr.KindInternal, lerr.Position{}, format, args...)}
}

// AsError recovers the *lerr.Error a runtime failure carries, whatever
// internal shape it took on the way out of the dispatch loop (a bare
// *lerr.Error from a standard library argument check, or the
// unexported errorObject wrapper a Lua-level error() raises). Callers
// outside this package — the root luascript package's Execute — use
// this rather than a type switch over an unexported type.
func AsError(err error) *lerr.Error {
	if err == nil {
		return nil
	}
	if eo, ok := err.(*errorObject); ok {
		return eo.Error
	}
	if le, ok := err.(*lerr.Error); ok {
		return le
	}
	return lerr.New(lerr.KindGeneric, lerr.Position{}, "%s", err.Error())
}
