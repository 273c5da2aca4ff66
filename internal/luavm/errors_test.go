// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"errors"
	"testing"

	"github.com/lumendb/luascript/lerr"
)

func TestAsErrorNil(t *testing.T) {
	if got := AsError(nil); got != nil {
		t.Errorf("AsError(nil) = %v, want nil", got)
	}
}

func TestAsErrorFromErrorObject(t *testing.T) {
	pos := lerr.Position{Source: "chunk", Line: 3}
	err := runtimeErrorf(pos, lerr.KindArithmetic, "bad math")
	le := AsError(err)
	if le == nil {
		t.Fatal("AsError returned nil")
	}
	if le.Kind != lerr.KindArithmetic {
		t.Errorf("Kind = %v, want KindArithmetic", le.Kind)
	}
	if le.Pos != pos {
		t.Errorf("Pos = %v, want %v", le.Pos, pos)
	}
}

func TestAsErrorFromBareLerrError(t *testing.T) {
	le := lerr.ArgumentError(lerr.Position{}, 1, "expected a string")
	got := AsError(le)
	if got != le {
		t.Errorf("AsError(bare *lerr.Error) should return it unchanged")
	}
}

func TestAsErrorFromPlainError(t *testing.T) {
	got := AsError(errors.New("boom"))
	if got == nil || got.Kind != lerr.KindGeneric {
		t.Errorf("AsError(plain error) = %v, want a KindGeneric wrapper", got)
	}
}

func TestLuaErrorPreservesRaisedValue(t *testing.T) {
	h := NewHeap()
	raised := h.InternStringLiteral("custom error")
	err := luaError(lerr.Position{}, raised)
	eo, ok := err.(*errorObject)
	if !ok {
		t.Fatalf("luaError returned %T, want *errorObject", err)
	}
	if eo.ErrorValue(h) != raised {
		t.Errorf("ErrorValue() = %v, want the originally raised value", eo.ErrorValue(h))
	}
}
