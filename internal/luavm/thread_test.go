// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import "testing"

func TestOpenUpvalueSharedByIndex(t *testing.T) {
	th := NewThread(NewHeap(), DefaultLimits())
	th.stack[3] = Number(42)

	a := th.openUpvalueAt(3)
	b := th.openUpvalueAt(3)
	if a != b {
		t.Fatal("openUpvalueAt(3) returned two different Upvalues for the same index")
	}
	if got := a.Get(); got != Number(42) {
		t.Errorf("Get() = %v, want 42", got)
	}

	b.Set(Number(99))
	if got := a.Get(); got != Number(99) {
		t.Errorf("shared upvalue: a.Get() = %v after b.Set(99), want 99", got)
	}
}

func TestCloseUpvaluesFromClosesOnlyAtOrAboveIndex(t *testing.T) {
	th := NewThread(NewHeap(), DefaultLimits())
	th.stack[1] = Number(1)
	th.stack[5] = Number(5)
	th.stack[7] = Number(7)

	low := th.openUpvalueAt(1)
	mid := th.openUpvalueAt(5)
	high := th.openUpvalueAt(7)

	th.closeUpvaluesFrom(5)

	if low.open {
		t.Error("upvalue at index 1 should remain open after closeUpvaluesFrom(5)")
	}
	if mid.open || high.open {
		t.Error("upvalues at or above index 5 should be closed after closeUpvaluesFrom(5)")
	}
	if th.findOpenUpvalue(5) != nil || th.findOpenUpvalue(7) != nil {
		t.Error("closed upvalues should no longer be tracked as open")
	}
	if th.findOpenUpvalue(1) != low {
		t.Error("index 1 should still be tracked as open")
	}

	// A closed upvalue keeps reading its last value independent of the
	// stack slot it used to alias.
	th.stack[5] = Number(-1)
	if got := mid.Get(); got != Number(5) {
		t.Errorf("closed upvalue Get() = %v, want 5 (snapshotted at close time)", got)
	}
}

func TestFindOpenUpvalueMissing(t *testing.T) {
	th := NewThread(NewHeap(), DefaultLimits())
	if uv := th.findOpenUpvalue(0); uv != nil {
		t.Errorf("findOpenUpvalue on an empty thread = %v, want nil", uv)
	}
}
