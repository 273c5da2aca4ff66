// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"math"
	"testing"
)

func TestNumberIsInteger(t *testing.T) {
	tests := []struct {
		n    Number
		want bool
	}{
		{Number(0), true},
		{Number(1), true},
		{Number(-7), true},
		{Number(3.5), false},
		{Number(math.Inf(1)), false},
		{Number(math.Inf(-1)), false},
		{Number(math.NaN()), false},
		{Number(1e18), true},
	}
	for _, test := range tests {
		if got := test.n.IsInteger(); got != test.want {
			t.Errorf("Number(%v).IsInteger() = %v, want %v", float64(test.n), got, test.want)
		}
	}
}

func TestRawEqual(t *testing.T) {
	h := NewHeap()
	a := h.InternStringLiteral("same")
	b := h.InternStringLiteral("same")
	if a != b {
		t.Fatal("interned strings with equal content should share identity")
	}
	if !RawEqual(a, b) {
		t.Error("RawEqual(a, b) = false for interned-equal strings")
	}
	if !RawEqual(Number(1), Number(1)) {
		t.Error("RawEqual(1, 1) = false")
	}
	if RawEqual(Number(1), Number(2)) {
		t.Error("RawEqual(1, 2) = true")
	}
}
