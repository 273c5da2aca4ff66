// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"testing"
)

func TestTableArrayPart(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(Number(1), Number(10))
	tbl.Set(Number(2), Number(20))
	tbl.Set(Number(3), Number(30))

	if got := tbl.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if got := tbl.Get(Number(2)); got != Number(20) {
		t.Errorf("Get(2) = %v, want 20", got)
	}

	tbl.Set(Number(3), nil)
	if got := tbl.Len(); got != 2 {
		t.Errorf("Len() after removing tail = %d, want 2", got)
	}
}

func TestTableSparseToArrayAbsorption(t *testing.T) {
	tbl := NewTable(0, 0)
	// Out of order: 2 and 3 land in the hash part until 1 arrives and
	// absorbFromHash pulls the now-contiguous run into the array.
	tbl.Set(Number(2), Number(200))
	tbl.Set(Number(3), Number(300))
	tbl.Set(Number(1), Number(100))

	if got := tbl.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	for i, want := range []Value{Number(100), Number(200), Number(300)} {
		if got := tbl.Get(Number(i + 1)); got != want {
			t.Errorf("Get(%d) = %v, want %v", i+1, got, want)
		}
	}
}

func TestTableIterationOrderStringKeysAscending(t *testing.T) {
	h := NewHeap()
	tbl := NewTable(0, 0)
	names := []string{"zeta", "alpha", "mu", "beta"}
	for _, n := range names {
		tbl.Set(h.InternStringLiteral(n), Number(1))
	}

	keys := tbl.iterationKeys()
	if len(keys) != len(names) {
		t.Fatalf("iterationKeys() returned %d keys, want %d", len(keys), len(names))
	}
	var got []string
	for _, k := range keys {
		s, ok := k.(*String)
		if !ok {
			t.Fatalf("key %v is not a *String", k)
		}
		got = append(got, s.String())
	}
	want := []string{"alpha", "beta", "mu", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("iterationKeys()[%d] = %q, want %q (got %v)", i, got[i], want[i], got)
		}
	}
}

func TestTableIterationOrderNumericKeysAscending(t *testing.T) {
	tbl := NewTable(0, 0)
	// Large sparse keys stay in the hash part (not the array part).
	for _, n := range []float64{100, 5, 42, 7} {
		tbl.Set(Number(n), Number(1))
	}
	keys := tbl.iterationKeys()
	var got []float64
	for _, k := range keys {
		got = append(got, float64(k.(Number)))
	}
	want := []float64{5, 7, 42, 100}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("iterationKeys()[%d] = %v, want %v (got %v)", i, got[i], want[i], got)
		}
	}
}

func TestTableNext(t *testing.T) {
	h := NewHeap()
	tbl := NewTable(0, 0)
	tbl.Set(h.InternStringLiteral("a"), Number(1))
	tbl.Set(h.InternStringLiteral("b"), Number(2))

	k, v, ok := tbl.Next(nil)
	if !ok || k == nil {
		t.Fatalf("Next(nil) = %v, %v, %v; want a key", k, v, ok)
	}
	count := 1
	for {
		k, v, ok = tbl.Next(k)
		if !ok {
			t.Fatal("Next returned ok=false mid-iteration")
		}
		if k == nil {
			break
		}
		count++
		_ = v
	}
	if count != 2 {
		t.Errorf("iterated %d entries, want 2", count)
	}
}

func TestTableDeleteRemovesFromIterationOrder(t *testing.T) {
	h := NewHeap()
	tbl := NewTable(0, 0)
	tbl.Set(h.InternStringLiteral("keep"), Number(1))
	tbl.Set(h.InternStringLiteral("drop"), Number(2))
	tbl.Set(h.InternStringLiteral("drop"), nil)

	keys := tbl.iterationKeys()
	if len(keys) != 1 {
		t.Fatalf("iterationKeys() = %v, want 1 entry", keys)
	}
	if s := keys[0].(*String).String(); s != "keep" {
		t.Errorf("remaining key = %q, want %q", s, "keep")
	}
}

func TestTableMixedKeyKindsIteration(t *testing.T) {
	h := NewHeap()
	tbl := NewTable(0, 0)
	tbl.Set(Boolean(true), Number(1))
	tbl.Set(h.InternStringLiteral("x"), Number(2))
	tbl.Set(Number(5), Number(3))

	keys := tbl.iterationKeys()
	if len(keys) != 3 {
		t.Fatalf("iterationKeys() = %v, want 3 entries", keys)
	}
	// Numeric keys before string keys before everything else.
	if _, ok := keys[0].(Number); !ok {
		t.Errorf("keys[0] = %v, want a Number", keys[0])
	}
	if _, ok := keys[1].(*String); !ok {
		t.Errorf("keys[1] = %v, want a *String", keys[1])
	}
	if _, ok := keys[2].(Boolean); !ok {
		t.Errorf("keys[2] = %v, want a Boolean", keys[2])
	}
}

func TestTableCount(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(Number(1), Number(1))
	tbl.Set(Number(2), Number(2))
	tbl.Set(Number(100), Number(3))
	if got := tbl.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}
