// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import "testing"

func TestFindPatternLiteral(t *testing.T) {
	res, ok, err := FindPattern([]byte("hello world"), []byte("world"), 0)
	if err != nil {
		t.Fatalf("FindPattern: %v", err)
	}
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Start != 6 || res.End != 11 {
		t.Errorf("match span = [%d,%d), want [6,11)", res.Start, res.End)
	}
}

func TestFindPatternNoMatch(t *testing.T) {
	_, ok, err := FindPattern([]byte("hello"), []byte("xyz"), 0)
	if err != nil {
		t.Fatalf("FindPattern: %v", err)
	}
	if ok {
		t.Error("expected no match")
	}
}

func TestFindPatternDigitClass(t *testing.T) {
	res, ok, err := FindPattern([]byte("abc 123 def"), []byte("%d+"), 0)
	if err != nil {
		t.Fatalf("FindPattern: %v", err)
	}
	if !ok {
		t.Fatal("expected a match")
	}
	h := NewHeap()
	got := h.InternString([]byte("abc 123 def")[res.Start:res.End]).String()
	if got != "123" {
		t.Errorf("matched %q, want %q", got, "123")
	}
}

func TestFindPatternAnchor(t *testing.T) {
	_, ok, err := FindPattern([]byte("xabc"), []byte("^abc"), 0)
	if err != nil {
		t.Fatalf("FindPattern: %v", err)
	}
	if ok {
		t.Error("anchored pattern should not match when the prefix doesn't match")
	}

	res, ok, err := FindPattern([]byte("abcdef"), []byte("^abc"), 0)
	if err != nil {
		t.Fatalf("FindPattern: %v", err)
	}
	if !ok || res.Start != 0 || res.End != 3 {
		t.Errorf("FindPattern(^abc) = %+v, %v, want a match at [0,3)", res, ok)
	}
}

func TestFindPatternCapture(t *testing.T) {
	src := []byte("key=value")
	res, ok, err := FindPattern(src, []byte("(%a+)=(%a+)"), 0)
	if err != nil {
		t.Fatalf("FindPattern: %v", err)
	}
	if !ok {
		t.Fatal("expected a match")
	}
	if len(res.Captures) != 2 {
		t.Fatalf("got %d captures, want 2", len(res.Captures))
	}
	h := NewHeap()
	if got := res.CaptureValue(0, h).(*String).String(); got != "key" {
		t.Errorf("capture 0 = %q, want %q", got, "key")
	}
	if got := res.CaptureValue(1, h).(*String).String(); got != "value" {
		t.Errorf("capture 1 = %q, want %q", got, "value")
	}
}

func TestFindPatternBalancedMatch(t *testing.T) {
	res, ok, err := FindPattern([]byte("(nested (parens)) tail"), []byte("%b()"), 0)
	if err != nil {
		t.Fatalf("FindPattern: %v", err)
	}
	if !ok {
		t.Fatal("expected a balanced match")
	}
	if res.Start != 0 || res.End != 17 {
		t.Errorf("match span = [%d,%d), want [0,17)", res.Start, res.End)
	}
}
