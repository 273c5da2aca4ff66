// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package lualex

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	lx := New([]byte(src), "test")
	var toks []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks
		}
	}
}

func TestLexKeywordsAndNames(t *testing.T) {
	toks := scanAll(t, "local x = foo")
	got := make([]TokenKind, len(toks))
	for i, tok := range toks {
		got[i] = tok.Kind
	}
	want := []TokenKind{TokenLocal, TokenName, TokenAssign, TokenName, TokenEOF}
	if diff := cmp.Diff(want, got, cmpopts.EquateComparable()); diff != "" {
		t.Errorf("kinds (-want +got):\n%s", diff)
	}
}

func TestLexStrings(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"hello\nworld"`, "hello\nworld"},
		{`'a\tb'`, "a\tb"},
		{`"unknown \q"`, "unknown q"},
		{`[[long string]]`, "long string"},
		{"[[\nstripped]]", "stripped"},
		{`[==[ nested ]] still going ]==]`, " nested ]] still going "},
	}
	for _, test := range tests {
		toks := scanAll(t, test.src)
		if len(toks) < 1 || toks[0].Kind != TokenString {
			t.Errorf("scanAll(%q) = %v, want a single string token", test.src, toks)
			continue
		}
		if toks[0].Value != test.want {
			t.Errorf("scanAll(%q) value = %q, want %q", test.src, toks[0].Value, test.want)
		}
	}
}

func TestLexNumbers(t *testing.T) {
	for _, src := range []string{"0", "3.14", "314.16e-2", "0xff", "0x1.fp10", ".5"} {
		toks := scanAll(t, src)
		if len(toks) < 1 || toks[0].Kind != TokenNumber {
			t.Errorf("scanAll(%q) = %v, want a single number token", src, toks)
		}
	}
}

func TestLexComments(t *testing.T) {
	toks := scanAll(t, "-- a comment\nlocal --[[ long\ncomment ]] x")
	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{TokenLocal, TokenName, TokenEOF}
	if diff := cmp.Diff(want, kinds, cmpopts.EquateComparable()); diff != "" {
		t.Errorf("kinds (-want +got):\n%s", diff)
	}
}

func TestLexOperators(t *testing.T) {
	toks := scanAll(t, "a..b...c==d~=e<=f>=g")
	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{
		TokenName, TokenConcat, TokenName, TokenEllipsis, TokenName,
		TokenEq, TokenName, TokenNe, TokenName, TokenLe, TokenName,
		TokenGe, TokenName, TokenEOF,
	}
	if diff := cmp.Diff(want, kinds, cmpopts.EquateComparable()); diff != "" {
		t.Errorf("kinds (-want +got):\n%s", diff)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	lx := New([]byte(`"abc`), "test")
	if _, err := lx.Next(); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}
