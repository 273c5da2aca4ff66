// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"testing"

	"github.com/lumendb/luascript/internal/luaast"
)

func mustCompile(t *testing.T, src string) *Prototype {
	t.Helper()
	chunk, err := luaast.Parse([]byte(src), "test")
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	proto, cerr := Compile(chunk, "test")
	if cerr != nil {
		t.Fatalf("Compile(%q): %v", src, cerr)
	}
	return proto
}

func TestCompileReturnLiteral(t *testing.T) {
	proto := mustCompile(t, "return 1")
	if len(proto.Code) == 0 {
		t.Fatal("expected at least one instruction")
	}
	last := proto.Code[len(proto.Code)-1]
	if last.OpCode() != OpReturn {
		t.Errorf("last instruction = %s, want RETURN", last.OpCode())
	}
}

func TestCompileArithmeticAndLocals(t *testing.T) {
	proto := mustCompile(t, "local a, b = 1, 2; return a + b * 3")
	var sawAdd, sawMul bool
	for _, i := range proto.Code {
		switch i.OpCode() {
		case OpAdd:
			sawAdd = true
		case OpMul:
			sawMul = true
		}
	}
	if !sawAdd || !sawMul {
		t.Errorf("expected ADD and MUL in %v", proto.Code)
	}
}

func TestCompileIfElse(t *testing.T) {
	proto := mustCompile(t, "local x = 1; if x > 0 then x = 1 else x = -1 end; return x")
	var sawTest bool
	for _, i := range proto.Code {
		if i.OpCode() == OpTest {
			sawTest = true
		}
	}
	if !sawTest {
		t.Errorf("expected a TEST instruction for the if condition")
	}
}

func TestCompileWhileLoop(t *testing.T) {
	proto := mustCompile(t, "local i = 0; while i < 10 do i = i + 1 end; return i")
	var sawJmp int
	for _, i := range proto.Code {
		if i.OpCode() == OpJmp {
			sawJmp++
		}
	}
	if sawJmp < 2 {
		t.Errorf("expected at least 2 jumps (exit + loop-back), got %d", sawJmp)
	}
}

func TestCompileNumericFor(t *testing.T) {
	proto := mustCompile(t, "local a = 0; for i = 1, 5 do a = a + i end; return a")
	var sawPrep, sawLoop bool
	for _, i := range proto.Code {
		switch i.OpCode() {
		case OpForPrep:
			sawPrep = true
		case OpForLoop:
			sawLoop = true
		}
	}
	if !sawPrep || !sawLoop {
		t.Errorf("expected FORPREP and FORLOOP in %v", proto.Code)
	}
}

func TestCompileGenericFor(t *testing.T) {
	proto := mustCompile(t, "for k, v in pairs(t) do end")
	var sawTForLoop bool
	for _, i := range proto.Code {
		if i.OpCode() == OpTForLoop {
			sawTForLoop = true
		}
	}
	if !sawTForLoop {
		t.Errorf("expected TFORLOOP in %v", proto.Code)
	}
}

func TestCompileClosureAndUpvalue(t *testing.T) {
	proto := mustCompile(t, "local function counter() local n = 0; return function() n = n + 1; return n end end")
	if len(proto.Protos) == 0 {
		t.Fatal("expected at least one nested prototype")
	}
	inner := proto.Protos[0]
	if len(inner.Protos) == 0 {
		t.Fatal("expected the returned closure as a nested prototype")
	}
	innermost := inner.Protos[0]
	if len(innermost.Upvalues) != 1 {
		t.Errorf("innermost.Upvalues = %v, want exactly 1 (n)", innermost.Upvalues)
	}
}

func TestCompileMethodCall(t *testing.T) {
	proto := mustCompile(t, "return s:upper()")
	var sawSelf bool
	for _, i := range proto.Code {
		if i.OpCode() == OpSelf {
			sawSelf = true
		}
	}
	if !sawSelf {
		t.Errorf("expected SELF in %v", proto.Code)
	}
}

func TestCompileTableConstructor(t *testing.T) {
	proto := mustCompile(t, "return {1, 2, 3, x = 4}")
	var sawNewTable, sawSetList, sawSetTable bool
	for _, i := range proto.Code {
		switch i.OpCode() {
		case OpNewTable:
			sawNewTable = true
		case OpSetList:
			sawSetList = true
		case OpSetTable:
			sawSetTable = true
		}
	}
	if !sawNewTable || !sawSetList || !sawSetTable {
		t.Errorf("expected NEWTABLE, SETLIST and SETTABLE in %v", proto.Code)
	}
}

func TestCompileConcatChain(t *testing.T) {
	proto := mustCompile(t, `return "a" .. "b" .. "c"`)
	var found bool
	for _, i := range proto.Code {
		if i.OpCode() == OpConcat {
			found = true
			if i.C()-i.B() != 2 {
				t.Errorf("CONCAT span = %d..%d, want a 3-register span", i.B(), i.C())
			}
		}
	}
	if !found {
		t.Error("expected a single CONCAT folding the whole chain")
	}
}

func TestCompileTailCall(t *testing.T) {
	proto := mustCompile(t, "local function f() return g() end")
	inner := proto.Protos[0]
	var sawTail bool
	for _, i := range inner.Code {
		if i.OpCode() == OpTailCall {
			sawTail = true
		}
	}
	if !sawTail {
		t.Errorf("expected TAILCALL in %v", inner.Code)
	}
}

func TestCompileGotoLabel(t *testing.T) {
	proto := mustCompile(t, "goto done; ::done:: return 1")
	if len(proto.Code) == 0 {
		t.Fatal("expected compiled instructions")
	}
}

func TestCompileUnresolvedGoto(t *testing.T) {
	chunk, err := luaast.Parse([]byte("goto nowhere"), "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, cerr := Compile(chunk, "test"); cerr == nil {
		t.Error("expected a compile error for an unresolved goto")
	}
}

func TestCompileBreakOutsideLoop(t *testing.T) {
	chunk, err := luaast.Parse([]byte("break"), "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, cerr := Compile(chunk, "test"); cerr == nil {
		t.Error("expected a compile error for break outside a loop")
	}
}
