// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luascript

import (
	"context"
	"testing"

	"github.com/lumendb/luascript/internal/luavm"
)

func mustRun(t *testing.T, src string) luavm.Value {
	t.Helper()
	m, err := Compile([]byte(src), "test")
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	vm := New(Config{})
	result, err := vm.Execute(context.Background(), m, nil, nil)
	if err != nil {
		t.Fatalf("Execute(%q): %v", src, err)
	}
	return result
}

// Scenarios mirror spec.md §8's golden end-to-end table.
func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"S1_arithmetic", "return 1+2*3", "7"},
		{"S2_table_length_and_index", "local t={10,20,30}; return #t+t[2]", "23"},
		{"S3_closures_share_upvalue", "local function mk(x) return function() x=x+1; return x end end; local f=mk(5); f(); f(); return f()", "8"},
		{"S4_index_metamethod", `local m=setmetatable({}, {__index=function(_,k) return "miss:"..k end}); return m.foo`, "miss:foo"},
		{"S5_numeric_for", "local a=0; for i=1,5 do a=a+i end; return a", "15"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := mustRun(t, test.src)
			if s := luavm.ToStringValue(got); s != test.want {
				t.Errorf("result = %q, want %q", s, test.want)
			}
		})
	}
}

// A tail-recursive loop must run in constant call-frame depth
// (spec.md §4.3/§4.5.2): 5000 levels of non-tail recursion would trip
// the default MaxCallDepth of 1000, but a tail call pops the caller's
// frame before installing the callee, so this returns 0 instead of a
// stack-overflow error.
func TestTailCallRunsInConstantFrameDepth(t *testing.T) {
	const src = `local function loop(n) if n<=0 then return n end return loop(n-1) end; return loop(5000)`
	got := mustRun(t, src)
	if s := luavm.ToStringValue(got); s != "0" {
		t.Errorf("result = %q, want %q", s, "0")
	}
}

// Mutual tail recursion exercises the same constant-depth path across
// two distinct closures rather than one closure tail-calling itself.
func TestMutualTailCallRunsInConstantFrameDepth(t *testing.T) {
	const src = `
		local isEven, isOdd
		function isEven(n) if n<=0 then return true end return isOdd(n-1) end
		function isOdd(n) if n<=0 then return false end return isEven(n-1) end
		return tostring(isEven(5000))
	`
	got := mustRun(t, src)
	if s := luavm.ToStringValue(got); s != "true" {
		t.Errorf("result = %q, want %q", s, "true")
	}
}

func TestEndToEndPcallRecoversError(t *testing.T) {
	const src = `local ok,err=pcall(function() error("boom") end); return tostring(ok)..":"..tostring(err):sub(-4)`
	got := mustRun(t, src)
	if s := luavm.ToStringValue(got); s != "false:boom" {
		t.Errorf("result = %q, want %q", s, "false:boom")
	}
}

func TestExecuteBindsKeysAndArgv(t *testing.T) {
	m, err := Compile([]byte(`return KEYS[1]..":"..ARGV[1]`), "test")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	vm := New(Config{})
	result, err := vm.Execute(context.Background(), m, []string{"mykey"}, []string{"myarg"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := luavm.ToStringValue(result); got != "mykey:myarg" {
		t.Errorf("result = %q, want %q", got, "mykey:myarg")
	}
}

func TestExecuteInstructionLimitExceeded(t *testing.T) {
	m, err := Compile([]byte(`while true do end`), "test")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	vm := New(Config{Limits: luavm.Limits{MaxInstructions: 1000, MaxCallDepth: 1000, MaxStackLength: 1000}})
	_, err = vm.Execute(context.Background(), m, nil, nil)
	if err == nil {
		t.Fatal("expected an instruction-limit error for an infinite loop")
	}
}

func TestRegisterGoFunctionDuplicatePanics(t *testing.T) {
	vm := New(Config{})
	fn := luavm.GoFunction{}
	vm.RegisterGoFunction("myfunc", fn)

	defer func() {
		if recover() == nil {
			t.Error("expected RegisterGoFunction to panic on a duplicate name")
		}
	}()
	vm.RegisterGoFunction("myfunc", fn)
}

func TestCompileErrorOnInvalidSyntax(t *testing.T) {
	_, err := Compile([]byte("local = "), "bad.lua")
	if err == nil {
		t.Fatal("expected a compile error for invalid syntax")
	}
}

func TestExecuteNilContextSkipsCancellationWatcher(t *testing.T) {
	m, err := Compile([]byte("return 1"), "test")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	vm := New(Config{})
	result, err := vm.Execute(nil, m, nil, nil)
	if err != nil {
		t.Fatalf("Execute(nil ctx): %v", err)
	}
	if got := luavm.ToStringValue(result); got != "1" {
		t.Errorf("result = %q, want %q", got, "1")
	}
}
