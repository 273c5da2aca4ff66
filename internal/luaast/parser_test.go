// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luaast

import "testing"

func TestParseBasic(t *testing.T) {
	tests := []string{
		"return 1+2*3",
		"local t={10,20,30}; return #t+t[2]",
		`local function mk(x) return function() x=x+1; return x end end`,
		`local m=setmetatable({}, {__index=function(_,k) return "miss:"..k end}); return m.foo`,
		"local a=0; for i=1,5 do a=a+i end; return a",
		`local ok,err=pcall(function() error("boom") end); return tostring(ok)..":"..tostring(err):sub(-4)`,
		"for k,v in pairs(t) do print(k,v) end",
		"goto done ::done:: return 1",
		"a.b.c = 1",
		"function a.b.c:m(x) return x end",
		"repeat x = x - 1 until x == 0",
	}
	for _, src := range tests {
		if _, err := Parse([]byte(src), "test"); err != nil {
			t.Errorf("Parse(%q) error: %v", src, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"local x = ",
		"if true then",
		"1 + ",
		"local x = 1 2",
	}
	for _, src := range tests {
		if _, err := Parse([]byte(src), "test"); err == nil {
			t.Errorf("Parse(%q) = no error, want one", src)
		}
	}
}
