// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luascript

import (
	"context"
	"testing"

	"github.com/lumendb/luascript/internal/luavm"
)

// These exercise the standard library functions that build their
// result through a bytebuffer.Buffer (string.format, string.gsub,
// table.concat) rather than a strings.Builder.
func TestStdlibBufferBackedBuilders(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"format_mixed_verbs", `return string.format("%s=%d (%.2f%%)", "n", 7, 12.345)`, "n=7 (12.35%)"},
		{"format_hex", `return string.format("%x", 255)`, "ff"},
		{"gsub_literal", `return (string.gsub("hello world", "o", "0"))`, "hell0 w0rld"},
		{"gsub_pattern_capture", `return (string.gsub("key=value", "(%a+)=(%a+)", "%2=%1"))`, "value=key"},
		{"table_concat_default_sep", `return table.concat({"a","b","c"})`, "abc"},
		{"table_concat_custom_sep", `return table.concat({1,2,3}, ",")`, "1,2,3"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, err := Compile([]byte(test.src), "test")
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			vm := New(Config{})
			result, err := vm.Execute(context.Background(), m, nil, nil)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := luavm.ToStringValue(result); got != test.want {
				t.Errorf("result = %q, want %q", got, test.want)
			}
		})
	}
}

func TestStdlibTableSort(t *testing.T) {
	const src = `local t={3,1,2}; table.sort(t); return table.concat(t, ",")`
	m, err := Compile([]byte(src), "test")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	vm := New(Config{})
	result, err := vm.Execute(context.Background(), m, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := luavm.ToStringValue(result); got != "1,2,3" {
		t.Errorf("result = %q, want %q", got, "1,2,3")
	}
}
