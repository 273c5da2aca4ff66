// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/lumendb/luascript/internal/luacode"
)

// dumpPrototype prints proto's instruction stream in the teacher's
// disassembly style (instruction index, opcode, operands, source
// line), recursing into nested function prototypes.
func dumpPrototype(w io.Writer, proto *luacode.Prototype, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%sfunction <%s:%d> (%d params, %d slots, vararg=%v)\n",
		indent, proto.Source, proto.LineDefined, proto.NumParams, proto.MaxStackSize, proto.IsVararg)
	for pc, instr := range proto.Code {
		line := 0
		if pc < len(proto.Lines) {
			line = proto.Lines[pc]
		}
		fmt.Fprintf(w, "%s  [%d] line %d: %s\n", indent, pc, line, instr)
	}
	for _, sub := range proto.Protos {
		dumpPrototype(w, sub, depth+1)
	}
}
