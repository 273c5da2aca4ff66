// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

// Package luascript is the host-facing façade over the lexer, parser,
// code generator and VM: Compile a chunk once into a Module, then
// Execute it as many times as a server wants against fresh (KEYS,
// ARGV) pairs, the way a Redis-compatible server drives EVAL/EVALSHA.
package luascript

import (
	"github.com/lumendb/luascript/internal/luaast"
	"github.com/lumendb/luascript/internal/luacode"
	"github.com/lumendb/luascript/lerr"
)

// Module is a compiled chunk, ready to be instantiated as a closure
// and run on any VM sharing its heap's string/constant representation.
// It holds no VM-specific state, so a single Module compiled once is
// safe to Execute concurrently across a Pool.
type Module struct {
	proto     *luacode.Prototype
	chunkName string
}

// ChunkName returns the name the module was compiled under, the name
// that appears in error positions and debug.traceback-style output.
func (m *Module) ChunkName() string { return m.chunkName }

// Prototype returns the module's compiled top-level function, for
// tools that need to inspect or disassemble bytecode directly (e.g.
// cmd/luaeval's dump subcommand).
func (m *Module) Prototype() *luacode.Prototype { return m.proto }

// Compile lexes, parses, and code-generates source into a Module.
// Compilation is VM-independent: the returned Module can be executed
// on any number of VMs, each with its own heap.
func Compile(source []byte, chunkName string) (*Module, *lerr.Error) {
	chunk, err := luaast.Parse(source, chunkName)
	if err != nil {
		return nil, err
	}
	proto, err := luacode.Compile(chunk, chunkName)
	if err != nil {
		return nil, err
	}
	return &Module{proto: proto, chunkName: chunkName}, nil
}
