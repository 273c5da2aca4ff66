// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luacode

// Constant is a compile-time constant: a number or a string. Lua 5.1
// has a single numeric type, so unlike later Lua versions there is no
// separate integer subtype to track here — spec.md §9 Open Question
// "Integer/float distinction" is resolved in favor of the 5.1 model.
type Constant struct {
	isString bool
	number   float64
	str      string
}

func NumberConstant(v float64) Constant { return Constant{number: v} }
func StringConstant(v string) Constant  { return Constant{isString: true, str: v} }

func (c Constant) IsString() bool    { return c.isString }
func (c Constant) Number() float64   { return c.number }
func (c Constant) StringValue() string { return c.str }

// UpvalueDescriptor records where a closure's i'th upvalue comes from
// when it is instantiated: either a register of the enclosing
// function's activation record, or one of the enclosing function's
// own upvalues.
type UpvalueDescriptor struct {
	FromEnclosingStack bool
	Index              uint8
	Name               string // debug only
}

// LocalDescriptor records a local variable's name and the instruction
// range across which it is live, for debugging and for error messages
// that name a register's source variable.
type LocalDescriptor struct {
	Name      string
	StartPC   int
	EndPC     int
	Register  uint8
}

// Prototype is the immutable, compiled description of a function
// (spec.md §3.6). A chunk's main function is itself a Prototype with
// IsVararg set to true and no parameters.
type Prototype struct {
	Source       string
	LineDefined  int
	NumParams    uint8
	IsVararg     bool
	MaxStackSize uint8

	Code      []Instruction
	Lines     []int // parallel to Code, for error positions
	Constants []Constant
	Upvalues  []UpvalueDescriptor
	Protos    []*Prototype
	Locals    []LocalDescriptor
}

// LineForPC returns the source line associated with the instruction at
// pc, or 0 if unknown.
func (p *Prototype) LineForPC(pc int) int {
	if pc < 0 || pc >= len(p.Lines) {
		return 0
	}
	return p.Lines[pc]
}
