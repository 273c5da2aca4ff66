// Copyright (C) 1994-2026 Lua.org, PUC-Rio.
// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

// Package luacode implements the Lua 5.1 bytecode format and a
// register-allocating code generator that compiles an
// internal/luaast.Chunk into a tree of Prototypes. The instruction
// encoding in this file is byte-compatible with the reference
// lopcodes.h layout (spec.md §4.3), so that future compilers could
// target the same virtual machine.
package luacode

import "fmt"

// Instruction is a single 32-bit virtual machine instruction.
type Instruction uint32

// Field widths and bit positions, matching lopcodes.h exactly.
const (
	sizeOp = 6
	sizeA  = 8
	sizeB  = 9
	sizeC  = 9
	sizeBx = sizeB + sizeC // 18

	posOp = 0
	posA  = posOp + sizeOp
	posC  = posA + sizeA
	posB  = posC + sizeC
	posBx = posA + sizeA

	MaxArgA  = 1<<sizeA - 1
	MaxArgB  = 1<<sizeB - 1
	MaxArgC  = 1<<sizeC - 1
	MaxArgBx = 1<<sizeBx - 1

	// OffsetBx is added to a signed Bx argument (AsBx mode) so it can
	// be stored in the unsigned Bx bit field.
	OffsetBx = MaxArgBx >> 1 // 131071, per spec.md §4.3

	// BitRK is the high bit of a 9-bit RK operand that flags the
	// remaining bits as a constant-pool index rather than a register.
	BitRK      = 1 << (sizeB - 1) // 256
	MaxIndexRK = BitRK - 1        // 255
)

// FieldsPerFlush is the batch size ("FPF") used by OpSetList, matching
// LFIELDS_PER_FLUSH in lvm.c.
const FieldsPerFlush = 50

// OpMode describes how an Instruction's operand fields are interpreted.
type OpMode int

const (
	OpModeABC OpMode = iota
	OpModeABx
	OpModeAsBx
)

// OpCode enumerates every Lua 5.1 instruction this virtual machine
// implements (spec.md §4.3.1).
type OpCode uint8

const (
	OpMove OpCode = iota
	OpLoadK
	OpLoadBool
	OpLoadNil
	OpGetUpval
	OpGetGlobal
	OpGetTable
	OpSetGlobal
	OpSetUpval
	OpSetTable
	OpNewTable
	OpSelf
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpUnm
	OpNot
	OpLen
	OpConcat
	OpJmp
	OpEq
	OpLt
	OpLe
	OpTest
	OpTestSet
	OpCall
	OpTailCall
	OpReturn
	OpForLoop
	OpForPrep
	OpTForLoop
	OpSetList
	OpClose
	OpClosure
	OpVararg

	opCodeCount
)

var opModes = [opCodeCount]OpMode{
	OpMove:      OpModeABC,
	OpLoadK:     OpModeABx,
	OpLoadBool:  OpModeABC,
	OpLoadNil:   OpModeABC,
	OpGetUpval:  OpModeABC,
	OpGetGlobal: OpModeABx,
	OpSetGlobal: OpModeABx,
	OpSetUpval:  OpModeABC,
	OpGetTable:  OpModeABC,
	OpSetTable:  OpModeABC,
	OpNewTable:  OpModeABC,
	OpSelf:      OpModeABC,
	OpAdd:       OpModeABC,
	OpSub:       OpModeABC,
	OpMul:       OpModeABC,
	OpDiv:       OpModeABC,
	OpMod:       OpModeABC,
	OpPow:       OpModeABC,
	OpUnm:       OpModeABC,
	OpNot:       OpModeABC,
	OpLen:       OpModeABC,
	OpConcat:    OpModeABC,
	OpJmp:       OpModeAsBx,
	OpEq:        OpModeABC,
	OpLt:        OpModeABC,
	OpLe:        OpModeABC,
	OpTest:      OpModeABC,
	OpTestSet:   OpModeABC,
	OpCall:      OpModeABC,
	OpTailCall:  OpModeABC,
	OpReturn:    OpModeABC,
	OpForLoop:   OpModeAsBx,
	OpForPrep:   OpModeAsBx,
	OpTForLoop:  OpModeABC,
	OpSetList:   OpModeABC,
	OpClose:     OpModeABC,
	OpClosure:   OpModeABx,
	OpVararg:    OpModeABC,
}

var opNames = [opCodeCount]string{
	OpMove: "MOVE", OpLoadK: "LOADK", OpLoadBool: "LOADBOOL", OpLoadNil: "LOADNIL",
	OpGetUpval: "GETUPVAL", OpGetGlobal: "GETGLOBAL", OpSetGlobal: "SETGLOBAL",
	OpSetUpval: "SETUPVAL", OpGetTable: "GETTABLE", OpSetTable: "SETTABLE",
	OpNewTable: "NEWTABLE", OpSelf: "SELF", OpAdd: "ADD", OpSub: "SUB",
	OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD", OpPow: "POW", OpUnm: "UNM",
	OpNot: "NOT", OpLen: "LEN", OpConcat: "CONCAT", OpJmp: "JMP", OpEq: "EQ",
	OpLt: "LT", OpLe: "LE", OpTest: "TEST", OpTestSet: "TESTSET",
	OpCall: "CALL", OpTailCall: "TAILCALL", OpReturn: "RETURN",
	OpForLoop: "FORLOOP", OpForPrep: "FORPREP", OpTForLoop: "TFORLOOP",
	OpSetList: "SETLIST", OpClose: "CLOSE", OpClosure: "CLOSURE", OpVararg: "VARARG",
}

func (op OpCode) OpMode() OpMode { return opModes[op] }
func (op OpCode) String() string {
	if int(op) >= len(opNames) || opNames[op] == "" {
		return fmt.Sprintf("OpCode(%d)", int(op))
	}
	return opNames[op]
}

// ABC returns a new OpModeABC Instruction. A B or C operand that
// addresses the constant pool must already carry the RK high bit
// (see RKAsConstant).
func ABC(op OpCode, a, b, c uint16) Instruction {
	return Instruction(op)<<posOp |
		Instruction(a)<<posA |
		Instruction(b)<<posB |
		Instruction(c)<<posC
}

// ABx returns a new OpModeABx Instruction with an unsigned 18-bit Bx.
func ABx(op OpCode, a uint16, bx uint32) Instruction {
	return Instruction(op)<<posOp | Instruction(a)<<posA | Instruction(bx)<<posBx
}

// AsBx returns a new OpModeAsBx Instruction with a signed Bx, encoded
// by adding OffsetBx so it fits the unsigned 18-bit field.
func AsBx(op OpCode, a uint16, sbx int32) Instruction {
	return ABx(op, a, uint32(sbx+OffsetBx))
}

func (i Instruction) OpCode() OpCode { return OpCode(i >> posOp & (1<<sizeOp - 1)) }
func (i Instruction) A() uint16      { return uint16(i >> posA & (1<<sizeA - 1)) }
func (i Instruction) B() uint16      { return uint16(i >> posB & (1<<sizeB - 1)) }
func (i Instruction) C() uint16      { return uint16(i >> posC & (1<<sizeC - 1)) }
func (i Instruction) Bx() uint32     { return uint32(i >> posBx & (1<<sizeBx - 1)) }
func (i Instruction) SBx() int32     { return int32(i.Bx()) - OffsetBx }

// RK reports whether a 9-bit operand (B or C) addresses the constant
// pool (true) or a register (false), and the resolved index either way.
func RK(field uint16) (index uint16, isConstant bool) {
	if field&BitRK != 0 {
		return field &^ BitRK, true
	}
	return field, false
}

// RKAsConstant encodes a constant-pool index as an RK operand.
func RKAsConstant(index uint16) uint16 {
	return index | BitRK
}

func (i Instruction) String() string {
	switch i.OpCode().OpMode() {
	case OpModeABx:
		return fmt.Sprintf("%-10s A=%d Bx=%d", i.OpCode(), i.A(), i.Bx())
	case OpModeAsBx:
		return fmt.Sprintf("%-10s A=%d sBx=%d", i.OpCode(), i.A(), i.SBx())
	default:
		return fmt.Sprintf("%-10s A=%d B=%d C=%d", i.OpCode(), i.A(), i.B(), i.C())
	}
}
