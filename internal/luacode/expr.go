// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"github.com/lumendb/luascript/internal/luaast"
	"github.com/lumendb/luascript/internal/lualex"
	"github.com/lumendb/luascript/lerr"
)

// compileExprToReg compiles e so its single value ends up in register
// target, per spec.md §4.3.1. Expressions that may yield more than one
// value (calls, "...") are truncated to their first result here, as a
// bare expression position requires.
func (c *compiler) compileExprToReg(e luaast.Expression, target uint8) *lerr.Error {
	fs := c.fs
	pos := e.Pos()
	switch v := e.(type) {
	case *luaast.NilLiteral:
		c.emit(ABC(OpLoadNil, uint16(target), uint16(target), 0), pos)
	case *luaast.TrueLiteral:
		c.emit(ABC(OpLoadBool, uint16(target), 1, 0), pos)
	case *luaast.FalseLiteral:
		c.emit(ABC(OpLoadBool, uint16(target), 0, 0), pos)
	case *luaast.VarargExpression:
		c.emit(ABC(OpVararg, uint16(target), 2, 0), pos)
	case *luaast.NumberLiteral:
		f, err := lualex.ParseNumber(v.Text)
		if err != nil {
			return c.errorf(pos, "invalid number %q", v.Text)
		}
		idx := fs.numberConstant(f)
		c.emit(ABx(OpLoadK, uint16(target), uint32(idx)), pos)
	case *luaast.StringLiteral:
		idx := fs.stringConstant(v.Value)
		c.emit(ABx(OpLoadK, uint16(target), uint32(idx)), pos)
	case *luaast.Name:
		return c.compileName(v, target)
	case *luaast.ParenExpression:
		return c.compileExprToReg(v.Inner, target)
	case *luaast.UnaryExpression:
		return c.compileUnary(v, target)
	case *luaast.BinaryExpression:
		switch v.Operator {
		case luaast.BinaryAnd, luaast.BinaryOr:
			return c.compileAndOr(v, target)
		case luaast.BinaryConcat:
			return c.compileConcat(v, target)
		case luaast.BinaryEq, luaast.BinaryNe, luaast.BinaryLt, luaast.BinaryGt, luaast.BinaryLe, luaast.BinaryGe:
			return c.compileRelationalToReg(v.Operator, v.Left, v.Right, target, pos)
		default:
			return c.compileArith(v, target)
		}
	case *luaast.IndexExpression:
		saved := fs.saveState()
		objReg, err := c.compileExprAnyReg(v.Object)
		if err != nil {
			return err
		}
		keyRK, _, _, err := c.compileRK(v.Key)
		if err != nil {
			return err
		}
		c.emit(ABC(OpGetTable, uint16(target), uint16(objReg), keyRK), pos)
		fs.restoreState(saved)
	case *luaast.CallExpression:
		_, err := c.compileCall(v, 1, target)
		return err
	case *luaast.FunctionExpression:
		return c.compileClosureInto(v, target, pos)
	case *luaast.TableConstructor:
		return c.compileTableConstructor(v, target)
	default:
		return c.errorf(pos, "internal: unhandled expression %T", e)
	}
	return nil
}

func (c *compiler) compileName(n *luaast.Name, target uint8) *lerr.Error {
	fs := c.fs
	if reg, ok := fs.resolveLocal(n.Value); ok {
		if reg != target {
			c.emit(ABC(OpMove, uint16(target), uint16(reg), 0), n.Pos())
		}
		return nil
	}
	if idx, ok := c.resolveUpvalue(fs, n.Value); ok {
		c.emit(ABC(OpGetUpval, uint16(target), idx, 0), n.Pos())
		return nil
	}
	idx := fs.stringConstant(n.Value)
	c.emit(ABx(OpGetGlobal, uint16(target), uint32(idx)), n.Pos())
	return nil
}

// compileExprAnyReg compiles e into whatever register is most
// convenient: the local's own register if e is a bare local reference,
// or a fresh temporary otherwise.
func (c *compiler) compileExprAnyReg(e luaast.Expression) (uint8, *lerr.Error) {
	if name, ok := e.(*luaast.Name); ok {
		if reg, ok := c.fs.resolveLocal(name.Value); ok {
			return reg, nil
		}
	}
	reg := c.fs.allocReg()
	if err := c.compileExprToReg(e, reg); err != nil {
		return 0, err
	}
	return reg, nil
}

// compileRK compiles e into an RK-encoded operand (spec.md §4.3): a
// constant-pool reference when e is a literal small enough to address
// directly, the local's own register when e is a bare local, or a
// fresh temporary register otherwise.
func (c *compiler) compileRK(e luaast.Expression) (rk uint16, isTemp bool, tempReg uint8, err *lerr.Error) {
	fs := c.fs
	switch v := e.(type) {
	case *luaast.NumberLiteral:
		f, perr := lualex.ParseNumber(v.Text)
		if perr != nil {
			return 0, false, 0, c.errorf(v.Pos(), "invalid number %q", v.Text)
		}
		idx := fs.numberConstant(f)
		if idx <= MaxIndexRK {
			return RKAsConstant(idx), false, 0, nil
		}
	case *luaast.StringLiteral:
		idx := fs.stringConstant(v.Value)
		if idx <= MaxIndexRK {
			return RKAsConstant(idx), false, 0, nil
		}
	case *luaast.Name:
		if reg, ok := fs.resolveLocal(v.Value); ok {
			return uint16(reg), false, 0, nil
		}
	}
	reg := fs.allocReg()
	if e := c.compileExprToReg(e, reg); e != nil {
		return 0, false, 0, e
	}
	return uint16(reg), true, reg, nil
}

func (c *compiler) compileUnary(e *luaast.UnaryExpression, target uint8) *lerr.Error {
	fs := c.fs
	saved := fs.saveState()
	rb, err := c.compileExprAnyReg(e.Operand)
	if err != nil {
		return err
	}
	var op OpCode
	switch e.Operator {
	case luaast.UnaryNot:
		op = OpNot
	case luaast.UnaryLength:
		op = OpLen
	case luaast.UnaryMinus:
		op = OpUnm
	}
	c.emit(ABC(op, uint16(target), uint16(rb), 0), e.Pos())
	fs.restoreState(saved)
	return nil
}

func (c *compiler) compileArith(e *luaast.BinaryExpression, target uint8) *lerr.Error {
	fs := c.fs
	saved := fs.saveState()
	lrk, _, _, err := c.compileRK(e.Left)
	if err != nil {
		return err
	}
	rrk, _, _, err := c.compileRK(e.Right)
	if err != nil {
		return err
	}
	var op OpCode
	switch e.Operator {
	case luaast.BinaryAdd:
		op = OpAdd
	case luaast.BinarySub:
		op = OpSub
	case luaast.BinaryMul:
		op = OpMul
	case luaast.BinaryDiv:
		op = OpDiv
	case luaast.BinaryMod:
		op = OpMod
	case luaast.BinaryPow:
		op = OpPow
	default:
		return c.errorf(e.Pos(), "internal: unhandled binary operator %v", e.Operator)
	}
	c.emit(ABC(op, uint16(target), lrk, rrk), e.Pos())
	fs.restoreState(saved)
	return nil
}

// compileAndOr implements short-circuit "and"/"or" with a TEST
// followed by a two-way jump, rather than Lua's deferred true/false
// jump-list scheme: simpler to generate correctly since our targets
// are always a concrete register instead of a deferred relational
// result. The virtual machine's TESTSET opcode exists for spec
// completeness but this path does not need it.
func (c *compiler) compileAndOr(e *luaast.BinaryExpression, target uint8) *lerr.Error {
	fs := c.fs
	if err := c.compileExprToReg(e.Left, target); err != nil {
		return err
	}
	var wantTrueToSkip uint16
	if e.Operator == luaast.BinaryOr {
		wantTrueToSkip = 0
	} else {
		wantTrueToSkip = 1
	}
	c.emit(ABC(OpTest, uint16(target), 0, wantTrueToSkip), e.Pos())
	toRight := c.emitJump(e.Pos())
	toEnd := c.emitJump(e.Pos())
	c.patchJumpToHere(toRight)
	if err := c.compileExprToReg(e.Right, target); err != nil {
		return err
	}
	c.patchJumpToHere(toEnd)
	_ = fs
	return nil
}

// compileConcat flattens a right-associative chain of ".." operators
// into the single contiguous-register CONCAT instruction real Lua
// uses, since CONCAT folds R(B)..R(C) in one step (spec.md §4.5.3).
func (c *compiler) compileConcat(e *luaast.BinaryExpression, target uint8) *lerr.Error {
	fs := c.fs
	parts := flattenConcat(e)
	saved := fs.saveState()
	base := fs.freereg
	for _, p := range parts {
		reg := fs.allocReg()
		if err := c.compileExprToReg(p, reg); err != nil {
			return err
		}
	}
	c.emit(ABC(OpConcat, uint16(target), uint16(base), uint16(base+uint8(len(parts))-1)), e.Pos())
	fs.restoreState(saved)
	return nil
}

func flattenConcat(e luaast.Expression) []luaast.Expression {
	be, ok := e.(*luaast.BinaryExpression)
	if !ok || be.Operator != luaast.BinaryConcat {
		return []luaast.Expression{e}
	}
	return append(flattenConcat(be.Left), flattenConcat(be.Right)...)
}

// compileRelationalToReg materializes a relational comparison as a
// boolean value, using the classic condjump/LOADBOOL pair: EQ/LT/LE
// conditionally skip a JMP, so the branch not taken falls onto a
// LOADBOOL that also skips its neighbor (spec.md §4.3.1, one of the
// handful of encodings implementers commonly get subtly wrong).
func (c *compiler) compileRelationalToReg(op luaast.BinaryOperator, left, right luaast.Expression, target uint8, pos luaast.Position) *lerr.Error {
	fs := c.fs
	var opcode OpCode
	var expect uint16 = 1
	lhs, rhs := left, right
	switch op {
	case luaast.BinaryEq:
		opcode, expect = OpEq, 1
	case luaast.BinaryNe:
		opcode, expect = OpEq, 0
	case luaast.BinaryLt:
		opcode, expect = OpLt, 1
	case luaast.BinaryGt:
		opcode, expect = OpLt, 1
		lhs, rhs = right, left
	case luaast.BinaryLe:
		opcode, expect = OpLe, 1
	case luaast.BinaryGe:
		opcode, expect = OpLe, 1
		lhs, rhs = right, left
	}
	saved := fs.saveState()
	lrk, _, _, err := c.compileRK(lhs)
	if err != nil {
		return err
	}
	rrk, _, _, err := c.compileRK(rhs)
	if err != nil {
		return err
	}
	c.emit(ABC(opcode, expect, lrk, rrk), pos)
	jmp := c.emitJump(pos)
	c.emit(ABC(OpLoadBool, uint16(target), 0, 1), pos)
	truePC := c.emit(ABC(OpLoadBool, uint16(target), 1, 0), pos)
	c.patchJumpTo(jmp, truePC)
	fs.restoreState(saved)
	return nil
}

// ---- Calls ----

// compileCall compiles a function or method call into the contiguous
// register window starting at target, per spec.md §4.5.2's calling
// convention: the function (and, for method calls, the receiver) are
// placed immediately below the argument list, and CALL overwrites that
// same window with its results. nresults of -1 requests "as many
// results as the callee returns" (encoded as C=0).
func (c *compiler) compileCall(e *luaast.CallExpression, nresults int, target uint8) (uint8, *lerr.Error) {
	return c.compileCallGeneric(e, nresults, target, false)
}

func (c *compiler) compileTailCall(e *luaast.CallExpression, target uint8) (uint8, *lerr.Error) {
	return c.compileCallGeneric(e, -1, target, true)
}

func (c *compiler) compileCallGeneric(e *luaast.CallExpression, nresults int, target uint8, tail bool) (uint8, *lerr.Error) {
	fs := c.fs
	fs.freereg = target
	funcReg := fs.allocReg()
	var argsBase uint8
	selfArg := 0
	if e.Method != "" {
		objReg := fs.allocReg()
		if err := c.compileExprToReg(e.Function, objReg); err != nil {
			return 0, err
		}
		methodIdx := fs.stringConstant(e.Method)
		c.emit(ABC(OpSelf, uint16(funcReg), uint16(objReg), RKAsConstant(methodIdx)), e.Pos())
		argsBase = objReg + 1
		selfArg = 1
	} else {
		if err := c.compileExprToReg(e.Function, funcReg); err != nil {
			return 0, err
		}
		argsBase = funcReg + 1
	}
	count, isOpen, err := c.compileExprListOpen(e.Arguments, argsBase)
	if err != nil {
		return 0, err
	}
	nargs := count + selfArg
	b := uint16(nargs + 1)
	if isOpen {
		b = 0
	}
	if tail {
		c.emit(ABC(OpTailCall, uint16(funcReg), b, 0), e.Pos())
		return funcReg, nil
	}
	cc := uint16(nresults + 1)
	if nresults < 0 {
		cc = 0
	}
	c.emit(ABC(OpCall, uint16(funcReg), b, cc), e.Pos())
	if nresults >= 0 {
		fs.freereg = funcReg + uint8(nresults)
	}
	return funcReg, nil
}

// compileExprListOpen compiles exprs into consecutive registers
// starting at base. If the last expression is a call or "...", it is
// left "open" (its results extend to the current top) rather than
// truncated to one value, matching spec.md's rule for the tail
// position of argument lists, return lists and constructor array
// parts.
func (c *compiler) compileExprListOpen(exprs []luaast.Expression, base uint8) (int, bool, *lerr.Error) {
	fs := c.fs
	if len(exprs) == 0 {
		return 0, false, nil
	}
	for i := 0; i < len(exprs)-1; i++ {
		reg := fs.allocReg()
		if err := c.compileExprToReg(exprs[i], reg); err != nil {
			return 0, false, err
		}
	}
	last := exprs[len(exprs)-1]
	if isMultiValue(last) {
		if _, err := c.compileMultiInto(last, fs.freereg, -1); err != nil {
			return 0, false, err
		}
		return len(exprs), true, nil
	}
	reg := fs.allocReg()
	if err := c.compileExprToReg(last, reg); err != nil {
		return 0, false, err
	}
	return len(exprs), false, nil
}

// ---- Closures ----

func (c *compiler) compileClosureInto(fe *luaast.FunctionExpression, target uint8, pos luaast.Position) *lerr.Error {
	parent := c.fs
	child := newFuncState(parent, c.chunkName, c.chunkName, fe.Pos().Line, fe.IsVararg)
	c.fs = child
	child.enterBlock(false)
	for _, p := range fe.Params {
		child.newLocal(p)
	}
	child.proto.NumParams = uint8(len(fe.Params))
	if err := c.compileBlock(fe.Body); err != nil {
		c.fs = parent
		return err
	}
	if err := c.emitReturn(fe.EndPos, nil); err != nil {
		c.fs = parent
		return err
	}
	child.leaveBlock(c.emitAt, fe.EndPos)
	if err := child.finish(c.patchJumpTo); err != nil {
		c.fs = parent
		return err
	}
	c.fs = parent

	protoIdx := len(parent.proto.Protos)
	parent.proto.Protos = append(parent.proto.Protos, child.proto)
	c.emit(ABx(OpClosure, uint16(target), uint32(protoIdx)), pos)
	for _, uv := range child.proto.Upvalues {
		if uv.FromEnclosingStack {
			c.emit(ABC(OpMove, 0, uint16(uv.Index), 0), pos)
		} else {
			c.emit(ABC(OpGetUpval, 0, uint16(uv.Index), 0), pos)
		}
	}
	return nil
}

// resolveUpvalue finds name in an enclosing function, recording the
// chain of UpvalueDescriptors needed to thread it down to fs, per the
// standard Lua closure-resolution algorithm (spec.md §4.3.4).
func (c *compiler) resolveUpvalue(fs *funcState, name string) (uint16, bool) {
	for i, uv := range fs.proto.Upvalues {
		if uv.Name == name {
			return uint16(i), true
		}
	}
	if fs.parent == nil {
		return 0, false
	}
	if reg, ok := fs.parent.resolveLocal(name); ok {
		fs.parent.markCaptured(reg)
		idx := uint16(len(fs.proto.Upvalues))
		fs.proto.Upvalues = append(fs.proto.Upvalues, UpvalueDescriptor{FromEnclosingStack: true, Index: reg, Name: name})
		return idx, true
	}
	if parentIdx, ok := c.resolveUpvalue(fs.parent, name); ok {
		idx := uint16(len(fs.proto.Upvalues))
		fs.proto.Upvalues = append(fs.proto.Upvalues, UpvalueDescriptor{FromEnclosingStack: false, Index: uint8(parentIdx), Name: name})
		return idx, true
	}
	return 0, false
}

// ---- Table constructors ----

func (c *compiler) compileTableConstructor(tc *luaast.TableConstructor, target uint8) *lerr.Error {
	fs := c.fs
	arrayCount, recordCount := 0, 0
	for _, f := range tc.Fields {
		if f.Key == nil {
			arrayCount++
		} else {
			recordCount++
		}
	}
	// NEWTABLE's B/C here hold plain element-count hints rather than
	// lopcodes.h's floating-point-byte encoding: this virtual machine
	// only ever uses them to presize the table, so the packed encoding
	// buys nothing.
	c.emit(ABC(OpNewTable, uint16(target), uint16(arrayCount), uint16(recordCount)), tc.Pos())

	var pending []luaast.Expression
	flushCount := 0
	flush := func(forceOpen bool) *lerr.Error {
		if len(pending) == 0 {
			return nil
		}
		saved := fs.saveState()
		base := fs.freereg
		isOpen := false
		for i, v := range pending {
			isLast := i == len(pending)-1
			if isLast && forceOpen && isMultiValue(v) {
				if _, err := c.compileMultiInto(v, fs.freereg, -1); err != nil {
					return err
				}
				isOpen = true
				continue
			}
			reg := fs.allocReg()
			if err := c.compileExprToReg(v, reg); err != nil {
				return err
			}
		}
		b := uint16(len(pending))
		if isOpen {
			b = 0
		}
		flushCount++
		c.emit(ABC(OpSetList, uint16(target), b, uint16(flushCount)), tc.Pos())
		fs.restoreState(saved)
		_ = base
		pending = nil
		return nil
	}

	for i, f := range tc.Fields {
		isLastField := i == len(tc.Fields)-1
		if f.Key == nil {
			pending = append(pending, f.Value)
			if len(pending) == FieldsPerFlush && !isLastField {
				if err := flush(false); err != nil {
					return err
				}
			}
			if isLastField {
				if err := flush(true); err != nil {
					return err
				}
			}
			continue
		}
		if err := flush(false); err != nil {
			return err
		}
		saved := fs.saveState()
		keyRK, _, _, err := c.compileRK(f.Key)
		if err != nil {
			return err
		}
		valReg := fs.allocReg()
		if err := c.compileExprToReg(f.Value, valReg); err != nil {
			return err
		}
		c.emit(ABC(OpSetTable, uint16(target), keyRK, uint16(valReg)), tc.Pos())
		fs.restoreState(saved)
	}
	return nil
}
