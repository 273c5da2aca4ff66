// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"github.com/lumendb/luascript/internal/luaast"
	"github.com/lumendb/luascript/lerr"
)

// Compile walks chunk and produces its main Prototype, implementing
// spec.md §4.3: the code generator. Nested function literals become
// nested Prototypes appended to their enclosing function's Protos list,
// which CLOSURE's Bx operand indexes; they are not entries of the
// constant pool, which holds only numbers and strings.
func Compile(chunk *luaast.Chunk, chunkName string) (*Prototype, *lerr.Error) {
	c := &compiler{chunkName: chunkName}
	fs := newFuncState(nil, chunkName, chunkName, 0, true)
	c.fs = fs
	fs.enterBlock(false)
	if err := c.compileBlock(chunk.Body); err != nil {
		return nil, err
	}
	c.emitReturn(luaast.Position{}, nil)
	fs.leaveBlock(c.emitAt, luaast.Position{})
	if err := fs.finish(c.patchJumpTo); err != nil {
		return nil, err
	}
	return fs.proto, nil
}

type compiler struct {
	chunkName string
	fs        *funcState
}

func (c *compiler) errorf(pos luaast.Position, format string, args ...any) *lerr.Error {
	return c.fs.errorf(pos, format, args...)
}

// ---- Instruction emission & jump patching ----

func (c *compiler) emit(i Instruction, pos luaast.Position) int {
	return c.emitAt(i, pos)
}

func (c *compiler) emitAt(i Instruction, pos luaast.Position) int {
	fs := c.fs
	fs.proto.Code = append(fs.proto.Code, i)
	fs.proto.Lines = append(fs.proto.Lines, pos.Line)
	return len(fs.proto.Code) - 1
}

func (c *compiler) here() int { return len(c.fs.proto.Code) }

func (c *compiler) emitJump(pos luaast.Position) int {
	return c.emit(AsBx(OpJmp, 0, 0), pos)
}

func (c *compiler) patchJumpToHere(pc int) {
	c.patchJumpTo(pc, c.here())
}

func (c *compiler) patchJumpTo(pc, target int) {
	i := c.fs.proto.Code[pc]
	sbx := int32(target - (pc + 1))
	c.fs.proto.Code[pc] = AsBx(i.OpCode(), i.A(), sbx)
}

// ---- Statements ----

func (c *compiler) compileBlock(stmts []luaast.Statement) *lerr.Error {
	for _, stmt := range stmts {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileStatement(stmt luaast.Statement) *lerr.Error {
	fs := c.fs
	startReg := fs.freereg
	switch s := stmt.(type) {
	case *luaast.LocalStatement:
		return c.compileLocal(s)
	case *luaast.AssignStatement:
		err := c.compileAssign(s)
		fs.freereg = startReg
		return err
	case *luaast.CallStatement:
		_, err := c.compileCall(s.Call, 0, fs.freereg)
		fs.freereg = startReg
		return err
	case *luaast.DoStatement:
		fs.enterBlock(false)
		if err := c.compileBlock(s.Body); err != nil {
			return err
		}
		fs.leaveBlock(c.emitAt, s.Pos())
		return nil
	case *luaast.IfStatement:
		return c.compileIf(s)
	case *luaast.WhileStatement:
		return c.compileWhile(s)
	case *luaast.RepeatStatement:
		return c.compileRepeat(s)
	case *luaast.NumericForStatement:
		return c.compileNumericFor(s)
	case *luaast.GenericForStatement:
		return c.compileGenericFor(s)
	case *luaast.FunctionStatement:
		return c.compileFunctionStatement(s)
	case *luaast.BreakStatement:
		pc := c.emitJump(s.Pos())
		return fs.addBreak(pc)
	case *luaast.GotoStatement:
		pc := c.emitJump(s.Pos())
		fs.addGoto(s.Label, pc, s.Pos())
		return nil
	case *luaast.LabelStatement:
		fs.defineLabel(s.Name, c.here())
		return nil
	case *luaast.ReturnStatement:
		return c.emitReturn(s.Pos(), s.Values)
	default:
		return c.errorf(stmt.Pos(), "internal: unhandled statement %T", stmt)
	}
}

func (c *compiler) emitReturn(pos luaast.Position, values []luaast.Expression) *lerr.Error {
	fs := c.fs
	base := fs.freereg
	if len(values) == 0 {
		c.emit(ABC(OpReturn, 0, 1, 0), pos)
		return nil
	}
	if len(values) == 1 {
		if call, ok := values[0].(*luaast.CallExpression); ok {
			funcReg, err := c.compileTailCall(call, base)
			if err != nil {
				return err
			}
			c.emit(ABC(OpReturn, uint16(funcReg), 0, 0), pos)
			fs.freereg = base
			return nil
		}
	}
	count, isOpen, err := c.compileExprListOpen(values, base)
	if err != nil {
		return err
	}
	b := uint16(count + 1)
	if isOpen {
		b = 0
	}
	c.emit(ABC(OpReturn, uint16(base), b, 0), pos)
	fs.freereg = base
	return nil
}

func (c *compiler) compileLocal(s *luaast.LocalStatement) *lerr.Error {
	fs := c.fs
	base := fs.freereg
	if err := c.compileAdjustedList(s.Values, base, len(s.Names), s.Pos()); err != nil {
		return err
	}
	for i, name := range s.Names {
		fs.actives = append(fs.actives, localVar{name: name, reg: base + uint8(i)})
	}
	return nil
}

// compileAdjustedList compiles exprs into want contiguous registers
// starting at base, padding with nil or truncating as Lua's multiple
// assignment/local declaration "adjust" rule requires.
func (c *compiler) compileAdjustedList(exprs []luaast.Expression, base uint8, want int, pos luaast.Position) *lerr.Error {
	fs := c.fs
	fs.reserve(want)
	if len(exprs) == 0 {
		if want > 0 {
			c.emit(ABC(OpLoadNil, uint16(base), uint16(base+uint8(want)-1), 0), pos)
		}
		return nil
	}
	for i := 0; i < len(exprs)-1; i++ {
		target := base + uint8(i)
		if i < want {
			if err := c.compileExprToReg(exprs[i], target); err != nil {
				return err
			}
		} else {
			saved := fs.saveState()
			tmp := fs.allocReg()
			if err := c.compileExprToReg(exprs[i], tmp); err != nil {
				return err
			}
			fs.restoreState(saved)
		}
	}
	lastIdx := len(exprs) - 1
	produced := lastIdx // number of registers already filled for positions < lastIdx that count toward want
	remaining := want - produced
	last := exprs[lastIdx]
	if remaining <= 0 {
		// Extra values beyond what's wanted; still must evaluate for side effects.
		saved := fs.saveState()
		tmp := fs.allocReg()
		if err := c.compileExprToReg(last, tmp); err != nil {
			return err
		}
		fs.restoreState(saved)
		return nil
	}
	target := base + uint8(lastIdx)
	if isMultiValue(last) {
		n, err := c.compileMultiInto(last, target, remaining)
		if err != nil {
			return err
		}
		_ = n
	} else {
		if err := c.compileExprToReg(last, target); err != nil {
			return err
		}
		if remaining > 1 {
			c.emit(ABC(OpLoadNil, uint16(target+1), uint16(base+uint8(want)-1), 0), pos)
		}
	}
	return nil
}

func isMultiValue(e luaast.Expression) bool {
	switch v := e.(type) {
	case *luaast.CallExpression:
		return true
	case *luaast.VarargExpression:
		return true
	case *luaast.ParenExpression:
		_ = v
		return false
	default:
		return false
	}
}

// compileMultiInto compiles a call or vararg expression expecting
// exactly want results starting at target (want < 0 means "as many as
// produced", encoded with C=0/B=0 in the CALL/VARARG instruction).
func (c *compiler) compileMultiInto(e luaast.Expression, target uint8, want int) (int, *lerr.Error) {
	switch v := e.(type) {
	case *luaast.CallExpression:
		if _, err := c.compileCall(v, want, target); err != nil {
			return 0, err
		}
		return want, nil
	case *luaast.VarargExpression:
		b := uint16(want + 1)
		if want < 0 {
			b = 0
		}
		c.emit(ABC(OpVararg, uint16(target), b, 0), v.Pos())
		return want, nil
	default:
		return 0, c.errorf(e.Pos(), "internal: not a multi-value expression")
	}
}

func (c *compiler) compileAssign(s *luaast.AssignStatement) *lerr.Error {
	fs := c.fs
	base := fs.freereg

	type target struct {
		kind   int // 0 = local, 1 = upvalue, 2 = global, 3 = index
		reg    uint8
		upIdx  uint16
		name   string
		objReg uint8
		keyRK  uint16
	}
	targets := make([]target, len(s.Targets))
	for i, texpr := range s.Targets {
		switch te := texpr.(type) {
		case *luaast.Name:
			if reg, ok := fs.resolveLocal(te.Value); ok {
				targets[i] = target{kind: 0, reg: reg}
			} else if idx, ok := c.resolveUpvalue(fs, te.Value); ok {
				targets[i] = target{kind: 1, upIdx: idx}
			} else {
				targets[i] = target{kind: 2, name: te.Value}
			}
		case *luaast.IndexExpression:
			objReg := fs.allocReg()
			if err := c.compileExprToReg(te.Object, objReg); err != nil {
				return err
			}
			keyRK, _, _, err := c.compileRK(te.Key)
			if err != nil {
				return err
			}
			targets[i] = target{kind: 3, objReg: objReg, keyRK: keyRK}
		default:
			return c.errorf(texpr.Pos(), "cannot assign to this expression")
		}
	}

	valuesBase := fs.freereg
	if err := c.compileAdjustedList(s.Values, valuesBase, len(s.Targets), s.Pos()); err != nil {
		return err
	}

	for i, t := range targets {
		vreg := valuesBase + uint8(i)
		switch t.kind {
		case 0:
			if t.reg != vreg {
				c.emit(ABC(OpMove, uint16(t.reg), uint16(vreg), 0), s.Pos())
			}
		case 1:
			c.emit(ABC(OpSetUpval, uint16(vreg), t.upIdx, 0), s.Pos())
		case 2:
			idx := fs.stringConstant(t.name)
			c.emit(ABx(OpSetGlobal, uint16(vreg), uint32(idx)), s.Pos())
		case 3:
			c.emit(ABC(OpSetTable, uint16(t.objReg), t.keyRK, uint16(vreg)), s.Pos())
		}
	}
	fs.freereg = base
	return nil
}

func (c *compiler) compileIf(s *luaast.IfStatement) *lerr.Error {
	fs := c.fs
	var endJumps []int
	for _, clause := range s.Clauses {
		falseJump, err := c.compileCondition(clause.Condition, false)
		if err != nil {
			return err
		}
		fs.enterBlock(false)
		if err := c.compileBlock(clause.Body); err != nil {
			return err
		}
		fs.leaveBlock(c.emitAt, clause.Condition.Pos())
		endJumps = append(endJumps, c.emitJump(clause.Condition.Pos()))
		c.patchJumpToHere(falseJump)
	}
	if s.Else != nil {
		fs.enterBlock(false)
		if err := c.compileBlock(s.Else); err != nil {
			return err
		}
		fs.leaveBlock(c.emitAt, s.Pos())
	}
	for _, pc := range endJumps {
		c.patchJumpToHere(pc)
	}
	return nil
}

// compileCondition compiles cond and emits a conditional jump taken
// when the condition evaluates to wantTrue, returning the jump's PC
// (to be patched by the caller) for the opposite branch.
func (c *compiler) compileCondition(cond luaast.Expression, wantTrue bool) (int, *lerr.Error) {
	fs := c.fs
	saved := fs.saveState()
	reg := fs.allocReg()
	if err := c.compileExprToReg(cond, reg); err != nil {
		return 0, err
	}
	var c1 uint16
	if wantTrue {
		c1 = 1
	}
	c.emit(ABC(OpTest, uint16(reg), 0, c1), cond.Pos())
	pc := c.emitJump(cond.Pos())
	fs.restoreState(saved)
	return pc, nil
}

func (c *compiler) compileWhile(s *luaast.WhileStatement) *lerr.Error {
	fs := c.fs
	top := c.here()
	exitJump, err := c.compileCondition(s.Condition, false)
	if err != nil {
		return err
	}
	fs.enterBlock(true)
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	loopEndJump := c.emitJump(s.Pos())
	c.patchJumpTo(loopEndJump, top)
	endPC := c.here()
	for _, b := range fs.block.breakJumps {
		c.patchJumpTo(b, endPC)
	}
	fs.leaveBlock(c.emitAt, s.Pos())
	c.patchJumpToHere(exitJump)
	return nil
}

func (c *compiler) compileRepeat(s *luaast.RepeatStatement) *lerr.Error {
	fs := c.fs
	top := c.here()
	fs.enterBlock(true)
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	// The until condition is compiled while the loop body's locals are
	// still in scope, matching Lua's repeat/until semantics.
	saved := fs.saveState()
	reg := fs.allocReg()
	if err := c.compileExprToReg(s.Condition, reg); err != nil {
		return err
	}
	c.emit(ABC(OpTest, uint16(reg), 0, 0), s.Pos())
	backJump := c.emitJump(s.Pos())
	c.patchJumpTo(backJump, top)
	fs.restoreState(saved)
	endPC := c.here()
	for _, b := range fs.block.breakJumps {
		c.patchJumpTo(b, endPC)
	}
	fs.leaveBlock(c.emitAt, s.Pos())
	return nil
}

func (c *compiler) compileNumericFor(s *luaast.NumericForStatement) *lerr.Error {
	fs := c.fs
	base := fs.freereg
	fs.reserve(4)
	if err := c.compileExprToReg(s.Start, base); err != nil {
		return err
	}
	if err := c.compileExprToReg(s.Limit, base+1); err != nil {
		return err
	}
	if s.Step != nil {
		if err := c.compileExprToReg(s.Step, base+2); err != nil {
			return err
		}
	} else {
		idx := fs.numberConstant(1)
		c.emit(ABx(OpLoadK, uint16(base+2), uint32(idx)), s.Pos())
	}
	prepPC := c.emit(AsBx(OpForPrep, uint16(base), 0), s.Pos())
	fs.enterBlock(true)
	fs.actives = append(fs.actives, localVar{name: s.Variable, reg: base + 3})
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	loopPC := c.emit(AsBx(OpForLoop, uint16(base), 0), s.Pos())
	c.patchJumpTo(prepPC, loopPC)
	c.patchJumpTo(loopPC, prepPC+1)
	endPC := c.here()
	for _, b := range fs.block.breakJumps {
		c.patchJumpTo(b, endPC)
	}
	fs.leaveBlock(c.emitAt, s.Pos())
	fs.freereg = base
	return nil
}

func (c *compiler) compileGenericFor(s *luaast.GenericForStatement) *lerr.Error {
	fs := c.fs
	base := fs.freereg
	if err := c.compileAdjustedList(s.Expressions, base, 3, s.Pos()); err != nil {
		return err
	}
	nvars := len(s.Names)
	fs.reserve(nvars)
	loopStartJump := c.emitJump(s.Pos())
	fs.enterBlock(true)
	bodyStart := c.here()
	for i, name := range s.Names {
		fs.actives = append(fs.actives, localVar{name: name, reg: base + 3 + uint8(i)})
	}
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	c.patchJumpToHere(loopStartJump)
	c.emit(ABC(OpTForLoop, uint16(base), 0, uint16(nvars)), s.Pos())
	backJump := c.emitJump(s.Pos())
	c.patchJumpTo(backJump, bodyStart)
	endPC := c.here()
	for _, b := range fs.block.breakJumps {
		c.patchJumpTo(b, endPC)
	}
	fs.leaveBlock(c.emitAt, s.Pos())
	fs.freereg = base
	return nil
}

func (c *compiler) compileFunctionStatement(s *luaast.FunctionStatement) *lerr.Error {
	fs := c.fs
	if s.IsLocal {
		reg := fs.newLocal(s.Target[0])
		return c.compileClosureInto(s.Function, reg, s.Pos())
	}
	if len(s.Target) == 1 && s.Method == "" {
		saved := fs.saveState()
		reg := fs.allocReg()
		if err := c.compileClosureInto(s.Function, reg, s.Pos()); err != nil {
			return err
		}
		if err := c.storeToName(s.Target[0], reg, s.Pos()); err != nil {
			return err
		}
		fs.restoreState(saved)
		return nil
	}
	saved := fs.saveState()
	objReg := fs.allocReg()
	if err := c.compileExprToReg(&luaast.Name{Value: s.Target[0]}, objReg); err != nil {
		return err
	}
	path := s.Target[1:]
	for i := 0; i < len(path); i++ {
		isLast := i == len(path)-1 && s.Method == ""
		if isLast {
			break
		}
		next := fs.allocReg()
		keyIdx := fs.stringConstant(path[i])
		c.emit(ABC(OpGetTable, uint16(next), uint16(objReg), RKAsConstant(keyIdx)), s.Pos())
		objReg = next
	}
	finalName := s.Method
	if finalName == "" {
		finalName = path[len(path)-1]
	}
	funcReg := fs.allocReg()
	if err := c.compileClosureInto(s.Function, funcReg, s.Pos()); err != nil {
		return err
	}
	keyIdx := fs.stringConstant(finalName)
	c.emit(ABC(OpSetTable, uint16(objReg), RKAsConstant(keyIdx), uint16(funcReg)), s.Pos())
	fs.restoreState(saved)
	return nil
}

func (c *compiler) storeToName(name string, valueReg uint8, pos luaast.Position) *lerr.Error {
	fs := c.fs
	if reg, ok := fs.resolveLocal(name); ok {
		if reg != valueReg {
			c.emit(ABC(OpMove, uint16(reg), uint16(valueReg), 0), pos)
		}
		return nil
	}
	if idx, ok := c.resolveUpvalue(fs, name); ok {
		c.emit(ABC(OpSetUpval, uint16(valueReg), idx, 0), pos)
		return nil
	}
	idx := fs.stringConstant(name)
	c.emit(ABx(OpSetGlobal, uint16(valueReg), uint32(idx)), pos)
	return nil
}
