// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luacode

import (
	"github.com/lumendb/luascript/internal/luaast"
	"github.com/lumendb/luascript/lerr"
)

// localVar is an active local variable binding: a name bound to a
// specific register for its lexical lifetime (spec.md §4.3.2).
type localVar struct {
	name     string
	reg      uint8
	captured bool
}

// blockScope is one entry of the chain of active lexical blocks
// (spec.md §4.3.2, §4.3.3): it remembers how many locals and how many
// free registers existed on entry, so leaving the block can restore
// both, and it accumulates this loop's pending "break" jumps.
type blockScope struct {
	parent         *blockScope
	firstLocal     int  // index into fs.actives at block entry
	firstFreeReg   uint8
	isLoop         bool
	breakJumps     []int // patch sites pending resolution to "pc after loop"
	hasUpvalue     bool  // a local of this block was captured, so leaving needs CLOSE
}

// pendingGoto is a forward (or backward-but-unresolved-yet) goto
// awaiting its label.
type pendingGoto struct {
	name       string
	jumpPC     int // index into fs.proto.Code of the placeholder JMP
	scopeDepth int // len(fs.actives) at the goto statement
	pos        luaast.Position
}

type labelDef struct {
	name       string
	pc         int
	scopeDepth int
}

// funcState is the mutable state associated with a Prototype while it
// is being constructed, one per (possibly nested) function body.
type funcState struct {
	proto  *Prototype
	parent *funcState
	chunk  string

	actives []localVar
	block   *blockScope
	freereg uint8

	constantIndex map[Constant]int

	pendingGotos []pendingGoto
	labels       []labelDef

	// preserved pins registers across the next restoreState call,
	// guarding against a restore point that would otherwise free an
	// operand register still needed by an enclosing expression
	// (spec.md §4.3.2).
	preserved map[uint8]bool
}

func newFuncState(parent *funcState, chunk string, source string, line int, isVararg bool) *funcState {
	return &funcState{
		proto: &Prototype{
			Source:      source,
			LineDefined: line,
			IsVararg:    isVararg,
		},
		parent:        parent,
		chunk:         chunk,
		constantIndex: make(map[Constant]int),
		preserved:     make(map[uint8]bool),
	}
}

func (fs *funcState) errorf(pos luaast.Position, format string, args ...any) *lerr.Error {
	return lerr.New(lerr.KindCodegen, lerr.Position{Source: fs.chunk, Line: pos.Line, Column: pos.Column}, format, args...)
}

// ---- Register allocation (spec.md §4.3.2) ----

func (fs *funcState) saveState() uint8 { return fs.freereg }

func (fs *funcState) restoreState(saved uint8) {
	floor := saved
	for r := range fs.preserved {
		if r+1 > floor {
			floor = r + 1
		}
	}
	if fs.freereg > floor {
		fs.freereg = floor
	}
	fs.preserved = make(map[uint8]bool)
}

func (fs *funcState) preserveRegister(r uint8) {
	fs.preserved[r] = true
}

// reserve allocates n contiguous registers and returns the first.
func (fs *funcState) reserve(n int) uint8 {
	base := fs.freereg
	fs.freereg += uint8(n)
	if int(fs.proto.MaxStackSize) < int(fs.freereg) {
		fs.proto.MaxStackSize = fs.freereg
	}
	return base
}

func (fs *funcState) allocReg() uint8 { return fs.reserve(1) }

// freeReg frees a single register if it is the current top, mirroring
// luaK_freereg: freeing out of order is a no-op, since the stack
// discipline only ever reclaims from the top.
func (fs *funcState) freeReg(r uint8) {
	if r == fs.freereg-1 {
		fs.freereg--
	}
}

// ---- Local variables ----

func (fs *funcState) newLocal(name string) uint8 {
	reg := fs.allocReg()
	fs.actives = append(fs.actives, localVar{name: name, reg: reg})
	return reg
}

// resolveLocal looks up name among active locals of fs only (not
// enclosing functions), innermost first.
func (fs *funcState) resolveLocal(name string) (reg uint8, ok bool) {
	for i := len(fs.actives) - 1; i >= 0; i-- {
		if fs.actives[i].name == name {
			return fs.actives[i].reg, true
		}
	}
	return 0, false
}

func (fs *funcState) markCaptured(reg uint8) {
	for i := range fs.actives {
		if fs.actives[i].reg == reg {
			fs.actives[i].captured = true
			if fs.block != nil {
				fs.block.hasUpvalue = true
			}
		}
	}
}

// ---- Blocks, break, goto/label (spec.md §4.3.3) ----

func (fs *funcState) enterBlock(isLoop bool) {
	fs.block = &blockScope{
		parent:       fs.block,
		firstLocal:   len(fs.actives),
		firstFreeReg: fs.freereg,
		isLoop:       isLoop,
	}
}

// leaveBlock pops the current block, emitting a CLOSE instruction if
// any local in it was captured, and returns the registers and locals
// declared in the block to the enclosing scope.
func (fs *funcState) leaveBlock(emit func(Instruction, luaast.Position) int, pos luaast.Position) {
	b := fs.block
	if b.hasUpvalue {
		emit(ABC(OpClose, uint16(b.firstFreeReg), 0, 0), pos)
	}
	fs.actives = fs.actives[:b.firstLocal]
	fs.freereg = b.firstFreeReg
	if int(fs.proto.MaxStackSize) < int(fs.freereg) {
		fs.proto.MaxStackSize = fs.freereg
	}
	fs.block = b.parent
}

// enclosingLoop returns the nearest enclosing loop block, or nil.
func (fs *funcState) enclosingLoop() *blockScope {
	for b := fs.block; b != nil; b = b.parent {
		if b.isLoop {
			return b
		}
	}
	return nil
}

func (fs *funcState) addBreak(pc int) *lerr.Error {
	loop := fs.enclosingLoop()
	if loop == nil {
		return fs.errorf(luaast.Position{}, "break outside a loop")
	}
	loop.breakJumps = append(loop.breakJumps, pc)
	return nil
}

func (fs *funcState) defineLabel(name string, pc int) {
	fs.labels = append(fs.labels, labelDef{name: name, pc: pc, scopeDepth: len(fs.actives)})
}

func (fs *funcState) addGoto(name string, jumpPC int, pos luaast.Position) {
	fs.pendingGotos = append(fs.pendingGotos, pendingGoto{
		name: name, jumpPC: jumpPC, scopeDepth: len(fs.actives), pos: pos,
	})
}

// resolveGotos attempts to patch every pending goto against the known
// labels, applying the scope rule from spec.md §4.3.3: a label's scope
// level must be no deeper than the goto's, or the goto would jump into
// the scope of a local variable.
func (fs *funcState) resolveGotos(patch func(jumpPC, targetPC int)) *lerr.Error {
	var remaining []pendingGoto
	for _, g := range fs.pendingGotos {
		resolved := false
		for _, l := range fs.labels {
			if l.name != g.name {
				continue
			}
			if l.scopeDepth > g.scopeDepth {
				return fs.errorf(g.pos, "goto %s jumps into the scope of a local variable", g.name)
			}
			patch(g.jumpPC, l.pc)
			resolved = true
			break
		}
		if !resolved {
			remaining = append(remaining, g)
		}
	}
	fs.pendingGotos = remaining
	return nil
}

func (fs *funcState) finish(patch func(jumpPC, targetPC int)) *lerr.Error {
	if err := fs.resolveGotos(patch); err != nil {
		return err
	}
	if len(fs.pendingGotos) > 0 {
		g := fs.pendingGotos[0]
		return fs.errorf(g.pos, "no visible label %q for goto", g.name)
	}
	return nil
}

// ---- Constants ----

func (fs *funcState) numberConstant(v float64) uint16 {
	return fs.constant(NumberConstant(v))
}

func (fs *funcState) stringConstant(v string) uint16 {
	return fs.constant(StringConstant(v))
}

func (fs *funcState) constant(c Constant) uint16 {
	if idx, ok := fs.constantIndex[c]; ok {
		return uint16(idx)
	}
	idx := len(fs.proto.Constants)
	fs.proto.Constants = append(fs.proto.Constants, c)
	fs.constantIndex[c] = idx
	return uint16(idx)
}
