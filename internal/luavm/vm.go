// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"context"
	"math"

	"github.com/lumendb/luascript/internal/luacode"
	"github.com/lumendb/luascript/lerr"
	"zombiezen.com/go/log"
)

// Call invokes fn with args from outside any running frame, as the
// host embedding API does (spec.md §6 execute_module). __call is
// honored when fn is not directly callable. Debug logging happens at this
// call/return boundary; inside the dispatch loop only the kill and
// instruction-limit aborts log, so a tight Lua loop that runs to
// completion makes no log calls.
func (th *Thread) Call(fn Value, args []Value) ([]Value, error) {
	ctx := context.Background()
	log.Debugf(ctx, "luavm: execute start")
	results, err := th.callValue(fn, args, -1)
	if err != nil {
		log.Debugf(ctx, "luavm: execute end: %v", err)
		return nil, err
	}
	log.Debugf(ctx, "luavm: execute end: %d result(s)", len(results))
	return results, nil
}

// PCall invokes fn the way the pcall() built-in does: any runtime
// error is caught and returned as a Value instead of propagating
// (spec.md §4.5.6), alongside an ok flag.
func (th *Thread) PCall(fn Value, args []Value) (results []Value, ok bool, errValue Value) {
	results, err := th.callValue(fn, args, -1)
	if err != nil {
		return nil, false, errorValueFrom(th.heap, err)
	}
	return results, true, nil
}

func errorValueFrom(h *Heap, err error) Value {
	if eo, ok := err.(*errorObject); ok {
		return eo.ErrorValue(h)
	}
	return h.InternStringLiteral(err.Error())
}

// callValue is the single dispatch point every call in this runtime
// eventually routes through, whether it originates from the CALL
// instruction, a standard library function invoking a callback, or
// the host's top-level Call. Nested Lua calls recurse through plain
// Go calls rather than the specification's sketched non-recursive
// trampoline (see DESIGN.md, "Recursive call dispatch"); TAILCALL is
// the one case that divergence cannot absorb silently, so execClosure
// special-cases it into a loop instead of a recursive callValue call.
func (th *Thread) callValue(fn Value, args []Value, nResults int) ([]Value, error) {
	th.callDepth++
	defer func() { th.callDepth-- }()
	if th.limits.MaxCallDepth > 0 && th.callDepth > th.limits.MaxCallDepth {
		return nil, stackOverflow(lerr.Position{})
	}

	var results []Value
	var err error
	switch f := fn.(type) {
	case *Closure:
		results, err = th.execClosure(f, args)
	case *GoFunction:
		results, err = f.Fn(th, args)
	default:
		mm := th.metamethod(fn, th.heap.metaCall)
		if mm == nil {
			return nil, typeErrorf(lerr.Position{}, "function", fn)
		}
		newArgs := make([]Value, 0, len(args)+1)
		newArgs = append(newArgs, fn)
		newArgs = append(newArgs, args...)
		return th.callValue(mm, newArgs, nResults)
	}
	if err != nil {
		return nil, err
	}
	if nResults < 0 {
		return results, nil
	}
	adjusted := make([]Value, nResults)
	copy(adjusted, results)
	return adjusted, nil
}

// execClosure runs cl to completion, including any chain of tail
// calls it makes into other Lua closures. A TAILCALL to a *Closure
// reuses this same Go stack frame and th.frames slot instead of
// recursing through callValue: the old frame is torn down before the
// new one is installed, so a tail-recursive loop runs in constant
// Go-stack depth, constant th.frames length, and constant
// th.callDepth, matching spec.md §4.3/§4.5.2. A tail call to anything
// else (a GoFunction, or a value routed through __call) has no VM
// frame of its own to reuse and falls back to callValue.
func (th *Thread) execClosure(cl *Closure, args []Value) ([]Value, error) {
	for {
		proto := cl.proto
		base := th.top
		need := base + int(proto.MaxStackSize)
		if th.limits.MaxStackLength > 0 && need > th.limits.MaxStackLength {
			return nil, stackOverflow(lerr.Position{Source: proto.Source})
		}
		th.ensureStack(need)

		np := int(proto.NumParams)
		for i := 0; i < np; i++ {
			if i < len(args) {
				th.stack[base+i] = args[i]
			} else {
				th.stack[base+i] = nil
			}
		}
		for i := np; i < int(proto.MaxStackSize); i++ {
			th.stack[base+i] = nil
		}

		frame := &CallFrame{closure: cl, base: base}
		if proto.IsVararg && len(args) > np {
			frame.varargs = append([]Value(nil), args[np:]...)
		}
		th.top = need
		th.frames = append(th.frames, frame)

		results, tail, err := th.run(frame)

		th.frames = th.frames[:len(th.frames)-1]
		th.closeUpvaluesFrom(base)
		th.top = base

		if err != nil {
			return nil, err
		}
		if tail == nil {
			return results, nil
		}
		next, ok := tail.fn.(*Closure)
		if !ok {
			return th.callValue(tail.fn, tail.args, -1)
		}
		cl, args = next, tail.args
	}
}

// tailCall carries a TAILCALL instruction's target out of run so
// execClosure can decide how to dispatch it without run recursing
// into callValue itself.
type tailCall struct {
	fn   Value
	args []Value
}

// run executes frame's closure from its current pc until a RETURN
// produces a final result slice, a TAILCALL hands control back to
// execClosure, or an error propagates out.
func (th *Thread) run(frame *CallFrame) ([]Value, *tailCall, error) {
	proto := frame.closure.proto
	code := proto.Code

	for {
		if th.killed {
			pos := positionOf(proto, frame.pc)
			log.Warnf(context.Background(), "luavm: script killed at %s:%d", pos.Source, pos.Line)
			return nil, nil, scriptKilled(pos)
		}
		if th.limits.MaxInstructions > 0 {
			th.instrExecuted++
			if th.instrExecuted > th.limits.MaxInstructions {
				pos := positionOf(proto, frame.pc)
				log.Warnf(context.Background(), "luavm: instruction limit (%d) exceeded at %s:%d", th.limits.MaxInstructions, pos.Source, pos.Line)
				return nil, nil, instructionLimitExceeded(pos)
			}
		}

		pc := frame.pc
		instr := code[pc]
		frame.pc++
		pos := positionOf(proto, pc)

		switch instr.OpCode() {
		case luacode.OpMove:
			th.setRegister(frame, uint8(instr.A()), th.register(frame, uint8(instr.B())))

		case luacode.OpLoadK:
			th.setRegister(frame, uint8(instr.A()), th.constant(proto, instr.Bx()))

		case luacode.OpLoadBool:
			th.setRegister(frame, uint8(instr.A()), Boolean(instr.B() != 0))
			if instr.C() != 0 {
				frame.pc++
			}

		case luacode.OpLoadNil:
			a, b := instr.A(), instr.B()
			for r := a; r <= b; r++ {
				th.setRegister(frame, uint8(r), nil)
			}

		case luacode.OpGetUpval:
			th.setRegister(frame, uint8(instr.A()), frame.closure.upvalues[instr.B()].Get())

		case luacode.OpSetUpval:
			frame.closure.upvalues[instr.B()].Set(th.register(frame, uint8(instr.A())))

		case luacode.OpGetGlobal:
			key := th.heap.InternStringLiteral(proto.Constants[instr.Bx()].StringValue())
			v, err := th.index(frame.closure.env, key, pos)
			if err != nil {
				return nil, nil, err
			}
			th.setRegister(frame, uint8(instr.A()), v)

		case luacode.OpSetGlobal:
			key := th.heap.InternStringLiteral(proto.Constants[instr.Bx()].StringValue())
			if err := th.newindex(frame.closure.env, key, th.register(frame, uint8(instr.A())), pos); err != nil {
				return nil, nil, err
			}

		case luacode.OpGetTable:
			obj := th.register(frame, uint8(instr.B()))
			key := th.rk(frame, proto, instr.C())
			v, err := th.index(obj, key, pos)
			if err != nil {
				return nil, nil, err
			}
			th.setRegister(frame, uint8(instr.A()), v)

		case luacode.OpSetTable:
			obj := th.register(frame, uint8(instr.A()))
			key := th.rk(frame, proto, instr.B())
			val := th.rk(frame, proto, instr.C())
			if err := th.newindex(obj, key, val, pos); err != nil {
				return nil, nil, err
			}

		case luacode.OpNewTable:
			th.setRegister(frame, uint8(instr.A()), NewTable(int(instr.B()), int(instr.C())))

		case luacode.OpSelf:
			a := uint8(instr.A())
			obj := th.register(frame, uint8(instr.B()))
			key := th.rk(frame, proto, instr.C())
			v, err := th.index(obj, key, pos)
			if err != nil {
				return nil, nil, err
			}
			th.setRegister(frame, a+1, obj)
			th.setRegister(frame, a, v)

		case luacode.OpAdd, luacode.OpSub, luacode.OpMul, luacode.OpDiv, luacode.OpMod, luacode.OpPow:
			va := th.rk(frame, proto, instr.B())
			vb := th.rk(frame, proto, instr.C())
			res, err := th.arith(instr.OpCode(), va, vb, pos)
			if err != nil {
				return nil, nil, err
			}
			th.setRegister(frame, uint8(instr.A()), res)

		case luacode.OpUnm:
			v := th.register(frame, uint8(instr.B()))
			res, err := th.unaryMinus(v, pos)
			if err != nil {
				return nil, nil, err
			}
			th.setRegister(frame, uint8(instr.A()), res)

		case luacode.OpNot:
			v := th.register(frame, uint8(instr.B()))
			th.setRegister(frame, uint8(instr.A()), Boolean(!IsTruthy(v)))

		case luacode.OpLen:
			v := th.register(frame, uint8(instr.B()))
			res, err := th.length(v, pos)
			if err != nil {
				return nil, nil, err
			}
			th.setRegister(frame, uint8(instr.A()), res)

		case luacode.OpConcat:
			b, c := instr.B(), instr.C()
			res := th.register(frame, uint8(c))
			var err error
			for r := int(c) - 1; r >= int(b); r-- {
				res, err = th.concat2(th.register(frame, uint8(r)), res, pos)
				if err != nil {
					return nil, nil, err
				}
			}
			th.setRegister(frame, uint8(instr.A()), res)

		case luacode.OpJmp:
			frame.pc += int(instr.SBx())

		case luacode.OpEq:
			va := th.rk(frame, proto, instr.B())
			vb := th.rk(frame, proto, instr.C())
			eq, err := th.equals(va, vb, pos)
			if err != nil {
				return nil, nil, err
			}
			if eq != (instr.A() != 0) {
				frame.pc++
			}

		case luacode.OpLt:
			va := th.rk(frame, proto, instr.B())
			vb := th.rk(frame, proto, instr.C())
			lt, err := th.lessThan(va, vb, pos)
			if err != nil {
				return nil, nil, err
			}
			if lt != (instr.A() != 0) {
				frame.pc++
			}

		case luacode.OpLe:
			va := th.rk(frame, proto, instr.B())
			vb := th.rk(frame, proto, instr.C())
			le, err := th.lessEqual(va, vb, pos)
			if err != nil {
				return nil, nil, err
			}
			if le != (instr.A() != 0) {
				frame.pc++
			}

		case luacode.OpTest:
			v := th.register(frame, uint8(instr.A()))
			if IsTruthy(v) != (instr.C() != 0) {
				frame.pc++
			}

		case luacode.OpTestSet:
			v := th.register(frame, uint8(instr.B()))
			if IsTruthy(v) == (instr.C() != 0) {
				th.setRegister(frame, uint8(instr.A()), v)
			} else {
				frame.pc++
			}

		case luacode.OpCall:
			a, b, c := instr.A(), instr.B(), instr.C()
			fn := th.register(frame, uint8(a))
			args := th.gatherArgs(frame, a, b)
			results, err := th.callValue(fn, args, int(c)-1)
			if err != nil {
				return nil, nil, err
			}
			th.storeResults(frame, a, c, results)

		case luacode.OpTailCall:
			a, b := instr.A(), instr.B()
			fn := th.register(frame, uint8(a))
			args := th.gatherArgs(frame, a, b)
			return nil, &tailCall{fn: fn, args: args}, nil

		case luacode.OpReturn:
			a, b := instr.A(), instr.B()
			if b == 0 {
				return append([]Value(nil), th.stack[frame.base+int(a):th.top]...), nil, nil
			}
			results := make([]Value, int(b)-1)
			for i := range results {
				results[i] = th.register(frame, uint8(a)+uint8(i))
			}
			return results, nil, nil

		case luacode.OpForPrep:
			a := instr.A()
			init, ok1 := ToNumber(th.register(frame, uint8(a)))
			limit, ok2 := ToNumber(th.register(frame, uint8(a+1)))
			step, ok3 := ToNumber(th.register(frame, uint8(a+2)))
			if !ok1 || !ok2 || !ok3 {
				return nil, nil, runtimeErrorf(pos, lerr.KindType, "'for' initial value, limit, and step must be numbers")
			}
			th.setRegister(frame, uint8(a), Number(float64(init)-float64(step)))
			th.setRegister(frame, uint8(a+1), Number(float64(limit)))
			th.setRegister(frame, uint8(a+2), Number(float64(step)))
			frame.pc += int(instr.SBx())

		case luacode.OpForLoop:
			a := instr.A()
			idx := float64(th.register(frame, uint8(a)).(Number))
			limit := float64(th.register(frame, uint8(a+1)).(Number))
			step := float64(th.register(frame, uint8(a+2)).(Number))
			idx += step
			cont := (step > 0 && idx <= limit) || (step <= 0 && idx >= limit)
			if cont {
				th.setRegister(frame, uint8(a), Number(idx))
				th.setRegister(frame, uint8(a+3), Number(idx))
				frame.pc += int(instr.SBx())
			}

		case luacode.OpTForLoop:
			a8, c := uint8(instr.A()), instr.C()
			fn := th.register(frame, a8)
			state := th.register(frame, a8+1)
			control := th.register(frame, a8+2)
			results, err := th.callValue(fn, []Value{state, control}, int(c))
			if err != nil {
				return nil, nil, err
			}
			for i := 0; i < int(c); i++ {
				th.setRegister(frame, a8+3+uint8(i), results[i])
			}
			if results[0] == nil {
				frame.pc++
			} else {
				th.setRegister(frame, a8+2, results[0])
			}

		case luacode.OpSetList:
			a16, b, c := instr.A(), instr.B(), instr.C()
			a8 := uint8(a16)
			t, ok := th.register(frame, a8).(*Table)
			if !ok {
				return nil, nil, internalErrorf("SETLIST target is not a table")
			}
			n := int(b)
			if n == 0 {
				n = th.top - (frame.base + int(a16) + 1)
			}
			block := int(c)
			if block == 0 {
				block = 1
			}
			offset := (block - 1) * luacode.FieldsPerFlush
			for i := 1; i <= n; i++ {
				t.Set(Number(offset+i), th.register(frame, a8+uint8(i)))
			}

		case luacode.OpClose:
			th.closeUpvaluesFrom(frame.base + int(instr.A()))

		case luacode.OpClosure:
			sub := proto.Protos[instr.Bx()]
			ups := make([]*Upvalue, len(sub.Upvalues))
			for i, desc := range sub.Upvalues {
				if desc.FromEnclosingStack {
					ups[i] = th.openUpvalueAt(frame.base + int(desc.Index))
				} else {
					ups[i] = frame.closure.upvalues[desc.Index]
				}
			}
			cl := &Closure{proto: sub, upvalues: ups, env: frame.closure.env}
			th.setRegister(frame, uint8(instr.A()), cl)
			// The upvalue descriptors fully describe each upvalue's
			// source, so the MOVE/GETUPVAL pseudo-instructions that
			// follow CLOSURE for lopcodes.h compatibility carry no
			// information this interpreter needs; skip over them.
			frame.pc += len(sub.Upvalues)

		case luacode.OpVararg:
			a, b := instr.A(), instr.B()
			if b == 0 {
				need := frame.base + int(a) + len(frame.varargs)
				th.ensureStack(need)
				copy(th.stack[frame.base+int(a):], frame.varargs)
				th.top = need
			} else {
				want := int(b) - 1
				for i := 0; i < want; i++ {
					var v Value
					if i < len(frame.varargs) {
						v = frame.varargs[i]
					}
					th.setRegister(frame, uint8(a)+uint8(i), v)
				}
			}

		default:
			return nil, nil, internalErrorf("unimplemented opcode %s", instr.OpCode())
		}
	}
}

func (th *Thread) gatherArgs(frame *CallFrame, a, b uint16) []Value {
	if b == 0 {
		return append([]Value(nil), th.stack[frame.base+int(a)+1:th.top]...)
	}
	args := make([]Value, int(b)-1)
	for i := range args {
		args[i] = th.register(frame, uint8(a)+1+uint8(i))
	}
	return args
}

func (th *Thread) storeResults(frame *CallFrame, a, c uint16, results []Value) {
	if c == 0 {
		base := frame.base + int(a)
		need := base + len(results)
		th.ensureStack(need)
		copy(th.stack[base:], results)
		th.top = need
		return
	}
	want := int(c) - 1
	for i := 0; i < want; i++ {
		var v Value
		if i < len(results) {
			v = results[i]
		}
		th.setRegister(frame, uint8(a)+uint8(i), v)
	}
}

func (th *Thread) rk(frame *CallFrame, proto *luacode.Prototype, field uint16) Value {
	idx, isConst := luacode.RK(field)
	if isConst {
		return th.constant(proto, uint32(idx))
	}
	return th.register(frame, uint8(idx))
}

func (th *Thread) constant(proto *luacode.Prototype, idx uint32) Value {
	c := proto.Constants[idx]
	if c.IsString() {
		return th.heap.InternStringLiteral(c.StringValue())
	}
	return Number(c.Number())
}

// metatableOf returns the metatable consulted for v's metamethods:
// a table's own metatable, or the heap's shared string metatable for
// strings. Other types have no metatable in this runtime.
func (th *Thread) metatableOf(v Value) *Table {
	switch x := v.(type) {
	case *Table:
		return x.meta
	case *String:
		return th.heap.stringMeta
	default:
		return nil
	}
}

func (th *Thread) metamethod(v Value, name *String) Value {
	mt := th.metatableOf(v)
	if mt == nil {
		return nil
	}
	return mt.Get(name)
}

// index implements GETTABLE/GETGLOBAL's metamethod-aware lookup
// (spec.md §4.5.3): a raw table hit wins outright, otherwise __index
// is consulted, chasing through table-valued __index links or
// invoking a function-valued one.
func (th *Thread) index(obj, key Value, pos lerr.Position) (Value, error) {
	for depth := 0; depth < 100; depth++ {
		if t, ok := obj.(*Table); ok {
			if v := t.Get(key); v != nil {
				return v, nil
			}
			mm := th.metamethod(obj, th.heap.metaIndex)
			if mm == nil {
				return nil, nil
			}
			if mt, ok := mm.(*Table); ok {
				obj = mt
				continue
			}
			results, err := th.callValue(mm, []Value{obj, key}, 1)
			if err != nil {
				return nil, err
			}
			return results[0], nil
		}
		mm := th.metamethod(obj, th.heap.metaIndex)
		if mm == nil {
			return nil, typeErrorf(pos, "table", obj)
		}
		if mt, ok := mm.(*Table); ok {
			obj = mt
			continue
		}
		results, err := th.callValue(mm, []Value{obj, key}, 1)
		if err != nil {
			return nil, err
		}
		return results[0], nil
	}
	return nil, internalErrorf("'__index' chain too long; possible loop")
}

// newindex implements SETTABLE/SETGLOBAL's metamethod-aware
// assignment.
func (th *Thread) newindex(obj, key, val Value, pos lerr.Position) error {
	for depth := 0; depth < 100; depth++ {
		if t, ok := obj.(*Table); ok {
			if t.Get(key) != nil {
				t.Set(key, val)
				return nil
			}
			mm := th.metamethod(obj, th.heap.metaNewIndex)
			if mm == nil {
				if key == nil {
					return runtimeErrorf(pos, lerr.KindIndex, "table index is nil")
				}
				if n, ok := key.(Number); ok && math.IsNaN(float64(n)) {
					return runtimeErrorf(pos, lerr.KindIndex, "table index is NaN")
				}
				t.Set(key, val)
				return nil
			}
			if mt, ok := mm.(*Table); ok {
				obj = mt
				continue
			}
			_, err := th.callValue(mm, []Value{obj, key, val}, 0)
			return err
		}
		mm := th.metamethod(obj, th.heap.metaNewIndex)
		if mm == nil {
			return typeErrorf(pos, "table", obj)
		}
		if mt, ok := mm.(*Table); ok {
			obj = mt
			continue
		}
		_, err := th.callValue(mm, []Value{obj, key, val}, 0)
		return err
	}
	return internalErrorf("'__newindex' chain too long; possible loop")
}

func metaNameFor(op luacode.OpCode, h *Heap) *String {
	switch op {
	case luacode.OpAdd:
		return h.metaAdd
	case luacode.OpSub:
		return h.metaSub
	case luacode.OpMul:
		return h.metaMul
	case luacode.OpDiv:
		return h.metaDiv
	case luacode.OpMod:
		return h.metaMod
	case luacode.OpPow:
		return h.metaPow
	default:
		return nil
	}
}

func applyArith(op luacode.OpCode, x, y float64) float64 {
	switch op {
	case luacode.OpAdd:
		return x + y
	case luacode.OpSub:
		return x - y
	case luacode.OpMul:
		return x * y
	case luacode.OpDiv:
		return x / y
	case luacode.OpMod:
		return x - math.Floor(x/y)*y
	case luacode.OpPow:
		return math.Pow(x, y)
	default:
		return math.NaN()
	}
}

// arith implements the six binary arithmetic opcodes: both operands
// coerce through ToNumber first (covering the string→number case),
// falling back to the operator's metamethod when either side won't
// coerce.
func (th *Thread) arith(op luacode.OpCode, a, b Value, pos lerr.Position) (Value, error) {
	an, aok := ToNumber(a)
	bn, bok := ToNumber(b)
	if aok && bok {
		return Number(applyArith(op, float64(an), float64(bn))), nil
	}
	name := metaNameFor(op, th.heap)
	mm := th.metamethod(a, name)
	if mm == nil {
		mm = th.metamethod(b, name)
	}
	if mm == nil {
		bad := a
		if aok {
			bad = b
		}
		return nil, typeErrorf(pos, "number", bad)
	}
	results, err := th.callValue(mm, []Value{a, b}, 1)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (th *Thread) unaryMinus(v Value, pos lerr.Position) (Value, error) {
	if n, ok := ToNumber(v); ok {
		return Number(-float64(n)), nil
	}
	mm := th.metamethod(v, th.heap.metaUnm)
	if mm == nil {
		return nil, typeErrorf(pos, "number", v)
	}
	results, err := th.callValue(mm, []Value{v, v}, 1)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func concatable(v Value) ([]byte, bool) {
	switch x := v.(type) {
	case *String:
		return x.Bytes(), true
	case Number:
		return []byte(formatNumber(float64(x))), true
	default:
		return nil, false
	}
}

func (th *Thread) concat2(a, b Value, pos lerr.Position) (Value, error) {
	as, aok := concatable(a)
	bs, bok := concatable(b)
	if aok && bok {
		buf := make([]byte, 0, len(as)+len(bs))
		buf = append(buf, as...)
		buf = append(buf, bs...)
		return th.heap.InternString(buf), nil
	}
	mm := th.metamethod(a, th.heap.metaConcat)
	if mm == nil {
		mm = th.metamethod(b, th.heap.metaConcat)
	}
	if mm == nil {
		bad := a
		if aok {
			bad = b
		}
		return nil, typeErrorf(pos, "string or number", bad)
	}
	results, err := th.callValue(mm, []Value{a, b}, 1)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (th *Thread) length(v Value, pos lerr.Position) (Value, error) {
	switch x := v.(type) {
	case *String:
		return Number(x.Len()), nil
	case *Table:
		mm := th.metamethod(v, th.heap.metaLen)
		if mm != nil {
			results, err := th.callValue(mm, []Value{v}, 1)
			if err != nil {
				return nil, err
			}
			return results[0], nil
		}
		return Number(x.Len()), nil
	default:
		return nil, typeErrorf(pos, "string or table", v)
	}
}

func (th *Thread) equals(a, b Value, pos lerr.Position) (bool, error) {
	if RawEqual(a, b) {
		return true, nil
	}
	ta, aok := a.(*Table)
	tb, bok := b.(*Table)
	if !aok || !bok {
		return false, nil
	}
	mm := th.metamethod(ta, th.heap.metaEq)
	if mm == nil {
		mm = th.metamethod(tb, th.heap.metaEq)
	}
	if mm == nil {
		return false, nil
	}
	results, err := th.callValue(mm, []Value{a, b}, 1)
	if err != nil {
		return false, err
	}
	return len(results) > 0 && IsTruthy(results[0]), nil
}

func (th *Thread) lessThan(a, b Value, pos lerr.Position) (bool, error) {
	if an, ok := a.(Number); ok {
		if bn, ok2 := b.(Number); ok2 {
			return an < bn, nil
		}
	}
	if as, ok := a.(*String); ok {
		if bs, ok2 := b.(*String); ok2 {
			return as.String() < bs.String(), nil
		}
	}
	mm := th.metamethod(a, th.heap.metaLt)
	if mm == nil {
		mm = th.metamethod(b, th.heap.metaLt)
	}
	if mm == nil {
		return false, typeErrorf(pos, "number or string", a)
	}
	results, err := th.callValue(mm, []Value{a, b}, 1)
	if err != nil {
		return false, err
	}
	return len(results) > 0 && IsTruthy(results[0]), nil
}

func (th *Thread) lessEqual(a, b Value, pos lerr.Position) (bool, error) {
	if an, ok := a.(Number); ok {
		if bn, ok2 := b.(Number); ok2 {
			return an <= bn, nil
		}
	}
	if as, ok := a.(*String); ok {
		if bs, ok2 := b.(*String); ok2 {
			return as.String() <= bs.String(), nil
		}
	}
	mm := th.metamethod(a, th.heap.metaLe)
	if mm == nil {
		mm = th.metamethod(b, th.heap.metaLe)
	}
	if mm == nil {
		return false, typeErrorf(pos, "number or string", a)
	}
	results, err := th.callValue(mm, []Value{a, b}, 1)
	if err != nil {
		return false, err
	}
	return len(results) > 0 && IsTruthy(results[0]), nil
}
