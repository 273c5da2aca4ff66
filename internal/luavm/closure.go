// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import "github.com/lumendb/luascript/internal/luacode"

// Upvalue is a variable shared by identity between a closure and the
// enclosing scope that created it, or between two sibling closures
// that both capture the same local (spec.md §3.4). While the stack
// frame that declared the variable is still live the Upvalue is open
// and reads through to that frame's register; the CLOSE instruction
// (or a normal return past the declaring scope) closes it, copying the
// value in and severing the link so the variable keeps working after
// its frame is gone.
type Upvalue struct {
	open   bool
	thread *Thread
	index  int // register index into thread.stack, while open
	closed Value
}

func newOpenUpvalue(th *Thread, index int) *Upvalue {
	return &Upvalue{open: true, thread: th, index: index}
}

// Get returns the upvalue's current value.
func (u *Upvalue) Get() Value {
	if u.open {
		return u.thread.stack[u.index]
	}
	return u.closed
}

// Set stores v into the upvalue.
func (u *Upvalue) Set(v Value) {
	if u.open {
		u.thread.stack[u.index] = v
		return
	}
	u.closed = v
}

// close severs the upvalue from the thread's stack, copying its
// current value in. Called when the declaring frame's scope exits via
// the CLOSE instruction or a return.
func (u *Upvalue) close() {
	if !u.open {
		return
	}
	u.closed = u.thread.stack[u.index]
	u.open = false
	u.thread = nil
}

// Closure is a Lua function value: an immutable Prototype paired with
// the upvalues captured at the CLOSURE instruction that created it
// (spec.md §3.5).
type Closure struct {
	proto    *luacode.Prototype
	upvalues []*Upvalue
	env      *Table // _ENV equivalent for global access, usually the heap's globals table
}

func (*Closure) valueType() Kind { return KindFunction }

// Prototype returns the closure's compiled function body.
func (c *Closure) Prototype() *luacode.Prototype { return c.proto }

// Upvalues returns the closure's captured upvalues, indexed the same
// way as its Prototype's Upvalues descriptor slice.
func (c *Closure) Upvalues() []*Upvalue { return c.upvalues }

// GoFunc is the signature host-registered built-ins and standard
// library functions implement: given a Thread positioned so args are
// readable and a slice of argument values, return the function's
// results or an error.
type GoFunc func(th *Thread, args []Value) ([]Value, error)

// GoFunction wraps a host Go function so it can be called like any
// other Lua function value (spec.md §6 register_c_function).
type GoFunction struct {
	Name string
	Fn   GoFunc
}

func (*GoFunction) valueType() Kind { return KindFunction }
