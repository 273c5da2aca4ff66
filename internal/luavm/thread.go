// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import "github.com/lumendb/luascript/sets"

// ThreadStatus mirrors Lua's coroutine status values, retained here
// even though this runtime exposes only the single implicit main
// thread (spec.md §5.1 Non-goals excludes coroutine.* from the
// standard library surface) because CallFrame bookkeeping and error
// propagation are naturally expressed in terms of a Thread's status.
type ThreadStatus int

const (
	ThreadRunning ThreadStatus = iota
	ThreadSuspended
	ThreadNormal
	ThreadDead
)

// CallFrame is one activation record on a Thread's call stack (spec.md
// §3.8): a closure, its program counter, the base register of its
// window into the shared value stack, and the extra arguments passed
// to a vararg function.
type CallFrame struct {
	closure *Closure
	pc      int
	base    int // index into thread.stack of register 0
	varargs []Value
}

// Thread is a single logical call stack and its value stack (spec.md
// §3.7). Non-tail calls recurse through ordinary Go calls rather than
// a non-recursive trampoline (see DESIGN.md, "Recursive call
// dispatch"); tail calls are the exception execClosure special-cases
// so callDepth and the Go stack both stay flat across a tail-recursive
// loop.
type Thread struct {
	heap   *Heap
	stack  []Value
	top    int
	frames []*CallFrame
	status ThreadStatus

	// openUpvalues tracks upvalues still backed by a live stack slot,
	// keyed by stack index. openUpvalueIdx mirrors its key set as a
	// bitmap so closeUpvaluesFrom can walk the open indices in
	// ascending order without scanning the whole map.
	openUpvalues   map[int]*Upvalue
	openUpvalueIdx sets.Bit

	// Limits, enforced by the dispatch loop (spec.md §5).
	limits        Limits
	instrExecuted uint64
	callDepth     int
	killed        bool
}

// Limits bounds a Thread's resource consumption, per spec.md §5.2.
type Limits struct {
	MaxInstructions uint64
	MaxCallDepth    int
	MaxStackLength  int
}

// DefaultLimits returns the specification's default resource caps.
func DefaultLimits() Limits {
	return Limits{
		MaxInstructions: 0, // 0 means unbounded
		MaxCallDepth:    1000,
		MaxStackLength:  1_000_000,
	}
}

// NewThread creates a fresh main thread backed by heap, with limits
// applied.
func NewThread(heap *Heap, limits Limits) *Thread {
	return &Thread{
		heap:   heap,
		stack:  make([]Value, 256),
		limits: limits,
	}
}

// Heap returns the thread's owning heap.
func (th *Thread) Heap() *Heap { return th.heap }

// Kill marks the thread for cancellation (spec.md §5.4
// ScriptKilled): the next instruction boundary the dispatch loop
// checks will abort execution.
func (th *Thread) Kill() { th.killed = true }

func (th *Thread) ensureStack(n int) {
	if n <= len(th.stack) {
		return
	}
	grown := make([]Value, n*2)
	copy(grown, th.stack)
	th.stack = grown
}

// register returns the value at logical register r of the topmost
// frame.
func (th *Thread) register(frame *CallFrame, r uint8) Value {
	return th.stack[frame.base+int(r)]
}

func (th *Thread) setRegister(frame *CallFrame, r uint8, v Value) {
	th.stack[frame.base+int(r)] = v
}

// findOpenUpvalue returns an existing open upvalue for stack index idx
// if one exists, so two closures that capture the same local share a
// single Upvalue object (spec.md §3.4).
func (th *Thread) findOpenUpvalue(idx int) *Upvalue {
	if !th.openUpvalueIdx.Has(uint(idx)) {
		return nil
	}
	return th.openUpvalues[idx]
}

func (th *Thread) openUpvalueAt(idx int) *Upvalue {
	if uv := th.findOpenUpvalue(idx); uv != nil {
		return uv
	}
	uv := newOpenUpvalue(th, idx)
	if th.openUpvalues == nil {
		th.openUpvalues = make(map[int]*Upvalue)
	}
	th.openUpvalues[idx] = uv
	th.openUpvalueIdx.Add(uint(idx))
	return uv
}

// closeUpvaluesFrom closes every open upvalue at or above stack index
// from, as the CLOSE instruction and frame returns require.
func (th *Thread) closeUpvaluesFrom(from int) {
	var toClose []uint
	for idx := range th.openUpvalueIdx.All() {
		if idx >= uint(from) {
			toClose = append(toClose, idx)
		}
	}
	for _, idx := range toClose {
		th.openUpvalues[int(idx)].close()
		delete(th.openUpvalues, int(idx))
		th.openUpvalueIdx.Delete(idx)
	}
}
