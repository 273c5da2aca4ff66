// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"io"
	"os"

	"github.com/lumendb/luascript/internal/luacode"
)

// String is an interned byte string (spec.md §3.2): every String
// passing through a Heap's intern table is the canonical handle for
// its byte content, so equal content always yields the same pointer
// and reference-type comparisons of strings degrade to a pointer
// check. Strings are 8-bit clean; they need not be valid UTF-8.
type String struct {
	content []byte
	hash    uint64
}

func (*String) valueType() Kind { return KindString }

// Bytes returns the string's raw content. Callers must not mutate the
// returned slice: interned strings are shared.
func (s *String) Bytes() []byte { return s.content }

func (s *String) String() string { return string(s.content) }

func (s *String) Len() int { return len(s.content) }

// fnv1a64 hashes b with the 64-bit FNV-1a algorithm, used both as the
// String's cached hash and, pre-intern, as the intern table's bucket
// key.
func fnv1a64(b []byte) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for _, c := range b {
		h ^= uint64(c)
		h *= prime
	}
	return h
}

// Heap owns every shared, reference-counted-in-spirit object a
// compiled module's execution can allocate: the string intern table,
// pre-interned metamethod name handles, and the global environment
// table (spec.md §4.4). Go's garbage collector plays the role the
// original design's reference-counted cells played, so there is no
// explicit refcounting or two-phase-commit borrow dance here — a table
// or closure may freely reference itself through an ordinary pointer.
type Heap struct {
	interned   map[uint64][]*String
	globals    *Table
	registry   *Table
	stringMeta *Table // shared metatable giving strings s:upper()-style method calls
	stdout     io.Writer

	metaIndex    *String
	metaNewIndex *String
	metaCall     *String
	metaAdd      *String
	metaSub      *String
	metaMul      *String
	metaDiv      *String
	metaMod      *String
	metaPow      *String
	metaUnm      *String
	metaConcat   *String
	metaLen      *String
	metaEq       *String
	metaLt       *String
	metaLe       *String
	metaToString *String
}

// NewHeap constructs a Heap with a fresh globals table and every
// metamethod name pre-interned, per spec.md §4.4.
func NewHeap() *Heap {
	h := &Heap{interned: make(map[uint64][]*String), stdout: os.Stdout}
	h.globals = NewTable(0, 0)
	h.registry = NewTable(0, 0)
	h.metaIndex = h.InternString([]byte("__index"))
	h.metaNewIndex = h.InternString([]byte("__newindex"))
	h.metaCall = h.InternString([]byte("__call"))
	h.metaAdd = h.InternString([]byte("__add"))
	h.metaSub = h.InternString([]byte("__sub"))
	h.metaMul = h.InternString([]byte("__mul"))
	h.metaDiv = h.InternString([]byte("__div"))
	h.metaMod = h.InternString([]byte("__mod"))
	h.metaPow = h.InternString([]byte("__pow"))
	h.metaUnm = h.InternString([]byte("__unm"))
	h.metaConcat = h.InternString([]byte("__concat"))
	h.metaLen = h.InternString([]byte("__len"))
	h.metaEq = h.InternString([]byte("__eq"))
	h.metaLt = h.InternString([]byte("__lt"))
	h.metaLe = h.InternString([]byte("__le"))
	h.metaToString = h.InternString([]byte("__tostring"))
	return h
}

// InternString returns the canonical *String for b, creating one if
// this is the first time the heap has seen that byte sequence.
func (h *Heap) InternString(b []byte) *String {
	hash := fnv1a64(b)
	for _, s := range h.interned[hash] {
		if string(s.content) == string(b) {
			return s
		}
	}
	s := &String{content: append([]byte(nil), b...), hash: hash}
	h.interned[hash] = append(h.interned[hash], s)
	return s
}

// InternStringLiteral is a convenience wrapper around InternString for
// Go string literals used throughout the standard library.
func (h *Heap) InternStringLiteral(s string) *String {
	return h.InternString([]byte(s))
}

// Globals returns the heap's global environment table, the table
// GETGLOBAL/SETGLOBAL consult by default.
func (h *Heap) Globals() *Table { return h.globals }

// Registry returns the heap's registry table, a table reserved for
// host/runtime bookkeeping (e.g. the script cache keys) rather than
// Lua-script-visible globals.
func (h *Heap) Registry() *Table { return h.registry }

// SetStdout redirects print()'s output, letting a host embedding this
// runtime (spec.md §6) capture script output instead of inheriting
// the process's stdout.
func (h *Heap) SetStdout(w io.Writer) { h.stdout = w }

// SetStringMetatable installs the metatable consulted for string
// indexing (e.g. ("x"):upper()), normally {__index = <string library table>}.
func (h *Heap) SetStringMetatable(m *Table) { h.stringMeta = m }

// StringMetatable returns the shared string metatable, or nil if none
// has been installed.
func (h *Heap) StringMetatable() *Table { return h.stringMeta }

// NewTable allocates a fresh table hinting at arraySize array-part and
// hashSize hash-part entries.
func (h *Heap) NewTable(arraySize, hashSize int) *Table {
	return NewTable(arraySize, hashSize)
}

// NewClosure wraps proto with upvalues and an environment table into a
// callable Closure.
func (h *Heap) NewClosure(proto *luacode.Prototype, upvalues []*Upvalue, env *Table) *Closure {
	return &Closure{proto: proto, upvalues: upvalues, env: env}
}
