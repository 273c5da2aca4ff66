// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"math"

	"github.com/lumendb/luascript/sortedset"
)

// tableKey is the hashable form of a Value used by Table's hash part.
// Numbers and strings are normalized so that equal Lua values always
// produce equal keys; everything else keys by Go identity.
type tableKey struct {
	kind Kind
	num  float64
	str  *String
	ref  Value
}

func newTableKey(v Value) (tableKey, bool) {
	switch x := v.(type) {
	case nil:
		return tableKey{}, false
	case Number:
		f := float64(x)
		if math.IsNaN(f) {
			return tableKey{}, false
		}
		return tableKey{kind: KindNumber, num: f}, true
	case *String:
		return tableKey{kind: KindString, str: x}, true
	case Boolean:
		return tableKey{kind: KindBoolean, num: boolToFloat(x)}, true
	default:
		return tableKey{kind: ValueKind(v), ref: v}, true
	}
}

func boolToFloat(b Boolean) float64 {
	if b {
		return 1
	}
	return 0
}

// Table is Lua's single composite data structure (spec.md §3.3): a
// hybrid of a dense, 1-based array part for small positive-integer
// keys and a hash part for everything else. This is a deliberate
// divergence from the teacher's simpler single-sorted-slice table
// (see DESIGN.md): the specification calls out the array/hash split
// and its border-based "#" semantics explicitly, which a sorted slice
// does not model faithfully.
type Table struct {
	array []Value // array[i] holds key i+1
	hash  map[tableKey]Value
	meta  *Table

	// numKeys and strKeys track the hash part's numeric and string keys
	// in ascending order, kept current on every Set rather than
	// resorted from scratch on every iterationKeys call. strByContent
	// recovers the interned *String for a strKeys entry, since
	// sortedset.Set's element type must itself be ordered and so can't
	// carry the *String pointer directly.
	numKeys      *sortedset.Set[float64]
	strKeys      *sortedset.Set[string]
	strByContent map[string]*String
	otherKeys    []tableKey // booleans and reference keys, insertion order
}

// NewTable allocates a table, pre-sizing its array and hash parts.
func NewTable(arraySize, hashSize int) *Table {
	t := &Table{}
	if arraySize > 0 {
		t.array = make([]Value, arraySize)
	}
	if hashSize > 0 {
		t.hash = make(map[tableKey]Value, hashSize)
	}
	return t
}

func (*Table) valueType() Kind { return KindTable }

// Metatable returns the table's metatable, or nil if it has none.
func (t *Table) Metatable() *Table { return t.meta }

// SetMetatable installs m as the table's metatable.
func (t *Table) SetMetatable(m *Table) { t.meta = m }

// Get performs a raw (non-metamethod) lookup of key.
func (t *Table) Get(key Value) Value {
	if n, ok := key.(Number); ok {
		if i, ok := exactArrayIndex(float64(n)); ok && i >= 1 && i <= len(t.array) {
			return t.array[i-1]
		}
	}
	k, ok := newTableKey(key)
	if !ok || t.hash == nil {
		return nil
	}
	return t.hash[k]
}

// exactArrayIndex reports whether f is an exact positive integer that
// fits in an int, the condition under which it addresses the array
// part rather than the hash part.
func exactArrayIndex(f float64) (int, bool) {
	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Set performs a raw (non-metamethod) assignment. Setting a key to nil
// removes it. Setting a NaN key panics, as does setting a nil key; per
// spec.md §4.5.3 callers are expected to have already raised the
// corresponding TypeError before reaching here.
func (t *Table) Set(key, value Value) {
	if key == nil {
		panic("table index is nil")
	}
	if n, ok := key.(Number); ok {
		f := float64(n)
		if math.IsNaN(f) {
			panic("table index is NaN")
		}
		if i, ok := exactArrayIndex(f); ok {
			t.setArray(i, value)
			return
		}
	}
	k, ok := newTableKey(key)
	if !ok {
		panic("table index is nil")
	}
	if value == nil {
		if t.hash != nil {
			if _, existed := t.hash[k]; existed {
				delete(t.hash, k)
				t.removeHashKey(k)
			}
		}
		return
	}
	if t.hash == nil {
		t.hash = make(map[tableKey]Value)
	}
	if _, existed := t.hash[k]; !existed {
		t.addHashKey(k)
	}
	t.hash[k] = value
}

// addHashKey records k in whichever of numKeys, strKeys or otherKeys
// matches its kind, so iterationKeys can read the hash part's keys
// back out in order without re-sorting.
func (t *Table) addHashKey(k tableKey) {
	switch k.kind {
	case KindNumber:
		if t.numKeys == nil {
			t.numKeys = new(sortedset.Set[float64])
		}
		t.numKeys.Add(k.num)
	case KindString:
		content := k.str.String()
		if t.strKeys == nil {
			t.strKeys = new(sortedset.Set[string])
		}
		t.strKeys.Add(content)
		if t.strByContent == nil {
			t.strByContent = make(map[string]*String)
		}
		t.strByContent[content] = k.str
	default:
		for _, e := range t.otherKeys {
			if e == k {
				return
			}
		}
		t.otherKeys = append(t.otherKeys, k)
	}
}

// removeHashKey undoes addHashKey for a key being deleted from the
// hash part.
func (t *Table) removeHashKey(k tableKey) {
	switch k.kind {
	case KindNumber:
		if t.numKeys != nil {
			t.numKeys.Delete(k.num)
		}
	case KindString:
		if t.strKeys != nil {
			content := k.str.String()
			t.strKeys.Delete(content)
			delete(t.strByContent, content)
		}
	default:
		for i, e := range t.otherKeys {
			if e == k {
				t.otherKeys = append(t.otherKeys[:i], t.otherKeys[i+1:]...)
				return
			}
		}
	}
}

// setArray stores value at the 1-based array index i, growing the
// array part and migrating any now-contiguous hash entries into it.
func (t *Table) setArray(i int, value Value) {
	if i <= len(t.array) {
		t.array[i-1] = value
		if value == nil && i == len(t.array) {
			t.shrinkArray()
		}
		return
	}
	if i == len(t.array)+1 && value != nil {
		t.array = append(t.array, value)
		t.absorbFromHash()
		return
	}
	// Sparse beyond the array part: store in the hash part instead of
	// growing a mostly-empty array.
	k := tableKey{kind: KindNumber, num: float64(i)}
	if value == nil {
		if t.hash != nil {
			if _, existed := t.hash[k]; existed {
				delete(t.hash, k)
				t.removeHashKey(k)
			}
		}
		return
	}
	if t.hash == nil {
		t.hash = make(map[tableKey]Value)
	}
	if _, existed := t.hash[k]; !existed {
		t.addHashKey(k)
	}
	t.hash[k] = value
}

// absorbFromHash pulls any keys contiguous with the array's new tail
// out of the hash part and into the array part.
func (t *Table) absorbFromHash() {
	if t.hash == nil {
		return
	}
	for {
		next := float64(len(t.array) + 1)
		k := tableKey{kind: KindNumber, num: next}
		v, ok := t.hash[k]
		if !ok {
			return
		}
		delete(t.hash, k)
		t.removeHashKey(k)
		t.array = append(t.array, v)
	}
}

// shrinkArray trims trailing nils off the array part so Len's border
// search stays cheap.
func (t *Table) shrinkArray() {
	n := len(t.array)
	for n > 0 && t.array[n-1] == nil {
		n--
	}
	t.array = t.array[:n]
}

// Len implements Lua's "#" operator on a table without a __len
// metamethod: a border, i.e. any n such that t[n] is non-nil (or n is
// 0) and t[n+1] is nil. When the array part has no internal nils this
// is simply its length; otherwise a binary search finds a border
// within the array, matching the reference implementation's behavior
// for tables with holes (technically undefined by the manual, but
// this is the conventional choice).
func (t *Table) Len() int {
	n := len(t.array)
	if n == 0 || t.array[n-1] != nil {
		// No hole at the very end of the array part: walk into the
		// hash part looking for a longer contiguous run.
		j := n
		for {
			v, ok := t.hash[tableKey{kind: KindNumber, num: float64(j + 1)}]
			if !ok || v == nil {
				return j
			}
			j++
		}
	}
	// There is a hole inside the array part: binary search for a border.
	lo, hi := 0, n
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if t.array[mid-1] == nil {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// Next implements the iteration order used by next()/pairs(): array
// part in index order, then hash part in an arbitrary but stable (for
// the lifetime of the table, modulo mutation) order. key is nil to
// start iteration. It reports ok=false once iteration is exhausted.
func (t *Table) Next(key Value) (nextKey, nextValue Value, ok bool) {
	keys := t.iterationKeys()
	if key == nil {
		if len(keys) == 0 {
			return nil, nil, true
		}
		k := keys[0]
		return k, t.Get(k), true
	}
	for i, k := range keys {
		if RawEqual(k, key) {
			if i+1 >= len(keys) {
				return nil, nil, true
			}
			nk := keys[i+1]
			return nk, t.Get(nk), true
		}
	}
	return nil, nil, false
}

// iterationKeys materializes the full key set in next()'s iteration
// order: array part by index, then the hash part's numeric keys, then
// its string keys, then everything else, each already kept in order
// by addHashKey/removeHashKey rather than sorted here. Lua programs
// must not add new keys mid-traversal; this implementation does not
// attempt to detect that misuse beyond what a fresh per-call snapshot
// naturally provides.
func (t *Table) iterationKeys() []Value {
	keys := make([]Value, 0, len(t.array)+len(t.hash))
	for i, v := range t.array {
		if v != nil {
			keys = append(keys, Number(i+1))
		}
	}
	for i := 0; i < t.numKeys.Len(); i++ {
		keys = append(keys, Number(t.numKeys.At(i)))
	}
	for i := 0; i < t.strKeys.Len(); i++ {
		keys = append(keys, t.strByContent[t.strKeys.At(i)])
	}
	for _, k := range t.otherKeys {
		if k.kind == KindBoolean {
			keys = append(keys, Boolean(k.num != 0))
		} else {
			keys = append(keys, k.ref)
		}
	}
	return keys
}

// Count returns the total number of live key/value pairs, for table
// library functions that need an exact count rather than a border.
func (t *Table) Count() int {
	n := 0
	for _, v := range t.array {
		if v != nil {
			n++
		}
	}
	return n + len(t.hash)
}
