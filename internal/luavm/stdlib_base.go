// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"fmt"
	"strings"

	"github.com/lumendb/luascript/lerr"
)

// OpenBase installs the base library globals (spec.md §4.6): print,
// type, tostring, tonumber, ipairs, pairs, next, select, assert,
// error, pcall, xpcall, unpack, setmetatable, getmetatable, rawget,
// rawset, rawequal, and _G itself.
func OpenBase(h *Heap) {
	g := h.Globals()
	reg := func(name string, fn GoFunc) {
		g.Set(h.InternStringLiteral(name), &GoFunction{Name: name, Fn: fn})
	}

	g.Set(h.InternStringLiteral("_G"), g)

	reg("print", baseFuncPrint)
	reg("type", baseFuncType)
	reg("tostring", baseFuncToString(h))
	reg("tonumber", baseFuncToNumber)
	reg("ipairs", baseFuncIPairs(h))
	reg("pairs", baseFuncPairs(h))
	reg("next", baseFuncNext)
	reg("select", baseFuncSelect)
	reg("assert", baseFuncAssert)
	reg("error", baseFuncError(h))
	reg("pcall", baseFuncPCall)
	reg("xpcall", baseFuncXPCall)
	reg("unpack", baseFuncUnpack)
	reg("setmetatable", baseFuncSetMetatable)
	reg("getmetatable", baseFuncGetMetatable(h))
	reg("rawget", baseFuncRawGet)
	reg("rawset", baseFuncRawSet)
	reg("rawequal", baseFuncRawEqual)
}

func argOr(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func baseFuncPrint(th *Thread, args []Value) ([]Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = th.tostringMeta(a)
	}
	fmt.Fprintln(th.heap.stdout, strings.Join(parts, "\t"))
	return nil, nil
}

func baseFuncType(th *Thread, args []Value) ([]Value, error) {
	return []Value{th.heap.InternStringLiteral(TypeName(argOr(args, 0)))}, nil
}

func baseFuncToString(h *Heap) GoFunc {
	return func(th *Thread, args []Value) ([]Value, error) {
		return []Value{th.heap.InternStringLiteral(th.tostringMeta(argOr(args, 0)))}, nil
	}
}

// tostringMeta implements tostring()'s __tostring lookup, falling
// back to the raw formatting ToStringValue provides.
func (th *Thread) tostringMeta(v Value) string {
	mm := th.metamethod(v, th.heap.metaToString)
	if mm != nil {
		results, err := th.callValue(mm, []Value{v}, 1)
		if err == nil && len(results) > 0 {
			return ToStringValue(results[0])
		}
	}
	return ToStringValue(v)
}

func baseFuncToNumber(th *Thread, args []Value) ([]Value, error) {
	v := argOr(args, 0)
	if len(args) >= 2 {
		base, ok := ToNumber(args[1])
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 2, "number expected")
		}
		s, ok := v.(*String)
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "string expected")
		}
		n, err := parseInBase(strings.TrimSpace(s.String()), int(base))
		if err != nil {
			return []Value{nil}, nil
		}
		return []Value{Number(n)}, nil
	}
	if n, ok := ToNumber(v); ok {
		return []Value{n}, nil
	}
	return []Value{nil}, nil
}

func parseInBase(s string, base int) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	for _, c := range s {
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'z':
			d = int(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			d = int(c-'A') + 10
		default:
			return 0, fmt.Errorf("invalid digit")
		}
		if d >= base {
			return 0, fmt.Errorf("invalid digit")
		}
		n = n*int64(base) + int64(d)
	}
	if neg {
		n = -n
	}
	return float64(n), nil
}

func baseFuncIPairs(h *Heap) GoFunc {
	iter := &GoFunction{Name: "ipairs.iterator", Fn: func(th *Thread, args []Value) ([]Value, error) {
		t, ok := argOr(args, 0).(*Table)
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
		}
		i, _ := ToNumber(argOr(args, 1))
		next := int(i) + 1
		v := t.Get(Number(next))
		if v == nil {
			return []Value{nil}, nil
		}
		return []Value{Number(next), v}, nil
	}}
	return func(th *Thread, args []Value) ([]Value, error) {
		t, ok := argOr(args, 0).(*Table)
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
		}
		return []Value{iter, t, Number(0)}, nil
	}
}

func baseFuncPairs(h *Heap) GoFunc {
	nextFn := &GoFunction{Name: "next", Fn: baseFuncNext}
	return func(th *Thread, args []Value) ([]Value, error) {
		t, ok := argOr(args, 0).(*Table)
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
		}
		return []Value{nextFn, t, nil}, nil
	}
}

func baseFuncNext(th *Thread, args []Value) ([]Value, error) {
	t, ok := argOr(args, 0).(*Table)
	if !ok {
		return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
	}
	k, v, ok := t.Next(argOr(args, 1))
	if !ok {
		return nil, lerr.ArgumentError(lerr.Position{}, 2, "invalid key to 'next'")
	}
	if k == nil {
		return []Value{nil}, nil
	}
	return []Value{k, v}, nil
}

func baseFuncSelect(th *Thread, args []Value) ([]Value, error) {
	if len(args) == 0 {
		return nil, lerr.ArgumentError(lerr.Position{}, 1, "number or '#' expected")
	}
	if s, ok := args[0].(*String); ok && s.String() == "#" {
		return []Value{Number(len(args) - 1)}, nil
	}
	n, ok := ToNumber(args[0])
	if !ok {
		return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
	}
	idx := int(n)
	if idx < 0 {
		idx = len(args) - 1 + idx + 1
	}
	if idx < 1 {
		return nil, lerr.ArgumentError(lerr.Position{}, 1, "index out of range")
	}
	if idx >= len(args) {
		return nil, nil
	}
	return args[idx:], nil
}

func baseFuncAssert(th *Thread, args []Value) ([]Value, error) {
	if len(args) == 0 || !IsTruthy(args[0]) {
		msg := "assertion failed!"
		if len(args) >= 2 {
			return nil, luaError(lerr.Position{}, args[1])
		}
		return nil, lerr.Generic(lerr.Position{}, msg)
	}
	return args, nil
}

func baseFuncError(h *Heap) GoFunc {
	return func(th *Thread, args []Value) ([]Value, error) {
		v := argOr(args, 0)
		if s, ok := v.(*String); ok {
			level := 1
			if len(args) >= 2 {
				if n, ok := ToNumber(args[1]); ok {
					level = int(n)
				}
			}
			_ = level // position-prefixing omitted: debug info beyond source/line is not tracked
			return nil, luaError(lerr.Position{}, h.InternStringLiteral(s.String()))
		}
		return nil, luaError(lerr.Position{}, v)
	}
}

func baseFuncPCall(th *Thread, args []Value) ([]Value, error) {
	if len(args) == 0 {
		return nil, lerr.ArgumentError(lerr.Position{}, 1, "value expected")
	}
	results, ok, errValue := th.PCall(args[0], args[1:])
	if !ok {
		return []Value{Boolean(false), errValue}, nil
	}
	return append([]Value{Boolean(true)}, results...), nil
}

func baseFuncXPCall(th *Thread, args []Value) ([]Value, error) {
	if len(args) < 2 {
		return nil, lerr.ArgumentError(lerr.Position{}, 2, "value expected")
	}
	results, ok, errValue := th.PCall(args[0], args[2:])
	if ok {
		return append([]Value{Boolean(true)}, results...), nil
	}
	handled, err := th.callValue(args[1], []Value{errValue}, -1)
	if err != nil {
		return []Value{Boolean(false), errorValueFrom(th.heap, err)}, nil
	}
	return append([]Value{Boolean(false)}, handled...), nil
}

func baseFuncUnpack(th *Thread, args []Value) ([]Value, error) {
	t, ok := argOr(args, 0).(*Table)
	if !ok {
		return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
	}
	i := 1
	if len(args) >= 2 {
		if n, ok := ToNumber(args[1]); ok {
			i = int(n)
		}
	}
	j := t.Len()
	if len(args) >= 3 {
		if n, ok := ToNumber(args[2]); ok {
			j = int(n)
		}
	}
	if i > j {
		return nil, nil
	}
	out := make([]Value, 0, j-i+1)
	for k := i; k <= j; k++ {
		out = append(out, t.Get(Number(k)))
	}
	return out, nil
}

func baseFuncSetMetatable(th *Thread, args []Value) ([]Value, error) {
	t, ok := argOr(args, 0).(*Table)
	if !ok {
		return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
	}
	if t.meta != nil && t.meta.Get(th.heap.InternStringLiteral("__metatable")) != nil {
		return nil, lerr.Generic(lerr.Position{}, "cannot change a protected metatable")
	}
	switch mt := argOr(args, 1).(type) {
	case nil:
		t.SetMetatable(nil)
	case *Table:
		t.SetMetatable(mt)
	default:
		return nil, lerr.ArgumentError(lerr.Position{}, 2, "nil or table expected")
	}
	return []Value{t}, nil
}

func baseFuncGetMetatable(h *Heap) GoFunc {
	return func(th *Thread, args []Value) ([]Value, error) {
		mt := th.metatableOf(argOr(args, 0))
		if mt == nil {
			return []Value{nil}, nil
		}
		if protected := mt.Get(h.InternStringLiteral("__metatable")); protected != nil {
			return []Value{protected}, nil
		}
		return []Value{mt}, nil
	}
}

func baseFuncRawGet(th *Thread, args []Value) ([]Value, error) {
	t, ok := argOr(args, 0).(*Table)
	if !ok {
		return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
	}
	return []Value{t.Get(argOr(args, 1))}, nil
}

func baseFuncRawSet(th *Thread, args []Value) ([]Value, error) {
	t, ok := argOr(args, 0).(*Table)
	if !ok {
		return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
	}
	t.Set(argOr(args, 1), argOr(args, 2))
	return []Value{t}, nil
}

func baseFuncRawEqual(th *Thread, args []Value) ([]Value, error) {
	return []Value{Boolean(RawEqual(argOr(args, 0), argOr(args, 1)))}, nil
}
