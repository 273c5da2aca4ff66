// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"slices"

	"github.com/lumendb/luascript/bytebuffer"
	"github.com/lumendb/luascript/lerr"
)

// OpenTable installs the table library (spec.md §4.6: concat, insert,
// remove, maxn; sort is the §9 Open Question supplement, implemented
// as a stable sort whose comparator errors propagate to the caller
// rather than being swallowed — see DESIGN.md).
func OpenTable(h *Heap) {
	t := NewTable(0, 8)
	reg := func(name string, fn GoFunc) {
		t.Set(h.InternStringLiteral(name), &GoFunction{Name: "table." + name, Fn: fn})
	}

	reg("concat", func(th *Thread, args []Value) ([]Value, error) {
		tbl, ok := argOr(args, 0).(*Table)
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
		}
		sep := ""
		if len(args) >= 2 {
			if s, ok := args[1].(*String); ok {
				sep = s.String()
			}
		}
		i := 1
		if len(args) >= 3 {
			if n, ok := ToNumber(args[2]); ok {
				i = int(n)
			}
		}
		j := tbl.Len()
		if len(args) >= 4 {
			if n, ok := ToNumber(args[3]); ok {
				j = int(n)
			}
		}
		b := bytebuffer.New(nil)
		for k := i; k <= j; k++ {
			v := tbl.Get(Number(k))
			s, ok := concatable(v)
			if !ok {
				return nil, lerr.Generic(lerr.Position{}, "invalid value (at index "+ToStringValue(Number(k))+") in table for 'concat'")
			}
			if k > i {
				b.Write([]byte(sep))
			}
			b.Write(s)
		}
		return []Value{th.heap.InternStringLiteral(bufferString(b))}, nil
	})

	reg("insert", func(th *Thread, args []Value) ([]Value, error) {
		tbl, ok := argOr(args, 0).(*Table)
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
		}
		n := tbl.Len()
		switch len(args) {
		case 2:
			tbl.Set(Number(n+1), args[1])
		case 3:
			pos, ok := ToNumber(args[1])
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, 2, "number expected")
			}
			p := int(pos)
			for k := n + 1; k > p; k-- {
				tbl.Set(Number(k), tbl.Get(Number(k-1)))
			}
			tbl.Set(Number(p), args[2])
		default:
			return nil, lerr.Generic(lerr.Position{}, "wrong number of arguments to 'insert'")
		}
		return nil, nil
	})

	reg("remove", func(th *Thread, args []Value) ([]Value, error) {
		tbl, ok := argOr(args, 0).(*Table)
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
		}
		n := tbl.Len()
		pos := n
		if len(args) >= 2 {
			p, ok := ToNumber(args[1])
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, 2, "number expected")
			}
			pos = int(p)
		}
		if n == 0 {
			return []Value{nil}, nil
		}
		removed := tbl.Get(Number(pos))
		for k := pos; k < n; k++ {
			tbl.Set(Number(k), tbl.Get(Number(k+1)))
		}
		tbl.Set(Number(n), nil)
		return []Value{removed}, nil
	})

	reg("maxn", func(th *Thread, args []Value) ([]Value, error) {
		tbl, ok := argOr(args, 0).(*Table)
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
		}
		max := 0.0
		k, v, more := tbl.Next(nil)
		for more && k != nil {
			if n, ok := k.(Number); ok && float64(n) > max {
				max = float64(n)
			}
			_ = v
			k, v, more = tbl.Next(k)
		}
		return []Value{Number(max)}, nil
	})

	reg("sort", func(th *Thread, args []Value) ([]Value, error) {
		tbl, ok := argOr(args, 0).(*Table)
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "table expected")
		}
		n := tbl.Len()
		elems := make([]Value, n)
		for i := 0; i < n; i++ {
			elems[i] = tbl.Get(Number(i + 1))
		}
		var cmp Value
		if len(args) >= 2 {
			cmp = args[1]
		}
		var sortErr error
		less := func(a, b Value) int {
			if sortErr != nil {
				return 0
			}
			var lt bool
			var err error
			if cmp != nil {
				var results []Value
				results, err = th.callValue(cmp, []Value{a, b}, 1)
				if err == nil {
					lt = IsTruthy(results[0])
				}
			} else {
				lt, err = th.lessThan(a, b, lerr.Position{})
			}
			if err != nil {
				sortErr = err
				return 0
			}
			if lt {
				return -1
			}
			return 1
		}
		slices.SortStableFunc(elems, less)
		if sortErr != nil {
			return nil, sortErr
		}
		for i := 0; i < n; i++ {
			tbl.Set(Number(i+1), elems[i])
		}
		return nil, nil
	})

	h.Globals().Set(h.InternStringLiteral("table"), t)
}
