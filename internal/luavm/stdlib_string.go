// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"fmt"
	"strings"

	"github.com/lumendb/luascript/bytebuffer"
	"github.com/lumendb/luascript/lerr"
)

// OpenString installs the string library (spec.md §4.6, extended per
// the §9 Open Question supplement to full Lua pattern matching and
// extended string.format verbs rather than the distillation's
// literal-match reduction). Installing a __index metatable pointing
// back at this table is what lets script code write s:upper() as well
// as string.upper(s).
func OpenString(h *Heap) {
	t := NewTable(0, 16)
	reg := func(name string, fn GoFunc) {
		t.Set(h.InternStringLiteral(name), &GoFunction{Name: "string." + name, Fn: fn})
	}

	reg("len", func(th *Thread, args []Value) ([]Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		return []Value{Number(len(s))}, nil
	})

	reg("sub", func(th *Thread, args []Value) ([]Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		i, j := 1, -1
		if len(args) >= 2 {
			if n, ok := ToNumber(args[1]); ok {
				i = int(n)
			}
		}
		if len(args) >= 3 {
			if n, ok := ToNumber(args[2]); ok {
				j = int(n)
			}
		}
		lo, hi := strRange(len(s), i, j)
		if lo > hi {
			return []Value{th.heap.InternStringLiteral("")}, nil
		}
		return []Value{th.heap.InternStringLiteral(s[lo-1 : hi])}, nil
	})

	reg("upper", func(th *Thread, args []Value) ([]Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		return []Value{th.heap.InternStringLiteral(strings.ToUpper(s))}, nil
	})

	reg("lower", func(th *Thread, args []Value) ([]Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		return []Value{th.heap.InternStringLiteral(strings.ToLower(s))}, nil
	})

	reg("reverse", func(th *Thread, args []Value) ([]Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		b := []byte(s)
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		return []Value{th.heap.InternString(b)}, nil
	})

	reg("rep", func(th *Thread, args []Value) ([]Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		n, ok := ToNumber(argOr(args, 1))
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 2, "number expected")
		}
		sep := ""
		if len(args) >= 3 {
			if sv, ok := args[2].(*String); ok {
				sep = sv.String()
			}
		}
		if int(n) <= 0 {
			return []Value{th.heap.InternStringLiteral("")}, nil
		}
		parts := make([]string, int(n))
		for i := range parts {
			parts[i] = s
		}
		return []Value{th.heap.InternStringLiteral(strings.Join(parts, sep))}, nil
	})

	reg("byte", func(th *Thread, args []Value) ([]Value, error) {
		s, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		i, j := 1, 1
		if len(args) >= 2 {
			if n, ok := ToNumber(args[1]); ok {
				i, j = int(n), int(n)
			}
		}
		if len(args) >= 3 {
			if n, ok := ToNumber(args[2]); ok {
				j = int(n)
			}
		}
		lo, hi := strRange(len(s), i, j)
		if lo > hi {
			return nil, nil
		}
		out := make([]Value, 0, hi-lo+1)
		for k := lo; k <= hi; k++ {
			out = append(out, Number(s[k-1]))
		}
		return out, nil
	})

	reg("char", func(th *Thread, args []Value) ([]Value, error) {
		b := make([]byte, len(args))
		for i, a := range args {
			n, ok := ToNumber(a)
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, i+1, "number expected")
			}
			b[i] = byte(n)
		}
		return []Value{th.heap.InternString(b)}, nil
	})

	reg("format", stringFormat)
	reg("find", stringFind)
	reg("match", stringMatch)
	reg("gmatch", stringGmatch)
	reg("gsub", stringGsub)

	h.Globals().Set(h.InternStringLiteral("string"), t)

	mt := NewTable(0, 1)
	mt.Set(h.InternStringLiteral("__index"), t)
	h.SetStringMetatable(mt)
}

func argString(args []Value, i int) (string, error) {
	v := argOr(args, i)
	switch x := v.(type) {
	case *String:
		return x.String(), nil
	case Number:
		return formatNumber(float64(x)), nil
	default:
		return "", lerr.ArgumentError(lerr.Position{}, i+1, "string expected, got %s", TypeName(v))
	}
}

// strRange converts Lua's 1-based, negative-from-end i/j range
// arguments into clamped 1-based [lo, hi] bounds over a string of the
// given length.
func strRange(length, i, j int) (lo, hi int) {
	if i < 0 {
		i = length + i + 1
	}
	if i < 1 {
		i = 1
	}
	if j < 0 {
		j = length + j + 1
	}
	if j > length {
		j = length
	}
	return i, j
}

func stringFormat(th *Thread, args []Value) ([]Value, error) {
	f, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	b := bytebuffer.New(nil)
	argi := 1
	for i := 0; i < len(f); i++ {
		c := f[i]
		if c != '%' {
			b.Write([]byte{c})
			continue
		}
		j := i + 1
		for j < len(f) && strings.ContainsRune("-+ #0123456789.", rune(f[j])) {
			j++
		}
		if j >= len(f) {
			return nil, lerr.Generic(lerr.Position{}, "invalid format string to 'format'")
		}
		verb := f[j]
		spec := f[i : j+1]
		i = j
		if verb == '%' {
			b.Write([]byte{'%'})
			continue
		}
		arg := argOr(args, argi)
		argi++
		switch verb {
		case 'd', 'i':
			n, ok := ToNumber(arg)
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, argi, "number expected")
			}
			fmt.Fprintf(b, spec[:len(spec)-1]+"d", int64(n))
		case 'u':
			n, ok := ToNumber(arg)
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, argi, "number expected")
			}
			fmt.Fprintf(b, spec[:len(spec)-1]+"d", uint64(n))
		case 'x', 'X', 'o':
			n, ok := ToNumber(arg)
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, argi, "number expected")
			}
			fmt.Fprintf(b, spec, int64(n))
		case 'c':
			n, ok := ToNumber(arg)
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, argi, "number expected")
			}
			b.Write([]byte{byte(n)})
		case 'f', 'F', 'e', 'E', 'g', 'G':
			n, ok := ToNumber(arg)
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, argi, "number expected")
			}
			fmt.Fprintf(b, spec, float64(n))
		case 's':
			s := th.tostringMeta(arg)
			fmt.Fprintf(b, spec, s)
		case 'q':
			b.Write([]byte{'"'})
			for _, ch := range []byte(ToStringValue(arg)) {
				switch ch {
				case '"', '\\', '\n':
					b.Write([]byte{'\\', ch})
				case '\r':
					b.Write([]byte(`\r`))
				case 0:
					b.Write([]byte(`\000`))
				default:
					b.Write([]byte{ch})
				}
			}
			b.Write([]byte{'"'})
		default:
			return nil, lerr.Generic(lerr.Position{}, "invalid conversion '%"+string(verb)+"' to 'format'")
		}
	}
	return []Value{th.heap.InternStringLiteral(bufferString(b))}, nil
}

func stringFind(th *Thread, args []Value) ([]Value, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	pat, err := argString(args, 1)
	if err != nil {
		return nil, err
	}
	init := 1
	if len(args) >= 3 {
		if n, ok := ToNumber(args[2]); ok {
			init = int(n)
		}
	}
	lo, _ := strRange(len(s), init, len(s))
	plain := len(args) >= 4 && IsTruthy(args[3])
	if plain || !strings.ContainsAny(pat, "^$*+?.([%-") {
		idx := strings.Index(s[lo-1:], pat)
		if idx < 0 {
			return []Value{nil}, nil
		}
		start := lo - 1 + idx
		return []Value{Number(start + 1), Number(start + len(pat))}, nil
	}
	res, ok, merr := FindPattern([]byte(s), []byte(pat), lo-1)
	if merr != nil {
		return nil, wrapPatternError(2, merr)
	}
	if !ok {
		return []Value{nil}, nil
	}
	out := []Value{Number(res.Start + 1), Number(res.End)}
	for i := range res.Captures {
		out = append(out, res.CaptureValue(i, th.heap))
	}
	return out, nil
}

func stringMatch(th *Thread, args []Value) ([]Value, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	pat, err := argString(args, 1)
	if err != nil {
		return nil, err
	}
	init := 1
	if len(args) >= 3 {
		if n, ok := ToNumber(args[2]); ok {
			init = int(n)
		}
	}
	lo, _ := strRange(len(s), init, len(s))
	res, ok, merr := FindPattern([]byte(s), []byte(pat), lo-1)
	if merr != nil {
		return nil, wrapPatternError(2, merr)
	}
	if !ok {
		return []Value{nil}, nil
	}
	if len(res.Captures) == 0 {
		return []Value{th.heap.InternString([]byte(s)[res.Start:res.End])}, nil
	}
	out := make([]Value, len(res.Captures))
	for i := range res.Captures {
		out[i] = res.CaptureValue(i, th.heap)
	}
	return out, nil
}

func stringGmatch(th *Thread, args []Value) ([]Value, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	pat, err := argString(args, 1)
	if err != nil {
		return nil, err
	}
	src := []byte(s)
	patb := []byte(pat)
	pos := 0
	iter := &GoFunction{Name: "gmatch.iterator", Fn: func(th *Thread, _ []Value) ([]Value, error) {
		for pos <= len(src) {
			res, ok, merr := FindPattern(src, patb, pos)
			if merr != nil {
				return nil, wrapPatternError(2, merr)
			}
			if !ok {
				return nil, nil
			}
			if res.End == res.Start {
				pos = res.End + 1
			} else {
				pos = res.End
			}
			if len(res.Captures) == 0 {
				return []Value{th.heap.InternString(src[res.Start:res.End])}, nil
			}
			out := make([]Value, len(res.Captures))
			for i := range res.Captures {
				out[i] = res.CaptureValue(i, th.heap)
			}
			return out, nil
		}
		return nil, nil
	}}
	return []Value{iter}, nil
}

func stringGsub(th *Thread, args []Value) ([]Value, error) {
	s, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	pat, err := argString(args, 1)
	if err != nil {
		return nil, err
	}
	repl := argOr(args, 2)
	maxN := -1
	if len(args) >= 4 {
		if n, ok := ToNumber(args[3]); ok {
			maxN = int(n)
		}
	}
	src := []byte(s)
	patb := []byte(pat)
	b := bytebuffer.New(nil)
	pos := 0
	count := 0
	for pos <= len(src) {
		if maxN >= 0 && count >= maxN {
			break
		}
		res, ok, merr := FindPattern(src, patb, pos)
		if merr != nil {
			return nil, wrapPatternError(2, merr)
		}
		if !ok {
			break
		}
		b.Write(src[pos:res.Start])
		whole := src[res.Start:res.End]
		replacement, err := gsubReplacement(th, repl, res, whole)
		if err != nil {
			return nil, err
		}
		b.Write(replacement)
		count++
		if res.End == res.Start {
			if res.End < len(src) {
				b.Write(src[res.End : res.End+1])
			}
			pos = res.End + 1
		} else {
			pos = res.End
		}
	}
	if pos < len(src) {
		b.Write(src[pos:])
	}
	return []Value{th.heap.InternStringLiteral(bufferString(b)), Number(count)}, nil
}

func gsubReplacement(th *Thread, repl Value, res MatchResult, whole []byte) ([]byte, error) {
	capture := func(i int) Value {
		if len(res.Captures) == 0 {
			if i == 0 {
				return th.heap.InternString(whole)
			}
			return nil
		}
		if i < len(res.Captures) {
			return res.CaptureValue(i, th.heap)
		}
		return nil
	}
	switch r := repl.(type) {
	case *String:
		template := r.Bytes()
		var out []byte
		for i := 0; i < len(template); i++ {
			if template[i] == '%' && i+1 < len(template) {
				n := template[i+1]
				if n == '%' {
					out = append(out, '%')
					i++
					continue
				}
				if n >= '0' && n <= '9' {
					idx := int(n - '0')
					var cv Value
					if idx == 0 {
						cv = th.heap.InternString(whole)
					} else {
						cv = capture(idx - 1)
					}
					out = append(out, []byte(ToStringValue(cv))...)
					i++
					continue
				}
			}
			out = append(out, template[i])
		}
		return out, nil
	case *Table:
		key := capture(0)
		v := r.Get(key)
		if v == nil || v == Boolean(false) {
			return whole, nil
		}
		s, ok := concatable(v)
		if !ok {
			return nil, lerr.Generic(lerr.Position{}, "invalid replacement value (a "+TypeName(v)+")")
		}
		return s, nil
	case *GoFunction, *Closure:
		var callArgs []Value
		if len(res.Captures) == 0 {
			callArgs = []Value{th.heap.InternString(whole)}
		} else {
			callArgs = make([]Value, len(res.Captures))
			for i := range res.Captures {
				callArgs[i] = res.CaptureValue(i, th.heap)
			}
		}
		results, err := th.callValue(r, callArgs, 1)
		if err != nil {
			return nil, err
		}
		if results[0] == nil || results[0] == Boolean(false) {
			return whole, nil
		}
		s, ok := concatable(results[0])
		if !ok {
			return nil, lerr.Generic(lerr.Position{}, "invalid replacement value (a "+TypeName(results[0])+")")
		}
		return s, nil
	default:
		return nil, lerr.ArgumentError(lerr.Position{}, 3, "string/function/table expected")
	}
}
