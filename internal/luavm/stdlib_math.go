// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"math"
	"math/rand"

	"github.com/lumendb/luascript/lerr"
)

// OpenMath installs the math library table (spec.md §4.6).
func OpenMath(h *Heap) {
	t := NewTable(0, 24)
	reg := func(name string, fn GoFunc) {
		t.Set(h.InternStringLiteral(name), &GoFunction{Name: "math." + name, Fn: fn})
	}

	rng := rand.New(rand.NewSource(1))

	unary := func(name string, f func(float64) float64) {
		reg(name, func(th *Thread, args []Value) ([]Value, error) {
			n, ok := ToNumber(argOr(args, 0))
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
			}
			return []Value{Number(f(float64(n)))}, nil
		})
	}

	unary("abs", math.Abs)
	unary("ceil", math.Ceil)
	unary("floor", math.Floor)
	unary("sqrt", math.Sqrt)
	unary("exp", math.Exp)
	unary("log10", math.Log10)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("sinh", math.Sinh)
	unary("cosh", math.Cosh)
	unary("tanh", math.Tanh)
	unary("deg", func(x float64) float64 { return x * 180 / math.Pi })
	unary("rad", func(x float64) float64 { return x * math.Pi / 180 })

	reg("log", func(th *Thread, args []Value) ([]Value, error) {
		x, ok := ToNumber(argOr(args, 0))
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
		}
		if len(args) >= 2 {
			base, ok := ToNumber(args[1])
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, 2, "number expected")
			}
			return []Value{Number(math.Log(float64(x)) / math.Log(float64(base)))}, nil
		}
		return []Value{Number(math.Log(float64(x)))}, nil
	})

	reg("pow", func(th *Thread, args []Value) ([]Value, error) {
		x, ok1 := ToNumber(argOr(args, 0))
		y, ok2 := ToNumber(argOr(args, 1))
		if !ok1 || !ok2 {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
		}
		return []Value{Number(math.Pow(float64(x), float64(y)))}, nil
	})

	reg("atan2", func(th *Thread, args []Value) ([]Value, error) {
		y, ok1 := ToNumber(argOr(args, 0))
		x, ok2 := ToNumber(argOr(args, 1))
		if !ok1 || !ok2 {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
		}
		return []Value{Number(math.Atan2(float64(y), float64(x)))}, nil
	})

	reg("fmod", func(th *Thread, args []Value) ([]Value, error) {
		x, ok1 := ToNumber(argOr(args, 0))
		y, ok2 := ToNumber(argOr(args, 1))
		if !ok1 || !ok2 {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
		}
		return []Value{Number(math.Mod(float64(x), float64(y)))}, nil
	})

	reg("modf", func(th *Thread, args []Value) ([]Value, error) {
		x, ok := ToNumber(argOr(args, 0))
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
		}
		ip, fp := math.Modf(float64(x))
		return []Value{Number(ip), Number(fp)}, nil
	})

	reg("ldexp", func(th *Thread, args []Value) ([]Value, error) {
		x, ok1 := ToNumber(argOr(args, 0))
		e, ok2 := ToNumber(argOr(args, 1))
		if !ok1 || !ok2 {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
		}
		return []Value{Number(math.Ldexp(float64(x), int(e)))}, nil
	})

	reg("max", func(th *Thread, args []Value) ([]Value, error) {
		if len(args) == 0 {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "value expected")
		}
		best, ok := ToNumber(args[0])
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
		}
		for i := 1; i < len(args); i++ {
			n, ok := ToNumber(args[i])
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, i+1, "number expected")
			}
			if n > best {
				best = n
			}
		}
		return []Value{best}, nil
	})

	reg("min", func(th *Thread, args []Value) ([]Value, error) {
		if len(args) == 0 {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "value expected")
		}
		best, ok := ToNumber(args[0])
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
		}
		for i := 1; i < len(args); i++ {
			n, ok := ToNumber(args[i])
			if !ok {
				return nil, lerr.ArgumentError(lerr.Position{}, i+1, "number expected")
			}
			if n < best {
				best = n
			}
		}
		return []Value{best}, nil
	})

	reg("random", func(th *Thread, args []Value) ([]Value, error) {
		switch len(args) {
		case 0:
			return []Value{Number(rng.Float64())}, nil
		case 1:
			m, ok := ToNumber(args[0])
			if !ok || m < 1 {
				return nil, lerr.ArgumentError(lerr.Position{}, 1, "interval is empty")
			}
			return []Value{Number(1 + rng.Int63n(int64(m)))}, nil
		default:
			lo, ok1 := ToNumber(args[0])
			hi, ok2 := ToNumber(args[1])
			if !ok1 || !ok2 || hi < lo {
				return nil, lerr.ArgumentError(lerr.Position{}, 2, "interval is empty")
			}
			return []Value{Number(float64(lo) + float64(rng.Int63n(int64(hi-lo+1))))}, nil
		}
	})

	reg("randomseed", func(th *Thread, args []Value) ([]Value, error) {
		n, ok := ToNumber(argOr(args, 0))
		if !ok {
			return nil, lerr.ArgumentError(lerr.Position{}, 1, "number expected")
		}
		rng.Seed(int64(n))
		return nil, nil
	})

	t.Set(h.InternStringLiteral("huge"), Number(math.Inf(1)))
	t.Set(h.InternStringLiteral("pi"), Number(math.Pi))

	h.Globals().Set(h.InternStringLiteral("math"), t)
}
