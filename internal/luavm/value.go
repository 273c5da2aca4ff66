// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

// Package luavm implements the runtime: the tagged value model and
// heap (spec.md §3, §4.4), the register-based dispatch loop (§4.5),
// and the base/string/table/math standard library subset (§4.6). It
// mirrors the teacher's habit of keeping the whole runtime — values,
// tables, VM and built-ins — in one package rather than splitting the
// object model from its interpreter.
package luavm

import (
	"fmt"
	"math"
	"strconv"
)

// Kind enumerates the dynamic type of a Value, mirroring spec.md §3.1.
type Kind int

const (
	KindNil Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindTable
	KindFunction
	KindThread
	KindUserdata
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	case KindFunction:
		return "function"
	case KindThread:
		return "thread"
	case KindUserdata:
		return "userdata"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is the sealed tagged union of every Lua runtime value. Nil is
// represented as the untyped Go nil interface value rather than a
// distinct type, matching how a Value is naturally compared with ==.
// Only types declared in this package may implement Value.
type Value interface {
	valueType() Kind
}

// ValueKind returns the Kind of v, treating a nil interface as KindNil.
func ValueKind(v Value) Kind {
	if v == nil {
		return KindNil
	}
	return v.valueType()
}

// Boolean is the Value implementation for true/false.
type Boolean bool

func (Boolean) valueType() Kind { return KindBoolean }

// Number is the single 64-bit floating-point numeric type Lua 5.1
// uses (spec.md §3.1 and §9 Open Question "Integer/float distinction",
// resolved against introducing a separate integer subtype).
type Number float64

func (Number) valueType() Kind { return KindNumber }

// IsInteger reports whether n has an exact integer value, the display/
// coercion property spec.md §9 substitutes for a separate integer
// subtype: %d-style formatting and bitwise-flavored library functions
// consult this rather than a distinct tag.
func (n Number) IsInteger() bool {
	f := float64(n)
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// IsTruthy implements Lua's truthiness rule: everything except nil and
// false is truthy, including 0 and the empty string.
func IsTruthy(v Value) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(Boolean); ok {
		return bool(b)
	}
	return true
}

// RawEqual implements primitive (non-metamethod) equality: numbers and
// booleans compare by value, strings by content (trivial, since they
// are interned and therefore also compare by identity), everything
// else by identity.
func RawEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ValueKind(a) != ValueKind(b) {
		return false
	}
	switch av := a.(type) {
	case Number:
		bv := b.(Number)
		return float64(av) == float64(bv)
	case Boolean:
		return av == b.(Boolean)
	case *String:
		return av == b.(*String) // both interned
	default:
		return a == b
	}
}

// ToNumber attempts Lua's string/number coercion: a Number passes
// through, a String is parsed if it looks like a complete numeral,
// anything else fails.
func ToNumber(v Value) (Number, bool) {
	switch x := v.(type) {
	case Number:
		return x, true
	case *String:
		f, ok := parseNumeral(x.content)
		return Number(f), ok
	default:
		return 0, false
	}
}

// ToStringValue formats v the way tostring()/CONCAT do for numbers and
// strings; other types format as "<type>: 0x...".
func ToStringValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case Boolean:
		if x {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(float64(x))
	case *String:
		return string(x.content)
	default:
		return fmt.Sprintf("%s: %p", ValueKind(v), v)
	}
}

// formatNumber renders a Lua number for tostring() and CONCAT:
// integer-valued floats below 1e14 in magnitude print without a
// decimal point, everything else uses the shortest round-trippable
// decimal form.
func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e14 {
		return fmt.Sprintf("%.0f", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// TypeName returns the Lua-visible name of v's type, as type() reports
// it.
func TypeName(v Value) string {
	return ValueKind(v).String()
}
