// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import "github.com/lumendb/luascript/lerr"

// Lua pattern matching, the backtracking mini-language behind
// string.find/match/gmatch/gsub (spec.md §9 Open Question "Pattern
// matching scope", resolved toward full patterns rather than the
// distillation's literal-only reduction). Grounded on the structure
// of the teacher's own from-scratch Lua implementation at
// internal/lua/pattern.go: a recursive single-character-class matcher
// with capture bookkeeping, reimplemented here against this runtime's
// *String/byte-slice types instead of that package's value stack.

const maxCaptures = 32

type capture struct {
	start int
	len   int // -1 while open, captureLenPosition for a position capture
}

const captureLenPosition = -2

type matchState struct {
	src, pat []byte
	caps     []capture
}

// patternError reports a malformed pattern, distinct from an ordinary
// no-match result.
type patternError struct{ msg string }

func (e *patternError) Error() string { return e.msg }

func classEnd(pat []byte, p int) (int, error) {
	if p >= len(pat) {
		return 0, &patternError{"malformed pattern (ends with '%')"}
	}
	c := pat[p]
	p++
	if c == '%' {
		if p >= len(pat) {
			return 0, &patternError{"malformed pattern (ends with '%')"}
		}
		return p + 1, nil
	}
	if c == '[' {
		if p < len(pat) && pat[p] == '^' {
			p++
		}
		for {
			if p >= len(pat) {
				return 0, &patternError{"malformed pattern (missing ']')"}
			}
			cc := pat[p]
			p++
			if cc == '%' {
				if p >= len(pat) {
					return 0, &patternError{"malformed pattern (ends with '%')"}
				}
				p++
			} else if cc == ']' {
				return p, nil
			}
		}
	}
	return p, nil
}

func matchClass(c byte, cl byte) bool {
	var res bool
	switch lower(cl) {
	case 'a':
		res = isAlpha(c)
	case 'd':
		res = c >= '0' && c <= '9'
	case 'l':
		res = c >= 'a' && c <= 'z'
	case 's':
		res = isSpace(c)
	case 'u':
		res = c >= 'A' && c <= 'Z'
	case 'w':
		res = isAlpha(c) || (c >= '0' && c <= '9')
	case 'c':
		res = c < 32 || c == 127
	case 'p':
		res = isPunct(c)
	case 'x':
		res = isHexDigit(c)
	default:
		return cl == c
	}
	if cl >= 'A' && cl <= 'Z' {
		return !res
	}
	return res
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
func isPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}
func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func matchClassSet(c byte, pat []byte, p, ep int) bool {
	negate := false
	p++ // skip '['
	if pat[p] == '^' {
		negate = true
		p++
	}
	for p < ep {
		if pat[p] == '%' {
			p++
			if matchClass(c, pat[p]) {
				return !negate
			}
			p++
		} else if p+2 < ep && pat[p+1] == '-' {
			if pat[p] <= c && c <= pat[p+2] {
				return !negate
			}
			p += 3
		} else {
			if pat[p] == c {
				return !negate
			}
			p++
		}
	}
	return negate
}

func singleMatch(ms *matchState, s, p, ep int) bool {
	if s >= len(ms.src) {
		return false
	}
	c := ms.src[s]
	switch ms.pat[p] {
	case '.':
		return true
	case '%':
		return matchClass(c, ms.pat[p+1])
	case '[':
		return matchClassSet(c, ms.pat, p, ep-1)
	default:
		return ms.pat[p] == c
	}
}

// match attempts to match ms.pat[p:] against ms.src[s:], returning the
// end index of the match in src, or -1 on failure. It mutates
// ms.caps as captures open/close, matching the reference
// implementation's single-pass backtracking approach.
func match(ms *matchState, s, p int) (int, error) {
	if p >= len(ms.pat) {
		return s, nil
	}
	switch ms.pat[p] {
	case '(':
		if p+1 < len(ms.pat) && ms.pat[p+1] == ')' {
			return startCapture(ms, s, p+2, captureLenPosition)
		}
		return startCapture(ms, s, p+1, -1)
	case ')':
		return endCapture(ms, s, p+1)
	case '$':
		if p+1 == len(ms.pat) {
			if s == len(ms.src) {
				return s, nil
			}
			return -1, nil
		}
	case '%':
		if p+1 < len(ms.pat) {
			switch ms.pat[p+1] {
			case 'b':
				return matchBalance(ms, s, p+2)
			case 'f':
				p2 := p + 2
				if p2 >= len(ms.pat) || ms.pat[p2] != '[' {
					return 0, &patternError{"missing '[' after '%f' in pattern"}
				}
				ep, err := classEnd(ms.pat, p2)
				if err != nil {
					return 0, err
				}
				var prev byte
				if s > 0 {
					prev = ms.src[s-1]
				}
				var cur byte
				if s < len(ms.src) {
					cur = ms.src[s]
				}
				if !matchClassSet(prev, ms.pat, p2, ep-1) && matchClassSet(cur, ms.pat, p2, ep-1) {
					return match(ms, s, ep)
				}
				return -1, nil
			default:
				if ms.pat[p+1] >= '0' && ms.pat[p+1] <= '9' {
					return matchCapture(ms, s, p)
				}
			}
		}
	}
	ep, err := classEnd(ms.pat, p)
	if err != nil {
		return 0, err
	}
	var suffix byte
	if ep < len(ms.pat) {
		suffix = ms.pat[ep]
	}
	switch suffix {
	case '?':
		if singleMatch(ms, s, p, ep) {
			if r, err := match(ms, s+1, ep+1); err != nil || r != -1 {
				return r, err
			}
		}
		return match(ms, s, ep+1)
	case '*':
		return maxExpand(ms, s, p, ep)
	case '+':
		if singleMatch(ms, s, p, ep) {
			return maxExpand(ms, s+1, p, ep)
		}
		return -1, nil
	case '-':
		return minExpand(ms, s, p, ep)
	default:
		if !singleMatch(ms, s, p, ep) {
			return -1, nil
		}
		return match(ms, s+1, ep)
	}
}

func maxExpand(ms *matchState, s, p, ep int) (int, error) {
	i := 0
	for singleMatch(ms, s+i, p, ep) {
		i++
	}
	for i >= 0 {
		r, err := match(ms, s+i, ep+1)
		if err != nil {
			return 0, err
		}
		if r != -1 {
			return r, nil
		}
		i--
	}
	return -1, nil
}

func minExpand(ms *matchState, s, p, ep int) (int, error) {
	for {
		r, err := match(ms, s, ep+1)
		if err != nil {
			return 0, err
		}
		if r != -1 {
			return r, nil
		}
		if singleMatch(ms, s, p, ep) {
			s++
		} else {
			return -1, nil
		}
	}
}

func startCapture(ms *matchState, s, p, what int) (int, error) {
	ms.caps = append(ms.caps, capture{start: s, len: what})
	r, err := match(ms, s, p)
	if err != nil {
		return 0, err
	}
	if r == -1 {
		ms.caps = ms.caps[:len(ms.caps)-1]
	}
	return r, nil
}

func endCapture(ms *matchState, s, p int) (int, error) {
	idx := -1
	for i := len(ms.caps) - 1; i >= 0; i-- {
		if ms.caps[i].len == -1 {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0, &patternError{"invalid pattern capture"}
	}
	ms.caps[idx].len = s - ms.caps[idx].start
	r, err := match(ms, s, p)
	if err != nil {
		return 0, err
	}
	if r == -1 {
		ms.caps[idx].len = -1
	}
	return r, nil
}

func matchCapture(ms *matchState, s, p int) (int, error) {
	idx := int(ms.pat[p+1] - '1')
	if idx < 0 || idx >= len(ms.caps) || ms.caps[idx].len < 0 {
		return 0, &patternError{"invalid capture index"}
	}
	captured := ms.src[ms.caps[idx].start : ms.caps[idx].start+ms.caps[idx].len]
	if s+len(captured) <= len(ms.src) && string(ms.src[s:s+len(captured)]) == string(captured) {
		return match(ms, s+len(captured), p+2)
	}
	return -1, nil
}

func matchBalance(ms *matchState, s, p int) (int, error) {
	if p+1 >= len(ms.pat) {
		return 0, &patternError{"missing arguments to '%b'"}
	}
	if s >= len(ms.src) || ms.src[s] != ms.pat[p] {
		return -1, nil
	}
	b, e := ms.pat[p], ms.pat[p+1]
	depth := 1
	i := s + 1
	for i < len(ms.src) {
		if ms.src[i] == e {
			depth--
			if depth == 0 {
				return match(ms, i+1, p+2)
			}
		} else if ms.src[i] == b {
			depth++
		}
		i++
	}
	return -1, nil
}

// MatchResult is the outcome of a single pattern match: the matched
// span and any explicit captures (or, with no captures, the whole
// span as an implicit one).
type MatchResult struct {
	Start, End int
	Captures   []capture
	Src        []byte
}

// CaptureValue converts the i'th capture to the Value find/match/gsub
// return: a substring, or an integer position for a "()" capture.
func (r MatchResult) CaptureValue(i int, h *Heap) Value {
	c := r.Captures[i]
	if c.len == captureLenPosition {
		return Number(c.start + 1)
	}
	return h.InternString(r.Src[c.start : c.start+c.len])
}

// FindPattern searches src for pat starting at init (a 0-based byte
// offset), honoring a leading '^' anchor. It returns ok=false if there
// is no match anywhere at or after init.
func FindPattern(src, pat []byte, init int) (result MatchResult, ok bool, err error) {
	anchor := len(pat) > 0 && pat[0] == '^'
	p := 0
	if anchor {
		p = 1
	}
	for s := init; s <= len(src); s++ {
		ms := &matchState{src: src, pat: pat}
		e, merr := match(ms, s, p)
		if merr != nil {
			return MatchResult{}, false, merr
		}
		if e != -1 {
			return MatchResult{Start: s, End: e, Captures: ms.caps, Src: src}, true, nil
		}
		if anchor {
			break
		}
	}
	return MatchResult{}, false, nil
}

// wrapPatternError converts a *patternError into a Lua-visible
// ArgumentError at the given argument index.
func wrapPatternError(n int, err error) error {
	return &errorObject{Error: lerr.ArgumentError(lerr.Position{}, n, "%s", err.Error())}
}
