// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"strings"

	"github.com/lumendb/luascript/internal/lualex"
)

// parseNumeral implements the "string→number" coercion spec.md §4.5.3
// requires for arithmetic and tonumber(): leading/trailing whitespace
// is trimmed, an optional sign is peeled off, and the remainder must
// be a complete Lua numeral (decimal or 0x hex) with nothing left over.
func parseNumeral(s []byte) (float64, bool) {
	str := strings.TrimSpace(string(s))
	if str == "" {
		return 0, false
	}
	neg := false
	if str[0] == '+' || str[0] == '-' {
		neg = str[0] == '-'
		str = str[1:]
	}
	if str == "" {
		return 0, false
	}
	f, err := lualex.ParseNumber(str)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
