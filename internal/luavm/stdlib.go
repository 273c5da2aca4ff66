// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luavm

import (
	"io"

	"github.com/lumendb/luascript/bytebuffer"
)

// OpenLibs installs every standard library subset this runtime
// implements (spec.md §4.6) into h's globals.
func OpenLibs(h *Heap) {
	OpenBase(h)
	OpenString(h)
	OpenTable(h)
	OpenMath(h)
}

// bufferString drains buf's accumulated content as a string. string.format,
// string.gsub and table.concat all build their result through a
// bytebuffer.Buffer rather than a strings.Builder, so this is their one
// common exit point back to Lua string values.
func bufferString(buf *bytebuffer.Buffer) string {
	buf.Seek(0, io.SeekStart)
	data, _ := io.ReadAll(buf)
	return string(data)
}
