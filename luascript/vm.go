// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luascript

import (
	"context"
	"io"

	"github.com/lumendb/luascript/internal/luavm"
	"github.com/lumendb/luascript/lerr"
	"github.com/lumendb/luascript/sets"
	"zombiezen.com/go/log"
)

// Config configures a VM (and, by extension, every VM a Pool manages).
// The zero value is usable: a zeroed Limits is read as "use
// luavm.DefaultLimits()" rather than "no limits at all", output is
// discarded, and the default logger is left untouched.
type Config struct {
	Limits luavm.Limits
	Output io.Writer // print() destination; defaults to io.Discard
	Logger *log.Logger
}

// VM is one heap plus the standard library installed on it: the unit
// of isolation between unrelated scripts. A VM is not safe for
// concurrent Execute calls — use a Pool for that.
type VM struct {
	heap      *luavm.Heap
	cfg       Config
	hostNames sets.Set[string] // names installed via RegisterGoFunction
}

// New constructs a VM with the base/string/table/math standard library
// already installed. A zero-value cfg.Limits is replaced with
// luavm.DefaultLimits(): leaving Limits unset must still enforce the
// specification's resource caps, not disable them (spec.md §5).
func New(cfg Config) *VM {
	if cfg.Limits == (luavm.Limits{}) {
		cfg.Limits = luavm.DefaultLimits()
	}
	if cfg.Logger != nil {
		log.SetDefault(cfg.Logger)
	}
	h := luavm.NewHeap()
	luavm.OpenLibs(h)
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	h.SetStdout(out)
	return &VM{heap: h, cfg: cfg, hostNames: sets.New[string]()}
}

// RegisterGoFunction installs a host function into the VM's globals,
// the mechanism a Redis-compatible host uses to expose redis.call and
// friends without teaching luavm anything about RESP. It panics if name
// was already registered, catching two packages racing to claim the
// same global during setup.
func (vm *VM) RegisterGoFunction(name string, fn luavm.GoFunction) {
	if vm.hostNames.Has(name) {
		panic("luascript: host function " + name + " already registered")
	}
	vm.hostNames.Add(name)
	vm.heap.Globals().Set(vm.heap.InternStringLiteral(name), &fn)
}

// Execute instantiates m as a closure over this VM's globals and calls
// it with KEYS and ARGV bound as 1-based Lua arrays, returning its
// first result. Cancelling ctx kills the running script at its next
// instruction boundary rather than blocking until natural completion.
func (vm *VM) Execute(ctx context.Context, m *Module, keys, argv []string) (luavm.Value, *lerr.Error) {
	th := luavm.NewThread(vm.heap, vm.cfg.Limits)

	if ctx != nil {
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				th.Kill()
			case <-done:
			}
		}()
	}

	vm.heap.Globals().Set(vm.heap.InternStringLiteral("KEYS"), stringsToTable(vm.heap, keys))
	vm.heap.Globals().Set(vm.heap.InternStringLiteral("ARGV"), stringsToTable(vm.heap, argv))

	cl := vm.heap.NewClosure(m.proto, nil, vm.heap.Globals())
	results, err := th.Call(cl, nil)
	if err != nil {
		return nil, luavm.AsError(err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func stringsToTable(h *luavm.Heap, ss []string) *luavm.Table {
	t := h.NewTable(len(ss), 0)
	for i, s := range ss {
		t.Set(luavm.Number(i+1), h.InternStringLiteral(s))
	}
	return t
}
