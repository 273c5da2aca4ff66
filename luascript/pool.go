// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luascript

import (
	"context"
	"sync/atomic"

	"github.com/lumendb/luascript/internal/luavm"
	"github.com/lumendb/luascript/lerr"
	"golang.org/x/sync/errgroup"
)

// Pool is a fixed-size set of independently-heaped VMs sharing one
// script Cache, the library's answer to a Redis worker pool where
// each connection gets its own Lua state but scripts are compiled
// once. A Pool's VMs are never shared concurrently: EvalSha rotates
// through them round-robin, so two requests never race inside one
// heap's globals table.
type Pool struct {
	cfg   Config
	vms   []*VM
	next  atomic.Uint64
	cache *Cache
}

// NewPool constructs a Pool of n VMs, each configured identically by
// cfg.
func NewPool(n int, cfg Config) *Pool {
	p := &Pool{cfg: cfg, vms: make([]*VM, n), cache: NewCache()}
	for i := range p.vms {
		p.vms[i] = New(cfg)
	}
	return p
}

// Warm runs a no-op pass across every pooled VM concurrently via
// errgroup, the hook a future backend (e.g. one that JIT-compiles hot
// Prototypes) would use to front-load per-VM setup before traffic
// arrives.
func (p *Pool) Warm(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, vm := range p.vms {
		vm := vm
		g.Go(func() error {
			_ = vm
			return nil
		})
	}
	return g.Wait()
}

// Load compiles source into the Pool's shared Cache and returns its
// SHA1, the value scripts pass to EvalSha thereafter.
func (p *Pool) Load(source []byte) (sha1 string, err *lerr.Error) {
	return p.cache.Load(source)
}

// EvalSha runs the Module cached under sha1 on the next VM in
// round-robin rotation. It fails with a KindGeneric "NOSCRIPT" error
// if sha1 was never Loaded, mirroring Redis's own EVALSHA contract.
func (p *Pool) EvalSha(ctx context.Context, sha1 string, keys, argv []string) (luavm.Value, *lerr.Error) {
	m, ok := p.cache.Get(sha1)
	if !ok {
		return nil, lerr.Generic(lerr.Position{}, "NOSCRIPT No matching script. Please use EVAL.")
	}
	vm := p.pick()
	return vm.Execute(ctx, m, keys, argv)
}

func (p *Pool) pick() *VM {
	i := p.next.Add(1) - 1
	return p.vms[i%uint64(len(p.vms))]
}
