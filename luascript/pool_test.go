// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luascript

import (
	"context"
	"testing"

	"github.com/lumendb/luascript/internal/luavm"
)

func TestPoolLoadAndEvalSha(t *testing.T) {
	p := NewPool(3, Config{})
	sha, err := p.Load([]byte("return 1+1"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	result, err := p.EvalSha(context.Background(), sha, nil, nil)
	if err != nil {
		t.Fatalf("EvalSha: %v", err)
	}
	if s := luavm.ToStringValue(result); s != "2" {
		t.Errorf("result = %q, want %q", s, "2")
	}
}

func TestPoolEvalShaNoScript(t *testing.T) {
	p := NewPool(1, Config{})
	_, err := p.EvalSha(context.Background(), "0000000000000000000000000000000000000000", nil, nil)
	if err == nil {
		t.Fatal("expected a NOSCRIPT error for an unloaded digest")
	}
}

func TestPoolRoundRobinsAcrossVMs(t *testing.T) {
	p := NewPool(4, Config{})
	seen := make(map[*VM]bool)
	for i := 0; i < 8; i++ {
		seen[p.pick()] = true
	}
	if len(seen) != 4 {
		t.Errorf("pick() visited %d distinct VMs over 8 calls on a pool of 4, want 4", len(seen))
	}
}

func TestPoolWarm(t *testing.T) {
	p := NewPool(2, Config{})
	if err := p.Warm(context.Background()); err != nil {
		t.Fatalf("Warm: %v", err)
	}
}
