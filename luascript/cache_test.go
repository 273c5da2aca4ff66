// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luascript

import (
	"sync"
	"testing"
)

func TestCacheLoadThenGet(t *testing.T) {
	c := NewCache()
	sha, err := c.Load([]byte("return 1"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sha) != 40 {
		t.Errorf("sha1 hex digest length = %d, want 40", len(sha))
	}
	m, ok := c.Get(sha)
	if !ok || m == nil {
		t.Fatal("Get after Load should find the cached module")
	}
}

func TestCacheGetMissing(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("0000000000000000000000000000000000000000")
	if ok {
		t.Error("Get on an unloaded sha1 should report ok=false")
	}
}

func TestCacheLoadSameSourceIsIdempotent(t *testing.T) {
	c := NewCache()
	sha1, err := c.Load([]byte("return 42"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sha2, err := c.Load([]byte("return 42"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sha1 != sha2 {
		t.Errorf("Load of identical source returned different digests: %q vs %q", sha1, sha2)
	}
}

func TestCacheLoadCompileError(t *testing.T) {
	c := NewCache()
	_, err := c.Load([]byte("local = "))
	if err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestCacheConcurrentLoadReturnsSameDigest(t *testing.T) {
	c := NewCache()
	const n = 16
	var wg sync.WaitGroup
	shas := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sha, err := c.Load([]byte("return 1+1"))
			if err != nil {
				t.Errorf("Load: %v", err)
				return
			}
			shas[i] = sha
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if shas[i] != shas[0] {
			t.Errorf("concurrent Load produced inconsistent digests: %q vs %q", shas[i], shas[0])
		}
	}
}
