// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luascript

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"

	"github.com/lumendb/luascript/lerr"
	"golang.org/x/sync/singleflight"
)

// Cache is the EVALSHA analogue: a SHA1-keyed store of compiled
// Modules. Concurrent Load calls for the same source compile it
// exactly once, the way a real Redis server's script cache does for
// a thundering herd of EVAL requests carrying the same script.
type Cache struct {
	mu      sync.RWMutex
	modules map[string]*Module
	group   singleflight.Group
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{modules: make(map[string]*Module)}
}

// Load compiles source if its SHA1 isn't already cached, and returns
// that SHA1 either way — the value a later EvalSha call expects.
func (c *Cache) Load(source []byte) (sha string, lerrErr *lerr.Error) {
	sum := sha1.Sum(source)
	sha = hex.EncodeToString(sum[:])

	c.mu.RLock()
	_, ok := c.modules[sha]
	c.mu.RUnlock()
	if ok {
		return sha, nil
	}

	_, err, _ := c.group.Do(sha, func() (any, error) {
		c.mu.RLock()
		m, ok := c.modules[sha]
		c.mu.RUnlock()
		if ok {
			return m, nil
		}
		m, cerr := Compile(source, sha)
		if cerr != nil {
			return nil, cerr
		}
		c.mu.Lock()
		c.modules[sha] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return "", err.(*lerr.Error)
	}
	return sha, nil
}

// Get returns the Module cached under sha1, or ok=false if no script
// has been loaded under that digest (Redis's NOSCRIPT case).
func (c *Cache) Get(sha1 string) (*Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modules[sha1]
	return m, ok
}
