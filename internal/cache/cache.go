// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具
//
// Package cache stores probed media durations keyed by file identity.

package cache

import (
	"os"
	"sync"
)

// Key identifies a specific version of a file
type Key struct {
	Path    string
	Size    int64
	ModTime int64
}

// KeyFor stats path and returns its cache key
func KeyFor(path string) (Key, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Key{}, err
	}
	return Key{Path: path, Size: info.Size(), ModTime: info.ModTime().UnixNano()}, nil
}

// Cache stores durations in seconds
type Cache interface {
	Get(key Key) (float64, bool)
	Put(key Key, seconds float64) error
	Close() error
}

type memory struct {
	entries map[Key]float64
	mu      sync.RWMutex
}

// NewMemory returns an in-process cache
func NewMemory() Cache {
	return &memory{entries: make(map[Key]float64)}
}

func (c *memory) Get(key Key) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[key]
	return d, ok
}

func (c *memory) Put(key Key, seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = seconds
	return nil
}

func (c *memory) Close() error { return nil }

type nop struct{}

// NewNop returns a cache that never hits
func NewNop() Cache { return nop{} }

func (nop) Get(Key) (float64, bool) { return 0, false }
func (nop) Put(Key, float64) error { return nil }
func (nop) Close() error { return nil }
