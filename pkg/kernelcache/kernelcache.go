// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package kernelcache caches kernel selections by params fingerprint.
//
// Selection is deterministic, so the descriptor for a fingerprint never changes: the Cache computes it
// at most once, even under concurrent misses, and hands out clones of it.
package kernelcache

import (
	"sync"
	"sync/atomic"

	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/selector"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"k8s.io/klog/v2"
)

// Selector is the interface of what the Cache wraps, usually a *selector.Selector.
type Selector interface {
	Select(p *params.Params) (*selector.Descriptor, error)
}

// Cache of descriptors keyed by params.Fingerprint. It is safe for concurrent use.
type Cache struct {
	selector Selector
	group    singleflight.Group

	mu      sync.RWMutex
	entries map[uuid.UUID]*selector.Descriptor

	hits, misses, computations atomic.Int64
}

// New returns an empty Cache over sel.
func New(sel Selector) *Cache {
	return &Cache{
		selector: sel,
		entries:  make(map[uuid.UUID]*selector.Descriptor),
	}
}

// Stats reports the cache usage.
type Stats struct {
	// Hits and Misses count the calls to Select answered from the cache or not.
	Hits, Misses int64

	// Computations counts the calls made to the underlying selector.
	Computations int64

	// Entries is the number of cached descriptors.
	Entries int
}

// Select returns a clone of the cached descriptor for p, selecting it if needed.
// Errors are returned as is, and are not cached.
func (c *Cache) Select(p *params.Params) (*selector.Descriptor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	fingerprint := params.Fingerprint(p)
	if desc, found := c.lookup(fingerprint); found {
		c.hits.Add(1)
		return desc.Clone(), nil
	}
	c.misses.Add(1)
	v, err, shared := c.group.Do(fingerprint.String(), func() (any, error) {
		if desc, found := c.lookup(fingerprint); found {
			return desc, nil
		}
		c.computations.Add(1)
		desc, err := c.selector.Select(p)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[fingerprint] = desc
		c.mu.Unlock()
		return desc, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		klog.V(3).Infof("kernelcache: shared selection for %s", fingerprint)
	}
	return v.(*selector.Descriptor).Clone(), nil
}

func (c *Cache) lookup(fingerprint uuid.UUID) (*selector.Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, found := c.entries[fingerprint]
	return desc, found
}

// Stats returns the current usage statistics.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Computations: c.computations.Load(),
		Entries:      entries,
	}
}

// Reset drops all cached descriptors. Statistics are kept.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
