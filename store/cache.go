// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/danielhkuo/anonvote/models"
)

// CachedCredentials serves snapshots from memory for up to TTL. Upserts go
// through to the wrapped store and drop the cached copy.
type CachedCredentials struct {
	next CredentialStore
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	snap    models.Snapshot
	fetched time.Time
}

// NewCachedCredentials wraps next. A non-positive ttl disables caching.
func NewCachedCredentials(next CredentialStore, ttl time.Duration) *CachedCredentials {
	return &CachedCredentials{next: next, ttl: ttl, now: time.Now}
}

func (c *CachedCredentials) Snapshot(ctx context.Context) (models.Snapshot, error) {
	if c.ttl <= 0 {
		return c.next.Snapshot(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil && c.now().Sub(c.fetched) < c.ttl {
		return maps.Clone(c.snap), nil
	}

	snap, err := c.next.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	c.snap = snap
	c.fetched = c.now()
	return maps.Clone(snap), nil
}

// Upsert drops the cache on both sides of the write. A Snapshot that lands
// mid-write may cache the old registry; the second Invalidate discards it.
func (c *CachedCredentials) Upsert(ctx context.Context, rec models.CredentialRecord) error {
	c.Invalidate()
	defer c.Invalidate()
	return c.next.Upsert(ctx, rec)
}

// Invalidate drops the cached snapshot.
func (c *CachedCredentials) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}
