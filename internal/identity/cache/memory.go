package cache

import (
	"context"
	"sync"
	"time"

	"veriledger/pkg/domain"
)

type entry struct {
	verified  bool
	expiresAt time.Time
}

// InMemory is a TTL map cache for single-process deployments.
type InMemory struct {
	mu      sync.RWMutex
	entries map[domain.WalletID]entry
	ttl     time.Duration
}

func NewInMemory(ttl time.Duration) *InMemory {
	return &InMemory{
		entries: make(map[domain.WalletID]entry),
		ttl:     ttl,
	}
}

func (c *InMemory) Get(ctx context.Context, wallet domain.WalletID) (bool, bool) {
	c.mu.RLock()
	e, ok := c.entries[wallet]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return false, false
	}
	return e.verified, true
}

func (c *InMemory) Set(ctx context.Context, wallet domain.WalletID, verified bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[wallet] = entry{verified: verified, expiresAt: time.Now().Add(c.ttl)}
}

func (c *InMemory) Invalidate(ctx context.Context, wallet domain.WalletID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, wallet)
}

func (c *InMemory) InvalidateAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[domain.WalletID]entry)
}
