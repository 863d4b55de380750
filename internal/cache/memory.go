package cache

import (
	"context"
	"time"

	"roleconsole/internal/permission"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is an in-process expirable LRU, used when no redis is configured
type MemoryCache struct {
	entries *lru.LRU[uuid.UUID, permission.Matrix]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size < 1 {
		size = 256
	}
	return &MemoryCache{entries: lru.NewLRU[uuid.UUID, permission.Matrix](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, roleID uuid.UUID) (permission.Matrix, bool, error) {
	m, ok := c.entries.Get(roleID)
	if !ok {
		return nil, false, nil
	}
	return m.Clone(), true, nil
}

func (c *MemoryCache) Set(_ context.Context, roleID uuid.UUID, m permission.Matrix) error {
	c.entries.Add(roleID, m.Clone())
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, roleID uuid.UUID) error {
	c.entries.Remove(roleID)
	return nil
}
