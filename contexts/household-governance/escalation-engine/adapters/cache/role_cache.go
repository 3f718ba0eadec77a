package cache

import (
	"context"
	"sync"
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	"hearth/contexts/household-governance/escalation-engine/ports"

	lru "github.com/hashicorp/golang-lru"
)

const DefaultSize = 4096

// RoleCache is a bounded in-process role cache. Entries expire at the time
// given to Set; expired entries are dropped on read.
type RoleCache struct {
	mu      sync.Mutex
	entries *lru.Cache
}

type entry struct {
	role      entities.Role
	expiresAt time.Time
}

func NewRoleCache(size int) (*RoleCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &RoleCache{entries: entries}, nil
}

func (c *RoleCache) Get(_ context.Context, familyID string, userID string, now time.Time) (entities.Role, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(familyID, userID)
	raw, ok := c.entries.Get(key)
	if !ok {
		return "", false, nil
	}
	item := raw.(entry)
	if !now.Before(item.expiresAt) {
		c.entries.Remove(key)
		return "", false, nil
	}
	return item.role, true, nil
}

func (c *RoleCache) Set(_ context.Context, familyID string, userID string, role entities.Role, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(cacheKey(familyID, userID), entry{role: role, expiresAt: expiresAt})
	return nil
}

func (c *RoleCache) Invalidate(_ context.Context, familyID string, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(cacheKey(familyID, userID))
	return nil
}

func (c *RoleCache) Len() int {
	return c.entries.Len()
}

func cacheKey(familyID string, userID string) string {
	return familyID + "|" + userID
}

var _ ports.RoleCache = (*RoleCache)(nil)
