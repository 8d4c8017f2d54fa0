package service

import (
	"sync"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
)

// IdentityCache is the session-scoped store of resolved identities.
// It has no eviction beyond Clear, which the portal runs on every login and logout.
// Only RoleResolver writes to it; other components read through Get.
type IdentityCache struct {
	mu         sync.RWMutex
	entries    map[domainauth.IdentityKey]domainauth.Identity
	generation uint64
}

// NewIdentityCache returns an empty cache.
func NewIdentityCache() *IdentityCache {
	return &IdentityCache{entries: make(map[domainauth.IdentityKey]domainauth.Identity)}
}

// Get returns the cached identity for key, including cached no-role results.
func (c *IdentityCache) Get(key domainauth.IdentityKey) (domainauth.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[key]
	return id, ok
}

// Len returns the number of cached identities.
func (c *IdentityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Generation returns the current clear generation.
func (c *IdentityCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Clear drops every entry and starts a new generation.
func (c *IdentityCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[domainauth.IdentityKey]domainauth.Identity)
	c.generation++
}

// set stores id under key only if no Clear happened since generation was read.
// It reports whether the entry was written.
func (c *IdentityCache) set(key domainauth.IdentityKey, id domainauth.Identity, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	c.entries[key] = id
	return true
}
