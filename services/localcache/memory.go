package localcache

import (
	"context"
	"sync"

	"jepet/models"
	"jepet/services/identity"
)

// MemoryCache keeps device entries in process memory.
type MemoryCache struct {
	mu          sync.RWMutex
	profiles    map[string]*models.Profile
	views       map[string]models.View
	credentials map[string]identity.User
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		profiles:    make(map[string]*models.Profile),
		views:       make(map[string]models.View),
		credentials: make(map[string]identity.User),
	}
}

func (c *MemoryCache) LoadProfile(_ context.Context, device string) (*models.Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles[device].Clone(), nil
}

func (c *MemoryCache) SaveProfile(_ context.Context, device string, p *models.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[device] = p.Clone()
	return nil
}

func (c *MemoryCache) ClearProfile(_ context.Context, device string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, device)
	return nil
}

func (c *MemoryCache) LoadView(_ context.Context, device string) (models.View, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.views[device], nil
}

func (c *MemoryCache) SaveView(_ context.Context, device string, v models.View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[device] = v
	return nil
}

func (c *MemoryCache) ClearView(_ context.Context, device string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, device)
	return nil
}

func (c *MemoryCache) LoadCredential(_ context.Context, device string) (*identity.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.credentials[device]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (c *MemoryCache) SaveCredential(_ context.Context, device string, u *identity.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credentials[device] = *u
	return nil
}

func (c *MemoryCache) ClearCredential(_ context.Context, device string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.credentials, device)
	return nil
}
