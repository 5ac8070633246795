package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jepet/models"
	"jepet/services/identity"

	"github.com/go-redis/redis/v8"
)

// DefaultTTL is how long an untouched device cache survives.
const DefaultTTL = 30 * 24 * time.Hour

// RedisCache stores device entries under jepet:device:{device}:{field}.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func key(device, field string) string {
	return fmt.Sprintf("jepet:device:%s:%s", device, field)
}

func (c *RedisCache) getJSON(ctx context.Context, k string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", k, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		// A corrupt entry is treated as absent.
		c.client.Del(ctx, k)
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, k string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", k, err)
	}
	if err := c.client.Set(ctx, k, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", k, err)
	}
	return nil
}

func (c *RedisCache) del(ctx context.Context, k string) error {
	if err := c.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", k, err)
	}
	return nil
}

func (c *RedisCache) LoadProfile(ctx context.Context, device string) (*models.Profile, error) {
	var p models.Profile
	ok, err := c.getJSON(ctx, key(device, "session"), &p)
	if !ok || err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *RedisCache) SaveProfile(ctx context.Context, device string, p *models.Profile) error {
	return c.setJSON(ctx, key(device, "session"), p)
}

func (c *RedisCache) ClearProfile(ctx context.Context, device string) error {
	return c.del(ctx, key(device, "session"))
}

func (c *RedisCache) LoadView(ctx context.Context, device string) (models.View, error) {
	v, err := c.client.Get(ctx, key(device, "view")).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read view: %w", err)
	}
	return models.View(v), nil
}

func (c *RedisCache) SaveView(ctx context.Context, device string, v models.View) error {
	if err := c.client.Set(ctx, key(device, "view"), string(v), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write view: %w", err)
	}
	return nil
}

func (c *RedisCache) ClearView(ctx context.Context, device string) error {
	return c.del(ctx, key(device, "view"))
}

func (c *RedisCache) LoadCredential(ctx context.Context, device string) (*identity.User, error) {
	var u identity.User
	ok, err := c.getJSON(ctx, key(device, "credential"), &u)
	if !ok || err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *RedisCache) SaveCredential(ctx context.Context, device string, u *identity.User) error {
	return c.setJSON(ctx, key(device, "credential"), u)
}

func (c *RedisCache) ClearCredential(ctx context.Context, device string) error {
	return c.del(ctx, key(device, "credential"))
}
