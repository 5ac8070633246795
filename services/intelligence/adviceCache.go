package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const advicePrefix = "jepet:advice:"

type RedisAdviceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdviceCache(client *redis.Client, ttl time.Duration) *RedisAdviceCache {
	return &RedisAdviceCache{client: client, ttl: ttl}
}

func (c *RedisAdviceCache) Get(ctx context.Context, key string) (string, bool, error) {
	advice, err := c.client.Get(ctx, advicePrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return advice, true, nil
}

func (c *RedisAdviceCache) Set(ctx context.Context, key, advice string) error {
	return c.client.Set(ctx, advicePrefix+key, advice, c.ttl).Err()
}

// adviceKey hashes the question and species after folding case and whitespace.
func adviceKey(question, petType string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(question), " ")) + "|" + strings.ToLower(strings.TrimSpace(petType))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}
