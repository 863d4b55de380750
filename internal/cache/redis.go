package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roleconsole/internal/permission"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache shares cached matrices between console instances
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects and pings the server
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(roleID uuid.UUID) string {
	return c.prefix + "perm:" + roleID.String()
}

func (c *RedisCache) Get(ctx context.Context, roleID uuid.UUID) (permission.Matrix, bool, error) {
	raw, err := c.client.Get(ctx, c.key(roleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached permissions: %w", err)
	}

	var m permission.Matrix
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached permissions: %w", err)
	}
	return m, true, nil
}

func (c *RedisCache) Set(ctx context.Context, roleID uuid.UUID, m permission.Matrix) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}
	return c.client.Set(ctx, c.key(roleID), raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, roleID uuid.UUID) error {
	return c.client.Del(ctx, c.key(roleID)).Err()
}
