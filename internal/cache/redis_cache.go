package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"smartpurse/backend/internal/domain"
)

type RedisStoreCache struct {
	client *redis.Client
}

func NewRedisStoreCache(addr string, password string, db int) *RedisStoreCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStoreCache{client: client}
}

func (c *RedisStoreCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStoreCache) Close() error {
	return c.client.Close()
}

func (c *RedisStoreCache) Get(ctx context.Context, storeID string) ([]domain.Store, bool, error) {
	val, err := c.client.Get(ctx, storeKey(storeID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var stores []domain.Store
	if err := json.Unmarshal([]byte(val), &stores); err != nil {
		return nil, false, err
	}
	return stores, true, nil
}

// Set skips empty results so a store created later is visible at once.
func (c *RedisStoreCache) Set(ctx context.Context, storeID string, stores []domain.Store, ttl time.Duration) error {
	if len(stores) == 0 || ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(stores)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, storeKey(storeID), payload, ttl).Err()
}
