package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

// RedisOrderCache is a read-through cache for order lookups. Callers treat
// every failure as a miss.
type RedisOrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisOrderCache(rdb *redis.Client, ttl time.Duration) *RedisOrderCache {
	return &RedisOrderCache{rdb: rdb, ttl: ttl}
}

var _ usecase.OrderCache = (*RedisOrderCache)(nil)

func key(orderID string) string { return "order:" + orderID }

func (c *RedisOrderCache) Get(ctx context.Context, orderID string) (*entity.Order, bool, error) {
	raw, err := c.rdb.Get(ctx, key(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var o entity.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, false, err
	}
	return &o, true, nil
}

func (c *RedisOrderCache) Set(ctx context.Context, order *entity.Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(order.ID), raw, c.ttl).Err()
}

func (c *RedisOrderCache) Invalidate(ctx context.Context, orderID string) error {
	return c.rdb.Del(ctx, key(orderID)).Err()
}
