package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

// RedisWebhookDedup remembers processed (payment id, status) pairs in a
// shared store with a TTL, so duplicate suppression survives restarts and
// horizontal scaling.
type RedisWebhookDedup struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisWebhookDedup(rdb *redis.Client, ttl time.Duration) *RedisWebhookDedup {
	return &RedisWebhookDedup{rdb: rdb, ttl: ttl}
}

var _ usecase.WebhookDedup = (*RedisWebhookDedup)(nil)

func (s *RedisWebhookDedup) FirstDelivery(ctx context.Context, paymentID string, status entity.PaymentStatus) (bool, error) {
	return s.rdb.SetNX(ctx, "webhook:"+paymentID+":"+string(status), "1", s.ttl).Result()
}
