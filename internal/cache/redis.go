package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arabon-backend/config"
	"arabon-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client   *redis.Client
	statsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, statsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		statsTTL: statsTTL,
	}
}

// AcquireSlotLock takes a short advisory lock on a slot so that concurrent
// confirmations for the same slot are shed before touching the wallet. The
// database conditional update stays the authoritative gate.
func (c *RedisCache) AcquireSlotLock(ctx context.Context, slotID uuid.UUID, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, slotLockKey(slotID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSlotLock(ctx context.Context, slotID uuid.UUID) error {
	return c.client.Del(ctx, slotLockKey(slotID)).Err()
}

func (c *RedisCache) GetKpis(ctx context.Context, offerID *uuid.UUID) (*domain.BookingKpis, error) {
	data, err := c.client.Get(ctx, kpisKey(offerID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var kpis domain.BookingKpis
	if err := json.Unmarshal(data, &kpis); err != nil {
		return nil, err
	}
	return &kpis, nil
}

func (c *RedisCache) SetKpis(ctx context.Context, offerID *uuid.UUID, kpis *domain.BookingKpis) error {
	payload, err := json.Marshal(kpis)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, kpisKey(offerID), payload, c.statsTTL).Err()
}

func (c *RedisCache) InvalidateKpis(ctx context.Context, offerID uuid.UUID) error {
	return c.client.Del(ctx, kpisKey(&offerID), kpisKey(nil)).Err()
}

func slotLockKey(slotID uuid.UUID) string {
	return fmt.Sprintf("lock:slot:%s", slotID)
}

func kpisKey(offerID *uuid.UUID) string {
	if offerID == nil {
		return "cache:kpis:all"
	}
	return fmt.Sprintf("cache:kpis:%s", offerID)
}
