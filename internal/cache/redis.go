package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

const keyNamespace = "coffee_shop"

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// ProductCache stores serialized products keyed by id.
type ProductCache interface {
	Get(ctx context.Context, id uint) (*models.Product, error)
	Set(ctx context.Context, p *models.Product) error
	Invalidate(ctx context.Context, id uint) error
}

type RedisCache struct {
	store cmdable
	raw   *redis.Client
	ttl   time.Duration
}

// New connects to addr and verifies it with PING.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	raw := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{store: raw, raw: raw, ttl: ttl}, nil
}

func productKey(id uint) string {
	return fmt.Sprintf("%s:product:%d", keyNamespace, id)
}

func (c *RedisCache) Get(ctx context.Context, id uint) (*models.Product, error) {
	raw, err := c.store.Get(ctx, productKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode cached product %d: %w", id, err)
	}
	return &p, nil
}

func (c *RedisCache) Set(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, productKey(p.ID), string(data), c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, id uint) error {
	return c.store.Del(ctx, productKey(id)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// Noop never hits. Used when REDIS_ADDR is empty.
type Noop struct{}

func (Noop) Get(context.Context, uint) (*models.Product, error) { return nil, ErrMiss }
func (Noop) Set(context.Context, *models.Product) error         { return nil }
func (Noop) Invalidate(context.Context, uint) error             { return nil }
