// Package rdx holds the shared cache used for read-heavy listings. Redis is
// used when configured; otherwise an in-process cache stands in.
package rdx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jane4246/coffee-advisory/globals"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

var (
	Conn *redis.Client
	// Default is what handlers read through. Replaced by Init when Redis is up.
	Default Cache = NewMemoryCache(10 * time.Minute)
)

// Init connects to Redis and makes it the default cache.
func Init(ctx context.Context, addr, password string) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis %s: %w", addr, err)
	}
	Conn = client
	Default = &RedisCache{client: client}
	return nil
}

func Close() error {
	if Conn == nil {
		return nil
	}
	return Conn.Close()
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			globals.Logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		globals.Logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		globals.Logger.Warn("redis del failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(cleanup time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(gocache.NoExpiration, cleanup)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	m.c.Set(key, val, ttl)
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) {
	for _, k := range keys {
		m.c.Delete(k)
	}
}
