package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NewCache 创建缓存实例
func NewCache(config Config) (Cache, error) {
	switch strings.ToLower(config.Type) {
	case "", "lru", "local":
		return NewLocalCache(config.Local), nil
	case "gocache":
		return NewGoCache(config.Local), nil
	case "redis":
		return NewRedisCache(config.Redis)
	case "layered":
		remote, err := NewRedisCache(config.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		return NewLayered(NewLocalCache(config.Local), remote), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}

// layeredCache 分层缓存（本地一级 + 分布式二级）
type layeredCache struct {
	local       Cache
	distributed Cache
}

// NewLayered 组合本地缓存与分布式缓存
func NewLayered(local, distributed Cache) Cache {
	return &layeredCache{local: local, distributed: distributed}
}

// Get 本地未命中时回源分布式缓存并回填
func (lc *layeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := lc.local.Get(ctx, key); ok {
		return v, true
	}
	v, ok := lc.distributed.Get(ctx, key)
	if ok {
		_ = lc.local.Set(ctx, key, v, 0)
	}
	return v, ok
}

func (lc *layeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := lc.distributed.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return lc.local.Set(ctx, key, value, ttl)
}

// SetNX 以分布式缓存的结果为准
func (lc *layeredCache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := lc.distributed.SetNX(ctx, key, value, ttl)
	if err != nil || !ok {
		return ok, err
	}
	return true, lc.local.Set(ctx, key, value, ttl)
}

func (lc *layeredCache) Delete(ctx context.Context, keys ...string) error {
	if err := lc.local.Delete(ctx, keys...); err != nil {
		return err
	}
	return lc.distributed.Delete(ctx, keys...)
}

func (lc *layeredCache) Close() error {
	if err := lc.local.Close(); err != nil {
		return err
	}
	return lc.distributed.Close()
}
