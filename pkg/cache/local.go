package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// localCache 基于 golang-lru 的进程内缓存，容量满时淘汰最久未使用的项
type localCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, []byte]
}

// NewLocalCache 创建本地缓存；expirable LRU 只有统一的过期时间，单键 ttl 被忽略
func NewLocalCache(config LocalConfig) Cache {
	config = config.withDefaults()
	return &localCache{
		lru: expirable.NewLRU[string, []byte](config.MaxSize, nil, config.DefaultExpiration),
	}
}

func (lc *localCache) Get(_ context.Context, key string) ([]byte, bool) {
	return lc.lru.Get(key)
}

func (lc *localCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	lc.lru.Add(key, value)
	return nil
}

func (lc *localCache) SetNX(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if _, ok := lc.lru.Peek(key); ok {
		return false, nil
	}
	lc.lru.Add(key, value)
	return true, nil
}

func (lc *localCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		lc.lru.Remove(k)
	}
	return nil
}

func (lc *localCache) Close() error {
	lc.lru.Purge()
	return nil
}
