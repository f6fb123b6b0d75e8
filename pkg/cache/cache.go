package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotSupported 后端不支持该操作
var ErrNotSupported = errors.New("cache: operation not supported")

// Cache 字节缓存接口，值的编解码由调用方负责
type Cache interface {
	// Get 获取缓存值
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set 设置缓存值，ttl<=0 时使用默认过期时间
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX 键不存在时才写入，返回是否写入成功
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete 删除缓存
	Delete(ctx context.Context, keys ...string) error

	// Close 关闭缓存连接
	Close() error
}

// Config 缓存配置
type Config struct {
	// 缓存类型: lru | gocache | redis | layered
	Type  string
	Redis RedisConfig
	Local LocalConfig
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// 键前缀，多个服务共用一个 Redis 时区分
	Prefix string
}

// LocalConfig 本地缓存配置
type LocalConfig struct {
	// 最大缓存项数
	MaxSize int
	// 默认过期时间
	DefaultExpiration time.Duration
	// 清理间隔（仅 gocache）
	CleanupInterval time.Duration
}

func (c LocalConfig) withDefaults() LocalConfig {
	if c.MaxSize <= 0 {
		c.MaxSize = 1000
	}
	if c.DefaultExpiration <= 0 {
		c.DefaultExpiration = 5 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 10 * time.Minute
	}
	return c
}
